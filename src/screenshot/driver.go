package screenshot

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"screen-solver/src/messages"
)

// DefaultHideDelay gives the window manager time to finish hiding the
// overlay; capturing earlier would include the overlay in the image.
const DefaultHideDelay = 200 * time.Millisecond

// Overlay is the part of the overlay controller the driver needs.
type Overlay interface {
	Notify(msg messages.Message)
	Hide()
	Show()
}

type Driver struct {
	Provider  Provider
	Overlay   Overlay
	Dir       string
	HideDelay time.Duration

	now func() time.Time
}

func NewDriver(provider Provider, overlay Overlay, dir string) *Driver {
	return &Driver{
		Provider:  provider,
		Overlay:   overlay,
		Dir:       dir,
		HideDelay: DefaultHideDelay,
		now:       time.Now,
	}
}

// CaptureScreenshot hides the overlay, captures the screen to a new file in
// Dir and returns its base64 encoding. The overlay is shown again on every
// path; on failure the error is also reported to the overlay.
func (d *Driver) CaptureScreenshot(ctx context.Context) (string, error) {
	d.Overlay.Notify(messages.HideInstruction{})

	encoded, path, err := d.capture(ctx)
	if err != nil {
		log.Printf("screenshot: capture failed: %v", err)
		if !errors.Is(err, context.Canceled) {
			d.Overlay.Notify(messages.Error{Text: err.Error()})
		}
		return "", err
	}
	log.Printf("screenshot: captured %s (%d base64 bytes)", path, len(encoded))
	return encoded, nil
}

func (d *Driver) capture(ctx context.Context) (string, string, error) {
	d.Overlay.Hide()
	defer d.Overlay.Show()

	if d.HideDelay > 0 {
		timer := time.NewTimer(d.HideDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", "", ctx.Err()
		case <-timer.C:
		}
	}

	if err := os.MkdirAll(d.Dir, 0755); err != nil {
		return "", "", fmt.Errorf("screenshot directory: %w", err)
	}
	path := d.nextPath()
	if err := d.Provider.Capture(ctx, path); err != nil {
		return "", path, fmt.Errorf("screenshot failed: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", path, fmt.Errorf("failed to read screenshot: %w", err)
	}
	if len(data) == 0 {
		return "", path, fmt.Errorf("screenshot %s is empty", path)
	}
	return base64.StdEncoding.EncodeToString(data), path, nil
}

func (d *Driver) nextPath() string {
	now := time.Now
	if d.now != nil {
		now = d.now
	}
	name := fmt.Sprintf("screenshot-%s-%s.png",
		now().Format("20060102-150405.000"), uuid.NewString()[:8])
	return filepath.Join(d.Dir, name)
}
