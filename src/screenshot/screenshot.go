package screenshot

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/kbinani/screenshot"
)

// PathPlaceholder is replaced by the output path in capture commands.
const PathPlaceholder = "{path}"

// Provider produces one still image of the screen at path.
type Provider interface {
	Capture(ctx context.Context, path string) error
}

// DefaultProvider picks the configured external utility, falling back to
// screencapture on macOS and the in-process capturer elsewhere.
func DefaultProvider(command string) Provider {
	if command != "" {
		return CommandProvider{Command: command}
	}
	if runtime.GOOS == "darwin" {
		return CommandProvider{Command: "screencapture -x " + PathPlaceholder}
	}
	return NativeProvider{}
}

// CommandProvider shells out to an external screenshot utility.
type CommandProvider struct {
	Command string
}

func (p CommandProvider) Capture(ctx context.Context, path string) error {
	args := strings.Fields(p.Command)
	if len(args) == 0 {
		return fmt.Errorf("empty capture command")
	}
	substituted := false
	for i, a := range args {
		if strings.Contains(a, PathPlaceholder) {
			args[i] = strings.ReplaceAll(a, PathPlaceholder, path)
			substituted = true
		}
	}
	if !substituted {
		args = append(args, path)
	}

	out, err := exec.CommandContext(ctx, args[0], args[1:]...).CombinedOutput()
	if err != nil {
		if msg := strings.TrimSpace(string(out)); msg != "" {
			return fmt.Errorf("%s: %w: %s", args[0], err, msg)
		}
		return fmt.Errorf("%s: %w", args[0], err)
	}
	return nil
}

// NativeProvider captures all active displays in-process and writes a PNG.
type NativeProvider struct{}

func (NativeProvider) Capture(ctx context.Context, path string) error {
	img, err := Capture()
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("failed to encode image as PNG: %v", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}

// Capture captures the entire virtual screen across all active displays
func Capture() (*image.RGBA, error) {
	n := screenshot.NumActiveDisplays()
	if n == 0 {
		return nil, fmt.Errorf("no active displays found")
	}
	union := screenshot.GetDisplayBounds(0)
	for i := 1; i < n; i++ {
		union = union.Union(screenshot.GetDisplayBounds(i))
	}
	return screenshot.CaptureRect(union)
}

// GetDisplayBounds returns the bounds of the primary display
func GetDisplayBounds() (image.Rectangle, error) {
	if screenshot.NumActiveDisplays() == 0 {
		return image.Rectangle{}, fmt.Errorf("no active displays found")
	}
	return screenshot.GetDisplayBounds(0), nil
}
