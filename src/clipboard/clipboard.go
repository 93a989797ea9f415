package clipboard

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.design/x/clipboard"
)

var ErrUnavailable = errors.New("clipboard not initialized")

var (
	writeMu sync.Mutex
	ready   atomic.Bool
)

// Init prepares the system clipboard. On Linux this needs an X11 display.
func Init() error {
	if err := clipboard.Init(); err != nil {
		return fmt.Errorf("clipboard unavailable: %w", err)
	}
	ready.Store(true)
	return nil
}

// Write performs a mutex-guarded clipboard write to prevent corruption under parallel writes.
func Write(text string) error {
	if !ready.Load() {
		return ErrUnavailable
	}
	writeMu.Lock()
	defer writeMu.Unlock()
	clipboard.Write(clipboard.FmtText, []byte(text))
	return nil
}
