//go:build !windows

package overlay

import (
	"log"
	"sync"

	"fyne.io/fyne/v2"
)

var chromeOnce sync.Once

// Always-on-top, capture exclusion and positioning are Windows-only; other
// platforms keep the window manager's defaults.
func applyChrome(w fyne.Window, x, y int) {
	chromeOnce.Do(func() {
		log.Printf("overlay: window chrome and positioning are not supported on this platform")
	})
}

func moveWindow(w fyne.Window, x, y int) {
	log.Printf("overlay: move to (%d,%d) not supported on this platform", x, y)
}
