//go:build windows

package overlay

import (
	"log"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver"
	"golang.org/x/sys/windows"
)

const (
	gwlExStyle            = ^uintptr(19) // GWL_EXSTYLE (-20)
	wsExTopmost           = 0x00000008
	wsExToolWindow        = 0x00000080
	wsExLayered           = 0x00080000
	wsExNoActivate        = 0x08000000
	lwaAlpha              = 0x00000002
	overlayAlpha          = 230
	wdaExcludeFromCapture = 0x00000011
	swpNoSize             = 0x0001
	swpNoActivate         = 0x0010
	hwndTopmost           = ^uintptr(0) // HWND_TOPMOST (-1)
)

var (
	user32                         = windows.NewLazySystemDLL("user32.dll")
	procGetWindowLongPtrW          = user32.NewProc("GetWindowLongPtrW")
	procSetWindowLongPtrW          = user32.NewProc("SetWindowLongPtrW")
	procSetLayeredWindowAttributes = user32.NewProc("SetLayeredWindowAttributes")
	procSetWindowDisplayAffinity   = user32.NewProc("SetWindowDisplayAffinity")
	procSetWindowPos               = user32.NewProc("SetWindowPos")
)

func withHWND(w fyne.Window, fn func(hwnd uintptr)) {
	nw, ok := w.(driver.NativeWindow)
	if !ok {
		return
	}
	nw.RunNative(func(ctx any) {
		if wc, ok := ctx.(driver.WindowsWindowContext); ok && wc.HWND != 0 {
			fn(wc.HWND)
		}
	})
}

func applyChrome(w fyne.Window, x, y int) {
	withHWND(w, func(hwnd uintptr) {
		style, _, _ := procGetWindowLongPtrW.Call(hwnd, gwlExStyle)
		style |= wsExTopmost | wsExToolWindow | wsExLayered | wsExNoActivate
		_, _, _ = procSetWindowLongPtrW.Call(hwnd, gwlExStyle, style)
		_, _, _ = procSetLayeredWindowAttributes.Call(hwnd, 0, overlayAlpha, lwaAlpha)

		if r, _, err := procSetWindowDisplayAffinity.Call(hwnd, wdaExcludeFromCapture); r == 0 {
			log.Printf("overlay: SetWindowDisplayAffinity failed: %v", err)
		}
		setPos(hwnd, x, y)
	})
}

func moveWindow(w fyne.Window, x, y int) {
	withHWND(w, func(hwnd uintptr) { setPos(hwnd, x, y) })
}

func setPos(hwnd uintptr, x, y int) {
	r, _, err := procSetWindowPos.Call(hwnd, hwndTopmost,
		uintptr(int32(x)), uintptr(int32(y)), 0, 0, swpNoSize|swpNoActivate)
	if r == 0 {
		log.Printf("overlay: SetWindowPos failed: %v", err)
	}
}
