package tray

import (
	"log"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"

	"screen-solver/src/hotkey"
)

const title = "Screen Solver"

// Install adds the system-tray menu when the platform supports it. Menu
// entries post the same actions as the global hotkeys.
func Install(app fyne.App, post func(hotkey.Action), onQuit func()) bool {
	desk, ok := app.(desktop.App)
	if !ok {
		log.Printf("tray: system tray not supported by this driver")
		return false
	}
	desk.SetSystemTrayMenu(fyne.NewMenu(title, menuItems(post, onQuit)...))
	desk.SetSystemTrayIcon(Icon)
	return true
}

func menuItems(post func(hotkey.Action), onQuit func()) []*fyne.MenuItem {
	entry := func(label string, a hotkey.Action) *fyne.MenuItem {
		return fyne.NewMenuItem(label, func() { post(a) })
	}
	quit := fyne.NewMenuItem("Quit", onQuit)
	quit.IsQuit = true
	return []*fyne.MenuItem{
		entry("Screenshot and answer", hotkey.CaptureOrFinalize),
		entry("Add to multi-capture", hotkey.AddToMultiCapture),
		entry("Reset", hotkey.Reset),
		entry("Show / hide overlay", hotkey.ToggleVisibility),
		fyne.NewMenuItemSeparator(),
		quit,
	}
}
