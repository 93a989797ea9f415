package tray

import (
	"testing"

	"github.com/stretchr/testify/require"

	"screen-solver/src/hotkey"
)

func TestMenuItemsPostActions(t *testing.T) {
	var posted []hotkey.Action
	quitCalled := false
	items := menuItems(func(a hotkey.Action) { posted = append(posted, a) }, func() { quitCalled = true })

	for _, item := range items {
		if item.IsSeparator || item.IsQuit {
			continue
		}
		item.Action()
	}
	require.Equal(t, []hotkey.Action{
		hotkey.CaptureOrFinalize,
		hotkey.AddToMultiCapture,
		hotkey.Reset,
		hotkey.ToggleVisibility,
	}, posted)

	last := items[len(items)-1]
	require.True(t, last.IsQuit)
	last.Action()
	require.True(t, quitCalled)
}

func TestIcon(t *testing.T) {
	require.Equal(t, "screen-solver.svg", Icon.Name())
	require.Contains(t, string(Icon.Content()), "<svg")
}
