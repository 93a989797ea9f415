package hotkey

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	gohook "github.com/robotn/gohook"
)

// Action is a dispatcher operation bound to a global key combination.
type Action int

const (
	CaptureOrFinalize Action = iota
	AddToMultiCapture
	Reset
	ToggleVisibility
	MoveUp
	MoveDown
	MoveLeft
	MoveRight
)

var actionNames = map[Action]string{
	CaptureOrFinalize: "capture",
	AddToMultiCapture: "add",
	Reset:             "reset",
	ToggleVisibility:  "toggle",
	MoveUp:            "move-up",
	MoveDown:          "move-down",
	MoveLeft:          "move-left",
	MoveRight:         "move-right",
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return fmt.Sprintf("action(%d)", int(a))
}

// ParseAction maps an action name ("capture", "move-up", ...) to its Action.
func ParseAction(name string) (Action, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for a, n := range actionNames {
		if n == name {
			return a, nil
		}
	}
	return 0, fmt.Errorf("unknown action %q", name)
}

// Binding ties a key combination like "Ctrl+Shift+S" to an action.
type Binding struct {
	Combo  string
	Action Action
}

// DefaultBindings are the fixed global shortcuts. They are not configurable.
var DefaultBindings = []Binding{
	{Combo: "Ctrl+Shift+S", Action: CaptureOrFinalize},
	{Combo: "Ctrl+Shift+A", Action: AddToMultiCapture},
	{Combo: "Ctrl+Shift+R", Action: Reset},
	{Combo: "Ctrl+Shift+V", Action: ToggleVisibility},
	{Combo: "Ctrl+Shift+Up", Action: MoveUp},
	{Combo: "Ctrl+Shift+Down", Action: MoveDown},
	{Combo: "Ctrl+Shift+Left", Action: MoveLeft},
	{Combo: "Ctrl+Shift+Right", Action: MoveRight},
}

// Listen starts the global keyboard hook and calls post for every binding
// whose combination is completed. It blocks until ctx is cancelled.
func Listen(ctx context.Context, bindings []Binding, post func(Action)) (err error) {
	m := newMatcher(bindings)
	if len(m.bindings) == 0 {
		return errors.New("no valid hotkey bindings")
	}
	for _, b := range m.bindings {
		log.Printf("Hotkey listener configured: %s -> %s", b.combo, b.action)
	}

	defer func() {
		if r := recover(); r != nil {
			log.Printf("PANIC in hotkey listener: %v", r)
			err = fmt.Errorf("hotkey listener panic: %v", r)
		}
	}()

	log.Printf("Starting gohook event loop...")
	evChan := gohook.Start()
	if evChan == nil {
		return errors.New("gohook.Start() returned nil channel")
	}
	defer gohook.End()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-evChan:
			if !ok {
				return errors.New("hook event channel closed")
			}
			for _, a := range m.handle(ev.Kind, ev.Rawcode) {
				log.Printf("HOTKEY DETECTED: %s", a)
				post(a)
			}
		}
	}
}

type compiledBinding struct {
	combo  string
	action Action
	keys   [][]uint16
}

// matcher tracks physically pressed keys across all bindings.
type matcher struct {
	bindings []compiledBinding
	pressed  map[uint16]bool
}

func newMatcher(bindings []Binding) *matcher {
	m := &matcher{pressed: make(map[uint16]bool)}
	for _, b := range bindings {
		cb := compiledBinding{combo: b.Combo, action: b.Action}
		valid := true
		for _, keyName := range parseHotkey(b.Combo) {
			rawcodes := keyNameToRawcodes(keyName)
			if len(rawcodes) == 0 {
				log.Printf("ERROR: Cannot map key '%s' in '%s' to rawcodes, binding skipped", keyName, b.Combo)
				valid = false
				break
			}
			cb.keys = append(cb.keys, rawcodes)
		}
		if valid && len(cb.keys) > 0 {
			m.bindings = append(m.bindings, cb)
		}
	}
	return m
}

// handle feeds one key event and returns the actions it completes. Auto-repeat
// of a held key does not fire again.
func (m *matcher) handle(kind uint8, rawcode uint16) []Action {
	switch kind {
	case gohook.KeyDown, gohook.KeyHold:
		if m.pressed[rawcode] {
			return nil
		}
		m.pressed[rawcode] = true
		var fired []Action
		for _, b := range m.bindings {
			if b.completedBy(rawcode, m.pressed) {
				fired = append(fired, b.action)
			}
		}
		return fired
	case gohook.KeyUp:
		delete(m.pressed, rawcode)
	}
	return nil
}

func (b compiledBinding) completedBy(rawcode uint16, pressed map[uint16]bool) bool {
	involved := false
	for _, variants := range b.keys {
		held := false
		for _, rc := range variants {
			if rc == rawcode {
				involved = true
			}
			if pressed[rc] {
				held = true
			}
		}
		if !held {
			return false
		}
	}
	return involved
}

// parseHotkey converts a combo like "Ctrl+Alt+q" to normalized key names.
func parseHotkey(combo string) []string {
	var keys []string
	for _, part := range strings.Split(strings.ToLower(combo), "+") {
		part = strings.TrimSpace(part)
		switch part {
		case "":
			continue
		case "control":
			part = "ctrl"
		case "win", "super", "meta":
			part = "cmd"
		}
		keys = append(keys, part)
	}
	return keys
}

// Windows virtual-key codes, as reported by gohook in Event.Rawcode.
var namedRawcodes = map[string][]uint16{
	"ctrl":      {162, 163}, // VK_LCONTROL, VK_RCONTROL
	"alt":       {164, 165}, // VK_LMENU, VK_RMENU
	"shift":     {160, 161}, // VK_LSHIFT, VK_RSHIFT
	"cmd":       {91, 92},   // VK_LWIN, VK_RWIN
	"space":     {32},
	"enter":     {13},
	"return":    {13},
	"esc":       {27},
	"escape":    {27},
	"tab":       {9},
	"backspace": {8},
	"delete":    {46},
	"del":       {46},
	"insert":    {45},
	"ins":       {45},
	"home":      {36},
	"end":       {35},
	"pageup":    {33},
	"pgup":      {33},
	"pagedown":  {34},
	"pgdn":      {34},
	"left":      {37},
	"up":        {38},
	"right":     {39},
	"down":      {40},
}

// keyNameToRawcodes maps a key name to its rawcodes. Modifiers return both
// the left and right variants.
func keyNameToRawcodes(keyName string) []uint16 {
	keyName = strings.ToLower(strings.TrimSpace(keyName))
	if keyName == "win" || keyName == "super" {
		keyName = "cmd"
	}
	if codes, ok := namedRawcodes[keyName]; ok {
		return codes
	}

	if len(keyName) == 1 {
		c := keyName[0]
		switch {
		case c >= 'a' && c <= 'z':
			return []uint16{uint16(c-'a') + 65} // VK_A..VK_Z
		case c >= '0' && c <= '9':
			return []uint16{uint16(c-'0') + 48} // VK_0..VK_9
		}
	}

	if strings.HasPrefix(keyName, "f") {
		if n, err := strconv.Atoi(keyName[1:]); err == nil && n >= 1 && n <= 24 {
			return []uint16{uint16(111 + n)} // VK_F1..VK_F24
		}
	}

	log.Printf("WARNING: Unknown key name '%s', cannot map to rawcode", keyName)
	return nil
}
