package overlay

import (
	"screen-solver/src/messages"
)

// MoveStep is the distance in pixels of one move action.
const MoveStep = 50

// Controller is the overlay window as seen by the rest of the program:
// a passive receiver of notifications plus visibility and position control.
type Controller interface {
	Notify(msg messages.Message)
	Show()
	Hide()
	Visible() bool
	Move(dx, dy int)
}

// view is the displayed state of the overlay, independent of any toolkit.
type view struct {
	instruction        string
	instructionVisible bool
	result             string
	isError            bool
}

func newView() view {
	return view{instruction: messages.DefaultInstruction, instructionVisible: true}
}

func (v *view) apply(msg messages.Message) {
	switch m := msg.(type) {
	case messages.UpdateInstruction:
		v.instruction = m.Text
		v.instructionVisible = true
	case messages.HideInstruction:
		v.instructionVisible = false
	case messages.AnalysisResult:
		v.result = m.Text
		v.isError = false
	case messages.Error:
		v.result = m.Text
		v.isError = true
	case messages.ClearResult:
		v.result = ""
		v.isError = false
	}
}
