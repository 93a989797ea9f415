package messages

// Message is a one-way notification from the backend to the overlay window.
type Message interface {
	Type() string
}

const (
	TypeUpdateInstruction = "update-instruction"
	TypeHideInstruction   = "hide-instruction"
	TypeAnalysisResult    = "analysis-result"
	TypeError             = "error"
	TypeClearResult       = "clear-result"
)

// Instruction texts shown by the overlay.
const (
	DefaultInstruction = "Ctrl+Shift+S: screenshot and answer | Ctrl+Shift+A: add to multi-capture | " +
		"Ctrl+Shift+R: reset | Ctrl+Shift+V: show/hide | Ctrl+Shift+Arrows: move"
	MultiCaptureInstruction = "Multi-capture mode: Ctrl+Shift+A adds another screenshot, " +
		"Ctrl+Shift+S captures the last one and answers, Ctrl+Shift+R cancels"
	ProcessingInstruction = "Analyzing screenshots..."
)

// UpdateInstruction replaces the instruction text and makes it visible.
type UpdateInstruction struct {
	Text string
}

func (m UpdateInstruction) Type() string { return TypeUpdateInstruction }

// HideInstruction hides the instruction text, e.g. right before a capture.
type HideInstruction struct{}

func (m HideInstruction) Type() string { return TypeHideInstruction }

// AnalysisResult carries the final answer returned by the model.
type AnalysisResult struct {
	Text string
}

func (m AnalysisResult) Type() string { return TypeAnalysisResult }

// Error carries a human-readable failure message, forwarded verbatim.
type Error struct {
	Text string
}

func (m Error) Type() string { return TypeError }

// ClearResult removes any displayed answer or error.
type ClearResult struct{}

func (m ClearResult) Type() string { return TypeClearResult }
