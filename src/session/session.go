package session

// Mode is the dispatcher state derived from the session contents.
type Mode int

const (
	Idle Mode = iota
	Accumulating
)

func (m Mode) String() string {
	switch m {
	case Idle:
		return "idle"
	case Accumulating:
		return "accumulating"
	default:
		return "unknown"
	}
}

// State is the pending-capture record: base64 images in capture order and
// the multi-capture flag. It is not safe for concurrent use; the event loop
// is its only owner.
type State struct {
	images       []string
	multiCapture bool
}

func New() *State { return &State{} }

// Append adds one captured image at the end of the pending list.
func (s *State) Append(image string) {
	s.images = append(s.images, image)
}

// EnterMultiCapture sets the multi-capture flag. It reports whether the flag
// was previously clear, i.e. whether this call started a new accumulation.
func (s *State) EnterMultiCapture() bool {
	if s.multiCapture {
		return false
	}
	s.multiCapture = true
	return true
}

// Reset clears the pending images and the multi-capture flag.
func (s *State) Reset() {
	s.images = nil
	s.multiCapture = false
}

// Images returns a copy of the pending images so a submission cannot observe
// later mutations.
func (s *State) Images() []string {
	out := make([]string, len(s.images))
	copy(out, s.images)
	return out
}

func (s *State) Len() int { return len(s.images) }

func (s *State) MultiCapture() bool { return s.multiCapture }

func (s *State) Mode() Mode {
	if s.multiCapture {
		return Accumulating
	}
	return Idle
}
