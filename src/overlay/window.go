package overlay

import (
	"log"
	"sync"
	"sync/atomic"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"screen-solver/src/logutil"
	"screen-solver/src/messages"
)

const (
	windowTitle   = "Screen Solver"
	defaultWidth  = 520
	defaultHeight = 260
	initialX      = 40
	initialY      = 40
)

// Window is the fyne implementation of Controller. Widget updates are
// marshalled onto the fyne main goroutine.
type Window struct {
	win         fyne.Window
	instruction *widget.Label
	result      *widget.Label

	mu      sync.Mutex
	view    view
	x, y    int
	visible atomic.Bool
}

var _ Controller = (*Window)(nil)

// New creates the borderless overlay window. It must be called on the main
// goroutine before app.Run.
func New(app fyne.App) *Window {
	var win fyne.Window
	if drv, ok := app.Driver().(desktop.Driver); ok {
		win = drv.CreateSplashWindow()
	} else {
		win = app.NewWindow(windowTitle)
	}

	w := &Window{
		win:         win,
		instruction: widget.NewLabel(""),
		result:      widget.NewLabel(""),
		view:        newView(),
		x:           initialX,
		y:           initialY,
	}
	w.instruction.Wrapping = fyne.TextWrapWord
	w.instruction.TextStyle = fyne.TextStyle{Italic: true}
	w.result.Wrapping = fyne.TextWrapWord
	w.result.TextStyle = fyne.TextStyle{Bold: true}

	win.SetContent(container.NewPadded(container.NewVBox(w.instruction, w.result)))
	win.Resize(fyne.NewSize(defaultWidth, defaultHeight))
	w.render(w.view)
	return w
}

// Fyne exposes the underlying window, e.g. to install a close handler.
func (w *Window) Fyne() fyne.Window { return w.win }

func (w *Window) Notify(msg messages.Message) {
	w.mu.Lock()
	w.view.apply(msg)
	snapshot := w.view
	w.mu.Unlock()

	switch m := msg.(type) {
	case messages.AnalysisResult:
		log.Printf("overlay: result %q", logutil.Truncate(m.Text, 80))
	case messages.Error:
		log.Printf("overlay: error %q", logutil.Truncate(m.Text, 200))
	}
	fyne.Do(func() { w.render(snapshot) })
}

func (w *Window) render(v view) {
	w.instruction.SetText(v.instruction)
	if v.instructionVisible {
		w.instruction.Show()
	} else {
		w.instruction.Hide()
	}
	if v.isError {
		w.result.Importance = widget.DangerImportance
	} else {
		w.result.Importance = widget.MediumImportance
	}
	w.result.SetText(v.result)
}

// Show makes the window visible and reapplies platform chrome, which some
// window managers drop while a window is hidden.
func (w *Window) Show() {
	w.mu.Lock()
	x, y := w.x, w.y
	w.mu.Unlock()
	fyne.DoAndWait(func() {
		w.win.Show()
		applyChrome(w.win, x, y)
	})
	w.visible.Store(true)
}

func (w *Window) Hide() {
	fyne.DoAndWait(w.win.Hide)
	w.visible.Store(false)
}

func (w *Window) Visible() bool { return w.visible.Load() }

// Move shifts the window by (dx, dy). Positions are not clamped to the
// screen, so the window can be moved off-screen.
func (w *Window) Move(dx, dy int) {
	w.mu.Lock()
	w.x += dx
	w.y += dy
	x, y := w.x, w.y
	w.mu.Unlock()
	fyne.Do(func() { moveWindow(w.win, x, y) })
}

// Start shows the window from the main goroutine, before app.Run.
func (w *Window) Start() {
	w.win.Show()
	w.visible.Store(true)
}

// ApplyChrome makes the window always-on-top, excluded from screen capture
// and positioned. Call it on the main goroutine once the app has started.
func (w *Window) ApplyChrome() {
	w.mu.Lock()
	x, y := w.x, w.y
	w.mu.Unlock()
	applyChrome(w.win, x, y)
}
