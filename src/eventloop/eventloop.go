package eventloop

import (
	"context"
	"errors"
	"fmt"
	"log"

	"screen-solver/src/hotkey"
	"screen-solver/src/logutil"
	"screen-solver/src/messages"
	"screen-solver/src/overlay"
	"screen-solver/src/session"
	"screen-solver/src/worker"
)

// ErrBusy is returned by Post when the action queue is full.
var ErrBusy = errors.New("busy, please retry")

// Capturer produces one base64-encoded screenshot.
type Capturer interface {
	CaptureScreenshot(ctx context.Context) (string, error)
}

// Inferrer answers the fixed prompt for an ordered list of images.
type Inferrer interface {
	Submit(ctx context.Context, images []string, model string) (string, error)
}

type Options struct {
	Overlay  overlay.Controller
	Capturer Capturer
	Inferrer Inferrer
	Model    string
	// OnAnswer is called with every successful answer, e.g. to copy it.
	OnAnswer func(text string)
}

// Status is a point-in-time view of the dispatcher.
type Status struct {
	Mode    session.Mode
	Pending int
	Busy    bool
}

// Loop is the single-threaded dispatcher. Actions from hotkeys, the tray and
// the trigger server are queued on one channel; only the Run goroutine
// touches the session. Captures and submissions run on a one-worker pool and
// post their outcome back into the loop.
type Loop struct {
	opts    Options
	session *session.State
	pool    *worker.Pool
	actions chan hotkey.Action
	results chan result
	inspect chan func()

	busy      bool
	cancelJob context.CancelFunc
	// epoch is bumped by Reset; results of older jobs are discarded.
	epoch uint64
}

type stage int

const (
	stageCapture stage = iota
	stageSubmit
)

type result struct {
	epoch  uint64
	stage  stage
	action hotkey.Action
	image  string
	answer string
	err    error

	// startedMulti is set when the action entered multi-capture from Idle.
	startedMulti bool
}

func New(opts Options) *Loop {
	return &Loop{
		opts:    opts,
		session: session.New(),
		actions: make(chan hotkey.Action, 8),
		results: make(chan result, 1),
		inspect: make(chan func()),
	}
}

// Post queues an action without blocking. Presses arriving while the queue
// is full are dropped.
func (l *Loop) Post(a hotkey.Action) error {
	select {
	case l.actions <- a:
		return nil
	default:
		log.Printf("eventloop: queue full, dropping %s", a)
		return ErrBusy
	}
}

// Status asks the loop for its current state.
func (l *Loop) Status(ctx context.Context) (Status, error) {
	var st Status
	err := l.do(ctx, func() {
		st = Status{Mode: l.session.Mode(), Pending: l.session.Len(), Busy: l.busy}
	})
	return st, err
}

// do runs fn on the loop goroutine and waits for it.
func (l *Loop) do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	select {
	case l.inspect <- func() { fn(); close(done) }:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run processes actions until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	l.pool = worker.New(1)
	defer l.pool.Close()
	defer l.cancelInFlight()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case a := <-l.actions:
			l.handleAction(ctx, a)
		case res := <-l.results:
			l.handleResult(ctx, res)
		case fn := <-l.inspect:
			fn()
		}
	}
}

func (l *Loop) handleAction(ctx context.Context, a hotkey.Action) {
	log.Printf("eventloop: %s (mode=%s pending=%d busy=%v)", a, l.session.Mode(), l.session.Len(), l.busy)
	ov := l.opts.Overlay
	switch a {
	case hotkey.ToggleVisibility:
		if ov.Visible() {
			ov.Hide()
		} else {
			ov.Show()
		}
	case hotkey.MoveUp:
		ov.Move(0, -overlay.MoveStep)
	case hotkey.MoveDown:
		ov.Move(0, overlay.MoveStep)
	case hotkey.MoveLeft:
		ov.Move(-overlay.MoveStep, 0)
	case hotkey.MoveRight:
		ov.Move(overlay.MoveStep, 0)
	case hotkey.Reset:
		l.reset()
		ov.Notify(messages.ClearResult{})
	case hotkey.AddToMultiCapture, hotkey.CaptureOrFinalize:
		if l.busy {
			log.Printf("eventloop: busy, dropping %s", a)
			return
		}
		started := a == hotkey.AddToMultiCapture && l.session.EnterMultiCapture()
		if started {
			ov.Notify(messages.UpdateInstruction{Text: messages.MultiCaptureInstruction})
		}
		l.startJob(ctx, stageCapture, a, func(jobCtx context.Context) result {
			img, err := l.opts.Capturer.CaptureScreenshot(jobCtx)
			return result{image: img, err: err, startedMulti: started}
		})
	default:
		log.Printf("eventloop: unknown action %s", a)
	}
}

func (l *Loop) handleResult(ctx context.Context, res result) {
	l.finishJob()
	if res.epoch != l.epoch {
		log.Printf("eventloop: discarding result of a job started before reset (err=%v)", res.err)
		return
	}

	ov := l.opts.Overlay
	switch res.stage {
	case stageCapture:
		if res.err != nil {
			// The capture driver already restored the window and showed the error.
			if res.startedMulti && l.session.Len() == 0 {
				l.session.Reset()
			}
			ov.Notify(messages.UpdateInstruction{Text: l.instruction()})
			return
		}
		l.session.Append(res.image)
		if res.action == hotkey.AddToMultiCapture {
			ov.Notify(messages.UpdateInstruction{Text: messages.MultiCaptureInstruction})
			return
		}
		images := l.session.Images()
		ov.Notify(messages.UpdateInstruction{Text: messages.ProcessingInstruction})
		l.startJob(ctx, stageSubmit, res.action, func(jobCtx context.Context) result {
			answer, err := l.opts.Inferrer.Submit(jobCtx, images, l.opts.Model)
			return result{answer: answer, err: err}
		})

	case stageSubmit:
		if res.err != nil {
			// Pending images are kept; only a successful answer resets the session.
			log.Printf("eventloop: analysis failed: %v", res.err)
			ov.Notify(messages.Error{Text: fmt.Sprintf("Analysis failed: %v", res.err)})
			ov.Notify(messages.UpdateInstruction{Text: l.instruction()})
			return
		}
		log.Printf("eventloop: answer %q", logutil.Truncate(res.answer, 100))
		ov.Notify(messages.AnalysisResult{Text: res.answer})
		if l.opts.OnAnswer != nil {
			l.opts.OnAnswer(res.answer)
		}
		l.reset()
	}
}

func (l *Loop) startJob(ctx context.Context, st stage, a hotkey.Action, fn func(context.Context) result) {
	jobCtx, cancel := context.WithCancel(ctx)
	epoch := l.epoch
	submitted := l.pool.Submit(jobCtx, a.String(), func(jc context.Context) {
		res := fn(jc)
		res.epoch, res.stage, res.action = epoch, st, a
		select {
		case l.results <- res:
		case <-ctx.Done():
		}
	})
	if !submitted {
		cancel()
		log.Printf("eventloop: worker busy, dropping %s", a)
		return
	}
	l.busy = true
	l.cancelJob = cancel
}

func (l *Loop) finishJob() {
	if l.cancelJob != nil {
		l.cancelJob()
		l.cancelJob = nil
	}
	l.busy = false
}

func (l *Loop) cancelInFlight() {
	if l.cancelJob != nil {
		l.cancelJob()
	}
}

// reset clears the session and invalidates any in-flight job.
func (l *Loop) reset() {
	l.session.Reset()
	l.epoch++
	l.cancelInFlight()
	l.opts.Overlay.Notify(messages.UpdateInstruction{Text: messages.DefaultInstruction})
}

func (l *Loop) instruction() string {
	if l.session.MultiCapture() {
		return messages.MultiCaptureInstruction
	}
	return messages.DefaultInstruction
}
