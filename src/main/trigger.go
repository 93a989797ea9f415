package main

import (
	"context"
	"fmt"
	"time"

	"screen-solver/src/eventloop"
	"screen-solver/src/hotkey"
)

// triggerHandler feeds actions received on the loopback channel into the
// event loop, the same way hotkeys and tray items do.
type triggerHandler struct {
	loop *eventloop.Loop
}

func (h triggerHandler) HandleAction(_ context.Context, name string) error {
	a, err := hotkey.ParseAction(name)
	if err != nil {
		return err
	}
	return h.loop.Post(a)
}

func (h triggerHandler) Status(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	st, err := h.loop.Status(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("mode=%s pending=%d busy=%v", st.Mode, st.Pending, st.Busy), nil
}
