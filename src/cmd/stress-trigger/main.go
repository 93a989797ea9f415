package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"screen-solver/src/config"
	"screen-solver/src/hotkey"
	"screen-solver/src/singleinstance"
)

type stressOptions struct {
	n        int
	action   string
	deadline time.Duration
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	opts := &stressOptions{}
	cmd := newRootCmd(opts, singleinstance.SendAction)
	return cmd.Execute()
}

func newRootCmd(opts *stressOptions, send func(context.Context, string) error) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "stress-trigger",
		Short:         "Fire concurrent actions at the resident's trigger channel",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := hotkey.ParseAction(opts.action); err != nil {
				return err
			}
			config.LoadEnvFile()
			_, err := fmt.Fprintln(cmd.OutOrStdout(), runWithOptions(*opts, send))
			return err
		},
	}

	cmd.Flags().IntVar(&opts.n, "n", 50, "number of clients to launch")
	cmd.Flags().StringVar(&opts.action, "action", "toggle", "action to send (toggle, move-up, capture, ...)")
	cmd.Flags().DurationVar(&opts.deadline, "deadline", 5*time.Second, "per-client timeout")

	return cmd
}

type summary struct {
	launched, ok, busy, failed int32
	elapsed                    time.Duration
}

func (s summary) String() string {
	return fmt.Sprintf("launched=%d ok=%d busy=%d err=%d elapsed=%s", s.launched, s.ok, s.busy, s.failed, s.elapsed)
}

func runWithOptions(opts stressOptions, send func(context.Context, string) error) summary {
	var wg sync.WaitGroup
	var okCount, busyCount, errCount atomic.Int32

	start := time.Now()
	for i := 0; i < opts.n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), opts.deadline)
			defer cancel()
			err := send(ctx, opts.action)
			switch {
			case err == nil:
				okCount.Add(1)
			case strings.Contains(strings.ToLower(err.Error()), "busy"):
				busyCount.Add(1)
			default:
				errCount.Add(1)
			}
		}()
	}
	wg.Wait()
	return summary{
		launched: int32(opts.n),
		ok:       okCount.Load(),
		busy:     busyCount.Load(),
		failed:   errCount.Load(),
		elapsed:  time.Since(start),
	}
}
