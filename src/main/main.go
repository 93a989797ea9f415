package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"screen-solver/src/clipboard"
	"screen-solver/src/config"
	"screen-solver/src/eventloop"
	"screen-solver/src/hotkey"
	"screen-solver/src/notification"
	"screen-solver/src/overlay"
	"screen-solver/src/runtimeinit"
	"screen-solver/src/screenshot"
	"screen-solver/src/singleinstance"
	"screen-solver/src/tray"
)

const (
	appID           = "io.github.screen-solver"
	shutdownTimeout = 3 * time.Second
)

var errAlreadyRunning = errors.New("screen-solver is already running")

type mainOptions struct {
	settingsPath string
	verbose      bool
}

func main() {
	opts := &mainOptions{}
	if err := newRootCmd(opts).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(opts *mainOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "screen-solver",
		Short:         "Answer on-screen questions with a vision model",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if cmd.HasParent() {
				setupCommandLogging(opts.verbose)
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResident(*opts)
		},
	}
	cmd.PersistentFlags().StringVar(&opts.settingsPath, "settings", "", "Path to settings.yaml (overrides "+config.SettingsPathEnvVar+")")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log to stderr")

	cmd.AddCommand(newSendCmd(singleinstance.SendAction), newStatusCmd(singleinstance.QueryStatus))
	return cmd
}

func newSendCmd(send func(context.Context, string) error) *cobra.Command {
	return &cobra.Command{
		Use:   "send <action>",
		Short: "Trigger an action in the running instance",
		Long: "Trigger an action in the running instance. Actions: capture, add, reset, " +
			"toggle, move-up, move-down, move-left, move-right.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := hotkey.ParseAction(args[0])
			if err != nil {
				return err
			}
			config.LoadEnvFile()
			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()
			if err := send(ctx, a.String()); err != nil {
				return fmt.Errorf("send %s: %w", a, err)
			}
			return nil
		},
	}
}

func newStatusCmd(query func(context.Context) (string, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the state of the running instance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			config.LoadEnvFile()
			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()
			text, err := query(ctx)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), text)
			return err
		},
	}
}

func runResident(opts mainOptions) error {
	enableDPIAwareness()

	rt, err := runtimeinit.Bootstrap(runtimeinit.Options{
		LoadOptions: config.LoadOptions{SettingsPathOverride: opts.settingsPath},
		Verbose:     opts.verbose,
		ShowError:   notification.ShowBlockingError,
	})
	if err != nil {
		return err
	}
	cfg := rt.Config

	probeCtx, probeCancel := context.WithTimeout(context.Background(), time.Second)
	port, resident := singleinstance.DetectResidentPort(probeCtx)
	probeCancel()
	if resident {
		log.Printf("Resident already listening on port %d", port)
		return errAlreadyRunning
	}

	if bounds, err := screenshot.GetDisplayBounds(); err == nil {
		log.Printf("Display bounds: %v", bounds)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a := app.NewWithID(appID)
	win := overlay.New(a)
	driver := screenshot.NewDriver(screenshot.DefaultProvider(cfg.CaptureCommand), win, cfg.CaptureDir)

	loop := eventloop.New(eventloop.Options{
		Overlay:  win,
		Capturer: driver,
		Inferrer: rt.LLM,
		Model:    cfg.Model,
		OnAnswer: answerSink(rt.ClipboardReady, clipboard.Write),
	})
	post := func(act hotkey.Action) {
		if err := loop.Post(act); err != nil {
			log.Printf("dropping %s: %v", act, err)
		}
	}

	tray.Install(a, post, a.Quit)
	win.Fyne().SetCloseIntercept(a.Quit)
	a.Lifecycle().SetOnStarted(win.ApplyChrome)
	a.Lifecycle().SetOnStopped(cancel)

	srv := singleinstance.NewServer(triggerHandler{loop: loop})
	if err := srv.Start(); err != nil {
		log.Printf("Trigger channel disabled: %v", err)
		srv = nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := loop.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("event loop: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := hotkey.Listen(gctx, hotkey.DefaultBindings, post); err != nil {
			log.Printf("Global hotkeys unavailable, use the tray or 'screen-solver send': %v", err)
		}
		return nil
	})
	if srv != nil {
		g.Go(func() error { return srv.Serve(gctx) })
	}
	go func() {
		<-gctx.Done()
		fyne.Do(a.Quit)
	}()

	log.Printf("Screen Solver started")
	win.Start()
	a.Run()

	cancel()
	done := make(chan error, 1)
	go func() { done <- g.Wait() }()
	select {
	case err := <-done:
		if err != nil {
			log.Printf("Shutdown: %v", err)
			return err
		}
	case <-time.After(shutdownTimeout):
		log.Printf("Shutdown: workers did not stop within %v", shutdownTimeout)
	}
	log.Printf("Screen Solver stopped")
	return nil
}

// answerSink returns the OnAnswer callback that copies answers to the
// clipboard, or nil when copying is disabled.
func answerSink(enabled bool, write func(string) error) func(string) {
	if !enabled {
		return nil
	}
	return func(text string) {
		if err := write(text); err != nil {
			log.Printf("Failed to copy answer to clipboard: %v", err)
		}
	}
}

// setupCommandLogging keeps subcommands quiet unless --verbose is set.
func setupCommandLogging(verbose bool) {
	if verbose {
		log.SetOutput(os.Stderr)
		return
	}
	log.SetOutput(io.Discard)
}
