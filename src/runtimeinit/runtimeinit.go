package runtimeinit

import (
	"fmt"
	"log"

	"screen-solver/src/clipboard"
	"screen-solver/src/config"
	"screen-solver/src/llm"
	"screen-solver/src/logutil"
)

type Options struct {
	LoadOptions config.LoadOptions
	Verbose     bool
	// SetupLogging defaults to logutil.Setup.
	SetupLogging func(enableFileLogging, verbose bool)
	// ShowError reports startup failures, e.g. with a blocking dialog.
	ShowError func(title, message string)
	// InitClipboard defaults to clipboard.Init.
	InitClipboard func() error
}

// Runtime holds everything built at startup.
type Runtime struct {
	Config         *config.Config
	LLM            *llm.Client
	ClipboardReady bool
}

// Bootstrap loads and validates configuration, sets up logging and builds
// the inference client. A configuration error is fatal: it is logged,
// reported through ShowError and returned.
func Bootstrap(opts Options) (*Runtime, error) {
	setupLogging := opts.SetupLogging
	if setupLogging == nil {
		setupLogging = logutil.Setup
	}
	initClipboard := opts.InitClipboard
	if initClipboard == nil {
		initClipboard = clipboard.Init
	}

	cfg, err := config.LoadWithOptions(opts.LoadOptions)
	if err != nil {
		setupLogging(false, true)
		log.Printf("Configuration error: %v", err)
		if opts.ShowError != nil {
			opts.ShowError("Screen Solver configuration error", err.Error())
		}
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	setupLogging(cfg.EnableFileLogging, opts.Verbose)

	log.Printf("Settings: %s", cfg.SettingsPath)
	log.Printf("Using model: %s", cfg.Model)
	log.Printf("API key: %s", logutil.RedactKey(cfg.APIKey))

	rt := &Runtime{
		Config: cfg,
		LLM: llm.New(llm.Config{
			APIKey:    cfg.APIKey,
			BaseURL:   cfg.BaseURL,
			MaxTokens: cfg.MaxTokens,
		}),
	}

	if cfg.CopyToClipboard {
		if err := initClipboard(); err != nil {
			log.Printf("Clipboard disabled: %v", err)
		} else {
			rt.ClipboardReady = true
		}
	}
	return rt, nil
}
