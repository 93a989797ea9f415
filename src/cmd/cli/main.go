package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"screen-solver/src/config"
	"screen-solver/src/llm"
	"screen-solver/src/logutil"
)

const (
	maxFileSizeMB = 10
	maxFileSize   = maxFileSizeMB * 1024 * 1024
)

var pngMagic = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}

type cliOptions struct {
	files        []string
	jsonOutput   bool
	verbose      bool
	settingsPath string
}

// submitter is satisfied by *llm.Client.
type submitter interface {
	Submit(ctx context.Context, images []string, model string) (string, error)
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	opts := &cliOptions{}
	cmd := newRootCmd(opts, nil)
	cmd.SetArgs(args)
	return cmd.Execute()
}

// newRootCmd builds the command. A nil client means one is built from the
// loaded configuration.
func newRootCmd(opts *cliOptions, client submitter) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "solver-cli",
		Short:         "Answer the question shown in one or more PNG screenshots",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithOptions(cmd.Context(), *opts, client, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringArrayVar(&opts.files, "file", nil, "Path to a PNG file, repeatable; images are sent in order ('-' for stdin)")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output results as JSON")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose output to stderr")
	cmd.Flags().StringVar(&opts.settingsPath, "settings", "", "Path to settings.yaml")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func runWithOptions(ctx context.Context, opts cliOptions, client submitter, stdout, stderr io.Writer) error {
	// Logging is configured before anything else writes to it.
	if opts.verbose {
		log.SetOutput(stderr)
		fmt.Fprintf(stderr, "[verbose] Starting solver-cli\n")
	} else {
		log.SetOutput(io.Discard)
	}

	cfg, err := config.LoadWithOptions(config.LoadOptions{SettingsPathOverride: opts.settingsPath})
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if opts.verbose {
		fmt.Fprintf(stderr, "[verbose] Config loaded: Model=%s Settings=%s\n", cfg.Model, cfg.SettingsPath)
		fmt.Fprintf(stderr, "[verbose] API key: %s\n", logutil.RedactKey(cfg.APIKey))
	}

	if client == nil {
		client = llm.New(llm.Config{APIKey: cfg.APIKey, BaseURL: cfg.BaseURL, MaxTokens: cfg.MaxTokens})
	}

	images := make([]string, 0, len(opts.files))
	for _, path := range opts.files {
		data, err := readImage(path, os.Stdin)
		if err != nil {
			return err
		}
		if opts.verbose {
			fmt.Fprintf(stderr, "[verbose] %s: %d bytes, PNG validation passed\n", path, len(data))
		}
		images = append(images, base64.StdEncoding.EncodeToString(data))
	}

	start := time.Now()
	answer, err := client.Submit(ctx, images, cfg.Model)
	elapsed := time.Since(start)
	if err != nil {
		if opts.verbose {
			fmt.Fprintf(stderr, "[verbose] Submission failed after %v: %v\n", elapsed, err)
		}
		return fmt.Errorf("analysis failed: %w", err)
	}
	if opts.verbose {
		fmt.Fprintf(stderr, "[verbose] Answer received in %v (%d characters)\n", elapsed, len(answer))
	}

	return outputResult(stdout, Result{
		Answer:    answer,
		Sources:   opts.files,
		Model:     cfg.Model,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Duration:  elapsed.Seconds(),
	}, opts.jsonOutput)
}

func readImage(path string, stdin io.Reader) ([]byte, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(io.LimitReader(stdin, maxFileSize+1))
		if err != nil {
			return nil, fmt.Errorf("failed to read from stdin: %w", err)
		}
	} else {
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read file %s: %w", path, err)
		}
	}
	if err := validatePNG(data); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return data, nil
}

func validatePNG(data []byte) error {
	switch {
	case len(data) == 0:
		return errors.New("input file is empty")
	case len(data) > maxFileSize:
		return fmt.Errorf("input file exceeds maximum size of %d MB", maxFileSizeMB)
	case len(data) < len(pngMagic) || !bytes.Equal(data[:len(pngMagic)], pngMagic):
		return errors.New("input is not a valid PNG file (invalid magic number)")
	}
	return nil
}

type Result struct {
	Answer    string   `json:"answer"`
	Sources   []string `json:"sources"`
	Model     string   `json:"model"`
	Timestamp string   `json:"timestamp"`
	Duration  float64  `json:"duration_seconds"`
}

func outputResult(w io.Writer, res Result, jsonOutput bool) error {
	if !jsonOutput {
		_, err := fmt.Fprintln(w, res.Answer)
		return err
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(res); err != nil {
		return fmt.Errorf("failed to encode JSON output: %w", err)
	}
	return nil
}
