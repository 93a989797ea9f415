package logutil

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
)

const (
	logFileName  = "screen_solver.log"
	maxSizeBytes = 10 * 1024 * 1024 // 10 MB
	maxArchives  = 3
)

// Setup enables file logging with size-based rotation (10MB, max 3 archives).
// With file logging disabled, logs go to stderr when verbose and are
// discarded otherwise.
func Setup(enableFileLogging, verbose bool) {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if !enableFileLogging {
		if verbose {
			log.SetOutput(os.Stderr)
		} else {
			log.SetOutput(io.Discard)
		}
		return
	}
	rotateIfNeeded(logFileName)
	f, err := os.OpenFile(logFileName, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
		return
	}
	var w io.Writer = &rotatingWriter{name: logFileName, f: f}
	if verbose {
		w = io.MultiWriter(w, os.Stderr)
	}
	log.SetOutput(w)
}

type rotatingWriter struct {
	name string
	f    *os.File
}

func (w *rotatingWriter) Write(p []byte) (int, error) {
	if st, err := w.f.Stat(); err == nil && st.Size()+int64(len(p)) > maxSizeBytes {
		_ = w.f.Close()
		rotate(w.name)
		nf, err := os.OpenFile(w.name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return 0, err
		}
		w.f = nf
	}
	return w.f.Write(p)
}

func rotateIfNeeded(name string) {
	if st, err := os.Stat(name); err == nil && st.Size() > maxSizeBytes {
		rotate(name)
	}
}

// rotate shifts name -> name.1 -> name.2 ... dropping the oldest archive.
func rotate(name string) {
	_ = os.Remove(archiveName(name, maxArchives))
	for i := maxArchives - 1; i >= 1; i-- {
		_ = os.Rename(archiveName(name, i), archiveName(name, i+1))
	}
	_ = os.Rename(name, archiveName(name, 1))
}

func archiveName(name string, n int) string {
	return filepath.Join(filepath.Dir(name), fmt.Sprintf("%s.%d", filepath.Base(name), n))
}

// RedactKey masks an API key, leaving first/last 4 chars: xxxx...yyyy
func RedactKey(k string) string {
	if len(k) <= 8 {
		return "********"
	}
	return fmt.Sprintf("%s...%s", k[:4], k[len(k)-4:])
}

// Truncate shortens s for log lines and replaces control characters so model
// output cannot inject fake log entries.
func Truncate(s string, maxLen int) string {
	if len(s) > maxLen {
		s = s[:maxLen] + "..."
	}
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case r == '\n' || r == '\r':
			out = append(out, '\\', 'n')
		case r == '\t':
			out = append(out, '\\', 't')
		case r < 32 || r == 127:
			out = append(out, '?')
		default:
			out = append(out, r)
		}
	}
	return string(out)
}
