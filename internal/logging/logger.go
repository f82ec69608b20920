// Package logging builds the component loggers used across sticky.
//
// All components share one logrus.Logger. The TUI owns the terminal, so by
// default logs go to a file and reach stderr only when stderr is not a
// terminal (pipes, CI, the host daemon under a supervisor).
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

// Config controls the shared logger.
type Config struct {
	// Level is the minimum level ("debug", "info", "warn", "error").
	// STICKY_LOG_LEVEL overrides it.
	Level string
	// Format is "text" (default) or "json".
	Format string
	// File, when set, receives all log output.
	File string
	// Stderr is "auto" (default), "always" or "never".
	Stderr string
}

var (
	mu      sync.Mutex
	base    = newBase()
	loggers = make(map[string]*logrus.Entry)
	sinks   []io.Closer
)

func newBase() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.InfoLevel)
	if isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		l.SetOutput(io.Discard)
	}
	return l
}

// NewLogger returns the logger for component, creating it on first use.
func NewLogger(component string) *logrus.Entry {
	mu.Lock()
	defer mu.Unlock()

	if entry, ok := loggers[component]; ok {
		return entry
	}
	entry := base.WithField("component", component)
	loggers[component] = entry
	return entry
}

// Configure applies cfg to the shared logger. It may be called again, for
// example after the config file changes. On error the previous settings and
// sinks stay in place.
func Configure(cfg Config) error {
	levelStr := strings.TrimSpace(cfg.Level)
	if env := os.Getenv("STICKY_LOG_LEVEL"); env != "" {
		levelStr = env
	}
	if levelStr == "" {
		levelStr = "info"
	}
	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		return fmt.Errorf("parse log level: %w", err)
	}

	var formatter logrus.Formatter
	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "json":
		formatter = &logrus.JSONFormatter{}
	case "", "text":
		formatter = &logrus.TextFormatter{DisableColors: true, FullTimestamp: true}
	default:
		return fmt.Errorf("unknown log format %q", cfg.Format)
	}

	var (
		writers  []io.Writer
		newSinks []io.Closer
	)
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return fmt.Errorf("create log dir: %w", err)
		}
		file, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		writers = append(writers, file)
		newSinks = append(newSinks, file)
	}

	toStderr := false
	switch cfg.Stderr {
	case "always":
		toStderr = true
	case "never":
	default:
		interactive := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
		toStderr = !interactive || level >= logrus.DebugLevel && cfg.File == ""
	}
	if toStderr {
		writers = append(writers, os.Stderr)
	}

	mu.Lock()
	defer mu.Unlock()

	base.SetLevel(level)
	if os.Getenv("STICKY_LOG_CALLER") == "true" {
		base.SetReportCaller(true)
	}
	base.SetFormatter(formatter)
	switch len(writers) {
	case 0:
		base.SetOutput(io.Discard)
	case 1:
		base.SetOutput(writers[0])
	default:
		base.SetOutput(io.MultiWriter(writers...))
	}

	// Only close the old files once nothing writes to them.
	for _, c := range sinks {
		_ = c.Close()
	}
	sinks = newSinks
	return nil
}

// SetLevel changes the level of every component logger.
func SetLevel(level string) error {
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	mu.Lock()
	defer mu.Unlock()
	base.SetLevel(parsed)
	return nil
}

// Level reports the current level.
func Level() logrus.Level {
	mu.Lock()
	defer mu.Unlock()
	return base.GetLevel()
}

// Close releases file sinks.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	for _, c := range sinks {
		_ = c.Close()
	}
	sinks = nil
	base.SetOutput(io.Discard)
}
