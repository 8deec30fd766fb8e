// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/apex/log"
	"github.com/apex/log/handlers/json"
	"github.com/apex/log/handlers/multi"
)

// EnvLevel names the environment variable consulted for the log level when no
// explicit level is given.
const EnvLevel = "WEATHER_HARVESTER_LOG"

// Options controls how New assembles a logger.
type Options struct {
	// Level is one of debug, info, warn, error, fatal. Empty falls back to
	// EnvLevel and then to info.
	Level string
	// Verbose forces debug regardless of Level.
	Verbose bool
	// Console receives the human readable lines. Defaults to os.Stderr.
	Console io.Writer
	// File, when set, additionally receives JSON records.
	File string
}

// New builds an apex logger from opts. The returned close func releases the
// log file, if any, and is always non-nil.
func New(opts Options) (*log.Logger, func() error, error) {
	level, err := resolveLevel(opts)
	if err != nil {
		return nil, noop, err
	}

	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	var handler log.Handler = &CustomHandler{Writer: console}
	closer := noop

	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil { //nolint:mnd
			return nil, noop, fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600) //nolint:mnd
		if err != nil {
			return nil, noop, fmt.Errorf("failed to open log file: %w", err)
		}
		handler = multi.New(handler, json.New(f))
		closer = f.Close
	}

	return &log.Logger{Handler: handler, Level: level}, closer, nil
}

// InitLogger installs a logger built from opts as the apex default so that
// package level log calls in main agree with the injected loggers.
func InitLogger(opts Options) (*log.Logger, func() error, error) {
	l, closer, err := New(opts)
	if err != nil {
		return nil, closer, err
	}
	log.SetHandler(l.Handler)
	log.SetLevel(l.Level)
	return l, closer, nil
}

func resolveLevel(opts Options) (log.Level, error) {
	if opts.Verbose {
		return log.DebugLevel, nil
	}
	level := opts.Level
	if level == "" {
		level = os.Getenv(EnvLevel)
	}
	if level == "" {
		return log.InfoLevel, nil
	}
	// WARNING and CRITICAL are accepted as aliases.
	switch strings.ToLower(level) {
	case "warning":
		level = "warn"
	case "critical":
		level = "fatal"
	}
	l, err := log.ParseLevel(strings.ToLower(level))
	if err != nil {
		return log.InfoLevel, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
	}
	return l, nil
}

func noop() error { return nil }

// CustomHandler formats log messages as single human readable lines.
type CustomHandler struct {
	Writer io.Writer
	mu     sync.Mutex
}

// HandleLog implements the log.Handler interface
func (h *CustomHandler) HandleLog(e *log.Entry) error {
	timestamp := e.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now()
	}
	level := strings.ToUpper(e.Level.String())

	var b strings.Builder
	fmt.Fprintf(&b, "%s %.1s %s", timestamp.Format("2006-01-02 15:04:05"), level, e.Message)
	for _, name := range e.Fields.Names() {
		fmt.Fprintf(&b, " %s=%v", name, e.Fields.Get(name))
	}
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.Writer, b.String())
	return err
}
