// Package log builds the generator's slog.Logger.
//
// Without a log file, records below Error go to stdout and errors go to
// stderr. With a log file, the console only receives errors and the file
// receives everything at the configured level.
package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// LevelTrace sits below Debug. At this level the generator also dumps every
// serialized blob.
const LevelTrace slog.Level = -8

// ParseLevel maps a level name to its slog.Level. The empty string is Info.
func ParseLevel(s string) (slog.Level, error) {
	switch s {
	case "trace":
		return LevelTrace, nil
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// MultiHandler fans out records to multiple handlers.
type MultiHandler struct{ hs []slog.Handler }

func NewMultiHandler(hs ...slog.Handler) MultiHandler { return MultiHandler{hs: hs} }

func (m MultiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.hs {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m MultiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, h := range m.hs {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		_ = h.Handle(ctx, r.Clone())
	}
	return nil
}

func (m MultiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make([]slog.Handler, len(m.hs))
	for i, h := range m.hs {
		out[i] = h.WithAttrs(attrs)
	}
	return MultiHandler{hs: out}
}

func (m MultiHandler) WithGroup(name string) slog.Handler {
	out := make([]slog.Handler, len(m.hs))
	for i, h := range m.hs {
		out[i] = h.WithGroup(name)
	}
	return MultiHandler{hs: out}
}

// LevelFilter passes only the levels accepted by pass to h.
type LevelFilter struct {
	pass func(slog.Level) bool
	h    slog.Handler
}

func (f LevelFilter) Enabled(ctx context.Context, level slog.Level) bool {
	return f.pass(level) && f.h.Enabled(ctx, level)
}

func (f LevelFilter) Handle(ctx context.Context, r slog.Record) error {
	if !f.pass(r.Level) {
		return nil
	}
	return f.h.Handle(ctx, r)
}

func (f LevelFilter) WithAttrs(attrs []slog.Attr) slog.Handler {
	return LevelFilter{pass: f.pass, h: f.h.WithAttrs(attrs)}
}

func (f LevelFilter) WithGroup(name string) slog.Handler {
	return LevelFilter{pass: f.pass, h: f.h.WithGroup(name)}
}

// Options configures SetupLogger.
type Options struct {
	Level string
	// File receives all records when set.
	File string
	// JSON switches every handler to slog's JSON format.
	JSON   bool
	Stdout io.Writer
	Stderr io.Writer
}

func newHandler(w io.Writer, level slog.Level, json bool) slog.Handler {
	opts := &slog.HandlerOptions{Level: level, ReplaceAttr: levelNames}
	if json {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// levelNames prints LevelTrace as TRACE instead of DEBUG-4.
func levelNames(_ []string, a slog.Attr) slog.Attr {
	if a.Key == slog.LevelKey {
		if l, ok := a.Value.Any().(slog.Level); ok && l == LevelTrace {
			a.Value = slog.StringValue("TRACE")
		}
	}
	return a
}

// SetupLogger builds a logger with console and optional file handlers. The
// returned closers must be closed on exit.
func SetupLogger(o Options) (*slog.Logger, []io.Closer, error) {
	level, err := ParseLevel(o.Level)
	if err != nil {
		return nil, nil, err
	}
	stdout, stderr := o.Stdout, o.Stderr
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}

	var handlers []slog.Handler
	if o.File == "" {
		handlers = append(handlers,
			LevelFilter{pass: func(l slog.Level) bool { return l < slog.LevelError }, h: newHandler(stdout, level, o.JSON)},
			LevelFilter{pass: func(l slog.Level) bool { return l >= slog.LevelError }, h: newHandler(stderr, slog.LevelError, o.JSON)},
		)
	} else {
		handlers = append(handlers, newHandler(stderr, slog.LevelError, o.JSON))
	}

	var closers []io.Closer
	if o.File != "" {
		f, err := os.OpenFile(o.File, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, f)
		handlers = append(handlers, newHandler(f, level, o.JSON))
	}
	return slog.New(NewMultiHandler(handlers...)), closers, nil
}
