package logger

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
)

// New returns a structured logger writing JSON to stdout with level from string.
func New(level string) *slog.Logger {
	return NewWithWriter(level, os.Stdout)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(level string, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	handler := slog.NewJSONHandler(w, opts)
	return slog.New(handler)
}

// NewSplit writes every record at level or above to w, and additionally
// copies error records to errW.
func NewSplit(level string, w, errW io.Writer) *slog.Logger {
	return slog.New(splitHandler{
		all:    slog.NewJSONHandler(w, &slog.HandlerOptions{Level: parseLevel(level)}),
		errors: slog.NewJSONHandler(errW, &slog.HandlerOptions{Level: slog.LevelError}),
	})
}

type splitHandler struct {
	all, errors slog.Handler
}

func (h splitHandler) Enabled(ctx context.Context, l slog.Level) bool {
	return h.all.Enabled(ctx, l) || h.errors.Enabled(ctx, l)
}

func (h splitHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	if h.all.Enabled(ctx, r.Level) {
		errs = append(errs, h.all.Handle(ctx, r.Clone()))
	}
	if h.errors.Enabled(ctx, r.Level) {
		errs = append(errs, h.errors.Handle(ctx, r.Clone()))
	}
	return errors.Join(errs...)
}

func (h splitHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return splitHandler{all: h.all.WithAttrs(attrs), errors: h.errors.WithAttrs(attrs)}
}

func (h splitHandler) WithGroup(name string) slog.Handler {
	return splitHandler{all: h.all.WithGroup(name), errors: h.errors.WithGroup(name)}
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
