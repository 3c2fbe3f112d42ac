package main

import (
	"io"
	"log/slog"

	"github.com/advdv/fmtrelay/cmd/fmtrelay/internal/locate"
)

// newLogger writes to stderr only; stdout carries formatter output.
func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	})).With("app", "fmtrelay")
}

func locateLogger(logger *slog.Logger) locate.Option {
	return locate.WithLogger(logger.With("component", "locate"))
}
