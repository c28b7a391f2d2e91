// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package logger provides the leveled, structured logger used across pdfsum.
// Log lines go to stderr so that stdout stays reserved for command output.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/gookit/slog"
	"github.com/gookit/slog/handler"
)

// Logger is the minimal logging surface the rest of the module depends on.
type Logger interface {
	Debug(args ...any)
	Info(args ...any)
	Warn(args ...any)
	Error(args ...any)
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// Fields carries structured context such as request_id, op and status.
type Fields map[string]any

// New returns a gookit/slog logger writing text lines to out at the given
// level and above. Unknown levels fall back to warn.
func New(level string, out io.Writer) Logger {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "" {
		level = "warn"
	}
	logLevel := slog.LevelByName(level)

	var levels slog.Levels
	for _, lv := range slog.AllLevels {
		if lv <= logLevel {
			levels = append(levels, lv)
		}
	}

	h := handler.NewIOWriterHandler(out, levels)
	h.SetFormatter(slog.NewTextFormatter())

	return slog.NewWithHandlers(h)
}

// NewStderr is New writing to os.Stderr.
func NewStderr(level string) Logger {
	return New(level, os.Stderr)
}

// DebugWithFields logs msg with structured fields when l supports them.
func DebugWithFields(l Logger, msg string, fields Fields) {
	if lg, ok := l.(*slog.Logger); ok {
		lg.WithFields(slog.M(fields)).Debug(msg)
		return
	}
	l.Debug(msg)
}

// InfoWithFields logs msg with structured fields when l supports them.
func InfoWithFields(l Logger, msg string, fields Fields) {
	if lg, ok := l.(*slog.Logger); ok {
		lg.WithFields(slog.M(fields)).Info(msg)
		return
	}
	l.Info(msg)
}

// WarnWithFields logs msg with structured fields when l supports them.
func WarnWithFields(l Logger, msg string, fields Fields) {
	if lg, ok := l.(*slog.Logger); ok {
		lg.WithFields(slog.M(fields)).Warn(msg)
		return
	}
	l.Warn(msg)
}

type nop struct{}

// Nop returns a Logger that discards everything.
func Nop() Logger { return nop{} }

func (nop) Debug(...any)          {}
func (nop) Info(...any)           {}
func (nop) Warn(...any)           {}
func (nop) Error(...any)          {}
func (nop) Debugf(string, ...any) {}
func (nop) Infof(string, ...any)  {}
func (nop) Warnf(string, ...any)  {}
func (nop) Errorf(string, ...any) {}
