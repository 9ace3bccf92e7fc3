// Package logging builds the logrus logger shared by EventHub components.
package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"golang.org/x/term"
)

// New returns a logger writing to stderr. Output is human-readable text
// when stderr is a terminal and JSON otherwise, so piped runs stay
// machine-parseable. An unknown level falls back to warn.
func New(level string) *logrus.Logger {
	return NewWithWriter(os.Stderr, level, term.IsTerminal(int(os.Stderr.Fd())))
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(w io.Writer, level string, text bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(w)

	if text {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "15:04:05",
		})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.WarnLevel
	}
	logger.SetLevel(parsed)
	return logger
}

// Discard returns a logger that drops everything. Used by tests.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
