// Package logging configures the process-wide structured logger: leveled,
// structured logging via logrus, teeing to stderr and an optional debug
// file (truncate/append per the two debug variants in spec §6). Logrus
// output never touches stdout: stdout is reserved for the JSON-RPC channel
// in both stdio frontends (spec §4.8), keeping protocol bytes and
// diagnostics on separate streams.
package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// DebugMode mirrors the three-valued `debug` config knob from spec §6.
type DebugMode string

const (
	DebugOff         DebugMode = ""
	DebugTruncate    DebugMode = "truncate"
	DebugNoTruncate  DebugMode = "no_truncate"
)

// New builds a process logger. component names the process ("broker",
// "extension-peer"); it does not appear on log entries, since New returns
// the base logger rather than the entry carrying the component field.
// When mode is not
// DebugOff and debugFile is non-empty, output also tees to that file; the
// file is truncated on open for DebugTruncate and appended to for
// DebugNoTruncate, matching the two debug config variants spec §6 names.
func New(component string, mode DebugMode, debugFile string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(logrus.InfoLevel)
	if mode != DebugOff {
		logger.SetLevel(logrus.DebugLevel)
	}

	if mode != DebugOff && debugFile != "" {
		flags := os.O_CREATE | os.O_WRONLY | os.O_APPEND
		if mode == DebugTruncate {
			flags = os.O_CREATE | os.O_WRONLY | os.O_TRUNC
		}
		if f, err := os.OpenFile(debugFile, flags, 0o600); err == nil {
			logger.SetOutput(io.MultiWriter(os.Stderr, f))
		} else {
			logger.WithError(err).Warn("could not open debug log file, logging to stderr only")
		}
	}

	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return logger.WithField("component", component).Logger
}

// BestEffort logs a non-fatal failure at Warn and swallows it, naming the
// operation that failed. Spec §7 classifies icon updates, tool-list-changed
// notifications, session persistence, and log writes as best-effort:
// catch, log, continue.
func BestEffort(logger *logrus.Logger, operation string, err error) {
	if err == nil {
		return
	}
	logger.WithError(err).WithField("operation", operation).Warn("best-effort operation failed")
}
