// Package logging configures the process-wide phuslu logger.
package logging

import (
	"io"
	"os"

	"github.com/phuslu/log"
)

// Setup replaces log.DefaultLogger. format is "json" or "console";
// anything else falls back to console output.
func Setup(level, format string) {
	log.DefaultLogger = New(level, format, os.Stderr)
}

// New builds a logger writing to w.
func New(level, format string, w io.Writer) log.Logger {
	logger := log.Logger{
		Level:      log.ParseLevel(level),
		TimeFormat: "15:04:05",
	}
	if format == "json" {
		logger.TimeFormat = ""
		logger.Writer = &log.IOWriter{Writer: w}
		return logger
	}
	logger.Writer = &log.ConsoleWriter{
		Writer:         w,
		ColorOutput:    w == os.Stderr,
		EndWithMessage: true,
	}
	return logger
}
