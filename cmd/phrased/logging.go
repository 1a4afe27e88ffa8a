package main

import (
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"phrased/internal/acquire"
	"phrased/internal/httpapi"
	"phrased/internal/manager"
)

// logger is the CLI's own logger; Nop until setupLogging runs.
var logger = zerolog.Nop()

// setupLogging builds the process logger and hands it to every package
// that logs.
func setupLogging(level, format string, w io.Writer) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	var l zerolog.Logger
	if strings.EqualFold(format, "json") {
		l = zerolog.New(w)
	} else {
		l = zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339})
	}
	l = l.Level(lvl).With().Timestamp().Logger()

	logger = l
	acquire.SetLogger(l)
	manager.SetLogger(l)
	httpapi.SetLogger(l)
	httpapi.SetRequestLogLevel(lvl.String())
	return l
}
