package main

import (
	"io"

	"github.com/charmbracelet/log"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/alnah/go-wikipdf"
)

// newLogger creates the progress logger for a run.
// Default level shows warnings only, --verbose adds conversion progress,
// --quiet keeps errors.
func newLogger(w io.Writer, f commonFlags) *log.Logger {
	level := log.WarnLevel
	switch {
	case f.quiet:
		level = log.ErrorLevel
	case f.verbose:
		level = log.DebugLevel
	}

	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progressLogger forwards library progress messages at info level.
func progressLogger(l *log.Logger) wikipdf.Logger {
	return wikipdf.LoggerFunc(func(msg string) {
		l.Info(msg)
	})
}

// setMaxProcs aligns GOMAXPROCS with the container CPU quota before the pool
// is sized.
func setMaxProcs(l *log.Logger) {
	// Error ignored: maxprocs.Set only fails if GOMAXPROCS env is invalid,
	// in which case Go runtime defaults apply and the program continues safely.
	_, _ = maxprocs.Set(maxprocs.Logger(func(format string, args ...interface{}) {
		l.Debugf(format, args...)
	}))
}
