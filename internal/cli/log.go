package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger returns the CLI's diagnostic logger. Timestamps carry
// hundredths of a second since most runs finish in well under a minute.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// levelFor maps the --verbose and --quiet flags to a log level. Quiet wins.
func levelFor(verbose, quiet bool) log.Level {
	switch {
	case quiet:
		return log.WarnLevel
	case verbose:
		return log.DebugLevel
	}
	return log.InfoLevel
}

// stage times one pipeline step of a command, such as routing a scenario or
// rendering a saved result.
type stage struct {
	logger *log.Logger
	name   string
	start  time.Time
}

// startStage logs the beginning of a step at debug level with kv as fields.
func startStage(l *log.Logger, name string, kv ...any) *stage {
	l.Debug("start "+name, kv...)
	return &stage{logger: l, name: name, start: time.Now()}
}

// done logs msg with kv and the rounded elapsed time as structured fields,
// e.g. `Routed plant room routed=4 failed=0 elapsed=12ms`.
func (s *stage) done(msg string, kv ...any) {
	kv = append(kv, "elapsed", time.Since(s.start).Round(time.Millisecond))
	s.logger.Info(msg, kv...)
}

// failed logs err for the step at error level.
func (s *stage) failed(err error) {
	s.logger.Error(s.name+" failed", "err", err, "elapsed", time.Since(s.start).Round(time.Millisecond))
}

type ctxKey int

const loggerKey ctxKey = 0

// withLogger attaches l to ctx for subcommands.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext returns the logger attached by the root command, or
// log.Default() when a command runs outside it (as in tests).
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
