// Package logger configures the process-wide slog logger.
package logger

import (
	"io"
	"log/slog"
	"os"

	"github.com/getsentry/sentry-go"
	slogmulti "github.com/samber/slog-multi"
	slogsentry "github.com/samber/slog-sentry/v2"
)

// Log is the global logger instance.
var Log *slog.Logger

// Init builds the logger with New on stderr and installs it as the slog default.
// The background daemon's stderr is its log file.
func Init(isDev bool, sentryDSN string) *slog.Logger {
	Log = New(os.Stderr, isDev, sentryDSN)
	slog.SetDefault(Log)
	return Log
}

// New returns a logger writing to w.
// Development: text format at debug level. Otherwise JSON at info level.
// With a Sentry DSN, errors are also sent to Sentry.
func New(w io.Writer, isDev bool, sentryDSN string) *slog.Logger {
	var handlers []slog.Handler
	if isDev {
		handlers = append(handlers, slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	} else {
		handlers = append(handlers, slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}

	if sentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:              sentryDSN,
			TracesSampleRate: 1.0,
		})
		if err == nil {
			handlers = append(handlers, slogsentry.Option{Level: slog.LevelError}.NewSentryHandler())
		} else {
			slog.New(handlers[0]).Warn("sentry init failed", "err", err)
		}
	}

	if len(handlers) > 1 {
		return slog.New(slogmulti.Fanout(handlers...))
	}
	return slog.New(handlers[0])
}
