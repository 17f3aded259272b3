package errors

import (
	"fmt"
	"os"
	"time"

	"github.com/getsentry/sentry-go"

	"nexura/pkg/log"
)

// Reporter forwards errors to an external sink
type Reporter interface {
	Report(error)
}

// setting this variable disables reporting
const debugMode = "DEBUG"

var reporters []Reporter

type sentryReporter struct{}

func (s *sentryReporter) Report(err error) {
	sentry.CaptureException(err)
}

// NewSentryReporter initialises sentry and registers it as a reporter.
// An empty DSN leaves reporting disabled.
func NewSentryReporter(dsn, environment string) error {
	if dsn == "" {
		log.Warn("empty DSN found, skipping sentry reporter initialization.")
		return nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:         dsn,
		Environment: environment,
	})
	if err != nil {
		return fmt.Errorf("init sentry: %w", err)
	}
	log.Info("sentry error reporter initialized.")
	reporters = append(reporters, &sentryReporter{})
	return nil
}

// Register adds a custom reporter
func Register(r Reporter) {
	reporters = append(reporters, r)
}

// Flush waits for buffered sentry events
func Flush() {
	sentry.Flush(2 * time.Second)
}

// Report sends err to every registered reporter unless DEBUG is set
func Report(err error) {
	if err == nil || len(reporters) == 0 {
		return
	}
	if os.Getenv(debugMode) != "" {
		return
	}
	for _, r := range reporters {
		r.Report(err)
	}
}

// WrapAndReport wraps err with msg, reports it and returns the wrapped error
func WrapAndReport(err error, msg string) error {
	if err == nil {
		return nil
	}
	wrapped := fmt.Errorf("%s: %w", msg, err)
	Report(wrapped)
	return wrapped
}
