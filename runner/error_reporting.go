package runner

import (
	raven "github.com/getsentry/raven-go"
	"github.com/pkg/errors"
)

// ErrorReporter - Sends failed cycles to Sentry. A nil *ErrorReporter drops everything.
type ErrorReporter struct {
	client *raven.Client
}

// NewErrorReporter returns nil if no DSN is configured
func NewErrorReporter(dsn string) (*ErrorReporter, error) {
	if dsn == "" {
		return nil, nil
	}
	client, err := raven.New(dsn)
	if err != nil {
		return nil, errors.Wrap(err, "could not set up Sentry client")
	}
	return &ErrorReporter{client: client}, nil
}

func (r *ErrorReporter) Report(err error, tags map[string]string) {
	if r == nil || err == nil {
		return
	}
	r.client.CaptureError(err, tags)
}

// Close waits for queued reports to be sent
func (r *ErrorReporter) Close() {
	if r == nil {
		return
	}
	r.client.Wait()
	r.client.Close()
}
