package database

import (
	"strings"
	"time"
)

const (
	retryBaseDelay = 10 * time.Millisecond
	retryMaxDelay  = 500 * time.Millisecond
)

// WithRetry runs op, retrying for as long as it keeps failing with a SQLite
// write-contention error. The retry count is deliberately unbounded: the
// embedded store clears the busy state once the concurrent writer finishes,
// and callers treat contention as invisible latency rather than an error.
// Any other failure is returned as-is.
func WithRetry(op func() error) error {
	delay := retryBaseDelay
	for {
		err := op()
		if err == nil || !isBusy(err) {
			return err
		}
		time.Sleep(delay)
		if delay *= 2; delay > retryMaxDelay {
			delay = retryMaxDelay
		}
	}
}

// isBusy reports whether err is a transient contention error. Only SQLite's
// busy/locked conditions qualify; everything else is a real failure.
func isBusy(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked") ||
		strings.Contains(msg, "SQLITE_BUSY")
}
