package collector

import (
	"context"
	"errors"
)

// Failure classes. Every fetch error wraps exactly one of these; callers
// treat them identically and drop the affected asset for the cycle.
var (
	ErrSourceUnavailable = errors.New("source unavailable")
	ErrMalformedResponse = errors.New("malformed response")
	ErrNoData            = errors.New("no data")
)

// Classify returns a short class name for logs, metrics and the journal.
func Classify(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNoData):
		return "no_data"
	case errors.Is(err, ErrMalformedResponse):
		return "malformed"
	case errors.Is(err, ErrSourceUnavailable), errors.Is(err, context.DeadlineExceeded):
		return "unavailable"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "unknown"
	}
}
