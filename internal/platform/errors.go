package platform

import (
	"errors"
	"fmt"
	"time"
)

// ErrAuthExpired means the platform token is invalid. It is surfaced to the
// caller as "reconnect required" and never retried inside the core.
var ErrAuthExpired = errors.New("platform auth expired: reconnect required")

// RateLimitedError is returned when the platform throttled us. Partial results
// fetched before the limit hit are still committed by the caller.
type RateLimitedError struct {
	Platform   string
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("%s rate limited, retry after %s", e.Platform, e.RetryAfter)
}

// IsRateLimited reports whether err is a rate-limit error
func IsRateLimited(err error) bool {
	var rl *RateLimitedError
	return errors.As(err, &rl)
}
