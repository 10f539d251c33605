package retry

import (
	"net/http"
	"strconv"
	"time"
)

// RetryableStatus reports whether an HTTP status code is, by default,
// considered transient and worth retrying (C1 retryable-error
// classification: 429, 500, 502, 503 and 504).
func RetryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// ParseRetryAfter parses a Retry-After header value, which per RFC 9110 is
// either a number of seconds or an HTTP-date. A past HTTP-date clamps to
// zero rather than producing a negative delay. An empty or unparsable value
// returns (0, false).
func ParseRetryAfter(header string, now time.Time) (time.Duration, bool) {
	if header == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(header); err == nil {
		if secs < 0 {
			secs = 0
		}
		return time.Duration(secs) * time.Second, true
	}
	when, err := http.ParseTime(header)
	if err != nil {
		return 0, false
	}
	d := when.Sub(now)
	if d < 0 {
		d = 0
	}
	return d, true
}

// DelayForAttempt resolves the delay to use before the given attempt,
// preferring a server-provided Retry-After value over the configured
// backoff curve when one was supplied.
func DelayForAttempt(config Config, attempt int, retryAfter string, now time.Time) time.Duration {
	if d, ok := ParseRetryAfter(retryAfter, now); ok {
		return d
	}
	if config.Jitter {
		return BackoffWithJitter(attempt, config.InitialDelay, config.MaxDelay, config.Factor)
	}
	return Backoff(attempt, config.InitialDelay, config.MaxDelay, config.Factor)
}
