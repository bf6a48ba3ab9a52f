package transport

import "time"

// RetryPolicy controls how failed requests are retried. Backoff multiplies
// the delay after every attempt; a factor of 1 keeps the delay constant.
type RetryPolicy struct {
	// MaxAttempts is the total number of tries, including the first.
	MaxAttempts int

	// Delay is the wait before the second attempt.
	Delay time.Duration

	// Backoff is the multiplier applied to Delay after each attempt.
	Backoff float64

	// Retryable decides whether a response status or transport error
	// warrants another attempt. Nil uses DefaultRetryable.
	Retryable func(statusCode int, err error) bool
}

// DefaultRetryPolicy returns the retry policy used against both upstream
// services: one retry after a constant five second delay.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 2,
		Delay:       5 * time.Second,
		Backoff:     1,
		Retryable:   DefaultRetryable,
	}
}

// DefaultRetryable retries transport-level failures, rate limiting, and
// server-side errors. Client errors are never retried.
func DefaultRetryable(statusCode int, err error) bool {
	if err != nil {
		return true
	}
	return statusCode == 429 || statusCode >= 500
}

// normalize fills in zero values so a partially specified policy behaves.
func (p RetryPolicy) normalize() RetryPolicy {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if p.Backoff <= 0 {
		p.Backoff = 1
	}
	if p.Retryable == nil {
		p.Retryable = DefaultRetryable
	}
	return p
}
