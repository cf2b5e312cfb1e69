package httpfetch

import (
	"net/http"
	"time"
)

// State is a step of the retry state machine.
type State int

const (
	// StateAttempting means a request is about to be issued.
	StateAttempting State = iota
	// StateBackoff means the last attempt failed and another will follow after a delay.
	StateBackoff
	// StateSucceeded is terminal: a 2xx response was received.
	StateSucceeded
	// StateExhausted is terminal failure: attempts ran out, or the status is not retryable.
	StateExhausted
)

func (s State) String() string {
	switch s {
	case StateAttempting:
		return "attempting"
	case StateBackoff:
		return "backoff"
	case StateSucceeded:
		return "succeeded"
	case StateExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// Outcome is what one attempt produced.
type Outcome struct {
	StatusCode    int   // zero when Err is set
	Err           error // transport-level failure
	RetryAfter    time.Duration
	HasRetryAfter bool
}

// RetryPolicy decides what follows an attempt. It holds no state so it can
// be tested without a network or a clock.
type RetryPolicy struct {
	MaxAttempts int
	// BaseDelay drives both the exponential 429 backoff and the linear
	// transport-failure backoff.
	BaseDelay time.Duration
	// MinDelay is the provider's mandatory inter-request spacing. A
	// server-supplied Retry-After is never honoured below twice this value.
	MinDelay time.Duration
}

// retryAfterMargin is added to a server-supplied Retry-After.
const retryAfterMargin = time.Second

// Next returns the state reached after attempt (1-based) ended with o and,
// for StateBackoff, how long to wait before the next attempt.
func (p RetryPolicy) Next(attempt int, o Outcome) (State, time.Duration) {
	final := attempt >= p.MaxAttempts

	if o.Err != nil {
		if final {
			return StateExhausted, 0
		}
		return StateBackoff, p.BaseDelay * time.Duration(attempt)
	}

	switch {
	case o.StatusCode >= 200 && o.StatusCode < 300:
		return StateSucceeded, 0
	case o.StatusCode == http.StatusTooManyRequests:
		if final {
			return StateExhausted, 0
		}
		return StateBackoff, p.rateLimitDelay(attempt, o)
	default:
		return StateExhausted, 0
	}
}

func (p RetryPolicy) rateLimitDelay(attempt int, o Outcome) time.Duration {
	if o.HasRetryAfter {
		d := o.RetryAfter + retryAfterMargin
		if floor := 2 * p.MinDelay; d < floor {
			d = floor
		}
		return d
	}
	return p.BaseDelay * time.Duration(1<<uint(attempt-1))
}
