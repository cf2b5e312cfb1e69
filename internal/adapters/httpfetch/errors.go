package httpfetch

import (
	"errors"
	"fmt"
)

// Sentinel errors classifying a failed fetch
var (
	// ErrRateLimited indicates HTTP 429 persisted through every attempt
	ErrRateLimited = errors.New("rate limited")

	// ErrUnexpectedStatus indicates a non-2xx status that is not retried
	ErrUnexpectedStatus = errors.New("unexpected HTTP status")

	// ErrTransport indicates the request never produced a response
	ErrTransport = errors.New("transport failure")
)

// FetchError is returned once the retry state machine gives up.
type FetchError struct {
	URL        string
	StatusCode int // zero for transport failures
	Attempts   int
	Kind       error // one of the sentinels above
	Err        error // underlying cause, if any
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s failed after %d attempt(s): %v (status %d)", e.URL, e.Attempts, e.Kind, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s failed after %d attempt(s): %v: %v", e.URL, e.Attempts, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() []error {
	errs := []error{e.Kind}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}
