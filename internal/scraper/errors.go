package scraper

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrorKind classifies why a strategy produced no records
type ErrorKind string

const (
	KindFetchTimeout ErrorKind = "fetch_timeout"
	KindFetchFailed  ErrorKind = "fetch_failed"
	KindParseEmpty   ErrorKind = "parse_empty"
	KindUnexpected   ErrorKind = "unexpected_failure"
)

var (
	// ErrFetchTimeout matches any fetch that ran past its time budget
	ErrFetchTimeout = errors.New("upstream fetch timed out")
	// ErrFetchFailed matches network errors and non-2xx upstream responses
	ErrFetchFailed = errors.New("upstream fetch failed")
	// ErrParseEmpty is reported when a page parsed fine but no row matched
	ErrParseEmpty = errors.New("no records matched")
)

// FetchError describes a failed page retrieval
type FetchError struct {
	URL        string
	StatusCode int
	Timeout    bool
	Err        error
}

func (e *FetchError) Error() string {
	msg := "fetching " + e.URL
	switch {
	case e.Timeout:
		msg += ": timed out"
	case e.StatusCode != 0:
		msg += fmt.Sprintf(": HTTP %d", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match the ErrFetchTimeout / ErrFetchFailed sentinels
func (e *FetchError) Is(target error) bool {
	switch target {
	case ErrFetchTimeout:
		return e.Timeout
	case ErrFetchFailed:
		return !e.Timeout
	}
	return false
}

// UnexpectedError wraps a panic recovered while running a strategy
type UnexpectedError struct {
	Strategy string
	Value    interface{}
}

func (e *UnexpectedError) Error() string {
	return fmt.Sprintf("strategy %s panicked: %v", e.Strategy, e.Value)
}

// Classify maps an error onto the failure taxonomy
func Classify(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrFetchTimeout):
		return KindFetchTimeout
	case errors.Is(err, ErrFetchFailed):
		return KindFetchFailed
	case errors.Is(err, ErrParseEmpty):
		return KindParseEmpty
	default:
		return KindUnexpected
	}
}

// transportError turns a client-side failure into a FetchError
func transportError(url string, err error) *FetchError {
	return &FetchError{URL: url, Timeout: isTimeout(err), Err: err}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
