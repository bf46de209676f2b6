package listing

import "errors"

// ListError represents a domain error from listing operations.
//
// These parallel the provider-facing failure modes: the query produced no
// result, the readiness wait timed out, or the wait was abandoned by the
// caller. The Listing Client additionally normalizes all of them into the
// generic I/O category for callers that only care about pass/fail.
type ListError struct {
	// Code is the error category
	Code ErrorCode

	// Message is a human-readable error description
	Message string

	// Path is the directory path related to the error (if applicable)
	Path string

	// Err is the underlying cause, if any
	Err error
}

// Error implements the error interface.
func (e *ListError) Error() string {
	if e.Path != "" {
		return e.Message + ": " + e.Path
	}
	return e.Message
}

// Unwrap returns the underlying cause for errors.Is/errors.As chains.
func (e *ListError) Unwrap() error {
	return e.Err
}

// ErrorCode represents the category of a listing error.
type ErrorCode int

const (
	// ErrQueryFailed indicates the query callback produced no result.
	// Provider-side failure or the target directory was deleted mid-query.
	// Not retried at this layer; retry policy belongs to the caller.
	ErrQueryFailed ErrorCode = iota

	// ErrTimeout indicates no readiness notification arrived within the
	// configured wait duration
	ErrTimeout

	// ErrCancelled indicates the wait was abandoned by the caller before
	// resolution, distinct from failure so callers can tell voluntary
	// abandonment apart
	ErrCancelled

	// ErrIO is the generic I/O category the Listing Client normalizes
	// the other codes into
	ErrIO
)

// String returns a human-readable code name.
func (c ErrorCode) String() string {
	switch c {
	case ErrQueryFailed:
		return "query failed"
	case ErrTimeout:
		return "timeout"
	case ErrCancelled:
		return "cancelled"
	case ErrIO:
		return "io error"
	default:
		return "unknown"
	}
}

// CodeOf extracts the ErrorCode from an error, unwrapping as needed.
// Returns ErrIO, false when no ListError is found in the chain.
func CodeOf(err error) (ErrorCode, bool) {
	var le *ListError
	if errors.As(err, &le) {
		return le.Code, true
	}
	return ErrIO, false
}
