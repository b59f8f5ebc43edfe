// Package apierrors is the external error taxonomy exposed across the
// RepoManager boundary, grounded on original_source's string-carrying
// Result<T, String> convention (every fallible operation in client.rs,
// repo.rs, commits.rs, branches.rs returns an owned String on error) and
// the teacher's internal/domain/repository/errors.go sentinel-error style.
// Each variant supports errors.Is/errors.As so callers can branch on kind
// while still formatting a human-readable string for logs.
package apierrors

import "fmt"

// Kind tags the taxonomy member so callers can switch without type
// assertions when they only care about the category.
type Kind string

const (
	InvalidInput       Kind = "invalid_input"
	StateViolation     Kind = "state_violation"
	SubprocessFailure  Kind = "subprocess_failure"
	ParseFailure       Kind = "parse_failure"
	TransportFailure   Kind = "transport_failure"
	APIStatusFailure   Kind = "api_status_failure"
	RateLimitExhausted Kind = "rate_limit_exhausted"
	InitFailure        Kind = "init_failure"
)

// Error is the single concrete error type for the taxonomy: Kind
// discriminates, Message is the human-readable detail, and Err optionally
// wraps an underlying cause for errors.Unwrap.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error with the same Kind, so callers
// can do errors.Is(err, apierrors.New(apierrors.InvalidInput, "")).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// New builds a taxonomy error with no wrapped cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds a taxonomy error around an underlying cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func Invalidf(format string, args ...interface{}) *Error {
	return New(InvalidInput, fmt.Sprintf(format, args...))
}

func StateViolationf(format string, args ...interface{}) *Error {
	return New(StateViolation, fmt.Sprintf(format, args...))
}
