package models

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a route, stop, day or destination does not exist,
	// or exists but belongs to another user.
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidArgument is returned for malformed input: non-positive day or order numbers,
	// an empty name, an end date before the start date, or a reorder list that is not an
	// exact permutation of the day's stops.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrConflict is returned when a concurrent modification was detected at commit time
	// and the operation's retries were exhausted.
	ErrConflict = errors.New("concurrent modification")

	// ErrUnavailable is returned when the persistence store or the destination catalog
	// could not be reached. Nothing was committed; the call is safe to retry.
	ErrUnavailable = errors.New("service unavailable")
)

// Error carries one of the error kinds above together with a human-readable message.
// errors.Is(err, ErrNotFound) matches an *Error whose Kind is ErrNotFound.
type Error struct {
	Kind    error
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() []error {
	if e.cause != nil {
		return []error{e.Kind, e.cause}
	}
	return []error{e.Kind}
}

// KindName is the stable name reported to clients.
func (e *Error) KindName() string {
	return KindName(e.Kind)
}

// KindName returns the stable client-facing name of an error kind.
func KindName(kind error) string {
	switch kind {
	case ErrNotFound:
		return "not_found"
	case ErrInvalidArgument:
		return "invalid_argument"
	case ErrConflict:
		return "conflict"
	case ErrUnavailable:
		return "unavailable"
	}
	return "internal"
}

func NotFound(format string, args ...any) error {
	return &Error{Kind: ErrNotFound, Message: fmt.Sprintf(format, args...)}
}

func InvalidArgument(format string, args ...any) error {
	return &Error{Kind: ErrInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...any) error {
	return &Error{Kind: ErrConflict, Message: fmt.Sprintf(format, args...)}
}

// Unavailable wraps a store or catalog failure. The cause is kept for logging.
func Unavailable(cause error, format string, args ...any) error {
	return &Error{Kind: ErrUnavailable, Message: fmt.Sprintf(format, args...), cause: cause}
}

// ErrorResponse is the body returned for every failed request.
type ErrorResponse struct {
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message"`
}
