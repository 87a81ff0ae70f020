// Package apperr defines the error taxonomy shared by the stores and the API.
package apperr

import "errors"

var (
	// ErrNotFound indicates a referenced property, conversation or visit request does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized indicates the principal is not a party to the resource.
	ErrUnauthorized = errors.New("not authorized")

	// ErrValidation indicates rejected input. Nothing was persisted.
	ErrValidation = errors.New("invalid input")

	// ErrIllegalTransition indicates an action not permitted from the current visit status.
	ErrIllegalTransition = errors.New("illegal transition")

	// ErrConflict indicates a concurrent write won twice in a row.
	ErrConflict = errors.New("conflict")

	// ErrUnauthenticated indicates no principal could be resolved for the request.
	ErrUnauthenticated = errors.New("not authenticated")

	// ErrNotFoundOrUnauthorized hides whether a visit request exists from callers
	// who may not act on it. It matches both ErrNotFound and ErrUnauthorized.
	ErrNotFoundOrUnauthorized error = hiddenError{}
)

type hiddenError struct{}

func (hiddenError) Error() string { return "not found or not authorized" }

func (hiddenError) Is(target error) bool {
	return target == ErrNotFound || target == ErrUnauthorized
}

// Validation wraps ErrValidation with a caller-facing message.
func Validation(msg string) error {
	return &validationError{msg: msg}
}

type validationError struct {
	msg string
}

func (e *validationError) Error() string { return e.msg }

func (e *validationError) Unwrap() error { return ErrValidation }
