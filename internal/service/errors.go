package service

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrForbidden      = errors.New("forbidden")
	ErrInvalidState   = errors.New("invalid state")
	ErrAttemptExpired = errors.New("attempt expired")
	ErrValidation     = errors.New("validation error")

	// ErrEvaluatorUnavailable is internal to the text evaluator; the
	// heuristic fallback always answers in its place.
	ErrEvaluatorUnavailable = errors.New("text evaluator unavailable")

	ErrAttemptNotInProgress    = fmt.Errorf("%w: attempt is not in progress", ErrInvalidState)
	ErrSectionAlreadySubmitted = fmt.Errorf("%w: section already submitted", ErrInvalidState)
)

func validationErr(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
