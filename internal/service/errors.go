package service

import (
	"errors"
	"fmt"
)

// --- Error Definitions ---
var (
	ErrProgramNotFound    = errors.New("program not found")
	ErrCohortNotFound     = errors.New("cohort not found")
	ErrWeekNotFound       = errors.New("week not found")
	ErrEnrollmentNotFound = errors.New("enrollment not found")
	ErrForbidden          = errors.New("access denied to this organization's content")
	ErrAlreadyEnrolled    = errors.New("user is already enrolled in this program")
	ErrCohortFull         = errors.New("cohort has reached its enrollment limit")

	// ErrValidation is wrapped with a description of the offending field; the
	// message is safe to return to the caller.
	ErrValidation = errors.New("validation failed")
)

func validationError(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}
