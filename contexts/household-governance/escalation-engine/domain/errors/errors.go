package errors

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput             = errors.New("invalid escalation input")
	ErrUnknownWorkflow          = errors.New("unknown escalation workflow")
	ErrSubjectNotFound          = errors.New("subject not found")
	ErrCounterNotFound          = errors.New("escalation counter not found")
	ErrSubjectNotPending        = errors.New("subject has no pending decision")
	ErrSubjectNotEligible       = errors.New("subject is not eligible for this workflow")
	ErrAlreadyPending           = errors.New("a decision is already pending for this subject")
	ErrParticipantNotEligible   = errors.New("participant is not eligible for this decision")
	ErrRoleRequired             = errors.New("actor lacks the required family role")
	ErrCooldownActive           = errors.New("request cooldown is still active")
	ErrOverrideNotAllowed       = errors.New("workflow does not accept explicit admin decisions")
	ErrAcknowledgementNotNeeded = errors.New("workflow does not use acknowledgements")
	ErrCounterResolved          = errors.New("escalation counter is already resolved")

	// ErrTryAgain is returned when concurrent writers kept conflicting after
	// every retry; callers may offer the user a retry.
	ErrTryAgain = errors.New("concurrent update conflict, try again")
)

// ValidationError is a user-correctable failure bound to one input field.
// Err is one of the sentinels above.
type ValidationError struct {
	Field         string
	Err           error
	DaysRemaining int
}

func (e *ValidationError) Error() string {
	if e.DaysRemaining > 0 {
		return fmt.Sprintf("%s: %v (%d days remaining)", e.Field, e.Err, e.DaysRemaining)
	}
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func Validation(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}

func Cooldown(field string, daysRemaining int) error {
	return &ValidationError{Field: field, Err: ErrCooldownActive, DaysRemaining: daysRemaining}
}

// AsValidation extracts the structured failure from err.
func AsValidation(err error) (*ValidationError, bool) {
	var target *ValidationError
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}
