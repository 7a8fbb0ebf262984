package apperrors

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound      = errors.New("resource not found")
	ErrAlreadyExists = errors.New("resource already exists")

	ErrInvalidRequest = errors.New("invalid request body")
	ErrValidation     = errors.New("validation failed")
	ErrUnauthorized   = errors.New("authentication required")
	ErrForbidden      = errors.New("action not allowed for this user")

	ErrTaskNotOpen              = errors.New("task is not open for applications")
	ErrOwnTask                  = errors.New("cannot apply to own task")
	ErrApplicationNotPending    = errors.New("application is not pending")
	ErrInvalidApplicationStatus = errors.New("application cannot be withdrawn in its current status")
	ErrWithdrawalQuotaExceeded  = errors.New("monthly withdrawal limit reached")
	ErrTaskAlreadyCompleted     = errors.New("task is already completed")
	ErrInvalidTaskStatus        = errors.New("task is not in progress")
	ErrPendingReviews           = errors.New("pending reviews must be submitted before creating a new task")
	ErrContactInfo              = errors.New("message contains contact information")
)

type DuplicateApplicationError struct {
	TaskID         string
	ProfessionalID string
}

func (e *DuplicateApplicationError) Error() string {
	return fmt.Sprintf("professional '%s' already applied to task '%s'", e.ProfessionalID, e.TaskID)
}
func (e *DuplicateApplicationError) Is(target error) bool { return target == ErrAlreadyExists }

// ContactInfoError reports which kind of contact detail was found in a
// free-text message: phone, url or email.
type ContactInfoError struct{ Reason string }

func (e *ContactInfoError) Error() string {
	return fmt.Sprintf("message contains contact information (%s)", e.Reason)
}
func (e *ContactInfoError) Is(target error) bool { return target == ErrContactInfo }

// QueryValidationError carries every problem found in listing query
// parameters.
type QueryValidationError struct{ Errors []string }

func (e *QueryValidationError) Error() string {
	return "invalid query parameters: " + strings.Join(e.Errors, "; ")
}
func (e *QueryValidationError) Is(target error) bool { return target == ErrValidation }
