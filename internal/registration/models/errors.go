package models

import (
	"fmt"
	"strings"

	dErrors "membership/pkg/domain-errors"
)

var (
	ErrTransitionPending   = dErrors.New(dErrors.CodeConflict, "a step transition is already in progress")
	ErrStaleResult         = dErrors.New(dErrors.CodeConflict, "the step changed before the check completed")
	ErrSubmissionBusy      = dErrors.New(dErrors.CodeConflict, "a submission is already in progress")
	ErrNotTerminal         = dErrors.New(dErrors.CodeConflict, "submission is only possible from the final step")
	ErrStepMismatch        = dErrors.New(dErrors.CodeConflict, "the request targets a step that is not current")
	ErrSubmitRequired      = dErrors.New(dErrors.CodeConflict, "the final step completes through submission")
	ErrParentNotSelected   = dErrors.New(dErrors.CodeValidation, "select the parent location first")
	ErrUnknownReference    = dErrors.New(dErrors.CodeValidation, "the selected value is not in the reference list")
	ErrFileAlreadyResolved = dErrors.New(dErrors.CodeConflict, "file already uploaded; remove it before attaching another")
	ErrNoDraft             = dErrors.New(dErrors.CodeNotFound, "no registration in progress")
)

// FieldError is a field-local validation message.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError blocks a forward transition. It is resolved client-side
// and never reaches persistence or collaborators.
type ValidationError struct {
	Step   StepID
	Fields []FieldError
}

func NewValidationError(step StepID, fields ...FieldError) *ValidationError {
	return &ValidationError{Step: step, Fields: fields}
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return fmt.Sprintf("%s step invalid: %s", e.Step, strings.Join(parts, "; "))
}

func (e *ValidationError) Details() any { return e.Fields }

func (e *ValidationError) Unwrap() error {
	return dErrors.New(dErrors.CodeValidation, "please correct the highlighted fields")
}

// CheckKind names the remote existence check that failed.
type CheckKind string

const (
	CheckPhoneRegistered  CheckKind = "phone_registered"
	CheckReferralNotFound CheckKind = "referral_not_found"
	CheckOTPRejected      CheckKind = "otp_rejected"
)

// ExistenceCheckFailure is a definitive negative answer from a remote check.
// Unlike NetworkFailure it requires the user to change their input.
type ExistenceCheckFailure struct {
	Kind CheckKind
}

func (e *ExistenceCheckFailure) Error() string {
	return e.message()
}

func (e *ExistenceCheckFailure) message() string {
	switch e.Kind {
	case CheckPhoneRegistered:
		return "this phone number is already registered"
	case CheckReferralNotFound:
		return "referral code not found"
	case CheckOTPRejected:
		return "the verification code is incorrect or expired"
	}
	return "existence check failed"
}

func (e *ExistenceCheckFailure) Details() any {
	return map[string]string{"check": string(e.Kind)}
}

func (e *ExistenceCheckFailure) Unwrap() error {
	return dErrors.New(dErrors.CodeConflict, e.message())
}

// NetworkFailure means a collaborator could not be reached or answered with
// a server error. The caller's position and draft are preserved.
type NetworkFailure struct {
	Op  string
	Err error
}

func (e *NetworkFailure) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkFailure) Details() any {
	return map[string]any{"operation": e.Op, "retryable": true}
}

func (e *NetworkFailure) Unwrap() []error {
	return []error{
		dErrors.New(dErrors.CodeUnavailable, "something went wrong, please try again"),
		e.Err,
	}
}

// UploadConstraintError rejects a file locally, before any network call.
type UploadConstraintError struct {
	Field    FileField
	Reason   string
	TooLarge bool
}

func (e *UploadConstraintError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *UploadConstraintError) Details() any {
	return []FieldError{{Field: string(e.Field), Message: e.Reason}}
}

func (e *UploadConstraintError) Unwrap() error {
	if e.TooLarge {
		return dErrors.New(dErrors.CodeTooLarge, e.Reason)
	}
	return dErrors.New(dErrors.CodeUnsupportedMedia, e.Reason)
}
