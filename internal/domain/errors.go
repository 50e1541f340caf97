package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidTransition    = errors.New("invalid consent status transition")
	ErrConsentNotFound      = errors.New("consent not found")
	ErrPermissionDenied     = errors.New("caller is not permitted to access this consent")
	ErrUnknownProductFamily = errors.New("unrecognized product family")
	ErrConsentNotAuthorised = errors.New("consent is not authorised")
	ErrSubmissionNotFound   = errors.New("payment submission not found")
	ErrSubmissionExists     = errors.New("a payment submission already exists for this consent")
)

// DomainError represents a business rule violation
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Domain validation errors
const (
	ErrCodeInvalidConsentStatus = "INVALID_CONSENT_STATUS"
)

// NewNotAuthorisedError reports an operation attempted on a consent outside
// the Authorised state, carrying the actual status for the caller to render.
func NewNotAuthorisedError(status ConsentStatus) *DomainError {
	return &DomainError{
		Code: ErrCodeInvalidConsentStatus,
		Message: fmt.Sprintf(
			"Action can only be performed on consents with status: Authorised. Currently, the consent is: %s",
			status,
		),
		Err: ErrConsentNotAuthorised,
	}
}

// IsErrorCode checks if an error is a DomainError with a specific code
func IsErrorCode(err error, code string) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}
