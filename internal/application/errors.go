package application

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/kemiadeola/openbanking-pisp/internal/domain"
	"github.com/kemiadeola/openbanking-pisp/internal/validation"
)

// APPLICATION-LEVEL ERRORS (Orchestration)

// ServiceError carries the stable OBIE error code and HTTP status a failure
// maps to, alongside the underlying cause.
type ServiceError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
	// Fields holds the field-scoped errors when the failure came from
	// request validation; empty otherwise.
	Fields []validation.FieldError
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

const (
	ErrCodeConsentMismatch      = "UK.OBIE.Resource.ConsentMismatch"
	ErrCodeInvalidConsentStatus = "UK.OBIE.Resource.InvalidConsentStatus"
	ErrCodeNotFound             = "UK.OBIE.Resource.NotFound"
	ErrCodeForbidden            = "UK.OBIE.Forbidden"
	ErrCodeHeaderInvalid        = "UK.OBIE.Header.Invalid"
	ErrCodeHeaderMissing        = "UK.OBIE.Header.Missing"
	ErrCodeFieldInvalid         = "UK.OBIE.Field.Invalid"
	ErrCodeUnexpected           = "UK.OBIE.UnexpectedError"
)

// NewConsentMismatchError reports a submission whose initiation or risk
// block diverged from the consent. The message names the aggregate, not the
// leaf field.
func NewConsentMismatchError(cause error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeConsentMismatch,
		Message:    cause.Error(),
		HTTPStatus: http.StatusBadRequest,
		Err:        cause,
	}
}

// NewInvalidConsentStatusError reports an operation attempted on a consent
// outside the Authorised state, preserving the actual status in the message.
func NewInvalidConsentStatusError(status domain.ConsentStatus) *ServiceError {
	cause := domain.NewNotAuthorisedError(status)
	return &ServiceError{
		Code:       ErrCodeInvalidConsentStatus,
		Message:    cause.Message,
		HTTPStatus: http.StatusBadRequest,
		Err:        cause,
	}
}

func NewConsentNotFoundError(id string) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeNotFound,
		Message:    fmt.Sprintf("Consent %s was not found", id),
		HTTPStatus: http.StatusNotFound,
		Err:        domain.ErrConsentNotFound,
	}
}

func NewSubmissionNotFoundError(id string) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeNotFound,
		Message:    fmt.Sprintf("Payment %s was not found", id),
		HTTPStatus: http.StatusNotFound,
		Err:        domain.ErrSubmissionNotFound,
	}
}

func NewPermissionDeniedError() *ServiceError {
	return &ServiceError{
		Code:       ErrCodeForbidden,
		Message:    "The caller is not permitted to access this resource",
		HTTPStatus: http.StatusForbidden,
		Err:        domain.ErrPermissionDenied,
	}
}

// NewIdempotencyConflictError reports an idempotency key reused with a
// different request payload, distinguishable from a legitimate retry.
func NewIdempotencyConflictError() *ServiceError {
	return &ServiceError{
		Code:       ErrCodeHeaderInvalid,
		Message:    "x-idempotency-key reused with a different request payload",
		HTTPStatus: http.StatusBadRequest,
	}
}

func NewIdempotencyKeyMissingError() *ServiceError {
	return &ServiceError{
		Code:       ErrCodeHeaderMissing,
		Message:    "x-idempotency-key header is required",
		HTTPStatus: http.StatusBadRequest,
	}
}

func NewIdempotencyKeyInvalidError(key string) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeHeaderInvalid,
		Message:    fmt.Sprintf("x-idempotency-key %q must be 1-40 characters with no surrounding whitespace", key),
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewValidationError folds an accumulated validation failure into a single
// 400 response carrying every field error.
func NewValidationError(verr *validation.Error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeFieldInvalid,
		Message:    "Request validation failed",
		HTTPStatus: http.StatusBadRequest,
		Err:        verr,
		Fields:     verr.Errors,
	}
}

func NewRequestProcessingError() *ServiceError {
	return &ServiceError{
		Code:       ErrCodeUnexpected,
		Message:    "Request is being processed. Please retry in a moment.",
		HTTPStatus: http.StatusRequestTimeout,
	}
}

func NewInternalError(err error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeUnexpected,
		Message:    "An internal error occurred",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func IsServiceError(err error) (*ServiceError, bool) {
	var svcErr *ServiceError
	ok := errors.As(err, &svcErr)
	return svcErr, ok
}
