package application

import (
	"context"
	"errors"
	"net/http"

	"github.com/kemiadeola/openbanking-pisp/internal/domain"
	"github.com/kemiadeola/openbanking-pisp/internal/idempotency"
	"github.com/kemiadeola/openbanking-pisp/internal/validation"
)

// ErrorCategory represents the nature of an error for retry and logging
type ErrorCategory string

const (
	CategoryTransient      ErrorCategory = "TRANSIENT"
	CategoryBusinessRule   ErrorCategory = "BUSINESS_RULE"
	CategoryClientError    ErrorCategory = "CLIENT_ERROR"
	CategoryInfrastructure ErrorCategory = "INFRASTRUCTURE"
)

// CategorizeError determines error category for retry decisions against the
// remote consent store and for log severity.
func CategorizeError(err error) ErrorCategory {
	if err == nil {
		return ""
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return CategoryTransient
	}

	if errors.Is(err, domain.ErrConsentNotAuthorised) ||
		errors.Is(err, domain.ErrInvalidTransition) {
		return CategoryBusinessRule
	}

	if errors.Is(err, domain.ErrConsentNotFound) ||
		errors.Is(err, domain.ErrPermissionDenied) ||
		errors.Is(err, idempotency.ErrKeyConflict) {
		return CategoryClientError
	}

	var verr *validation.Error
	if errors.As(err, &verr) {
		return CategoryClientError
	}

	if svcErr, ok := IsServiceError(err); ok {
		switch {
		case svcErr.HTTPStatus >= http.StatusInternalServerError:
			return CategoryInfrastructure
		case svcErr.HTTPStatus == http.StatusRequestTimeout:
			return CategoryTransient
		default:
			return CategoryClientError
		}
	}

	return CategoryTransient
}

// IsRetryable returns true if the error category suggests retry
func IsRetryable(err error) bool {
	category := CategorizeError(err)
	return category == CategoryTransient || category == CategoryInfrastructure
}

// ToHTTPStatus maps an error to the status code its response carries.
func ToHTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}

	if svcErr, ok := IsServiceError(err); ok {
		return svcErr.HTTPStatus
	}

	var verr *validation.Error
	if errors.As(err, &verr) {
		return http.StatusBadRequest
	}

	switch {
	case errors.Is(err, domain.ErrConsentNotAuthorised),
		errors.Is(err, idempotency.ErrKeyConflict):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrConsentNotFound),
		errors.Is(err, domain.ErrSubmissionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout
	}

	return http.StatusInternalServerError
}

// ToErrorCode maps an error to its stable OBIE error code.
func ToErrorCode(err error) string {
	if svcErr, ok := IsServiceError(err); ok {
		return svcErr.Code
	}

	var verr *validation.Error
	if errors.As(err, &verr) {
		return ErrCodeFieldInvalid
	}

	switch {
	case errors.Is(err, domain.ErrConsentNotAuthorised):
		return ErrCodeInvalidConsentStatus
	case errors.Is(err, domain.ErrConsentNotFound), errors.Is(err, domain.ErrSubmissionNotFound):
		return ErrCodeNotFound
	case errors.Is(err, domain.ErrPermissionDenied):
		return ErrCodeForbidden
	case errors.Is(err, idempotency.ErrKeyConflict):
		return ErrCodeHeaderInvalid
	}

	return ErrCodeUnexpected
}
