package consentstore

import (
	"errors"
	"fmt"
)

// StoreError is a non-2xx response from the consent store, carrying the
// store's own error code and, for consume conflicts, the consent's current
// status.
type StoreError struct {
	Code          string
	Message       string
	CurrentStatus string
	StatusCode    int
}

type storeErrorResponse struct {
	Err           string `json:"error"`
	Message       string `json:"message"`
	CurrentStatus string `json:"currentStatus,omitempty"`
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("consent store error [%s]: %s (status: %d)", e.Code, e.Message, e.StatusCode)
}

func (e *StoreError) IsRetryable() bool {
	return e.StatusCode >= 500
}

func IsStoreError(err error) (*StoreError, bool) {
	var storeErr *StoreError
	ok := errors.As(err, &storeErr)
	return storeErr, ok
}
