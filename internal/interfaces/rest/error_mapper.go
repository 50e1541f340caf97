// Package rest carries the HTTP surface shared by every product family:
// the error envelope, response helpers and request middleware.
package rest

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/kemiadeola/openbanking-pisp/internal/application"
)

// ErrorResponse is the standard error envelope: a request-scoped id, the
// HTTP status line as Code, and one entry per failed check.
type ErrorResponse struct {
	Code    string        `json:"Code"`
	ID      string        `json:"Id"`
	Message string        `json:"Message"`
	Errors  []ErrorDetail `json:"Errors"`
}

type ErrorDetail struct {
	ErrorCode string `json:"ErrorCode"`
	Message   string `json:"Message"`
	Path      string `json:"Path,omitempty"`
}

// WriteError maps application errors to HTTP responses. Validation failures
// expand to one entry per field; everything else becomes a single entry.
func WriteError(w http.ResponseWriter, err error, logger *slog.Logger) {
	statusCode := application.ToHTTPStatus(err)
	errorCode := application.ToErrorCode(err)

	response := ErrorResponse{
		Code:    fmt.Sprintf("%d %s", statusCode, http.StatusText(statusCode)),
		ID:      uuid.New().String(),
		Message: clientMessage(err, statusCode),
	}

	if svcErr, ok := application.IsServiceError(err); ok && len(svcErr.Fields) > 0 {
		for _, f := range svcErr.Fields {
			response.Errors = append(response.Errors, ErrorDetail{
				ErrorCode: f.Code,
				Message:   f.Message,
				Path:      f.Path,
			})
		}
	} else {
		response.Errors = []ErrorDetail{{
			ErrorCode: errorCode,
			Message:   response.Message,
		}}
	}

	switch application.CategorizeError(err) {
	case application.CategoryInfrastructure:
		logger.Error("request failed", "status", statusCode, "error", err, "error_id", response.ID)
	case application.CategoryTransient:
		logger.Warn("request failed", "status", statusCode, "error", err, "error_id", response.ID)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(response)
}

// clientMessage keeps internal causes out of responses. ServiceError
// messages are written for clients; anything else gets a generic line.
func clientMessage(err error, statusCode int) string {
	if svcErr, ok := application.IsServiceError(err); ok {
		return svcErr.Message
	}
	if statusCode >= http.StatusInternalServerError {
		return "An internal error occurred"
	}
	return err.Error()
}
