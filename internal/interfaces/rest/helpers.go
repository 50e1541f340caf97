package rest

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/kemiadeola/openbanking-pisp/internal/application"
)

const (
	// ClientIDHeader carries the authenticated TPP client id, set by the
	// API gateway in front of this service.
	ClientIDHeader = "x-api-client-id"
	// IdempotencyKeyHeader deduplicates payment creation requests.
	IdempotencyKeyHeader = "x-idempotency-key"

	maxIdempotencyKeyLength = 40
)

func RespondWithJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

// RespondRaw writes a previously serialized body, used when replaying
// idempotent responses byte for byte.
func RespondRaw(w http.ResponseWriter, statusCode int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	w.Write(body)
}

// ClientID extracts the authenticated client id from the request.
func ClientID(r *http.Request) (string, error) {
	id := r.Header.Get(ClientIDHeader)
	if id == "" {
		return "", &application.ServiceError{
			Code:       application.ErrCodeHeaderMissing,
			Message:    ClientIDHeader + " header is required",
			HTTPStatus: http.StatusBadRequest,
		}
	}
	return id, nil
}

// IdempotencyKey extracts and validates the idempotency key header. The key
// must be 1 to 40 characters and carry no surrounding whitespace.
func IdempotencyKey(r *http.Request) (string, error) {
	key := r.Header.Get(IdempotencyKeyHeader)
	if key == "" {
		return "", application.NewIdempotencyKeyMissingError()
	}
	if len(key) > maxIdempotencyKeyLength || strings.TrimSpace(key) != key {
		return "", application.NewIdempotencyKeyInvalidError(key)
	}
	return key, nil
}

// DecodeJSON reads a request body into dst, rejecting malformed payloads
// with a field-invalid error rather than a bare 400.
func DecodeJSON(r *http.Request, dst any, logger *slog.Logger) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		logger.Debug("request body rejected", "path", r.URL.Path, "error", err)
		return &application.ServiceError{
			Code:       application.ErrCodeFieldInvalid,
			Message:    "Request body is not valid JSON",
			HTTPStatus: http.StatusBadRequest,
			Err:        err,
		}
	}
	return nil
}
