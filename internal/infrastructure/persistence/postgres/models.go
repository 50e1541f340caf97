package postgres

import (
	"encoding/json"
	"time"
)

// SubmissionModel is the database shape of a payment submission. The
// consent-derived blocks are stored as JSONB: they are written once, read
// back whole, and never queried field by field.
type SubmissionModel struct {
	ID             string
	ConsentID      string
	ProductFamily  string
	APIClientID    string
	Initiation     json.RawMessage
	Risk           json.RawMessage
	Charges        json.RawMessage
	ExchangeRate   json.RawMessage
	RefundAccount  json.RawMessage
	IdempotencyKey string
	CreatedAt      time.Time
}

// IdempotencyModel is the database shape of one idempotency key record.
type IdempotencyModel struct {
	Endpoint    string
	APIClientID string
	Key         string
	RequestHash string
	Response    []byte
	StatusCode  *int
	LockedAt    time.Time
	CompletedAt *time.Time
}
