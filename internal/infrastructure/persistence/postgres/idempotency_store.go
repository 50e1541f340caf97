package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kemiadeola/openbanking-pisp/internal/idempotency"
	"github.com/kemiadeola/openbanking-pisp/internal/infrastructure/persistence"
)

// IdempotencyStore backs the coordinator with the idempotency_keys table.
// The table's primary key is (endpoint, api_client_id, key), so the
// conditional insert is the database's own uniqueness check.
type IdempotencyStore struct {
	db persistence.Executor
}

func NewIdempotencyStore(db *pgxpool.Pool) idempotency.Store {
	return &IdempotencyStore{db: db}
}

// Insert claims the scope. An expired row is reclaimed in the same
// statement, so a reused key after the retention window never trips the
// uniqueness check.
func (s *IdempotencyStore) Insert(ctx context.Context, rec *idempotency.Record, expiredBefore time.Time) error {
	query := `
		INSERT INTO idempotency_keys (endpoint, api_client_id, key, request_hash, locked_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (endpoint, api_client_id, key) DO UPDATE
		SET request_hash = EXCLUDED.request_hash,
		    locked_at = EXCLUDED.locked_at,
		    response = NULL,
		    status_code = NULL,
		    completed_at = NULL
		WHERE idempotency_keys.locked_at < $6
	`

	tag, err := s.db.Exec(ctx, query,
		rec.Endpoint, rec.APIClientID, rec.Key, rec.RequestHash, rec.LockedAt, expiredBefore)
	if err != nil {
		if persistence.IsUniqueViolation(err) {
			return idempotency.ErrDuplicateKey
		}
		return fmt.Errorf("failed to insert idempotency key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return idempotency.ErrDuplicateKey
	}

	return nil
}

func (s *IdempotencyStore) Find(ctx context.Context, scope idempotency.Scope, since time.Time) (*idempotency.Record, error) {
	query := `
		SELECT endpoint, api_client_id, key, request_hash, response, status_code, locked_at, completed_at
		FROM idempotency_keys
		WHERE endpoint = $1 AND api_client_id = $2 AND key = $3 AND locked_at >= $4
	`

	var m IdempotencyModel
	err := s.db.QueryRow(ctx, query, scope.Endpoint, scope.APIClientID, scope.Key, since).Scan(
		&m.Endpoint, &m.APIClientID, &m.Key, &m.RequestHash,
		&m.Response, &m.StatusCode, &m.LockedAt, &m.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, idempotency.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find idempotency key: %w", err)
	}

	rec := &idempotency.Record{
		Endpoint:    m.Endpoint,
		APIClientID: m.APIClientID,
		Key:         m.Key,
		RequestHash: m.RequestHash,
		Response:    m.Response,
		LockedAt:    m.LockedAt,
		CompletedAt: m.CompletedAt,
	}
	if m.StatusCode != nil {
		rec.StatusCode = *m.StatusCode
	}
	return rec, nil
}

func (s *IdempotencyStore) Complete(ctx context.Context, scope idempotency.Scope, response []byte, statusCode int) error {
	query := `
		UPDATE idempotency_keys
		SET response = $1, status_code = $2, completed_at = $3
		WHERE endpoint = $4 AND api_client_id = $5 AND key = $6
	`

	tag, err := s.db.Exec(ctx, query, response, statusCode, time.Now(), scope.Endpoint, scope.APIClientID, scope.Key)
	if err != nil {
		return fmt.Errorf("failed to complete idempotency key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return idempotency.ErrNotFound
	}

	return nil
}

func (s *IdempotencyStore) Delete(ctx context.Context, scope idempotency.Scope) error {
	query := `DELETE FROM idempotency_keys WHERE endpoint = $1 AND api_client_id = $2 AND key = $3`

	_, err := s.db.Exec(ctx, query, scope.Endpoint, scope.APIClientID, scope.Key)
	if err != nil {
		return fmt.Errorf("failed to delete idempotency key: %w", err)
	}

	return nil
}

// DeleteExpired removes records older than the cutoff in batches, returning
// how many rows went away. The retention worker calls this on a ticker.
func (s *IdempotencyStore) DeleteExpired(ctx context.Context, before time.Time, limit int) (int, error) {
	query := `
		DELETE FROM idempotency_keys
		WHERE (endpoint, api_client_id, key) IN (
			SELECT endpoint, api_client_id, key
			FROM idempotency_keys
			WHERE locked_at < $1
			LIMIT $2
		)
	`

	tag, err := s.db.Exec(ctx, query, before, limit)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired idempotency keys: %w", err)
	}

	return int(tag.RowsAffected()), nil
}
