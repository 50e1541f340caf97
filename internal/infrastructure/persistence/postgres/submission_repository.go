package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kemiadeola/openbanking-pisp/internal/application"
	"github.com/kemiadeola/openbanking-pisp/internal/domain"
	"github.com/kemiadeola/openbanking-pisp/internal/infrastructure/persistence"
)

type SubmissionRepository struct {
	db persistence.Executor
}

func NewSubmissionRepository(db *pgxpool.Pool) application.SubmissionRepository {
	return &SubmissionRepository{db: db}
}

func (r *SubmissionRepository) Create(ctx context.Context, sub *domain.PaymentSubmission) error {
	query := `
		INSERT INTO payment_submissions (
			id, consent_id, product_family, api_client_id,
			initiation, risk, charges, exchange_rate,
			refund_account, idempotency_key, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	m, err := toDBModel(sub)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, query,
		m.ID,
		m.ConsentID,
		m.ProductFamily,
		m.APIClientID,
		m.Initiation,
		m.Risk,
		m.Charges,
		m.ExchangeRate,
		m.RefundAccount,
		m.IdempotencyKey,
		m.CreatedAt,
	)
	if err != nil {
		if persistence.IsUniqueViolation(err) {
			return fmt.Errorf("consent %s: %w", sub.ConsentID, domain.ErrSubmissionExists)
		}
		return fmt.Errorf("failed to create payment submission: %w", err)
	}

	return nil
}

func (r *SubmissionRepository) FindByID(ctx context.Context, id string) (*domain.PaymentSubmission, error) {
	query := `
		SELECT id, consent_id, product_family, api_client_id,
		       initiation, risk, charges, exchange_rate,
		       refund_account, idempotency_key, created_at
		FROM payment_submissions WHERE id = $1
	`

	row := r.db.QueryRow(ctx, query, id)
	return scanSubmission(row)
}

func (r *SubmissionRepository) FindByConsentID(ctx context.Context, consentID string) (*domain.PaymentSubmission, error) {
	query := `
		SELECT id, consent_id, product_family, api_client_id,
		       initiation, risk, charges, exchange_rate,
		       refund_account, idempotency_key, created_at
		FROM payment_submissions WHERE consent_id = $1
	`

	row := r.db.QueryRow(ctx, query, consentID)
	return scanSubmission(row)
}

func scanSubmission(row pgx.Row) (*domain.PaymentSubmission, error) {
	var m SubmissionModel
	err := row.Scan(
		&m.ID, &m.ConsentID, &m.ProductFamily, &m.APIClientID,
		&m.Initiation, &m.Risk, &m.Charges, &m.ExchangeRate,
		&m.RefundAccount, &m.IdempotencyKey, &m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("failed to scan payment submission: %w", err)
	}
	return toDomainModel(m)
}
