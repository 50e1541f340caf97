package application

import (
	"context"

	"github.com/kemiadeola/openbanking-pisp/internal/domain"
)

// ConsentRequest is what the engine hands the consent store when a TPP
// creates a consent. Exchange-rate terms arrive already resolved and
// charges already computed; the store only persists them.
type ConsentRequest struct {
	ProductFamily           domain.ProductFamily
	APIClientID             string
	Initiation              domain.Initiation
	Risk                    domain.Risk
	ExchangeRateInformation *domain.ExchangeRateInformation
	Charges                 []domain.Charge
	ReadRefundAccount       string
}

// ConsentStoreClient is the port for the remote consent store. Consumption
// is a single conditional transition at the store, Authorised to Consumed,
// failing when the consent is in any other state.
type ConsentStoreClient interface {
	CreateConsent(ctx context.Context, req ConsentRequest) (*domain.Consent, error)
	GetConsent(ctx context.Context, id, apiClientID string) (*domain.Consent, error)
	ConsumeConsent(ctx context.Context, id, apiClientID string) error
}

// AccountsClient resolves debtor accounts for refund-account display fields.
type AccountsClient interface {
	ByAccountID(ctx context.Context, id string) (*domain.Account, error)
}

// FundsClient answers funds-availability checks. It must only ever be
// called for consents already confirmed to be Authorised.
type FundsClient interface {
	IsFundsAvailable(ctx context.Context, accountID string, amount domain.Amount) (bool, error)
}

// SubmissionRepository is the port for submission persistence. Submissions
// are immutable, so the interface is create plus lookups.
type SubmissionRepository interface {
	Create(ctx context.Context, sub *domain.PaymentSubmission) error
	FindByID(ctx context.Context, id string) (*domain.PaymentSubmission, error)
	FindByConsentID(ctx context.Context, consentID string) (*domain.PaymentSubmission, error)
}
