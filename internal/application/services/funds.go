package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kemiadeola/openbanking-pisp/internal/application"
	"github.com/kemiadeola/openbanking-pisp/internal/domain"
)

// FundsConfirmationService answers whether the authorised debtor account
// covers the consented amount. The consent status check happens before any
// call to the funds collaborator so that an unauthorised consent never
// triggers a balance lookup.
type FundsConfirmationService struct {
	consents application.ConsentStoreClient
	funds    application.FundsClient
	basePath string
	logger   *slog.Logger
	now      func() time.Time
}

func NewFundsConfirmationService(
	consents application.ConsentStoreClient,
	funds application.FundsClient,
	basePath string,
	logger *slog.Logger,
) *FundsConfirmationService {
	return &FundsConfirmationService{
		consents: consents,
		funds:    funds,
		basePath: basePath,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *FundsConfirmationService) ConfirmFunds(ctx context.Context, consentID, apiClientID string) (*FundsConfirmationResponse, error) {
	policy, err := policyForConsentID(consentID)
	if err != nil {
		return nil, application.NewConsentNotFoundError(consentID)
	}

	consent, err := s.consents.GetConsent(ctx, consentID, apiClientID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrConsentNotFound):
			return nil, application.NewConsentNotFoundError(consentID)
		case errors.Is(err, domain.ErrPermissionDenied):
			return nil, application.NewPermissionDeniedError()
		default:
			return nil, application.NewInternalError(err)
		}
	}

	if err := application.RequireAuthorised(consent); err != nil {
		return nil, err
	}

	if consent.AuthorisedDebtorAccountID == nil {
		return nil, application.NewInternalError(fmt.Errorf("authorised consent %s has no debtor account", consentID))
	}
	amount := consentedAmount(consent)
	if amount == nil {
		return nil, application.NewInternalError(fmt.Errorf("consent %s carries no amount to confirm", consentID))
	}

	available, err := s.funds.IsFundsAvailable(ctx, *consent.AuthorisedDebtorAccountID, *amount)
	if err != nil {
		return nil, application.NewInternalError(err)
	}

	var resp FundsConfirmationResponse
	resp.Data.FundsAvailableResult.FundsAvailable = available
	resp.Data.FundsAvailableResult.FundsAvailableDateTime = s.now().UTC()
	resp.Links = Links{Self: fmt.Sprintf("%s/%s/%s/funds-confirmation", s.basePath, consentResource(policy), consentID)}
	return &resp, nil
}

func consentedAmount(c *domain.Consent) *domain.Amount {
	if c.Initiation.InstructedAmount != nil {
		return c.Initiation.InstructedAmount
	}
	return c.Initiation.FirstPaymentAmount
}
