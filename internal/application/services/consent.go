package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kemiadeola/openbanking-pisp/internal/application"
	"github.com/kemiadeola/openbanking-pisp/internal/domain"
	"github.com/kemiadeola/openbanking-pisp/internal/validation"
)

// CreateConsentCommand carries a TPP's request to set up a new consent.
type CreateConsentCommand struct {
	ProductFamily     domain.ProductFamily
	APIClientID       string
	Initiation        domain.Initiation
	Risk              domain.Risk
	ReadRefundAccount string
}

// ConsentService validates consent requests, fixes exchange-rate terms and
// charges at creation time, and delegates persistence to the consent store.
type ConsentService struct {
	consents      application.ConsentStoreClient
	validator     *validation.Validator
	rates         validation.RateTable
	controlParams validation.ControlParameters
	tariff        []domain.Charge
	basePath      string
	logger        *slog.Logger
}

func NewConsentService(
	consents application.ConsentStoreClient,
	validator *validation.Validator,
	rates validation.RateTable,
	controlParams validation.ControlParameters,
	tariff []domain.Charge,
	basePath string,
	logger *slog.Logger,
) *ConsentService {
	return &ConsentService{
		consents:      consents,
		validator:     validator,
		rates:         rates,
		controlParams: controlParams,
		tariff:        tariff,
		basePath:      basePath,
		logger:        logger,
	}
}

// CreateConsent validates the request for its product family and stores the
// consent in AwaitingAuthorisation. All field errors are reported together
// in a single response.
func (s *ConsentService) CreateConsent(ctx context.Context, cmd CreateConsentCommand) (*ConsentResponse, error) {
	policy, err := policyFor(cmd.ProductFamily)
	if err != nil {
		return nil, application.NewInternalError(err)
	}

	res := policy.validateInitiation(s.validator, &cmd.Initiation)
	if cmd.Initiation.InstructedAmount != nil {
		res.Merge(s.validator.CheckControlParameters(cmd.Initiation.InstructedAmount, s.controlParams))
	}

	var resolved *domain.ExchangeRateInformation
	if policy.resolveExchangeRate && res.Valid() {
		var rateRes validation.Result
		resolved, rateRes = s.validator.ResolveExchangeRate(
			s.rates,
			cmd.Initiation.ExchangeRateInformation,
			instructedCurrency(&cmd.Initiation),
			cmd.Initiation.CurrencyOfTransfer,
		)
		res.Merge(rateRes)
	}

	if err := res.Err(); err != nil {
		var verr *validation.Error
		if errors.As(err, &verr) {
			return nil, application.NewValidationError(verr)
		}
		return nil, application.NewInternalError(err)
	}

	// The resolved terms replace the requested ones in the stored
	// initiation, so the consent's initiation block, its rate terms and the
	// response all agree and a submission can repeat the initiation
	// verbatim.
	if resolved != nil {
		cmd.Initiation.ExchangeRateInformation = resolved
	}

	var charges []domain.Charge
	if policy.resolveExchangeRate {
		charges = s.tariff
	}

	consent, err := s.consents.CreateConsent(ctx, application.ConsentRequest{
		ProductFamily:           cmd.ProductFamily,
		APIClientID:             cmd.APIClientID,
		Initiation:              cmd.Initiation,
		Risk:                    cmd.Risk,
		ExchangeRateInformation: resolved,
		Charges:                 charges,
		ReadRefundAccount:       cmd.ReadRefundAccount,
	})
	if err != nil {
		return nil, s.mapStoreError("", err)
	}

	s.logger.Info("consent created",
		"consent_id", consent.ID,
		"product_family", string(cmd.ProductFamily))

	resp := s.buildResponse(consent, policy)
	return &resp, nil
}

// GetConsent returns a consent owned by the calling client.
func (s *ConsentService) GetConsent(ctx context.Context, consentID, apiClientID string) (*ConsentResponse, error) {
	policy, err := policyForConsentID(consentID)
	if err != nil {
		return nil, application.NewConsentNotFoundError(consentID)
	}

	consent, err := s.consents.GetConsent(ctx, consentID, apiClientID)
	if err != nil {
		return nil, s.mapStoreError(consentID, err)
	}

	resp := s.buildResponse(consent, policy)
	return &resp, nil
}

func (s *ConsentService) buildResponse(consent *domain.Consent, policy productPolicy) ConsentResponse {
	return ConsentResponse{
		Data: ConsentData{
			ConsentID:               consent.ID,
			Status:                  string(consent.Status),
			CreationDateTime:        consent.CreationDateTime,
			StatusUpdateDateTime:    consent.StatusUpdateDateTime,
			Initiation:              consent.Initiation,
			Charges:                 consent.Charges,
			ExchangeRateInformation: consent.ExchangeRateInformation,
			ReadRefundAccount:       consent.ReadRefundAccount,
		},
		Risk:  consent.Risk,
		Links: Links{Self: fmt.Sprintf("%s/%s/%s", s.basePath, consentResource(policy), consent.ID)},
	}
}

func (s *ConsentService) mapStoreError(consentID string, err error) error {
	var svcErr *application.ServiceError
	if errors.As(err, &svcErr) {
		return err
	}
	switch {
	case errors.Is(err, domain.ErrConsentNotFound):
		return application.NewConsentNotFoundError(consentID)
	case errors.Is(err, domain.ErrPermissionDenied):
		return application.NewPermissionDeniedError()
	default:
		return application.NewInternalError(err)
	}
}

// consentResource maps a payment resource segment to its consent segment,
// for example domestic-payments to domestic-payment-consents.
func consentResource(p productPolicy) string {
	return strings.TrimSuffix(p.resource, "s") + "-consents"
}

// instructedCurrency picks the currency the debtor pays in, falling back to
// the first standing-order payment for recurring products.
func instructedCurrency(init *domain.Initiation) string {
	if init.InstructedAmount != nil {
		return init.InstructedAmount.Currency
	}
	if init.FirstPaymentAmount != nil {
		return init.FirstPaymentAmount.Currency
	}
	return ""
}
