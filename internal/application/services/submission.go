package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/kemiadeola/openbanking-pisp/internal/application"
	"github.com/kemiadeola/openbanking-pisp/internal/compare"
	"github.com/kemiadeola/openbanking-pisp/internal/domain"
	"github.com/kemiadeola/openbanking-pisp/internal/idempotency"
)

// SubmitCommand carries everything needed to submit a payment against an
// authorised consent.
type SubmitCommand struct {
	ConsentID      string
	APIClientID    string
	IdempotencyKey string
	Initiation     domain.Initiation
	Risk           domain.Risk
}

// SubmitResult is the outcome of a submission. Body holds the exact bytes
// to return to the caller; on a replayed idempotent retry they are the bytes
// produced by the first execution.
type SubmitResult struct {
	Body       []byte
	StatusCode int
	Replayed   bool
}

// SubmissionService orchestrates payment submission: it checks the consent,
// verifies the request matches what the PSU authorised, and records the
// payment exactly once per idempotency key.
type SubmissionService struct {
	consents    application.ConsentStoreClient
	accounts    application.AccountsClient
	repo        application.SubmissionRepository
	coordinator *idempotency.Coordinator
	basePath    string
	logger      *slog.Logger
	now         func() time.Time
	newID       func() string
}

func NewSubmissionService(
	consents application.ConsentStoreClient,
	accounts application.AccountsClient,
	repo application.SubmissionRepository,
	coordinator *idempotency.Coordinator,
	basePath string,
	logger *slog.Logger,
) *SubmissionService {
	return &SubmissionService{
		consents:    consents,
		accounts:    accounts,
		repo:        repo,
		coordinator: coordinator,
		basePath:    basePath,
		logger:      logger,
		now:         time.Now,
		newID:       func() string { return uuid.New().String() },
	}
}

// submissionPayload is the canonical shape hashed for idempotency conflict
// detection. Two requests with the same key must agree on all three parts.
type submissionPayload struct {
	ConsentID  string            `json:"consentId"`
	Initiation domain.Initiation `json:"initiation"`
	Risk       domain.Risk       `json:"risk"`
}

// Submit runs the full submission flow behind the idempotency barrier. The
// barrier comes first so a verified retry replays the stored response even
// after the consent has been consumed; a request that fails the consent
// checks releases its key and can be retried from scratch.
func (s *SubmissionService) Submit(ctx context.Context, cmd SubmitCommand) (*SubmitResult, error) {
	policy, err := policyForConsentID(cmd.ConsentID)
	if err != nil {
		return nil, application.NewConsentNotFoundError(cmd.ConsentID)
	}

	payload, err := json.Marshal(submissionPayload{
		ConsentID:  cmd.ConsentID,
		Initiation: cmd.Initiation,
		Risk:       cmd.Risk,
	})
	if err != nil {
		return nil, application.NewInternalError(err)
	}

	scope := idempotency.Scope{
		Endpoint:    policy.resource,
		APIClientID: cmd.APIClientID,
		Key:         cmd.IdempotencyKey,
	}

	outcome, err := s.coordinator.Coordinate(ctx, scope, payload, func(ctx context.Context) ([]byte, int, error) {
		return s.execute(ctx, cmd, policy)
	})
	if err != nil {
		return nil, s.mapCoordinateError(err)
	}

	return &SubmitResult{
		Body:       outcome.Response,
		StatusCode: outcome.StatusCode,
		Replayed:   outcome.Replayed,
	}, nil
}

// execute performs a first-time submission: consent checks, then the state
// changes. The consent is consumed before the payment is recorded because
// its conditional status transition is the linearization point, so a
// concurrent submission under a different key fails cleanly here without
// ever recording a payment.
func (s *SubmissionService) execute(ctx context.Context, cmd SubmitCommand, policy productPolicy) ([]byte, int, error) {
	consent, err := s.consents.GetConsent(ctx, cmd.ConsentID, cmd.APIClientID)
	if err != nil {
		return nil, 0, s.mapConsentError(cmd.ConsentID, err)
	}

	if err := application.RequireAuthorised(consent); err != nil {
		return nil, 0, err
	}

	if err := compare.Initiation(cmd.Initiation, consent.Initiation); err != nil {
		return nil, 0, application.NewConsentMismatchError(err)
	}
	if err := compare.Risk(cmd.Risk, consent.Risk); err != nil {
		return nil, 0, application.NewConsentMismatchError(err)
	}
	// Domestic consents carry no rate terms, so both sides are nil there.
	if err := compare.ExchangeRate(cmd.Initiation.ExchangeRateInformation, consent.ExchangeRateInformation); err != nil {
		return nil, 0, application.NewConsentMismatchError(err)
	}

	if err := s.consents.ConsumeConsent(ctx, cmd.ConsentID, cmd.APIClientID); err != nil {
		return nil, 0, s.mapConsentError(cmd.ConsentID, err)
	}

	submission, err := domain.NewPaymentSubmission(
		s.newID(), cmd.ConsentID, cmd.APIClientID, cmd.IdempotencyKey, cmd.Initiation, cmd.Risk,
	)
	if err != nil {
		return nil, 0, application.NewInternalError(err)
	}
	submission.CreationDateTime = s.now().UTC()

	// Charges and rate terms are fixed on the consent at creation; copying
	// them onto the submission keeps later reads identical to this response.
	if submission.ProductFamily.IsInternational() {
		submission.Charges = consent.Charges
		submission.ExchangeRateInformation = consent.ExchangeRateInformation
	}

	if consent.ReadRefundAccount == domain.ReadRefundAccountYes && consent.AuthorisedDebtorAccountID != nil {
		acct, err := s.accounts.ByAccountID(ctx, *consent.AuthorisedDebtorAccountID)
		if err != nil {
			// Refund details are display-only enrichment; the payment itself
			// must not fail when the accounts collaborator is unavailable.
			s.logger.Warn("refund account lookup failed",
				"consent_id", cmd.ConsentID,
				"account_id", *consent.AuthorisedDebtorAccountID,
				"error", err)
		} else {
			submission.RefundAccount = acct.RefundIdentification()
		}
	}

	if err := s.repo.Create(ctx, submission); err != nil {
		if errors.Is(err, domain.ErrSubmissionExists) {
			if existing, findErr := s.repo.FindByConsentID(ctx, cmd.ConsentID); findErr == nil {
				s.logger.Warn("consent already has a recorded payment",
					"consent_id", cmd.ConsentID, "payment_id", existing.ID)
			}
			return nil, 0, application.NewInvalidConsentStatusError(domain.StatusConsumed)
		}
		s.logger.Error("payment recorded against consumed consent failed to persist",
			"consent_id", cmd.ConsentID, "error", err)
		return nil, 0, application.NewInternalError(err)
	}

	s.logger.Info("payment submission created",
		"payment_id", submission.ID,
		"consent_id", cmd.ConsentID,
		"product_family", string(submission.ProductFamily))

	body, err := json.Marshal(s.buildResponse(submission, policy))
	if err != nil {
		return nil, 0, application.NewInternalError(err)
	}
	return body, http.StatusCreated, nil
}

// buildResponse renders a submission. Everything it needs lives on the
// submission record, so a later GET returns the same representation as the
// creation response.
func (s *SubmissionService) buildResponse(sub *domain.PaymentSubmission, policy productPolicy) SubmissionResponse {
	data := SubmissionData{
		PaymentID:               sub.ID,
		ConsentID:               sub.ConsentID,
		Status:                  initialStatus(sub.ProductFamily),
		CreationDateTime:        sub.CreationDateTime,
		Initiation:              sub.Initiation,
		Charges:                 sub.Charges,
		ExchangeRateInformation: sub.ExchangeRateInformation,
	}
	if sub.RefundAccount != nil {
		data.Refund = &RefundAccount{Account: *sub.RefundAccount}
	}
	return SubmissionResponse{
		Data:  data,
		Risk:  sub.Risk,
		Links: Links{Self: fmt.Sprintf("%s/%s/%s", s.basePath, policy.resource, sub.ID)},
	}
}

// GetSubmission returns a previously created payment. Ownership is enforced:
// a client can only read payments it submitted.
func (s *SubmissionService) GetSubmission(ctx context.Context, paymentID, apiClientID string) (*SubmissionResponse, error) {
	sub, err := s.repo.FindByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, domain.ErrSubmissionNotFound) {
			return nil, application.NewSubmissionNotFoundError(paymentID)
		}
		return nil, application.NewInternalError(err)
	}
	if sub.APIClientID != apiClientID {
		return nil, application.NewPermissionDeniedError()
	}

	policy, err := policyFor(sub.ProductFamily)
	if err != nil {
		return nil, application.NewInternalError(err)
	}

	resp := s.buildResponse(sub, policy)
	return &resp, nil
}

// GetSubmissionDetails returns the status history of a payment.
func (s *SubmissionService) GetSubmissionDetails(ctx context.Context, paymentID, apiClientID string) (*PaymentDetailsResponse, error) {
	sub, err := s.repo.FindByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, domain.ErrSubmissionNotFound) {
			return nil, application.NewSubmissionNotFoundError(paymentID)
		}
		return nil, application.NewInternalError(err)
	}
	if sub.APIClientID != apiClientID {
		return nil, application.NewPermissionDeniedError()
	}

	policy, err := policyFor(sub.ProductFamily)
	if err != nil {
		return nil, application.NewInternalError(err)
	}

	var resp PaymentDetailsResponse
	resp.Data.PaymentStatus = []PaymentDetail{{
		PaymentTransactionID: sub.ID,
		Status:               initialStatus(sub.ProductFamily),
		StatusUpdateDateTime: sub.CreationDateTime,
	}}
	resp.Links = Links{Self: fmt.Sprintf("%s/%s/%s/payment-details", s.basePath, policy.resource, sub.ID)}
	return &resp, nil
}

func (s *SubmissionService) mapConsentError(consentID string, err error) error {
	var svcErr *application.ServiceError
	if errors.As(err, &svcErr) {
		return err
	}
	switch {
	case errors.Is(err, domain.ErrConsentNotFound):
		return application.NewConsentNotFoundError(consentID)
	case errors.Is(err, domain.ErrPermissionDenied):
		return application.NewPermissionDeniedError()
	case domain.IsErrorCode(err, domain.ErrCodeInvalidConsentStatus):
		// The store's error already names the consent's current status.
		var de *domain.DomainError
		errors.As(err, &de)
		return &application.ServiceError{
			Code:       application.ErrCodeInvalidConsentStatus,
			Message:    de.Message,
			HTTPStatus: http.StatusBadRequest,
			Err:        err,
		}
	case errors.Is(err, domain.ErrConsentNotAuthorised):
		return application.NewInvalidConsentStatusError("")
	default:
		return application.NewInternalError(err)
	}
}

func (s *SubmissionService) mapCoordinateError(err error) error {
	switch {
	case errors.Is(err, idempotency.ErrKeyConflict):
		return application.NewIdempotencyConflictError()
	case errors.Is(err, idempotency.ErrInFlightTimeout):
		return application.NewRequestProcessingError()
	default:
		return err
	}
}
