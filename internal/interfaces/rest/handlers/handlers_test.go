package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kemiadeola/openbanking-pisp/internal/application"
	"github.com/kemiadeola/openbanking-pisp/internal/application/services"
	"github.com/kemiadeola/openbanking-pisp/internal/domain"
	"github.com/kemiadeola/openbanking-pisp/internal/idempotency"
	"github.com/kemiadeola/openbanking-pisp/internal/interfaces/rest"
	"github.com/kemiadeola/openbanking-pisp/internal/validation"
)

const basePath = "/open-banking/v3.1/pisp"

// fakeConsentStore behaves like the remote consent store: consents start in
// AwaitingAuthorisation and consumption is a conditional transition.
type fakeConsentStore struct {
	mu       sync.Mutex
	nextID   int
	consents map[string]*domain.Consent
}

func newFakeConsentStore() *fakeConsentStore {
	return &fakeConsentStore{consents: make(map[string]*domain.Consent)}
}

func (f *fakeConsentStore) CreateConsent(ctx context.Context, req application.ConsentRequest) (*domain.Consent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	consent := &domain.Consent{
		ID:                      req.ProductFamily.ConsentIDPrefix() + "-" + strconv.Itoa(f.nextID),
		APIClientID:             req.APIClientID,
		Status:                  domain.StatusAwaitingAuthorisation,
		Initiation:              req.Initiation,
		Risk:                    req.Risk,
		Charges:                 req.Charges,
		ExchangeRateInformation: req.ExchangeRateInformation,
		ReadRefundAccount:       req.ReadRefundAccount,
	}
	f.consents[consent.ID] = consent
	return consent, nil
}

func (f *fakeConsentStore) GetConsent(ctx context.Context, id, apiClientID string) (*domain.Consent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	consent, ok := f.consents[id]
	if !ok {
		return nil, domain.ErrConsentNotFound
	}
	if consent.APIClientID != apiClientID {
		return nil, domain.ErrPermissionDenied
	}
	copied := *consent
	return &copied, nil
}

func (f *fakeConsentStore) ConsumeConsent(ctx context.Context, id, apiClientID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	consent, ok := f.consents[id]
	if !ok {
		return domain.ErrConsentNotFound
	}
	if !consent.IsAuthorised() {
		return domain.NewNotAuthorisedError(consent.Status)
	}
	consent.Status = domain.StatusConsumed
	return nil
}

func (f *fakeConsentStore) authorise(t *testing.T, id, accountID string) {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	consent, ok := f.consents[id]
	if !ok {
		t.Fatalf("no consent %s to authorise", id)
	}
	consent.Status = domain.StatusAuthorised
	consent.AuthorisedDebtorAccountID = &accountID
}

type fakeAccounts struct{}

func (fakeAccounts) ByAccountID(ctx context.Context, id string) (*domain.Account, error) {
	return &domain.Account{
		ID:             id,
		SchemeName:     "UK.OBIE.SortCodeAccountNumber",
		Identification: "11280001234567",
		Name:           "Mr Kevin Atkinson",
	}, nil
}

type fakeFunds struct{ available bool }

func (f fakeFunds) IsFundsAvailable(ctx context.Context, accountID string, amount domain.Amount) (bool, error) {
	return f.available, nil
}

type memSubmissionRepo struct {
	mu          sync.Mutex
	submissions map[string]*domain.PaymentSubmission
}

func newMemSubmissionRepo() *memSubmissionRepo {
	return &memSubmissionRepo{submissions: make(map[string]*domain.PaymentSubmission)}
}

func (m *memSubmissionRepo) Create(ctx context.Context, sub *domain.PaymentSubmission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.submissions {
		if existing.ConsentID == sub.ConsentID {
			return domain.ErrSubmissionExists
		}
	}
	m.submissions[sub.ID] = sub
	return nil
}

func (m *memSubmissionRepo) FindByID(ctx context.Context, id string) (*domain.PaymentSubmission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sub, ok := m.submissions[id]; ok {
		copied := *sub
		return &copied, nil
	}
	return nil, domain.ErrSubmissionNotFound
}

func (m *memSubmissionRepo) FindByConsentID(ctx context.Context, consentID string) (*domain.PaymentSubmission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, sub := range m.submissions {
		if sub.ConsentID == consentID {
			copied := *sub
			return &copied, nil
		}
	}
	return nil, domain.ErrSubmissionNotFound
}

type fixture struct {
	mux   *http.ServeMux
	store *fakeConsentStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := newFakeConsentStore()
	repo := newMemSubmissionRepo()
	coordinator := idempotency.NewCoordinator(idempotency.NewMemoryStore())
	validator := validation.New([]string{"GBP", "EUR", "USD"})
	rates := validation.StaticRateTable{
		validation.PairKey("GBP", "EUR"): decimal.RequireFromString("1.1629"),
	}

	consentSvc := services.NewConsentService(
		store, validator, rates, validation.ControlParameters{}, nil, basePath, logger)
	submissionSvc := services.NewSubmissionService(
		store, fakeAccounts{}, repo, coordinator, basePath, logger)
	fundsSvc := services.NewFundsConfirmationService(store, fakeFunds{available: true}, basePath, logger)

	mux := http.NewServeMux()
	NewHandlers(consentSvc, submissionSvc, fundsSvc, basePath, logger).RegisterRoutes(mux)
	return &fixture{mux: mux, store: store}
}

func (f *fixture) do(method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	f.mux.ServeHTTP(rr, req)
	return rr
}

func clientHeaders() map[string]string {
	return map[string]string{rest.ClientIDHeader: "tpp-1"}
}

func paymentHeaders(key string) map[string]string {
	return map[string]string{
		rest.ClientIDHeader:       "tpp-1",
		rest.IdempotencyKeyHeader: key,
	}
}

func consentBody() ConsentRequest {
	var req ConsentRequest
	req.Data.Initiation = domain.Initiation{
		InstructionIdentification: "ACME412",
		EndToEndIdentification:    "FRESCO.21302.GFX.20",
		InstructedAmount:          &domain.Amount{Amount: "165.88", Currency: "GBP"},
		CreditorAccount: &domain.AccountIdentification{
			SchemeName:     "UK.OBIE.SortCodeAccountNumber",
			Identification: "08080021325698",
			Name:           "ACME Inc",
		},
	}
	req.Data.ReadRefundAccount = domain.ReadRefundAccountYes
	req.Risk = domain.Risk{PaymentContextCode: "EcommerceGoods"}
	return req
}

func paymentBody(consentID string, init domain.Initiation, risk domain.Risk) PaymentRequest {
	var req PaymentRequest
	req.Data.ConsentID = consentID
	req.Data.Initiation = init
	req.Risk = risk
	return req
}

func TestDomesticPaymentFlow(t *testing.T) {
	f := newFixture(t)
	consentReq := consentBody()

	rr := f.do(http.MethodPost, basePath+"/domestic-payment-consents", consentReq, clientHeaders())
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var consentResp services.ConsentResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &consentResp))
	assert.Equal(t, "AwaitingAuthorisation", consentResp.Data.Status)
	consentID := consentResp.Data.ConsentID

	f.store.authorise(t, consentID, "acct-42")

	rr = f.do(http.MethodGet, basePath+"/domestic-payment-consents/"+consentID+"/funds-confirmation", nil, clientHeaders())
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var fundsResp services.FundsConfirmationResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &fundsResp))
	assert.True(t, fundsResp.Data.FundsAvailableResult.FundsAvailable)

	payReq := paymentBody(consentID, consentReq.Data.Initiation, consentReq.Risk)
	rr = f.do(http.MethodPost, basePath+"/domestic-payments", payReq, paymentHeaders("key-1"))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var payResp services.SubmissionResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &payResp))
	assert.Equal(t, consentID, payResp.Data.ConsentID)
	assert.Equal(t, "AcceptedSettlementInProcess", payResp.Data.Status)
	require.NotNil(t, payResp.Data.Refund)
	assert.Equal(t, "11280001234567", payResp.Data.Refund.Account.Identification)

	// A verified retry replays the first response byte for byte.
	firstBody := rr.Body.String()
	rr = f.do(http.MethodPost, basePath+"/domestic-payments", payReq, paymentHeaders("key-1"))
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, firstBody, rr.Body.String())

	rr = f.do(http.MethodGet, basePath+"/domestic-payments/"+payResp.Data.PaymentID, nil, clientHeaders())
	require.Equal(t, http.StatusOK, rr.Code)

	rr = f.do(http.MethodGet, basePath+"/domestic-payments/"+payResp.Data.PaymentID+"/payment-details", nil, clientHeaders())
	require.Equal(t, http.StatusOK, rr.Code)
	var details services.PaymentDetailsResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &details))
	require.Len(t, details.Data.PaymentStatus, 1)
}

func TestCreatePayment_MissingIdempotencyKey(t *testing.T) {
	f := newFixture(t)

	rr := f.do(http.MethodPost, basePath+"/domestic-payments",
		paymentBody("pdc-1", domain.Initiation{}, domain.Risk{}), clientHeaders())

	require.Equal(t, http.StatusBadRequest, rr.Code)
	var errResp rest.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &errResp))
	require.Len(t, errResp.Errors, 1)
	assert.Equal(t, "UK.OBIE.Header.Missing", errResp.Errors[0].ErrorCode)
}

func TestCreatePayment_OversizedIdempotencyKey(t *testing.T) {
	f := newFixture(t)
	key := make([]byte, 41)
	for i := range key {
		key[i] = 'a'
	}

	rr := f.do(http.MethodPost, basePath+"/domestic-payments",
		paymentBody("pdc-1", domain.Initiation{}, domain.Risk{}), paymentHeaders(string(key)))

	require.Equal(t, http.StatusBadRequest, rr.Code)
	var errResp rest.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &errResp))
	require.NotEmpty(t, errResp.Errors)
	assert.Equal(t, "UK.OBIE.Header.Invalid", errResp.Errors[0].ErrorCode)
}

func TestCreateConsent_MissingClientID(t *testing.T) {
	f := newFixture(t)

	rr := f.do(http.MethodPost, basePath+"/domestic-payment-consents", consentBody(), nil)

	require.Equal(t, http.StatusBadRequest, rr.Code)
	var errResp rest.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &errResp))
	assert.Equal(t, "UK.OBIE.Header.Missing", errResp.Errors[0].ErrorCode)
}

func TestCreateConsent_MalformedBody(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodPost, basePath+"/domestic-payment-consents",
		bytes.NewBufferString("{not json"))
	req.Header.Set(rest.ClientIDHeader, "tpp-1")
	rr := httptest.NewRecorder()
	f.mux.ServeHTTP(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
	var errResp rest.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &errResp))
	assert.Equal(t, "UK.OBIE.Field.Invalid", errResp.Errors[0].ErrorCode)
}

func TestCreateConsent_FieldErrorsListedPerField(t *testing.T) {
	f := newFixture(t)
	req := consentBody()
	req.Data.Initiation.InstructedAmount = &domain.Amount{Amount: "-5", Currency: "XXX"}

	rr := f.do(http.MethodPost, basePath+"/domestic-payment-consents", req, clientHeaders())

	require.Equal(t, http.StatusBadRequest, rr.Code)
	var errResp rest.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &errResp))
	assert.Equal(t, "400 Bad Request", errResp.Code)
	assert.Len(t, errResp.Errors, 2)
	for _, detail := range errResp.Errors {
		assert.NotEmpty(t, detail.Path)
	}
}

func TestCreatePayment_InitiationMismatch(t *testing.T) {
	f := newFixture(t)
	consentReq := consentBody()

	rr := f.do(http.MethodPost, basePath+"/domestic-payment-consents", consentReq, clientHeaders())
	require.Equal(t, http.StatusCreated, rr.Code)
	var consentResp services.ConsentResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &consentResp))
	f.store.authorise(t, consentResp.Data.ConsentID, "acct-42")

	tampered := consentReq.Data.Initiation
	tampered.InstructedAmount = &domain.Amount{Amount: "999.99", Currency: "GBP"}

	rr = f.do(http.MethodPost, basePath+"/domestic-payments",
		paymentBody(consentResp.Data.ConsentID, tampered, consentReq.Risk), paymentHeaders("key-1"))

	require.Equal(t, http.StatusBadRequest, rr.Code)
	var errResp rest.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &errResp))
	assert.Equal(t, "UK.OBIE.Resource.ConsentMismatch", errResp.Errors[0].ErrorCode)
	assert.Equal(t, "The Initiation received does not match that of the consent", errResp.Errors[0].Message)
}

func TestGetConsent_NotFound(t *testing.T) {
	f := newFixture(t)

	rr := f.do(http.MethodGet, basePath+"/domestic-payment-consents/pdc-404", nil, clientHeaders())

	require.Equal(t, http.StatusNotFound, rr.Code)
	var errResp rest.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &errResp))
	assert.Equal(t, "UK.OBIE.Resource.NotFound", errResp.Errors[0].ErrorCode)
}

func TestFundsConfirmation_OnlyRegisteredForImmediatePayments(t *testing.T) {
	f := newFixture(t)

	rr := f.do(http.MethodGet, basePath+"/domestic-scheduled-payment-consents/pdsc-1/funds-confirmation", nil, clientHeaders())
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHealth(t *testing.T) {
	f := newFixture(t)

	rr := f.do(http.MethodGet, "/health", nil, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}
