package services

import (
	"context"
	"sync"

	"github.com/kemiadeola/openbanking-pisp/internal/application"
	"github.com/kemiadeola/openbanking-pisp/internal/domain"
)

// MockConsentStore is a stateful consent store double. Without an Fn
// override it behaves like the real store: GetConsent returns a copy and
// ConsumeConsent performs the conditional Authorised to Consumed transition.
type MockConsentStore struct {
	mu       sync.Mutex
	consents map[string]*domain.Consent

	CreateConsentFn  func(ctx context.Context, req application.ConsentRequest) (*domain.Consent, error)
	GetConsentFn     func(ctx context.Context, id, apiClientID string) (*domain.Consent, error)
	ConsumeConsentFn func(ctx context.Context, id, apiClientID string) error

	ConsumeCalls int
}

func NewMockConsentStore(consents ...*domain.Consent) *MockConsentStore {
	m := &MockConsentStore{consents: make(map[string]*domain.Consent)}
	for _, c := range consents {
		m.consents[c.ID] = c
	}
	return m
}

func (m *MockConsentStore) CreateConsent(ctx context.Context, req application.ConsentRequest) (*domain.Consent, error) {
	if m.CreateConsentFn != nil {
		return m.CreateConsentFn(ctx, req)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	consent := &domain.Consent{
		ID:                      req.ProductFamily.ConsentIDPrefix() + "-1",
		APIClientID:             req.APIClientID,
		Status:                  domain.StatusAwaitingAuthorisation,
		Initiation:              req.Initiation,
		Risk:                    req.Risk,
		Charges:                 req.Charges,
		ExchangeRateInformation: req.ExchangeRateInformation,
		ReadRefundAccount:       req.ReadRefundAccount,
	}
	m.consents[consent.ID] = consent
	return consent, nil
}

// Authorise stands in for the customer's out-of-band approval.
func (m *MockConsentStore) Authorise(id, debtorAccountID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if consent, ok := m.consents[id]; ok {
		consent.Status = domain.StatusAuthorised
		consent.AuthorisedDebtorAccountID = &debtorAccountID
	}
}

func (m *MockConsentStore) GetConsent(ctx context.Context, id, apiClientID string) (*domain.Consent, error) {
	if m.GetConsentFn != nil {
		return m.GetConsentFn(ctx, id, apiClientID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	consent, ok := m.consents[id]
	if !ok {
		return nil, domain.ErrConsentNotFound
	}
	if consent.APIClientID != apiClientID {
		return nil, domain.ErrPermissionDenied
	}
	copied := *consent
	return &copied, nil
}

func (m *MockConsentStore) ConsumeConsent(ctx context.Context, id, apiClientID string) error {
	m.mu.Lock()
	m.ConsumeCalls++
	m.mu.Unlock()

	if m.ConsumeConsentFn != nil {
		return m.ConsumeConsentFn(ctx, id, apiClientID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	consent, ok := m.consents[id]
	if !ok {
		return domain.ErrConsentNotFound
	}
	if consent.APIClientID != apiClientID {
		return domain.ErrPermissionDenied
	}
	if !consent.IsAuthorised() {
		return domain.NewNotAuthorisedError(consent.Status)
	}
	consent.Status = domain.StatusConsumed
	return nil
}

// MockAccounts resolves debtor accounts from a fixed map.
type MockAccounts struct {
	Accounts map[string]*domain.Account

	ByAccountIDFn func(ctx context.Context, id string) (*domain.Account, error)
}

func (m *MockAccounts) ByAccountID(ctx context.Context, id string) (*domain.Account, error) {
	if m.ByAccountIDFn != nil {
		return m.ByAccountIDFn(ctx, id)
	}
	if acct, ok := m.Accounts[id]; ok {
		return acct, nil
	}
	return nil, domain.ErrSubmissionNotFound
}

// MockFunds records every balance check so tests can assert the status
// guard ran first.
type MockFunds struct {
	mu    sync.Mutex
	calls []string

	Available         bool
	IsFundsAvailableFn func(ctx context.Context, accountID string, amount domain.Amount) (bool, error)
}

func (m *MockFunds) IsFundsAvailable(ctx context.Context, accountID string, amount domain.Amount) (bool, error) {
	m.mu.Lock()
	m.calls = append(m.calls, accountID)
	m.mu.Unlock()

	if m.IsFundsAvailableFn != nil {
		return m.IsFundsAvailableFn(ctx, accountID, amount)
	}
	return m.Available, nil
}

func (m *MockFunds) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// MockSubmissionRepository keeps submissions in a map.
type MockSubmissionRepository struct {
	mu          sync.Mutex
	submissions map[string]*domain.PaymentSubmission

	CreateFn func(ctx context.Context, sub *domain.PaymentSubmission) error

	CreateCalls int
}

func NewMockSubmissionRepository() *MockSubmissionRepository {
	return &MockSubmissionRepository{submissions: make(map[string]*domain.PaymentSubmission)}
}

func (m *MockSubmissionRepository) Create(ctx context.Context, sub *domain.PaymentSubmission) error {
	m.mu.Lock()
	m.CreateCalls++
	m.mu.Unlock()

	if m.CreateFn != nil {
		return m.CreateFn(ctx, sub)
	}

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

func (m *MockSubmissionRepository) FindByID(ctx context.Context, id string) (*domain.PaymentSubmission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sub, ok := m.submissions[id]; ok {
		copied := *sub
		return &copied, nil
	}
	return nil, domain.ErrSubmissionNotFound
}

func (m *MockSubmissionRepository) FindByConsentID(ctx context.Context, consentID string) (*domain.PaymentSubmission, error) {
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
