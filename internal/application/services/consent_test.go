package services

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kemiadeola/openbanking-pisp/internal/application"
	"github.com/kemiadeola/openbanking-pisp/internal/domain"
	"github.com/kemiadeola/openbanking-pisp/internal/validation"
)

func newConsentService(store *MockConsentStore) *ConsentService {
	rates := validation.StaticRateTable{
		validation.PairKey("GBP", "EUR"): decimal.RequireFromString("1.1629"),
		validation.PairKey("GBP", "USD"): decimal.RequireFromString("1.2704"),
	}
	controlParams := validation.ControlParameters{
		MaximumIndividualAmount: &domain.Amount{Amount: "10000.00", Currency: "GBP"},
	}
	tariff := []domain.Charge{{
		ChargeBearer: "BorneByDebtor",
		Type:         "UK.OBIE.MoneyTransmission",
		Amount:       domain.Amount{Amount: "0.25", Currency: "GBP"},
	}}
	return NewConsentService(
		store,
		validation.New([]string{"GBP", "EUR", "USD"}),
		rates,
		controlParams,
		tariff,
		testBasePath,
		testLogger(),
	)
}

func TestCreateConsent_Domestic(t *testing.T) {
	store := NewMockConsentStore()
	svc := newConsentService(store)

	resp, err := svc.CreateConsent(context.Background(), CreateConsentCommand{
		ProductFamily:     domain.FamilyDomestic,
		APIClientID:       "tpp-1",
		Initiation:        domesticInitiation(),
		Risk:              testRisk(),
		ReadRefundAccount: domain.ReadRefundAccountYes,
	})

	require.NoError(t, err)
	assert.Equal(t, "AwaitingAuthorisation", resp.Data.Status)
	assert.Equal(t, "pdc-1", resp.Data.ConsentID)
	assert.Equal(t, domain.ReadRefundAccountYes, resp.Data.ReadRefundAccount)
	assert.Empty(t, resp.Data.Charges)
	assert.Nil(t, resp.Data.ExchangeRateInformation)
	assert.Equal(t, testBasePath+"/domestic-payment-consents/pdc-1", resp.Links.Self)
}

func TestCreateConsent_AccumulatesFieldErrors(t *testing.T) {
	store := NewMockConsentStore()
	svc := newConsentService(store)

	init := domesticInitiation()
	init.InstructedAmount = &domain.Amount{Amount: "0", Currency: "XXX"}

	_, err := svc.CreateConsent(context.Background(), CreateConsentCommand{
		ProductFamily: domain.FamilyDomestic,
		APIClientID:   "tpp-1",
		Initiation:    init,
		Risk:          testRisk(),
	})

	var svcErr *application.ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, application.ErrCodeFieldInvalid, svcErr.Code)

	// Non-positive amount, unsupported currency, and the control-parameter
	// currency mismatch are all reported together.
	require.Len(t, svcErr.Fields, 3)
	codes := make([]string, 0, len(svcErr.Fields))
	for _, f := range svcErr.Fields {
		codes = append(codes, f.Code)
	}
	assert.Contains(t, codes, validation.CodeFieldInvalid)
	assert.Contains(t, codes, validation.CodeUnsupportedCurrency)
	assert.Contains(t, codes, validation.CodeFailsControlParameters)
	assert.Len(t, store.consents, 0)
}

func TestCreateConsent_RejectsAmountOverCeiling(t *testing.T) {
	store := NewMockConsentStore()
	svc := newConsentService(store)

	init := domesticInitiation()
	init.InstructedAmount = &domain.Amount{Amount: "10000.01", Currency: "GBP"}

	_, err := svc.CreateConsent(context.Background(), CreateConsentCommand{
		ProductFamily: domain.FamilyDomestic,
		APIClientID:   "tpp-1",
		Initiation:    init,
		Risk:          testRisk(),
	})

	var svcErr *application.ServiceError
	require.ErrorAs(t, err, &svcErr)
	require.Len(t, svcErr.Fields, 1)
	assert.Equal(t, validation.CodeFailsControlParameters, svcErr.Fields[0].Code)
}

func TestCreateConsent_InternationalSynthesizesRate(t *testing.T) {
	store := NewMockConsentStore()
	svc := newConsentService(store)

	init := domesticInitiation()
	init.CurrencyOfTransfer = "EUR"

	resp, err := svc.CreateConsent(context.Background(), CreateConsentCommand{
		ProductFamily: domain.FamilyInternational,
		APIClientID:   "tpp-1",
		Initiation:    init,
		Risk:          testRisk(),
	})

	require.NoError(t, err)
	require.NotNil(t, resp.Data.ExchangeRateInformation)
	assert.Equal(t, domain.RateTypeIndicative, resp.Data.ExchangeRateInformation.RateType)
	assert.Equal(t, "GBP", resp.Data.ExchangeRateInformation.UnitCurrency)
	require.NotNil(t, resp.Data.ExchangeRateInformation.ExchangeRate)
	assert.Equal(t, "1.1629", *resp.Data.ExchangeRateInformation.ExchangeRate)

	// The initiation echoed in the response carries the same resolved terms,
	// so repeating it on submission reproduces the consent exactly.
	assert.Equal(t, resp.Data.ExchangeRateInformation, resp.Data.Initiation.ExchangeRateInformation)

	require.Len(t, resp.Data.Charges, 1)
	assert.Equal(t, "UK.OBIE.MoneyTransmission", resp.Data.Charges[0].Type)
	assert.Equal(t, "pic-1", resp.Data.ConsentID)
}

func TestCreateConsent_InternationalAgreedRatePassesThrough(t *testing.T) {
	store := NewMockConsentStore()
	svc := newConsentService(store)

	init := domesticInitiation()
	init.CurrencyOfTransfer = "USD"
	init.ExchangeRateInformation = &domain.ExchangeRateInformation{
		UnitCurrency:           "USD",
		ExchangeRate:           ptr("1.2500"),
		RateType:               domain.RateTypeAgreed,
		ContractIdentification: ptr("/tbill/2018/T102993"),
	}

	resp, err := svc.CreateConsent(context.Background(), CreateConsentCommand{
		ProductFamily: domain.FamilyInternational,
		APIClientID:   "tpp-1",
		Initiation:    init,
		Risk:          testRisk(),
	})

	require.NoError(t, err)
	require.NotNil(t, resp.Data.ExchangeRateInformation)
	assert.Equal(t, domain.RateTypeAgreed, resp.Data.ExchangeRateInformation.RateType)
	assert.Equal(t, "1.2500", *resp.Data.ExchangeRateInformation.ExchangeRate)
}

func TestCreateConsent_InternationalActualWithRateRejected(t *testing.T) {
	store := NewMockConsentStore()
	svc := newConsentService(store)

	init := domesticInitiation()
	init.CurrencyOfTransfer = "EUR"
	init.ExchangeRateInformation = &domain.ExchangeRateInformation{
		UnitCurrency: "GBP",
		ExchangeRate: ptr("1.1629"),
		RateType:     domain.RateTypeActual,
	}

	_, err := svc.CreateConsent(context.Background(), CreateConsentCommand{
		ProductFamily: domain.FamilyInternational,
		APIClientID:   "tpp-1",
		Initiation:    init,
		Risk:          testRisk(),
	})

	var svcErr *application.ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, application.ErrCodeFieldInvalid, svcErr.Code)
	assert.Len(t, store.consents, 0)
}

func TestCreateConsent_StandingOrderRequiresFrequency(t *testing.T) {
	store := NewMockConsentStore()
	svc := newConsentService(store)

	_, err := svc.CreateConsent(context.Background(), CreateConsentCommand{
		ProductFamily: domain.FamilyDomesticStandingOrder,
		APIClientID:   "tpp-1",
		Initiation: domain.Initiation{
			FirstPaymentAmount: &domain.Amount{Amount: "7.00", Currency: "GBP"},
		},
		Risk: testRisk(),
	})

	var svcErr *application.ServiceError
	require.ErrorAs(t, err, &svcErr)
	require.Len(t, svcErr.Fields, 1)
	assert.Equal(t, "Data/Initiation/Frequency", svcErr.Fields[0].Path)
}

func TestGetConsent(t *testing.T) {
	store := NewMockConsentStore(authorisedConsent("pdc-1"))
	svc := newConsentService(store)

	t.Run("owner reads consent", func(t *testing.T) {
		resp, err := svc.GetConsent(context.Background(), "pdc-1", "tpp-1")
		require.NoError(t, err)
		assert.Equal(t, "pdc-1", resp.Data.ConsentID)
		assert.Equal(t, "Authorised", resp.Data.Status)
	})

	t.Run("other client is denied", func(t *testing.T) {
		_, err := svc.GetConsent(context.Background(), "pdc-1", "tpp-2")
		var svcErr *application.ServiceError
		require.ErrorAs(t, err, &svcErr)
		assert.Equal(t, application.ErrCodeForbidden, svcErr.Code)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := svc.GetConsent(context.Background(), "pdc-404", "tpp-1")
		var svcErr *application.ServiceError
		require.ErrorAs(t, err, &svcErr)
		assert.Equal(t, application.ErrCodeNotFound, svcErr.Code)
	})

	t.Run("unrecognized prefix", func(t *testing.T) {
		_, err := svc.GetConsent(context.Background(), "zzz-1", "tpp-1")
		var svcErr *application.ServiceError
		require.ErrorAs(t, err, &svcErr)
		assert.Equal(t, application.ErrCodeNotFound, svcErr.Code)
	})
}
