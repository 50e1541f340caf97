package domain

import (
	"time"

	"github.com/oapi-codegen/runtime/types"
)

// Amount is a currency amount as it appears on the wire: a string-encoded
// decimal plus an ISO 4217 code. Amounts are compared numerically, never
// lexically, so "100.0" and "100.00" are the same amount.
type Amount struct {
	Amount   string `json:"Amount"`
	Currency string `json:"Currency"`
}

// ExchangeRateType is the contract under which an international payment's
// rate was quoted.
type ExchangeRateType string

const (
	RateTypeAgreed     ExchangeRateType = "AGREED"
	RateTypeActual     ExchangeRateType = "ACTUAL"
	RateTypeIndicative ExchangeRateType = "INDICATIVE"
)

// ExchangeRateInformation carries the rate terms of an international
// payment. On a consent these are the resolved terms fixed at creation; on
// a submission they are the terms the TPP repeated back.
type ExchangeRateInformation struct {
	UnitCurrency           string           `json:"UnitCurrency"`
	ExchangeRate           *string          `json:"ExchangeRate,omitempty"`
	RateType               ExchangeRateType `json:"RateType"`
	ContractIdentification *string          `json:"ContractIdentification,omitempty"`
	ExpirationDateTime     *time.Time       `json:"ExpirationDateTime,omitempty"`
}

// AccountIdentification names a creditor or debtor account by scheme.
type AccountIdentification struct {
	SchemeName              string  `json:"SchemeName"`
	Identification          string  `json:"Identification"`
	Name                    string  `json:"Name,omitempty"`
	SecondaryIdentification *string `json:"SecondaryIdentification,omitempty"`
}

// FinancialInstitution identifies a creditor agent for international
// products.
type FinancialInstitution struct {
	SchemeName     string `json:"SchemeName"`
	Identification string `json:"Identification"`
	Name           string `json:"Name,omitempty"`
}

// Initiation is the canonical payment-instruction shape used across all
// seven product families and schema versions. Consent-side and
// payment-side wire types both project into this one structure, so
// response-only fields can never leak into a comparison. Fields that do not
// apply to a family are simply left unset.
type Initiation struct {
	InstructionIdentification string `json:"InstructionIdentification,omitempty"`
	EndToEndIdentification    string `json:"EndToEndIdentification,omitempty"`
	LocalInstrument           string `json:"LocalInstrument,omitempty"`

	InstructedAmount *Amount `json:"InstructedAmount,omitempty"`

	// Scheduled products.
	RequestedExecutionDate *types.Date `json:"RequestedExecutionDate,omitempty"`

	// Standing orders.
	Frequency              string      `json:"Frequency,omitempty"`
	Reference              string      `json:"Reference,omitempty"`
	NumberOfPayments       string      `json:"NumberOfPayments,omitempty"`
	FirstPaymentDateTime   *time.Time  `json:"FirstPaymentDateTime,omitempty"`
	FinalPaymentDateTime   *time.Time  `json:"FinalPaymentDateTime,omitempty"`
	FirstPaymentAmount     *Amount     `json:"FirstPaymentAmount,omitempty"`
	RecurringPaymentAmount *Amount     `json:"RecurringPaymentAmount,omitempty"`
	FinalPaymentAmount     *Amount     `json:"FinalPaymentAmount,omitempty"`

	// International products.
	CurrencyOfTransfer      string                   `json:"CurrencyOfTransfer,omitempty"`
	Purpose                 string                   `json:"Purpose,omitempty"`
	ChargeBearer            string                   `json:"ChargeBearer,omitempty"`
	ExchangeRateInformation *ExchangeRateInformation `json:"ExchangeRateInformation,omitempty"`
	CreditorAgent           *FinancialInstitution    `json:"CreditorAgent,omitempty"`

	// File payments.
	FileType             string `json:"FileType,omitempty"`
	FileHash             string `json:"FileHash,omitempty"`
	FileReference        string `json:"FileReference,omitempty"`
	NumberOfTransactions string `json:"NumberOfTransactions,omitempty"`
	ControlSum           string `json:"ControlSum,omitempty"`

	DebtorAccount   *AccountIdentification `json:"DebtorAccount,omitempty"`
	CreditorAccount *AccountIdentification `json:"CreditorAccount,omitempty"`
}

// Risk is the contextual block a TPP supplies alongside an initiation. It
// is fixed on the consent and must be repeated unchanged on the submission.
type Risk struct {
	PaymentContextCode             string           `json:"PaymentContextCode,omitempty"`
	MerchantCategoryCode           string           `json:"MerchantCategoryCode,omitempty"`
	MerchantCustomerIdentification string           `json:"MerchantCustomerIdentification,omitempty"`
	ContractPresentIndicator       *bool            `json:"ContractPresentIndicator,omitempty"`
	DeliveryAddress                *DeliveryAddress `json:"DeliveryAddress,omitempty"`
}

type DeliveryAddress struct {
	AddressLine    []string `json:"AddressLine,omitempty"`
	StreetName     string   `json:"StreetName,omitempty"`
	BuildingNumber string   `json:"BuildingNumber,omitempty"`
	PostCode       string   `json:"PostCode,omitempty"`
	TownName       string   `json:"TownName,omitempty"`
	Country        string   `json:"Country,omitempty"`
}

// Charge is a fee computed and fixed at consent-creation time.
type Charge struct {
	ChargeBearer string `json:"ChargeBearer"`
	Type         string `json:"Type"`
	Amount       Amount `json:"Amount"`
}
