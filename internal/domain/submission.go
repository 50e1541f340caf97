package domain

import (
	"errors"
	"time"
)

// PaymentSubmission is the record created when a payment is executed
// against an authorised consent. It is immutable after creation; one
// submission exists per consumed consent.
type PaymentSubmission struct {
	ID            string
	ConsentID     string
	ProductFamily ProductFamily
	APIClientID   string

	Initiation Initiation
	Risk       Risk

	// Charges and ExchangeRateInformation are copied from the consent at
	// submission time so every read of the payment reproduces them.
	Charges                 []Charge
	ExchangeRateInformation *ExchangeRateInformation

	RefundAccount *AccountIdentification

	IdempotencyKey   string
	CreationDateTime time.Time
}

func NewPaymentSubmission(
	id string,
	consentID string,
	apiClientID string,
	idempotencyKey string,
	initiation Initiation,
	risk Risk,
) (*PaymentSubmission, error) {
	if id == "" {
		return nil, errors.New("submission id is required")
	}
	if consentID == "" {
		return nil, errors.New("consent id is required")
	}
	if apiClientID == "" {
		return nil, errors.New("api client id is required")
	}

	family, err := FamilyFromConsentID(consentID)
	if err != nil {
		return nil, err
	}

	return &PaymentSubmission{
		ID:               id,
		ConsentID:        consentID,
		ProductFamily:    family,
		APIClientID:      apiClientID,
		Initiation:       initiation,
		Risk:             risk,
		IdempotencyKey:   idempotencyKey,
		CreationDateTime: time.Now().UTC(),
	}, nil
}

// Account is the view of a debtor account the accounts collaborator hands
// back, used to surface refund details on a submission response.
type Account struct {
	ID                      string
	SchemeName              string
	Identification          string
	Name                    string
	SecondaryIdentification *string
}

// RefundIdentification projects the account into the identification block a
// submission response carries when the consent requested refund details.
func (a *Account) RefundIdentification() *AccountIdentification {
	return &AccountIdentification{
		SchemeName:              a.SchemeName,
		Identification:          a.Identification,
		Name:                    a.Name,
		SecondaryIdentification: a.SecondaryIdentification,
	}
}
