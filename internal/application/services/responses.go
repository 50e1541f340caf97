package services

import (
	"time"

	"github.com/kemiadeola/openbanking-pisp/internal/domain"
)

// Initial payment statuses by product family, following the Open Banking
// status model: immediate payments move straight into settlement, deferred
// products start pending.
const (
	StatusAcceptedSettlementInProcess = "AcceptedSettlementInProcess"
	StatusInitiationPending           = "InitiationPending"
)

func initialStatus(family domain.ProductFamily) string {
	if family == domain.FamilyDomestic || family == domain.FamilyInternational {
		return StatusAcceptedSettlementInProcess
	}
	return StatusInitiationPending
}

type Links struct {
	Self string `json:"Self"`
}

// RefundAccount surfaces the debtor account identification when the consent
// requested refund details.
type RefundAccount struct {
	Account domain.AccountIdentification `json:"Account"`
}

// SubmissionData is the Data block of a payment-submission response.
type SubmissionData struct {
	PaymentID               string                          `json:"PaymentId"`
	ConsentID               string                          `json:"ConsentId"`
	Status                  string                          `json:"Status"`
	CreationDateTime        time.Time                       `json:"CreationDateTime"`
	Initiation              domain.Initiation               `json:"Initiation"`
	Charges                 []domain.Charge                 `json:"Charges,omitempty"`
	ExchangeRateInformation *domain.ExchangeRateInformation `json:"ExchangeRateInformation,omitempty"`
	Refund                  *RefundAccount                  `json:"Refund,omitempty"`
}

// SubmissionResponse is the body returned on payment creation and lookup.
type SubmissionResponse struct {
	Data  SubmissionData `json:"Data"`
	Risk  domain.Risk    `json:"Risk"`
	Links Links          `json:"Links"`
}

// PaymentDetail is one status entry in a payment-details response.
type PaymentDetail struct {
	PaymentTransactionID string    `json:"PaymentTransactionId"`
	Status               string    `json:"Status"`
	StatusUpdateDateTime time.Time `json:"StatusUpdateDateTime"`
}

// PaymentDetailsResponse is the body of the payment-details lookup.
type PaymentDetailsResponse struct {
	Data struct {
		PaymentStatus []PaymentDetail `json:"PaymentStatus"`
	} `json:"Data"`
	Links Links `json:"Links"`
}

// FundsConfirmationResponse reports whether the authorised debtor account
// covers the instructed amount at the time of the check.
type FundsConfirmationResponse struct {
	Data struct {
		FundsAvailableResult struct {
			FundsAvailable         bool      `json:"FundsAvailable"`
			FundsAvailableDateTime time.Time `json:"FundsAvailableDateTime"`
		} `json:"FundsAvailableResult"`
	} `json:"Data"`
	Links Links `json:"Links"`
}

// ConsentData is the Data block of a consent-creation response.
type ConsentData struct {
	ConsentID               string                          `json:"ConsentId"`
	Status                  string                          `json:"Status"`
	CreationDateTime        time.Time                       `json:"CreationDateTime"`
	StatusUpdateDateTime    time.Time                       `json:"StatusUpdateDateTime"`
	Initiation              domain.Initiation               `json:"Initiation"`
	Charges                 []domain.Charge                 `json:"Charges,omitempty"`
	ExchangeRateInformation *domain.ExchangeRateInformation `json:"ExchangeRateInformation,omitempty"`
	ReadRefundAccount       string                          `json:"ReadRefundAccount,omitempty"`
}

// ConsentResponse is the body returned on consent creation and lookup.
type ConsentResponse struct {
	Data  ConsentData `json:"Data"`
	Risk  domain.Risk `json:"Risk"`
	Links Links       `json:"Links"`
}
