package consentstore

import (
	"time"

	"github.com/kemiadeola/openbanking-pisp/internal/application"
	"github.com/kemiadeola/openbanking-pisp/internal/domain"
)

type createConsentRequest struct {
	ProductFamily           string                          `json:"productFamily"`
	Initiation              domain.Initiation               `json:"initiation"`
	Risk                    domain.Risk                     `json:"risk"`
	ExchangeRateInformation *domain.ExchangeRateInformation `json:"exchangeRateInformation,omitempty"`
	Charges                 []domain.Charge                 `json:"charges,omitempty"`
	ReadRefundAccount       string                          `json:"readRefundAccount,omitempty"`
}

func toCreateRequest(req application.ConsentRequest) *createConsentRequest {
	return &createConsentRequest{
		ProductFamily:           string(req.ProductFamily),
		Initiation:              req.Initiation,
		Risk:                    req.Risk,
		ExchangeRateInformation: req.ExchangeRateInformation,
		Charges:                 req.Charges,
		ReadRefundAccount:       req.ReadRefundAccount,
	}
}

type consentDTO struct {
	ConsentID                 string                          `json:"consentId"`
	APIClientID               string                          `json:"apiClientId"`
	Status                    string                          `json:"status"`
	Initiation                domain.Initiation               `json:"initiation"`
	Risk                      domain.Risk                     `json:"risk"`
	Charges                   []domain.Charge                 `json:"charges,omitempty"`
	ExchangeRateInformation   *domain.ExchangeRateInformation `json:"exchangeRateInformation,omitempty"`
	ReadRefundAccount         string                          `json:"readRefundAccount,omitempty"`
	AuthorisedDebtorAccountID *string                         `json:"authorisedDebtorAccountId,omitempty"`
	CreationDateTime          time.Time                       `json:"creationDateTime"`
	StatusUpdateDateTime      time.Time                       `json:"statusUpdateDateTime"`
}

func (d *consentDTO) toDomain() *domain.Consent {
	return &domain.Consent{
		ID:                        d.ConsentID,
		APIClientID:               d.APIClientID,
		Status:                    domain.ConsentStatus(d.Status),
		Initiation:                d.Initiation,
		Risk:                      d.Risk,
		Charges:                   d.Charges,
		ExchangeRateInformation:   d.ExchangeRateInformation,
		ReadRefundAccount:         d.ReadRefundAccount,
		AuthorisedDebtorAccountID: d.AuthorisedDebtorAccountID,
		CreationDateTime:          d.CreationDateTime,
		StatusUpdateDateTime:      d.StatusUpdateDateTime,
	}
}
