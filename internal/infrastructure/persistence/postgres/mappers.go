package postgres

import (
	"encoding/json"
	"fmt"

	"github.com/kemiadeola/openbanking-pisp/internal/domain"
)

func toDBModel(sub *domain.PaymentSubmission) (*SubmissionModel, error) {
	initiation, err := json.Marshal(sub.Initiation)
	if err != nil {
		return nil, fmt.Errorf("marshal initiation: %w", err)
	}
	risk, err := json.Marshal(sub.Risk)
	if err != nil {
		return nil, fmt.Errorf("marshal risk: %w", err)
	}
	var charges json.RawMessage
	if len(sub.Charges) > 0 {
		charges, err = json.Marshal(sub.Charges)
		if err != nil {
			return nil, fmt.Errorf("marshal charges: %w", err)
		}
	}
	var exchangeRate json.RawMessage
	if sub.ExchangeRateInformation != nil {
		exchangeRate, err = json.Marshal(sub.ExchangeRateInformation)
		if err != nil {
			return nil, fmt.Errorf("marshal exchange rate information: %w", err)
		}
	}
	var refund json.RawMessage
	if sub.RefundAccount != nil {
		refund, err = json.Marshal(sub.RefundAccount)
		if err != nil {
			return nil, fmt.Errorf("marshal refund account: %w", err)
		}
	}

	return &SubmissionModel{
		ID:             sub.ID,
		ConsentID:      sub.ConsentID,
		ProductFamily:  string(sub.ProductFamily),
		APIClientID:    sub.APIClientID,
		Initiation:     initiation,
		Risk:           risk,
		Charges:        charges,
		ExchangeRate:   exchangeRate,
		RefundAccount:  refund,
		IdempotencyKey: sub.IdempotencyKey,
		CreatedAt:      sub.CreationDateTime,
	}, nil
}

func toDomainModel(m SubmissionModel) (*domain.PaymentSubmission, error) {
	sub := &domain.PaymentSubmission{
		ID:               m.ID,
		ConsentID:        m.ConsentID,
		ProductFamily:    domain.ProductFamily(m.ProductFamily),
		APIClientID:      m.APIClientID,
		IdempotencyKey:   m.IdempotencyKey,
		CreationDateTime: m.CreatedAt,
	}
	if err := json.Unmarshal(m.Initiation, &sub.Initiation); err != nil {
		return nil, fmt.Errorf("unmarshal initiation: %w", err)
	}
	if err := json.Unmarshal(m.Risk, &sub.Risk); err != nil {
		return nil, fmt.Errorf("unmarshal risk: %w", err)
	}
	if len(m.Charges) > 0 {
		if err := json.Unmarshal(m.Charges, &sub.Charges); err != nil {
			return nil, fmt.Errorf("unmarshal charges: %w", err)
		}
	}
	if len(m.ExchangeRate) > 0 {
		var eri domain.ExchangeRateInformation
		if err := json.Unmarshal(m.ExchangeRate, &eri); err != nil {
			return nil, fmt.Errorf("unmarshal exchange rate information: %w", err)
		}
		sub.ExchangeRateInformation = &eri
	}
	if len(m.RefundAccount) > 0 {
		var refund domain.AccountIdentification
		if err := json.Unmarshal(m.RefundAccount, &refund); err != nil {
			return nil, fmt.Errorf("unmarshal refund account: %w", err)
		}
		sub.RefundAccount = &refund
	}
	return sub, nil
}
