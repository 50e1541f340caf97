package validation

import (
	"github.com/shopspring/decimal"

	"github.com/kemiadeola/openbanking-pisp/internal/domain"
)

// RateTable resolves a reference exchange rate for a currency pair. The
// numeric source is deployment configuration, not a constant of the engine.
type RateTable interface {
	Rate(unitCurrency, instructedCurrency string) (decimal.Decimal, bool)
}

// ExchangeRateInformation validates the rate-contract rules for an
// international payment. The checks are pure and deterministic so a retried
// request always validates the same way.
//
// AGREED requires both ExchangeRate and ContractIdentification and a unit
// currency equal to the currency of transfer. ACTUAL and INDICATIVE forbid
// both fields.
func (v *Validator) ExchangeRateInformation(eri *domain.ExchangeRateInformation, currencyOfTransfer string) Result {
	var res Result
	if eri == nil {
		res.Add(CodeFieldMissing, "Data/Initiation/ExchangeRateInformation", "ExchangeRateInformation is required")
		return res
	}

	const path = "Data/Initiation/ExchangeRateInformation"

	switch eri.RateType {
	case domain.RateTypeAgreed:
		if eri.ExchangeRate == nil || eri.ContractIdentification == nil {
			res.Add(CodeFieldMissing, path,
				"ExchangeRate and ContractIdentification must be specified when requesting an Agreed RateType")
		}
		if currencyOfTransfer != "" && eri.UnitCurrency != currencyOfTransfer {
			res.Add(CodeFieldInvalid, path+"/UnitCurrency",
				"The currency of transfer %s should be the same with the unit currency %s for an Agreed RateType",
				currencyOfTransfer, eri.UnitCurrency)
		}
	case domain.RateTypeActual, domain.RateTypeIndicative:
		if eri.ExchangeRate != nil || eri.ContractIdentification != nil {
			res.Add(CodeFieldInvalid, path,
				"A PISP must not specify ExchangeRate and/or ContractIdentification when requesting an %s RateType.",
				eri.RateType)
		}
	default:
		res.Add(CodeFieldInvalid, path+"/RateType", "The rate type %s provided is not valid", eri.RateType)
	}

	res.Merge(v.Currency(path+"/UnitCurrency", eri.UnitCurrency))
	if currencyOfTransfer != "" {
		res.Merge(v.Currency("Data/Initiation/CurrencyOfTransfer", currencyOfTransfer))
	}

	return res
}

// ResolveExchangeRate fixes the exchange-rate terms for a consent at
// creation time. A consent that omits rate information is not rejected: an
// INDICATIVE rate is synthesized from the reference table, deterministic
// for a given currency pair.
func (v *Validator) ResolveExchangeRate(
	table RateTable,
	eri *domain.ExchangeRateInformation,
	instructedCurrency string,
	currencyOfTransfer string,
) (*domain.ExchangeRateInformation, Result) {
	if eri == nil {
		var res Result
		rate, ok := table.Rate(instructedCurrency, currencyOfTransfer)
		if !ok {
			res.Add(CodeUnsupportedCurrency, "Data/Initiation/CurrencyOfTransfer",
				"No reference rate is available for the currency pair %s/%s", instructedCurrency, currencyOfTransfer)
			return nil, res
		}
		rateStr := rate.String()
		return &domain.ExchangeRateInformation{
			UnitCurrency: instructedCurrency,
			ExchangeRate: &rateStr,
			RateType:     domain.RateTypeIndicative,
		}, res
	}

	res := v.ExchangeRateInformation(eri, currencyOfTransfer)
	if !res.Valid() {
		return nil, res
	}

	if eri.RateType == domain.RateTypeAgreed {
		resolved := *eri
		return &resolved, res
	}

	// ACTUAL and INDICATIVE arrive without a numeric rate; the reference
	// table supplies one so the consent carries complete terms.
	rate, ok := table.Rate(eri.UnitCurrency, currencyOfTransfer)
	if !ok {
		res.Add(CodeUnsupportedCurrency, "Data/Initiation/ExchangeRateInformation/UnitCurrency",
			"No reference rate is available for the currency pair %s/%s", eri.UnitCurrency, currencyOfTransfer)
		return nil, res
	}
	resolved := *eri
	rateStr := rate.String()
	resolved.ExchangeRate = &rateStr
	return &resolved, res
}

// StaticRateTable is a RateTable backed by a fixed pair→rate map, the form
// reference rates take when loaded from configuration.
type StaticRateTable map[string]decimal.Decimal

// PairKey builds the lookup key for a unit/instructed currency pair.
func PairKey(unitCurrency, instructedCurrency string) string {
	return unitCurrency + "/" + instructedCurrency
}

func (t StaticRateTable) Rate(unitCurrency, instructedCurrency string) (decimal.Decimal, bool) {
	if unitCurrency == instructedCurrency {
		return decimal.NewFromInt(1), true
	}
	rate, ok := t[PairKey(unitCurrency, instructedCurrency)]
	return rate, ok
}
