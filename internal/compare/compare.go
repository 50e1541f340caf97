// Package compare checks that a payment instruction reproduces the terms of
// its consent. Both sides are projected into the canonical domain shapes
// before comparison, so wire types that differ across schema versions while
// serializing identically cannot cause a spurious mismatch, and
// response-only fields never reach a comparison at all.
//
// Reporting is deliberately coarse: a mismatch names the aggregate that
// differed (Initiation, Risk, ExchangeRateInformation), not the leaf field.
package compare

import (
	"fmt"
	"slices"
	"time"

	"github.com/oapi-codegen/runtime/types"
	"github.com/shopspring/decimal"

	"github.com/kemiadeola/openbanking-pisp/internal/domain"
)

// MismatchError reports that a submission aggregate diverged from the
// consent it references.
type MismatchError struct {
	Aggregate string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("The %s received does not match that of the consent", e.Aggregate)
}

// Initiation compares a payment instruction's initiation block against the
// consent's. Equality is semantic: amounts compare numerically and absent
// optional blocks equal empty ones. Exchange-rate terms are excluded here;
// ExchangeRate compares them so a rate divergence is reported under its own
// aggregate.
func Initiation(request, consent domain.Initiation) error {
	if !equalInitiation(request, consent) {
		return &MismatchError{Aggregate: "Initiation"}
	}
	return nil
}

// Risk compares the risk context block of a submission against the consent.
func Risk(request, consent domain.Risk) error {
	if !equalRisk(request, consent) {
		return &MismatchError{Aggregate: "Risk"}
	}
	return nil
}

// ExchangeRate asserts that the rate terms repeated on an international
// submission equal those resolved on the consent at creation time. The
// terms were validated back then; here they are only compared.
func ExchangeRate(request, consent *domain.ExchangeRateInformation) error {
	if !equalExchangeRate(request, consent) {
		return &MismatchError{Aggregate: "ExchangeRateInformation"}
	}
	return nil
}

func equalInitiation(a, b domain.Initiation) bool {
	return a.InstructionIdentification == b.InstructionIdentification &&
		a.EndToEndIdentification == b.EndToEndIdentification &&
		a.LocalInstrument == b.LocalInstrument &&
		equalAmount(a.InstructedAmount, b.InstructedAmount) &&
		equalDate(a.RequestedExecutionDate, b.RequestedExecutionDate) &&
		a.Frequency == b.Frequency &&
		a.Reference == b.Reference &&
		a.NumberOfPayments == b.NumberOfPayments &&
		equalTime(a.FirstPaymentDateTime, b.FirstPaymentDateTime) &&
		equalTime(a.FinalPaymentDateTime, b.FinalPaymentDateTime) &&
		equalAmount(a.FirstPaymentAmount, b.FirstPaymentAmount) &&
		equalAmount(a.RecurringPaymentAmount, b.RecurringPaymentAmount) &&
		equalAmount(a.FinalPaymentAmount, b.FinalPaymentAmount) &&
		a.CurrencyOfTransfer == b.CurrencyOfTransfer &&
		a.Purpose == b.Purpose &&
		a.ChargeBearer == b.ChargeBearer &&
		equalAgent(a.CreditorAgent, b.CreditorAgent) &&
		a.FileType == b.FileType &&
		a.FileHash == b.FileHash &&
		a.FileReference == b.FileReference &&
		a.NumberOfTransactions == b.NumberOfTransactions &&
		equalDecimalString(a.ControlSum, b.ControlSum) &&
		equalAccount(a.DebtorAccount, b.DebtorAccount) &&
		equalAccount(a.CreditorAccount, b.CreditorAccount)
}

func equalRisk(a, b domain.Risk) bool {
	return a.PaymentContextCode == b.PaymentContextCode &&
		a.MerchantCategoryCode == b.MerchantCategoryCode &&
		a.MerchantCustomerIdentification == b.MerchantCustomerIdentification &&
		equalBool(a.ContractPresentIndicator, b.ContractPresentIndicator) &&
		equalAddress(a.DeliveryAddress, b.DeliveryAddress)
}

func equalExchangeRate(a, b *domain.ExchangeRateInformation) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.UnitCurrency == b.UnitCurrency &&
		a.RateType == b.RateType &&
		equalDecimalPtr(a.ExchangeRate, b.ExchangeRate) &&
		equalStringPtr(a.ContractIdentification, b.ContractIdentification)
}

func equalAmount(a, b *domain.Amount) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Currency == b.Currency && equalDecimalString(a.Amount, b.Amount)
}

// equalDecimalString compares two string-encoded decimals numerically, so
// cosmetic differences like "100.0" versus "100.00" are not a mismatch.
func equalDecimalString(a, b string) bool {
	if a == b {
		return true
	}
	if a == "" || b == "" {
		return false
	}
	da, errA := decimal.NewFromString(a)
	db, errB := decimal.NewFromString(b)
	if errA != nil || errB != nil {
		return false
	}
	return da.Equal(db)
}

func equalDecimalPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return equalDecimalString(*a, *b)
}

func equalAccount(a, b *domain.AccountIdentification) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.SchemeName == b.SchemeName &&
		a.Identification == b.Identification &&
		a.Name == b.Name &&
		equalStringPtr(a.SecondaryIdentification, b.SecondaryIdentification)
}

func equalAgent(a, b *domain.FinancialInstitution) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalAddress(a, b *domain.DeliveryAddress) bool {
	if a == nil || b == nil {
		return a == b
	}
	return slices.Equal(a.AddressLine, b.AddressLine) &&
		a.StreetName == b.StreetName &&
		a.BuildingNumber == b.BuildingNumber &&
		a.PostCode == b.PostCode &&
		a.TownName == b.TownName &&
		a.Country == b.Country
}

func equalStringPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalBool(a, b *bool) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalDate(a, b *types.Date) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Time.Equal(b.Time)
}

func equalTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
