package validation

import (
	"github.com/shopspring/decimal"

	"github.com/kemiadeola/openbanking-pisp/internal/domain"
)

// ControlParameters are the per-instruction limits a variable recurring
// payment consent imposes on each submission made under it.
type ControlParameters struct {
	MaximumIndividualAmount *domain.Amount
}

// CheckControlParameters verifies a payment instruction against the
// consent's control parameters. The instructed amount must not exceed the
// maximum individual amount, compared numerically.
func (v *Validator) CheckControlParameters(instructed *domain.Amount, params ControlParameters) Result {
	var res Result
	if instructed == nil {
		res.Add(CodeFieldMissing, "Data/Instruction/InstructedAmount", "Data/Instruction/InstructedAmount is required")
		return res
	}
	if params.MaximumIndividualAmount == nil {
		return res
	}

	amount, err := decimal.NewFromString(instructed.Amount)
	if err != nil {
		res.Add(CodeFieldInvalid, "Data/Instruction/InstructedAmount/Amount",
			"The amount %s provided is not a valid number", instructed.Amount)
		return res
	}
	max, err := decimal.NewFromString(params.MaximumIndividualAmount.Amount)
	if err != nil {
		res.Add(CodeFieldInvalid, "Data/ControlParameters/MaximumIndividualAmount/Amount",
			"The amount %s provided is not a valid number", params.MaximumIndividualAmount.Amount)
		return res
	}

	if instructed.Currency != params.MaximumIndividualAmount.Currency {
		res.Add(CodeFailsControlParameters, "Data/Instruction/InstructedAmount/Currency",
			"InstructedAmount currency %s does not match the MaximumIndividualAmount currency %s",
			instructed.Currency, params.MaximumIndividualAmount.Currency)
		return res
	}

	if amount.GreaterThan(max) {
		res.Add(CodeFailsControlParameters, "Data/Instruction/InstructedAmount",
			"InstructedAmount %s %s exceeds the consent MaximumIndividualAmount %s %s",
			instructed.Amount, instructed.Currency,
			params.MaximumIndividualAmount.Amount, params.MaximumIndividualAmount.Currency)
	}
	return res
}
