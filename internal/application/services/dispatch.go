package services

import (
	"fmt"

	"github.com/kemiadeola/openbanking-pisp/internal/domain"
	"github.com/kemiadeola/openbanking-pisp/internal/validation"
)

// productPolicy selects the validation behaviour for one product family.
// Version differences between families are data here, not separate types.
type productPolicy struct {
	family              domain.ProductFamily
	resource            string
	resolveExchangeRate bool
	validateInitiation  func(v *validation.Validator, init *domain.Initiation) validation.Result
}

var policies = map[domain.ProductFamily]productPolicy{
	domain.FamilyDomestic: {
		family:             domain.FamilyDomestic,
		resource:           "domestic-payments",
		validateInitiation: validateSingleInstruction,
	},
	domain.FamilyDomesticScheduled: {
		family:             domain.FamilyDomesticScheduled,
		resource:           "domestic-scheduled-payments",
		validateInitiation: validateScheduledInstruction,
	},
	domain.FamilyDomesticStandingOrder: {
		family:             domain.FamilyDomesticStandingOrder,
		resource:           "domestic-standing-orders",
		validateInitiation: validateStandingOrderInstruction,
	},
	domain.FamilyInternational: {
		family:              domain.FamilyInternational,
		resource:            "international-payments",
		resolveExchangeRate: true,
		validateInitiation:  validateInternationalInstruction,
	},
	domain.FamilyInternationalScheduled: {
		family:              domain.FamilyInternationalScheduled,
		resource:            "international-scheduled-payments",
		resolveExchangeRate: true,
		validateInitiation:  validateInternationalScheduledInstruction,
	},
	domain.FamilyInternationalStandingOrder: {
		family:              domain.FamilyInternationalStandingOrder,
		resource:            "international-standing-orders",
		resolveExchangeRate: true,
		validateInitiation:  validateInternationalStandingOrderInstruction,
	},
	domain.FamilyFile: {
		family:             domain.FamilyFile,
		resource:           "file-payments",
		validateInitiation: validateFileInstruction,
	},
}

// Route describes the HTTP resource segments one product family is served
// under. Funds confirmation only exists for immediate payment consents.
type Route struct {
	Family            domain.ProductFamily
	PaymentResource   string
	ConsentResource   string
	FundsConfirmation bool
}

// Routes lists every product family in registration order.
func Routes() []Route {
	families := []domain.ProductFamily{
		domain.FamilyDomestic,
		domain.FamilyDomesticScheduled,
		domain.FamilyDomesticStandingOrder,
		domain.FamilyInternational,
		domain.FamilyInternationalScheduled,
		domain.FamilyInternationalStandingOrder,
		domain.FamilyFile,
	}

	routes := make([]Route, 0, len(families))
	for _, f := range families {
		p := policies[f]
		routes = append(routes, Route{
			Family:            f,
			PaymentResource:   p.resource,
			ConsentResource:   consentResource(p),
			FundsConfirmation: f == domain.FamilyDomestic || f == domain.FamilyInternational,
		})
	}
	return routes
}

// policyFor selects the policy for a product family. Ids are
// system-generated, so an unknown family is a configuration fault.
func policyFor(family domain.ProductFamily) (productPolicy, error) {
	p, ok := policies[family]
	if !ok {
		return productPolicy{}, fmt.Errorf("%w: %q", domain.ErrUnknownProductFamily, family)
	}
	return p, nil
}

// policyForConsentID derives the family from a consent id and selects its
// policy in one step.
func policyForConsentID(consentID string) (productPolicy, error) {
	family, err := domain.FamilyFromConsentID(consentID)
	if err != nil {
		return productPolicy{}, err
	}
	return policyFor(family)
}

func validateSingleInstruction(v *validation.Validator, init *domain.Initiation) validation.Result {
	return v.Amount("Data/Initiation/InstructedAmount", init.InstructedAmount)
}

func validateScheduledInstruction(v *validation.Validator, init *domain.Initiation) validation.Result {
	res := v.Amount("Data/Initiation/InstructedAmount", init.InstructedAmount)
	if init.RequestedExecutionDate == nil {
		res.Add(validation.CodeFieldMissing, "Data/Initiation/RequestedExecutionDate",
			"Data/Initiation/RequestedExecutionDate is required")
	}
	return res
}

func validateStandingOrderInstruction(v *validation.Validator, init *domain.Initiation) validation.Result {
	res := v.Amount("Data/Initiation/FirstPaymentAmount", init.FirstPaymentAmount)
	if init.Frequency == "" {
		res.Add(validation.CodeFieldMissing, "Data/Initiation/Frequency", "Data/Initiation/Frequency is required")
	}
	if init.RecurringPaymentAmount != nil {
		res.Merge(v.Amount("Data/Initiation/RecurringPaymentAmount", init.RecurringPaymentAmount))
	}
	if init.FinalPaymentAmount != nil {
		res.Merge(v.Amount("Data/Initiation/FinalPaymentAmount", init.FinalPaymentAmount))
	}
	return res
}

func validateInternationalInstruction(v *validation.Validator, init *domain.Initiation) validation.Result {
	res := v.Amount("Data/Initiation/InstructedAmount", init.InstructedAmount)
	res.Merge(v.Currency("Data/Initiation/CurrencyOfTransfer", init.CurrencyOfTransfer))
	return res
}

func validateInternationalScheduledInstruction(v *validation.Validator, init *domain.Initiation) validation.Result {
	res := validateInternationalInstruction(v, init)
	if init.RequestedExecutionDate == nil {
		res.Add(validation.CodeFieldMissing, "Data/Initiation/RequestedExecutionDate",
			"Data/Initiation/RequestedExecutionDate is required")
	}
	return res
}

func validateInternationalStandingOrderInstruction(v *validation.Validator, init *domain.Initiation) validation.Result {
	res := validateStandingOrderInstruction(v, init)
	res.Merge(v.Currency("Data/Initiation/CurrencyOfTransfer", init.CurrencyOfTransfer))
	return res
}

func validateFileInstruction(v *validation.Validator, init *domain.Initiation) validation.Result {
	var res validation.Result
	if init.FileHash == "" {
		res.Add(validation.CodeFieldMissing, "Data/Initiation/FileHash", "Data/Initiation/FileHash is required")
	}
	if init.FileType == "" {
		res.Add(validation.CodeFieldMissing, "Data/Initiation/FileType", "Data/Initiation/FileType is required")
	}
	if init.NumberOfTransactions != "" {
		res.Merge(v.NumberOfTransactions("Data/Initiation/NumberOfTransactions", init.NumberOfTransactions))
	}
	if init.ControlSum != "" {
		res.Merge(v.ControlSum("Data/Initiation/ControlSum", init.ControlSum))
	}
	return res
}
