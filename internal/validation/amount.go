package validation

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/kemiadeola/openbanking-pisp/internal/domain"
)

// Validator checks request fields against the configured currency
// allow-list. It holds no mutable state and is safe for concurrent use.
type Validator struct {
	currencies map[string]struct{}
}

func New(supportedCurrencies []string) *Validator {
	set := make(map[string]struct{}, len(supportedCurrencies))
	for _, c := range supportedCurrencies {
		set[strings.ToUpper(strings.TrimSpace(c))] = struct{}{}
	}
	return &Validator{currencies: set}
}

func (v *Validator) SupportsCurrency(code string) bool {
	_, ok := v.currencies[code]
	return ok
}

// Amount validates an instructed amount. Amount and currency problems on
// the same field are reported together; a missing field pre-empts both.
func (v *Validator) Amount(path string, a *domain.Amount) Result {
	var res Result
	if a == nil {
		res.Add(CodeFieldMissing, path, "%s is required", path)
		return res
	}

	res.Merge(v.positiveDecimal(path+"/Amount", a.Amount))
	res.Merge(v.Currency(path+"/Currency", a.Currency))
	return res
}

// Currency validates an ISO 4217 code against the allow-list.
func (v *Validator) Currency(path, code string) Result {
	var res Result
	if code == "" {
		res.Add(CodeFieldMissing, path, "%s is required", path)
		return res
	}
	if !v.SupportsCurrency(code) {
		res.Add(CodeUnsupportedCurrency, path, "The currency %s provided is not supported", code)
	}
	return res
}

// ControlSum validates the control sum of a file payment.
func (v *Validator) ControlSum(path, sum string) Result {
	return v.positiveDecimal(path, sum)
}

// NumberOfTransactions validates the transaction count of a file payment.
func (v *Validator) NumberOfTransactions(path, count string) Result {
	var res Result
	if count == "" {
		res.Add(CodeFieldMissing, path, "%s is required", path)
		return res
	}
	n, err := strconv.Atoi(count)
	if err != nil {
		res.Add(CodeFieldInvalid, path, "The value %s provided is not a valid number", count)
		return res
	}
	if n <= 0 {
		res.Add(CodeFieldInvalid, path, "The value %s provided must be greater than 0", count)
	}
	return res
}

// positiveDecimal enforces the shared "> 0" rule on string-encoded
// decimals, comparing numerically rather than lexically.
func (v *Validator) positiveDecimal(path, value string) Result {
	var res Result
	if value == "" {
		res.Add(CodeFieldMissing, path, "%s is required", path)
		return res
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		res.Add(CodeFieldInvalid, path, "The amount %s provided is not a valid number", value)
		return res
	}
	if !d.IsPositive() {
		res.Add(CodeFieldInvalid, path, "The amount %s provided must be greater than 0", value)
	}
	return res
}
