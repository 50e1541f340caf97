// Package validation implements the request-field validators shared by the
// payment products. Validators are pure and accumulate every applicable
// error for an aggregate into one Result instead of throwing on the first
// failure; only a missing required field pre-empts its own sub-field checks.
package validation

import (
	"fmt"
	"strings"
)

// Error codes follow the UK OBIE error-code registry so clients can branch
// on them programmatically.
const (
	CodeFieldMissing           = "UK.OBIE.Field.Missing"
	CodeFieldInvalid           = "UK.OBIE.Field.Invalid"
	CodeUnsupportedCurrency    = "UK.OBIE.Unsupported.Currency"
	CodeFailsControlParameters = "UK.OBIE.Rules.FailsControlParameters"
)

// FieldError is a single field-scoped validation failure.
type FieldError struct {
	Code    string
	Message string
	Path    string
}

// Result accumulates zero or more field errors for one aggregate.
type Result struct {
	Errors []FieldError
}

func (r *Result) Add(code, path, format string, args ...any) {
	r.Errors = append(r.Errors, FieldError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Path:    path,
	})
}

func (r *Result) Merge(other Result) {
	r.Errors = append(r.Errors, other.Errors...)
}

func (r Result) Valid() bool {
	return len(r.Errors) == 0
}

// Err returns nil for a valid result, or an *Error carrying every
// accumulated field error.
func (r Result) Err() error {
	if r.Valid() {
		return nil
	}
	return &Error{Errors: r.Errors}
}

// Error is the error form of a failed Result.
type Error struct {
	Errors []FieldError
}

func (e *Error) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		msgs[i] = fe.Message
	}
	return strings.Join(msgs, "; ")
}
