// Package core provides the payment-status record model and the entry form
// validation gate.
//
// This file holds the validation gate: raw form text goes in, either a
// Candidate or a set of per-field errors comes out.
package core

import (
	"errors"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Form field names, as posted by the entry form.
const (
	FieldMonth   = "month"
	FieldSuccess = "success"
	FieldFailed  = "failed"
)

var ErrNotANumber = errors.New("expected a number")

type (
	// FormInput is the raw, unvalidated text of the entry form.
	FormInput struct {
		Month   string `json:"month"`
		Success string `json:"success"`
		Failed  string `json:"failed"`
	}

	// Candidate carries exactly the fields the form collects.
	Candidate struct {
		Month   string
		Success int64
		Failed  int64
	}

	// FieldErrors maps a form field name to a user-facing message.
	FieldErrors map[string]string
)

// DefaultForm returns the values the entry form starts with and resets to.
func DefaultForm() FormInput {
	return FormInput{Month: "march", Success: "0", Failed: "0"}
}

func (fe FieldErrors) Error() string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+fe[k])
	}
	return "invalid form: " + strings.Join(parts, "; ")
}

// Fields returns the failing field names in a stable order.
func (fe FieldErrors) Fields() []string {
	out := make([]string, 0, len(fe))
	for k := range fe {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Has reports whether field failed validation.
func (fe FieldErrors) Has(field string) bool {
	_, ok := fe[field]
	return ok
}

// ParseSubmission validates every field of in. All failing fields are
// reported; the Candidate is only meaningful when err is nil.
func ParseSubmission(in FormInput) (Candidate, error) {
	errs := FieldErrors{}

	month := strings.TrimSpace(in.Month)
	if n := utf8.RuneCountInString(month); n < MinMonthLen || n > MaxMonthLen {
		errs[FieldMonth] = ErrMonthLength.Error()
	}

	success, err := ParseCount(in.Success)
	if err != nil {
		errs[FieldSuccess] = err.Error()
	}
	failed, err := ParseCount(in.Failed)
	if err != nil {
		errs[FieldFailed] = err.Error()
	}

	if len(errs) > 0 {
		return Candidate{}, errs
	}
	return Candidate{Month: month, Success: success, Failed: failed}, nil
}

// ParseCount coerces counter text to an integer in [0, MaxCount].
//
// Blank text coerces to zero, like an empty numeric input. Decimal and
// exponent forms are accepted when the value is integral:
//
//	ParseCount("50")  -> 50, nil
//	ParseCount("5e1") -> 50, nil
//	ParseCount("")    -> 0, nil
//	ParseCount("abc") -> 0, ErrNotANumber
//	ParseCount("1.5") -> 0, error
func ParseCount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if iv, err := strconv.ParseInt(s, 10, 64); err == nil {
		switch {
		case iv < 0:
			return 0, ErrNegativeCount
		case iv > MaxCount:
			return 0, ErrCountTooLarge
		}
		return iv, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, ErrNotANumber
	}
	if f < 0 {
		return 0, ErrNegativeCount
	}
	if f != math.Trunc(f) {
		return 0, errors.New("expected a whole number")
	}
	if f > float64(MaxCount) {
		return 0, ErrCountTooLarge
	}
	return int64(f), nil
}

// Record completes the candidate with zero values for the counters the
// form does not collect.
func (c Candidate) Record() Record {
	return Record{
		Month:      c.Month,
		Pending:    0,
		Processing: 0,
		Success:    c.Success,
		Failed:     c.Failed,
	}
}

// FormState is the entry form's position in its two-state machine.
type FormState string

const (
	// FormEditing is the initial state and the state after a rejection.
	FormEditing FormState = "editing"
	// FormSubmitted is reached only when every field check passed.
	FormSubmitted FormState = "submitted"
)
