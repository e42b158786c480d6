// Package validate holds the field validators used by conversational
// forms. A validator turns one raw text input into a typed Value or a
// Rejection with a user-facing hint; rejections are values, not errors.
package validate

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/m3rciful/ledgerbot/internal/domain"
)

// Kind tags the typed payload carried by a Value.
type Kind int

const (
	// KindText is a verbatim non-empty string.
	KindText Kind = iota
	// KindAmount is a non-negative decimal amount.
	KindAmount
	// KindDate is a calendar date.
	KindDate
	// KindInt is a positive integer.
	KindInt
	// KindChoice is a label matched against a menu snapshot.
	KindChoice
)

// Value is the typed result of a successful validation.
type Value struct {
	Kind   Kind
	Text   string
	Amount decimal.Decimal
	Date   time.Time
	Int    int64
}

// String renders the value the way it appears on confirmation screens.
func (v Value) String() string {
	switch v.Kind {
	case KindAmount:
		return v.Amount.String()
	case KindDate:
		return v.Date.Format(domain.DateLayout)
	case KindInt:
		return strconv.FormatInt(v.Int, 10)
	default:
		return v.Text
	}
}

// Rejection explains why an input was not accepted. The hint is shown to
// the user together with a repeated prompt.
type Rejection struct {
	Hint string
}

// Func validates one raw input.
type Func func(raw string) (Value, *Rejection)

// NonEmpty accepts any non-empty string verbatim, including emoji and
// inner whitespace. Inputs consisting only of whitespace are rejected.
func NonEmpty(raw string) (Value, *Rejection) {
	if strings.TrimSpace(raw) == "" {
		return Value{}, &Rejection{Hint: "the value cannot be empty, please try again"}
	}
	return Value{Kind: KindText, Text: raw}, nil
}

// Amount parses a non-negative decimal amount. Both `.` and `,` are
// accepted as the decimal separator and normalize to the same number.
func Amount(raw string) (Value, *Rejection) {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Value{}, &Rejection{Hint: "enter a number, e.g. 1500.50 or 1500,50"}
	}
	if d.IsNegative() {
		return Value{}, &Rejection{Hint: "the amount cannot be negative"}
	}
	return Value{Kind: KindAmount, Amount: d}, nil
}

// PositiveAmount is Amount restricted to values greater than zero.
func PositiveAmount(raw string) (Value, *Rejection) {
	v, rej := Amount(raw)
	if rej != nil {
		return Value{}, rej
	}
	if !v.Amount.IsPositive() {
		return Value{}, &Rejection{Hint: "the amount must be greater than zero"}
	}
	return v, nil
}

// Date accepts DD.MM.YYYY exactly. Dates are calendar dates with no
// timezone handling.
func Date(raw string) (Value, *Rejection) {
	t, err := time.Parse(domain.DateLayout, strings.TrimSpace(raw))
	if err != nil {
		return Value{}, &Rejection{Hint: "enter the date as DD.MM.YYYY, e.g. 01.01.2024"}
	}
	return Value{Kind: KindDate, Date: t}, nil
}

// PositiveInt parses a positive whole number (e.g. lifetime in days).
func PositiveInt(raw string) (Value, *Rejection) {
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || n <= 0 {
		return Value{}, &Rejection{Hint: "enter a whole number greater than zero"}
	}
	return Value{Kind: KindInt, Int: n}, nil
}

// OneOf builds a constrained-choice validator over a label snapshot.
// The input must equal one of the labels exactly; navigation sentinels
// are the caller's concern and must be checked before validation.
func OneOf(labels []string) Func {
	set := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		set[l] = struct{}{}
	}
	return func(raw string) (Value, *Rejection) {
		if _, ok := set[raw]; !ok {
			return Value{}, &Rejection{Hint: "please pick one of the options on the keyboard"}
		}
		return Value{Kind: KindChoice, Text: raw}, nil
	}
}
