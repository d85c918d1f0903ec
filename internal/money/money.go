// Package money parses and formats Brazilian Real amounts as they appear in
// invoice text ("1.234,56", "R$ 12,34", "(12,34)").
package money

import (
	"errors"
	"fmt"
	"strings"

	gomoney "github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// ErrInvalidAmount is wrapped by every ParseError.
var ErrInvalidAmount = errors.New("invalid amount")

// currencyMarkers are stripped before conversion.
var currencyMarkers = []string{"R$", "BRL"}

// ParseError reports a string that is not a Brazilian numeral after normalization.
type ParseError struct {
	Input string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse amount %q: %v", e.Input, e.Err)
}

func (e *ParseError) Unwrap() []error {
	return []error{ErrInvalidAmount, e.Err}
}

// Parse converts a Brazilian-formatted numeral into a float64.
//
// Enclosing parentheses mean negative (accounting notation); a leading minus
// sign is honoured as well. "R$" and "BRL" markers are ignored, "." is a
// thousands separator and "," the decimal separator.
func Parse(s string) (float64, error) {
	raw := s
	s = strings.TrimSpace(s)
	negative := strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")")
	s = strings.Trim(s, "()")

	for _, marker := range currencyMarkers {
		s = strings.ReplaceAll(s, marker, "")
	}
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "\u00A0", "") // non-breaking space
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")

	if s == "" || s == "-" {
		return 0, &ParseError{Input: raw, Err: errors.New("no digits")}
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, &ParseError{Input: raw, Err: err}
	}
	if negative {
		d = d.Neg()
	}
	return d.InexactFloat64(), nil
}

// Round2 rounds to two decimal places, half away from zero.
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// Cents converts an amount to integer centavos.
func Cents(v float64) int64 {
	return decimal.NewFromFloat(v).Shift(2).Round(0).IntPart()
}

// Format renders v the way Brazilian invoices print it: "R$1.234,56",
// negative values as "-R$1.234,56". The result is accepted by Parse.
func Format(v float64) string {
	return gomoney.New(Cents(v), gomoney.BRL).Display()
}

// FormatNumber is Format without the currency symbol: "1.234,56".
func FormatNumber(v float64) string {
	return strings.Replace(Format(v), "R$", "", 1)
}
