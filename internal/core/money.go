// Package core holds the domain model and the financial aggregation
// logic: discount adjustment, per-entity balance calculation and the
// cross-entity dashboard summary.
//
// All money is integer cents and all machine time is integer minutes.
// Calculations never touch floating point.
package core

import (
	"strconv"
	"strings"
	"unicode"
)

// Add returns m + other.
func (m Money) Add(other Money) Money {
	return Money{Cents: m.Cents + other.Cents}
}

// Sub returns m − other. Negative results are meaningful: they mean the
// entity has overpaid and must not be clamped to zero.
func (m Money) Sub(other Money) Money {
	return Money{Cents: m.Cents - other.Cents}
}

// Neg returns −m. Used to reverse a forward delta on delete.
func (m Money) Neg() Money {
	return Money{Cents: -m.Cents}
}

// Rupees returns the value as float64 for display only. Use cents for
// every computation.
func (m Money) Rupees() float64 {
	return float64(m.Cents) / 100.0
}

// String formats the amount as a plain decimal, e.g. "48.00" or "-3.50".
func (m Money) String() string {
	cents := m.Cents
	neg := cents < 0
	if neg {
		cents = -cents
	}
	s := strconv.FormatInt(cents/100, 10) + "." + pad2(cents%100)
	if neg {
		return "-" + s
	}
	return s
}

func pad2(n int64) string {
	if n < 10 {
		return "0" + strconv.FormatInt(n, 10)
	}
	return strconv.FormatInt(n, 10)
}

// Times prices the worked time at the given hourly rate, half-up rounded
// to the nearest cent. 150 minutes at rate 600.00 yields 1500.00.
func (h Hours) Times(rate Money) Money {
	product := h.Minutes * rate.Cents
	if product >= 0 {
		return Money{Cents: (product + 30) / 60}
	}
	return Money{Cents: (product - 30) / 60}
}

// Decimal renders the hours back as a decimal string, e.g. "2.50".
func (h Hours) Decimal() string {
	minutes := h.Minutes
	neg := minutes < 0
	if neg {
		minutes = -minutes
	}
	whole := minutes / 60
	frac := (minutes % 60) * 100 / 60
	s := strconv.FormatInt(whole, 10) + "." + pad2(frac)
	if neg {
		return "-" + s
	}
	return s
}

// ParseDecimalToCents converts a decimal string to positive cents with
// half-up rounding on the third decimal place. Accepts both dot (12.34)
// and comma (12,34) separators. Rejects empty, negative and zero input.
func ParseDecimalToCents(s string) (int64, error) {
	cents, err := parseCents(s)
	if err != nil {
		return 0, err
	}
	if cents <= 0 {
		return 0, ErrInvalidAmount
	}
	return cents, nil
}

// ParseOptionalCents is ParseDecimalToCents for fields that default to
// zero: empty input and explicit "0" both yield zero cents.
func ParseOptionalCents(s string) (int64, error) {
	if strings.TrimSpace(s) == "" {
		return 0, nil
	}
	cents, err := parseCents(s)
	if err != nil {
		return 0, err
	}
	if cents < 0 {
		return 0, ErrInvalidAmount
	}
	return cents, nil
}

// ParseHoursToMinutes converts a decimal hours string ("2.5", "0,75")
// to whole minutes, half-up rounded. Rejects non-positive input.
func ParseHoursToMinutes(s string) (int64, error) {
	cents, err := parseCents(s)
	if err != nil {
		return 0, ErrInvalidHours
	}
	if cents <= 0 {
		return 0, ErrInvalidHours
	}
	// cents are hundredths of an hour; 1 hundredth = 0.6 minutes
	return (cents*60 + 50) / 100, nil
}

func parseCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	for _, r := range fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64 {
		return 0, ErrInvalidAmount
	}
	// First two fractional digits, half-up rounding on the third.
	var fracCents int64
	if len(fracPart) > 0 {
		fracCents = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracCents += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}
	return iv*100 + fracCents, nil
}
