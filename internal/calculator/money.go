package calculator

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Epsilon is the one-cent tolerance used for every money comparison.
const Epsilon = 0.01

// RoundCents rounds an amount to two decimal places.
func RoundCents(amount float64) float64 {
	return decimal.NewFromFloat(amount).Round(2).InexactFloat64()
}

// WithinCent reports whether a and b differ by less than one cent.
func WithinCent(a, b float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d < Epsilon
}

// FormatCurrency renders an amount as US dollars, e.g. "$1,234.50" or "-$5.00".
func FormatCurrency(amount float64) string {
	d := decimal.NewFromFloat(amount).Round(2)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}

	fixed := d.StringFixed(2)
	whole, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}

	return sign + "$" + b.String() + "." + frac
}
