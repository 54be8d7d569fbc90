package schema

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Round rounds v half away from zero to the given number of decimal places.
func Round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

// Percentage returns part/total*100 rounded to two places, or 0 when total is 0.
func Percentage(part, total int) float64 {
	if total == 0 {
		return 0
	}
	ratio := decimal.NewFromInt(int64(part)).Div(decimal.NewFromInt(int64(total)))
	return ratio.Mul(decimal.NewFromInt(100)).Round(2).InexactFloat64()
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}

// Deref returns *p, or the zero value when p is nil.
func Deref[T any](p *T) T {
	if p == nil {
		var zero T
		return zero
	}
	return *p
}

// ShortHash trims a commit hash to the conventional 8 characters.
func ShortHash(hash string) string {
	if len(hash) > 8 {
		return hash[:8]
	}
	return hash
}

// Subject returns the first line of a commit message.
func Subject(message string) string {
	subject, _, _ := strings.Cut(strings.TrimSpace(message), "\n")
	return strings.TrimSpace(subject)
}
