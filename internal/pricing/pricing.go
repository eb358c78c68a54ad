// Package pricing normalises scraped price strings into comparable numeric
// values in a single reference currency (USD).
package pricing

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Comparison is the outcome of comparing two price strings.
type Comparison int

const (
	// Incomparable means at least one price could not be parsed. Callers must
	// treat it as "do not update", never as equality.
	Incomparable Comparison = iota
	Lower
	Equal
	Higher
)

func (c Comparison) String() string {
	switch c {
	case Lower:
		return "lower"
	case Equal:
		return "equal"
	case Higher:
		return "higher"
	}
	return "incomparable"
}

// DefaultEURToUSD is an approximate, fixed conversion rate. It exists to make
// EUR and USD vendor prices roughly comparable, not to be precise; deployments
// can override it via configuration.
const DefaultEURToUSD = 1.10

// Normalizer parses heterogeneous price strings and compares them in USD.
type Normalizer struct {
	eurToUSD decimal.Decimal
	logger   zerolog.Logger
}

// NewNormalizer creates a price normalizer. A zero or negative rate falls back
// to DefaultEURToUSD.
func NewNormalizer(eurToUSD float64, logger zerolog.Logger) *Normalizer {
	if eurToUSD <= 0 {
		eurToUSD = DefaultEURToUSD
	}
	return &Normalizer{
		eurToUSD: decimal.NewFromFloat(eurToUSD),
		logger:   logger.With().Str("component", "pricing").Logger(),
	}
}

// Compare compares two raw price strings after normalising both to USD.
// If either side cannot be parsed the result is Incomparable; the condition
// is logged but never fatal.
func (n *Normalizer) Compare(a, b string) Comparison {
	left, errA := n.Normalize(a)
	right, errB := n.Normalize(b)
	if errA != nil || errB != nil {
		n.logger.Warn().
			Str("price_a", a).
			Str("price_b", b).
			AnErr("error_a", errA).
			AnErr("error_b", errB).
			Msg("prices are incomparable")
		return Incomparable
	}

	switch left.Cmp(right) {
	case -1:
		return Lower
	case 1:
		return Higher
	}
	return Equal
}

// Normalize extracts the numeric value of a price string and converts it to
// USD. Currency is detected from symbol or ISO-code substrings; anything that
// is not recognisably EUR is treated as USD.
func (n *Normalizer) Normalize(raw string) (decimal.Decimal, error) {
	numeric := extractNumeric(raw)
	if numeric == "" {
		return decimal.Zero, fmt.Errorf("no numeric value in %q", raw)
	}

	value, err := decimal.NewFromString(numeric)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse %q: %w", raw, err)
	}

	if isEuro(raw) {
		value = value.Mul(n.eurToUSD)
	}
	return value, nil
}

func isEuro(raw string) bool {
	upper := strings.ToUpper(raw)
	return strings.Contains(raw, "€") || strings.Contains(upper, "EUR")
}

// extractNumeric strips everything but digits and separators, then resolves
// ambiguous separators:
//   - both '.' and ',' present: ',' is a thousands separator, dropped
//   - only ',' present, exactly once: decimal point
//   - only ',' present, more than once: thousands separator, dropped
func extractNumeric(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if (r >= '0' && r <= '9') || r == '.' || r == ',' {
			b.WriteRune(r)
		}
	}
	s := b.String()

	hasDot := strings.Contains(s, ".")
	commas := strings.Count(s, ",")
	switch {
	case hasDot && commas > 0:
		s = strings.ReplaceAll(s, ",", "")
	case commas == 1:
		s = strings.Replace(s, ",", ".", 1)
	case commas > 1:
		s = strings.ReplaceAll(s, ",", "")
	}
	return s
}
