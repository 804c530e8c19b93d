package pricing

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// AdjustmentFunc returns the additional cost for a sample starting at at,
// given its post-VAT unit price.
type AdjustmentFunc func(at time.Time, price float64) (float64, error)

// Constant adds the same amount to every period.
func Constant(v float64) AdjustmentFunc {
	return func(time.Time, float64) (float64, error) {
		return v, nil
	}
}

// Linear adds fixed plus a share of the price, e.g. a grid fee and a
// supplier markup in percent.
func Linear(fixed, ratio float64) AdjustmentFunc {
	return func(_ time.Time, price float64) (float64, error) {
		return fixed + ratio*price, nil
	}
}

// ByWeekday uses the per-weekday function when one is set and base otherwise.
func ByWeekday(base AdjustmentFunc, days map[time.Weekday]AdjustmentFunc) AdjustmentFunc {
	return func(at time.Time, price float64) (float64, error) {
		if fn, ok := days[at.Weekday()]; ok {
			return fn(at, price)
		}
		return base(at, price)
	}
}

// ParseAdjustment builds an AdjustmentFunc from its configured form:
//
//	"0.05"                        constant
//	"0.05 + 0.1*price"            linear
//	"0.05; sat=0.02; sun=0.02"    weekday overrides, each constant or linear
//
// Anything else is a malformed adjustment.
func ParseAdjustment(expr string) (AdjustmentFunc, error) {
	parts := strings.Split(expr, ";")
	base, err := parseTerm(parts[0])
	if err != nil {
		return nil, err
	}
	if len(parts) == 1 {
		return base, nil
	}

	days := make(map[time.Weekday]AdjustmentFunc, len(parts)-1)
	for _, part := range parts[1:] {
		name, term, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("%w: missing '=' in %q", ErrMalformedAdjustment, part)
		}
		day, ok := weekdays[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return nil, fmt.Errorf("%w: unknown weekday %q", ErrMalformedAdjustment, name)
		}
		fn, err := parseTerm(term)
		if err != nil {
			return nil, err
		}
		days[day] = fn
	}
	return ByWeekday(base, days), nil
}

var weekdays = map[string]time.Weekday{
	"mon": time.Monday, "tue": time.Tuesday, "wed": time.Wednesday, "thu": time.Thursday,
	"fri": time.Friday, "sat": time.Saturday, "sun": time.Sunday,
}

// parseTerm parses "a", "b*price" or "a + b*price".
func parseTerm(s string) (AdjustmentFunc, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	if s == "" {
		return Constant(0), nil
	}

	var fixed, ratio float64
	for _, term := range splitTerms(s) {
		if coef, ok := strings.CutSuffix(term, "*price"); ok {
			v, err := parseCoefficient(coef)
			if err != nil {
				return nil, err
			}
			ratio += v
			continue
		}
		v, err := parseCoefficient(term)
		if err != nil {
			return nil, err
		}
		fixed += v
	}
	if ratio == 0 {
		return Constant(fixed), nil
	}
	return Linear(fixed, ratio), nil
}

// splitTerms splits s on "+" signs that are not part of an exponent.
func splitTerms(s string) []string {
	var terms []string
	start := 0
	for i := 1; i < len(s); i++ {
		if s[i] != '+' || isExponent(s, i-1) {
			continue
		}
		terms = append(terms, s[start:i])
		start = i + 1
	}
	return append(terms, s[start:])
}

// isExponent reports whether s[i] is the "e" of a number such as 1e+3.
func isExponent(s string, i int) bool {
	if s[i] != 'e' && s[i] != 'E' || i == 0 {
		return false
	}
	c := s[i-1]
	return c >= '0' && c <= '9' || c == '.'
}

func parseCoefficient(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, fmt.Errorf("%w: %q", ErrMalformedAdjustment, s)
	}
	return v, nil
}
