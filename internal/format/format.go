// Package format renders API money strings for display. Amounts arrive as
// decimal strings from the commerce API and are only ever parsed for
// presentation; totals are never recomputed here.
package format

import (
	"fmt"
	"strings"
)

// Money formats a decimal amount string like "40.0" as "$40.00". Unparseable
// input is returned as-is rather than dropped.
func Money(amount string) string {
	cents, ok := toCents(amount)
	if !ok {
		return "$" + amount
	}
	return "$" + centsToString(cents)
}

// Installment returns one quarter of the amount with two decimals, for the
// "4 interest-free payments" line. Display-only derivation.
func Installment(amount string) string {
	cents, ok := toCents(amount)
	if !ok {
		return ""
	}
	return "$" + centsToString(cents/4)
}

// toCents parses a non-negative decimal string into minor units without
// going through floats. Fractions beyond two digits are truncated.
func toCents(amount string) (int64, bool) {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return 0, false
	}
	whole, frac, _ := strings.Cut(amount, ".")
	var cents int64
	if whole != "" {
		for _, r := range whole {
			if r < '0' || r > '9' {
				return 0, false
			}
			cents = cents*10 + int64(r-'0')
		}
	}
	cents *= 100
	for i, r := range frac {
		if i >= 2 {
			break
		}
		if r < '0' || r > '9' {
			return 0, false
		}
		mult := int64(10)
		if i == 1 {
			mult = 1
		}
		cents += int64(r-'0') * mult
	}
	return cents, true
}

func centsToString(cents int64) string {
	return fmt.Sprintf("%s.%02d", thousandSep(cents/100), cents%100)
}

func thousandSep(n int64) string {
	s := fmt.Sprintf("%d", n)
	out := ""
	for i, c := range s {
		if i != 0 && (len(s)-i)%3 == 0 {
			out += ","
		}
		out += string(c)
	}
	return out
}
