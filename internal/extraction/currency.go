package extraction

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// currencyRepair undoes OCR letter/digit confusions inside an amount.
var currencyRepair = strings.NewReplacer(
	"O", "0", "o", "0",
	"l", "1", "L", "1",
	"I", "1", "i", "1",
	"S", "5", "s", "5",
	"$", "S",
	"(", "", ")", "",
)

var (
	reCurrencyMarker = regexp.MustCompile(`(?i)€|EUR|EURO`)
	reLeadingNumber  = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)`)
)

// ParseCurrency turns an OCR-captured amount such as "1.234,56 €" into a
// number rounded to cents. It reports false when nothing numeric is left.
//
// Separator rules: with a single kind of separator, it is the decimal point
// only when exactly two digits follow its last occurrence, otherwise it is a
// thousands separator. With both kinds present, the rightmost one is the
// decimal point.
func ParseCurrency(raw string) (float64, bool) {
	if raw == "" {
		return 0, false
	}
	s := currencyRepair.Replace(raw)
	s = reCurrencyMarker.ReplaceAllString(s, "")
	s = strings.Join(strings.Fields(s), "")
	if s == "" {
		return 0, false
	}

	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")
	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			s = decimalAt(strings.ReplaceAll(s, ".", ""), ",")
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		s = resolveSingleSeparator(s, ",")
	case lastDot >= 0:
		s = resolveSingleSeparator(s, ".")
	}

	m := reLeadingNumber.FindString(s)
	if m == "" || m == "+" || m == "-" {
		return 0, false
	}
	d, err := decimal.NewFromString(strings.TrimSuffix(m, "."))
	if err != nil {
		return 0, false
	}
	v, _ := d.Round(2).Float64()
	return v, true
}

func resolveSingleSeparator(s, sep string) string {
	idx := strings.LastIndex(s, sep)
	tail := s[idx+1:]
	if len(tail) == 2 && isDigit(rune(tail[0])) && isDigit(rune(tail[1])) {
		return decimalAt(s, sep)
	}
	return strings.ReplaceAll(s, sep, "")
}

// decimalAt makes the last sep the decimal point and drops earlier ones.
func decimalAt(s, sep string) string {
	idx := strings.LastIndex(s, sep)
	head := strings.ReplaceAll(s[:idx], sep, "")
	return head + "." + s[idx+len(sep):]
}
