package extraction

import (
	"regexp"
	"strconv"

	"github.com/shopspring/decimal"
)

var (
	reVATAfterLabel  = regexp.MustCompile(`(?i)iva[^\n%]{0,20}?(\d{1,2})(?:[.,]0{1,2})?\s*%`)
	reVATBeforeLabel = regexp.MustCompile(`(?i)(\d{1,2})(?:[.,]0{1,2})?\s*%\s*(?:de\s+)?iva`)
)

// Portuguese VAT rates: mainland, Madeira and Azores.
var knownVATRates = map[int]bool{
	4: true, 5: true, 6: true,
	9: true, 12: true, 13: true,
	16: true, 22: true, 23: true,
}

// ExtractVATRate looks for a VAT percentage ("IVA 23%", "13% IVA") and
// returns it when it is one of the Portuguese rates.
func ExtractVATRate(text string) (float64, bool) {
	for _, re := range []*regexp.Regexp{reVATAfterLabel, reVATBeforeLabel} {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			rate, err := strconv.Atoi(m[1])
			if err == nil && knownVATRates[rate] {
				return float64(rate), true
			}
		}
	}
	return 0, false
}

// VATIncluded returns the VAT portion of a VAT-inclusive total at the given
// percentage, rounded to cents.
func VATIncluded(total, rate float64) float64 {
	if rate <= 0 || total <= 0 {
		return 0
	}
	t := decimal.NewFromFloat(total)
	r := decimal.NewFromFloat(rate)
	v, _ := t.Mul(r).Div(r.Add(decimal.NewFromInt(100))).Round(2).Float64()
	return v
}
