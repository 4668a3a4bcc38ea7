package extraction

import (
	"regexp"
	"sort"
	"strings"
)

// TotalResult is a total amount with a 0-100 confidence. Value is nil when nothing usable was found.
type TotalResult struct {
	Value      *float64
	Confidence int
}

// TotalStrategy extracts a total amount from OCR text.
type TotalStrategy func(text string) TotalResult

// StrategyFor returns the total strategy for a document kind.
func StrategyFor(kind DocumentKind) TotalStrategy {
	if kind == KindInvoice {
		return InvoiceTotal
	}
	return SimpleTotal
}

const (
	simpleTotalMax  = 10000
	invoiceTotalMax = 100000
)

var simpleTotalPatterns = compileAll(
	`(?i)total[:\s]+€?\s*(\d+[.,]\d{2})`,
	`(?i)soma[:\s]+€?\s*(\d+[.,]\d{2})`,
	`(?i)montante[:\s]+€?\s*(\d+[.,]\d{2})`,
	`(?i)valor[:\s]+(total|final)?[:\s]*€?\s*(\d+[.,]\d{2})`,
	`(?i)a\s+pagar[:\s]+€?\s*(\d+[.,]\d{2})`,
	`(?i)subtotal[:\s]+€?\s*(\d+[.,]\d{2})`,
	`(?i)import[âa]ncia[:\s]+€?\s*(\d+[.,]\d{2})`,
	`€\s*(\d+[.,]\d{2})`,
	`(\d+[.,]\d{2})\s*€`,
	`(?i)(\d+[.,]\d{2})\s*eur`,
	`(\d+[.,]\d{2})`,
)

var reAmountShape = regexp.MustCompile(`^\d+[.,]\d{2}$`)

func compileAll(patterns ...string) []*regexp.Regexp {
	res := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		res[i] = regexp.MustCompile(p)
	}
	return res
}

// ExtractTotalValue returns the largest amount in (0, 10000) captured by any
// of the receipt patterns.
func ExtractTotalValue(text string) (float64, bool) {
	var best float64
	found := false
	for _, re := range simpleTotalPatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			for _, g := range m[1:] {
				if !reAmountShape.MatchString(g) {
					continue
				}
				v, ok := ParseCurrency(g)
				if !ok || v <= 0 || v >= simpleTotalMax {
					break
				}
				if !found || v > best {
					best, found = v, true
				}
				break
			}
		}
	}
	return best, found
}

// SimpleTotal is the receipt strategy. Its confidence is binary.
func SimpleTotal(text string) TotalResult {
	v, ok := ExtractTotalValue(text)
	if !ok {
		return TotalResult{}
	}
	return TotalResult{Value: ptr(v), Confidence: 100}
}

// InvoiceTotal is the invoice strategy.
func InvoiceTotal(text string) TotalResult {
	return ExtractTotalPdf(text, strings.Split(text, "\n"))
}

// amountClass accepts OCR-damaged digits but needs at least one real digit.
const amountClass = `€?[ \t]*[\dOolI.,]*\d[\d.,OolI]*`

var (
	invoiceLinePatterns = []struct {
		re         *regexp.Regexp
		confidence int
	}{
		{regexp.MustCompile(`(?i)TOTAL[ \t]+A[ \t]+PAGAR[ \t]*:?[ \t]*(` + amountClass + `)[ \t]*€?`), 98},
		{regexp.MustCompile(`(?i)TOTAL[ \t]+A[ \t]+PAGAR.*?(` + amountClass + `)[ \t]*€?`), 95},
		{regexp.MustCompile(`(?i)A[ \t]+PAGAR[ \t]*:?[ \t]*(` + amountClass + `)[ \t]*€?`), 85},
	}

	reTotalAPagar    = regexp.MustCompile(`(?i)TOTAL\s+A\s+PAGAR`)
	reSameLineAmount = regexp.MustCompile(`(?i)TOTAL\s+A\s+PAGAR\s*:?\s*(` + amountClass + `)`)
	reLineStartAmt   = regexp.MustCompile(`(?i)^(` + amountClass + `)\s*€?`)
	reAnyAmount      = regexp.MustCompile(`(?i)(` + amountClass + `)\s*€?`)
	rePagarFallback  = regexp.MustCompile(`(?i)PAGAR.*?(` + amountClass + `)`)
	reHorizontalWS   = regexp.MustCompile(`[ \t\f\v\x{00A0}]+`)
)

type totalCandidate struct {
	value      float64
	confidence int
}

// ExtractTotalPdf finds the amount payable on an invoice. Label and amount
// on the same line score 98 (strict) or 95 (loose), a bare "A PAGAR" 85.
// When the amount sits on one of the three lines after the label, a
// line-start amount scores 92 minus 2 per skipped line and a mid-line amount
// 88 minus 3 per skipped line. A bare "PAGAR" is the last resort at 70.
func ExtractTotalPdf(text string, lines []string) TotalResult {
	var cands []totalCandidate
	add := func(raw string, confidence int) bool {
		v, ok := ParseCurrency(raw)
		if !ok || v <= 0 || v >= invoiceTotalMax {
			return false
		}
		cands = append(cands, totalCandidate{value: v, confidence: confidence})
		return true
	}

	normalized := reHorizontalWS.ReplaceAllString(cleanOCRText(text), " ")
	for _, p := range invoiceLinePatterns {
		for _, m := range p.re.FindAllStringSubmatch(normalized, -1) {
			add(m[1], p.confidence)
		}
	}

	trimmed := make([]string, len(lines))
	for i, l := range lines {
		trimmed[i] = strings.TrimSpace(l)
	}
	for i, line := range trimmed {
		if !reTotalAPagar.MatchString(line) {
			continue
		}
		if m := reSameLineAmount.FindStringSubmatch(line); m != nil {
			add(m[1], 95)
			continue
		}
		for j := 1; j <= 3 && i+j < len(trimmed); j++ {
			next := trimmed[i+j]
			skipped := j - 1
			if m := reLineStartAmt.FindStringSubmatch(next); m != nil {
				if add(m[1], 92-2*skipped) {
					break
				}
				continue
			}
			if m := reAnyAmount.FindStringSubmatch(next); m != nil && add(m[1], 88-3*skipped) {
				break
			}
		}
	}

	if len(cands) == 0 {
		collapsed := strings.Join(strings.Fields(text), " ")
		for _, m := range rePagarFallback.FindAllStringSubmatch(collapsed, -1) {
			add(m[1], 70)
		}
	}

	if len(cands) == 0 {
		return TotalResult{}
	}
	sort.SliceStable(cands, func(a, b int) bool {
		return cands[a].confidence > cands[b].confidence
	})
	return TotalResult{Value: ptr(cands[0].value), Confidence: cands[0].confidence}
}
