package extraction

import (
	"unicode/utf8"
)

// Reprocess fills a missing merchant on previously parsed data from its
// stored text and re-derives the category, clearing it when the new merchant
// is unclassifiable. Other fields are left alone.
// It returns a copy.
func Reprocess(prev ParsedReceiptData) ParsedReceiptData {
	out := prev
	if out.MerchantName != nil && *out.MerchantName != "" {
		return out
	}
	lines := nonEmptyLines(cleanOCRText(prev.ExtractedText))
	if len(lines) > 5 {
		lines = lines[:5]
	}
	for _, line := range lines {
		n := utf8.RuneCountInString(line)
		if n <= 3 || n >= 50 || !reASCIILetter.MatchString(line) {
			continue
		}
		out.MerchantName = ptr(line)
		out.Confidence.Merchant = 1
		out.Categoria = nil
		if c, ok := ExtractCategory(line, prev.ExtractedText); ok {
			out.Categoria = ptr(c)
		}
		break
	}
	return out
}
