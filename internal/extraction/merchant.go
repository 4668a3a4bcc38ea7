package extraction

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var merchantSkip = compileAll(
	`\d{3}-\d{3}-\d{3}`,
	`\d{9}`,
	`(?i)contribuinte`,
	`(?i)nif`,
	`(?i)morada`,
	`(?i)endereço`,
	`(?i)telefone`,
	`(?i)telef`,
	`(?i)email`,
	`@`,
	`(?i)www\.`,
	`(?i)\.pt$`,
	`(?i)\.com$`,
	`(?i)http`,
	`(?i)total`,
	`(?i)subtotal`,
	`€`,
	`(?i)data`,
	`(?i)hora`,
	`\d{2}[/\-.]\d{2}[/\-.]\d{2,4}`,
)

var (
	reNameLetter  = regexp.MustCompile(`(?i)[a-záàâãéêíóôõúç]`)
	reASCIILetter = regexp.MustCompile(`[a-zA-Z]`)
)

// fullTextSkip drops amounts, dates and receipt boilerplate.
var fullTextSkip = compileAll(
	`^\d+[.,]\d{2}`,
	`^\d{1,2}[/\-.]\d{1,2}[/\-.]\d{2,4}`,
	`(?i)^(N\.I\.F|Tel|Morada|Mesa|Fatura|Recibo|Data:|Hora:)`,
	`^\d{9}`,
	`^\*{3,}`,
	`^_{3,}`,
	`^-{3,}`,
)

// ExtractMerchantName picks the merchant from the first five non-empty lines:
// the first line of 3 to 50 characters with at least three letters that does
// not look like contact details, totals or dates.
func ExtractMerchantName(text string) (string, bool) {
	lines := nonEmptyLines(cleanOCRText(text))
	if len(lines) > 5 {
		lines = lines[:5]
	}
	for _, line := range lines {
		n := utf8.RuneCountInString(line)
		if n < 3 || n > 50 {
			continue
		}
		if matchesAny(merchantSkip, line) {
			continue
		}
		if len(reNameLetter.FindAllString(line, 3)) >= 3 {
			return line, true
		}
	}
	return "", false
}

// MerchantFromFullText is the looser fallback over the first eight lines.
// It returns "" when nothing qualifies.
func MerchantFromFullText(fullText string) string {
	lines := nonEmptyLines(cleanOCRText(fullText))
	if len(lines) > 8 {
		lines = lines[:8]
	}
	for _, line := range lines {
		n := utf8.RuneCountInString(line)
		if n <= 3 || n >= 60 {
			continue
		}
		if matchesAny(fullTextSkip, line) {
			continue
		}
		if reASCIILetter.MatchString(line) && len(strings.Fields(line)) <= 6 {
			return line
		}
	}
	return ""
}

func matchesAny(res []*regexp.Regexp, s string) bool {
	for _, re := range res {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}
