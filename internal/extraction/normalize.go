package extraction

import (
	"regexp"
	"strings"
)

// accentFolds maps accented Portuguese vowels (either case) to the plain lowercase vowel.
var accentFolds = newFoldReplacer(map[string]string{
	"óòôõö": "o",
	"áàâãä": "a",
	"éèêë":  "e",
	"íìîï":  "i",
	"úùûü":  "u",
	"ç":     "c",
})

// euroVariants covers mis-encoded euro signs seen in OCR output. The folded
// forms are listed because accent folding runs first.
var euroVariants = strings.NewReplacer(
	"â‚¬", "€",
	"a‚¬", "€",
	"â\u0082¬", "€",
	"a\u0082¬", "€",
	"₠", "€",
)

var reTotalTypos = regexp.MustCompile(`(?i)tota[i1]`)

func newFoldReplacer(groups map[string]string) *strings.Replacer {
	var pairs []string
	for chars, to := range groups {
		for _, r := range chars {
			lower := string(r)
			upper := strings.ToUpper(lower)
			pairs = append(pairs, lower, to)
			if upper != lower {
				pairs = append(pairs, upper, to)
			}
		}
	}
	return strings.NewReplacer(pairs...)
}

// NormalizeText prepares OCR text for keyword matching. It folds Portuguese
// diacritics, repairs common OCR confusions, collapses whitespace and unifies
// the euro sign. Line breaks are collapsed too, so callers that need lines or
// display text keep the original.
//
// The digit rules are applied as-is: a 0 followed by a digit becomes the
// letter O, which means "2024" comes out as "2O24". Numeric extractors
// therefore read the original text, never this output.
func NormalizeText(text string) string {
	if text == "" {
		return ""
	}
	s := accentFolds.Replace(text)
	s = reTotalTypos.ReplaceAllString(s, "total")
	s = zeroBeforeDigit(s)
	s = digitsBeforeLetters(s)
	s = strings.Join(strings.Fields(s), " ")
	s = euroVariants.Replace(s)
	return strings.TrimSpace(s)
}

// zeroBeforeDigit replaces every 0 that is immediately followed by a digit
// with the letter O. The lookahead reads the input, not the output.
func zeroBeforeDigit(s string) string {
	rs := []rune(s)
	out := make([]rune, len(rs))
	copy(out, rs)
	for i := 0; i+1 < len(rs); i++ {
		if rs[i] == '0' && isDigit(rs[i+1]) {
			out[i] = 'O'
		}
	}
	return string(out)
}

// digitsBeforeLetters turns 1 into l and 5 into S when followed by an ASCII
// letter. Scanning right to left lets a chain such as "15kg" settle in one
// pass, which keeps NormalizeText idempotent.
func digitsBeforeLetters(s string) string {
	rs := []rune(s)
	for i := len(rs) - 2; i >= 0; i-- {
		if !isASCIILetter(rs[i+1]) {
			continue
		}
		switch rs[i] {
		case '1':
			rs[i] = 'l'
		case '5':
			rs[i] = 'S'
		}
	}
	return string(rs)
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isASCIILetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// cleanOCRText fixes line endings and trailing blanks without touching content.
func cleanOCRText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// nonEmptyLines splits text into trimmed, non-blank lines.
func nonEmptyLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
