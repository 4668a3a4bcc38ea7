package extraction

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

var (
	reISODate     = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
	reNumericDate = regexp.MustCompile(`(?:^|\D)(\d{1,2})[/\-.](\d{1,2})[/\-.](\d{2,4})(?:\D|$)`)
	reLongDate    = regexp.MustCompile(`(?i)(\d{1,2})\s+de\s+(\p{L}+)\s+de\s+(\d{2,4})`)
	reShortDate   = regexp.MustCompile(`(?i)(\d{1,2})\s+(\p{L}+)\.?\s+(\d{2,4})`)
)

var portugueseMonths = map[string]time.Month{
	"janeiro": time.January, "jan": time.January,
	"fevereiro": time.February, "fev": time.February,
	"marco": time.March, "mar": time.March,
	"abril": time.April, "abr": time.April,
	"maio": time.May, "mai": time.May,
	"junho": time.June, "jun": time.June,
	"julho": time.July, "jul": time.July,
	"agosto": time.August, "ago": time.August,
	"setembro": time.September, "set": time.September,
	"outubro": time.October, "out": time.October,
	"novembro": time.November, "nov": time.November,
	"dezembro": time.December, "dez": time.December,
}

// ExtractDate finds the first valid date and returns it as YYYY-MM-DD.
// Day-month-year numeric dates win, then ISO dates, then Portuguese verbose
// forms such as "12 de março de 2024" or "12 mar 2024".
func ExtractDate(text string) (string, bool) {
	for _, m := range reNumericDate.FindAllStringSubmatch(text, -1) {
		month, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		if d, ok := buildDate(m[1], time.Month(month), m[3]); ok {
			return d, true
		}
	}
	for _, m := range reISODate.FindAllStringSubmatch(text, -1) {
		month, _ := strconv.Atoi(m[2])
		if d, ok := buildDate(m[3], time.Month(month), m[1]); ok {
			return d, true
		}
	}
	for _, re := range []*regexp.Regexp{reLongDate, reShortDate} {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			month, ok := portugueseMonths[foldName(m[2])]
			if !ok {
				continue
			}
			if d, ok := buildDate(m[1], month, m[3]); ok {
				return d, true
			}
		}
	}
	return "", false
}

// buildDate validates the calendar date, expanding two-digit years around a
// pivot of 50 (00-49 is 20xx, 50-99 is 19xx).
func buildDate(dayStr string, month time.Month, yearStr string) (string, bool) {
	day, err := strconv.Atoi(dayStr)
	if err != nil {
		return "", false
	}
	year, err := strconv.Atoi(yearStr)
	if err != nil {
		return "", false
	}
	if year < 100 {
		if year < 50 {
			year += 2000
		} else {
			year += 1900
		}
	}
	if year <= 1900 || year >= 2100 {
		return "", false
	}
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || t.Month() != month || t.Day() != day {
		return "", false
	}
	return t.Format(dateLayout), true
}

// ValidDate reports whether s is a YYYY-MM-DD date inside the accepted range.
func ValidDate(s string) bool {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return false
	}
	return t.Year() > 1900 && t.Year() < 2100
}
