package extraction

import (
	"math"
	"regexp"
	"strings"
)

// Quality levels reported by AnalyzeQuality.
const (
	QualityHigh   = "high"
	QualityMedium = "medium"
	QualityLow    = "low"
)

var reStructuredHint = regexp.MustCompile(`(?i)total|subtotal|iva|data|nif|€`)

// QualityReport summarises how usable an OCR result looks.
type QualityReport struct {
	LineCount         int    `json:"lineCount"`
	AvgLineLength     int    `json:"avgLineLength"`
	HasStructuredData bool   `json:"hasStructuredData"`
	Confidence        string `json:"confidence"`
}

// AnalyzeQuality rates OCR text by line count, average line length and the
// presence of receipt keywords.
func AnalyzeQuality(text string) QualityReport {
	var count, total int
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		count++
		total += len([]rune(line))
	}
	avg := 0
	if count > 0 {
		avg = int(math.Round(float64(total) / float64(count)))
	}
	r := QualityReport{
		LineCount:         count,
		AvgLineLength:     avg,
		HasStructuredData: reStructuredHint.MatchString(text),
		Confidence:        QualityLow,
	}
	switch {
	case count > 5 && avg > 10 && r.HasStructuredData:
		r.Confidence = QualityHigh
	case count > 3 && avg > 5:
		r.Confidence = QualityMedium
	}
	return r
}
