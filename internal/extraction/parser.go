package extraction

import (
	"context"
	"log/slog"
	"math"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultTimeout bounds a single structured extraction call.
const DefaultTimeout = 20 * time.Second

// Parser turns OCR text into ParsedReceiptData. A structured extractor is
// tried first when configured; the deterministic rules fill whatever it
// could not provide.
type Parser struct {
	extractor FieldExtractor
	timeout   time.Duration
}

// Option configures a Parser.
type Option func(*Parser)

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(p *Parser) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// NewParser creates a Parser. extractor may be nil for rules only.
func NewParser(extractor FieldExtractor, opts ...Option) *Parser {
	p := &Parser{
		extractor: extractor,
		timeout:   DefaultTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ParseReceiptData extracts merchant, total, date, category and VAT fields
// from OCR text. A failing or partial structured extraction is never an
// error: missing fields come from the rules. Only empty input fails.
func (p *Parser) ParseReceiptData(ctx context.Context, ocrText string, kind DocumentKind) (*ParsedReceiptData, error) {
	text := cleanOCRText(ocrText)
	if text == "" {
		return nil, ErrNoText
	}

	var fields *Fields
	if p.extractor != nil {
		callCtx, cancel := context.WithTimeout(ctx, p.timeout)
		f, err := p.extractor.ExtractFields(callCtx, text)
		cancel()
		if err != nil {
			slog.Warn("Structured extraction failed, falling back to rules", "error", err)
		} else {
			fields = sanitize(f)
		}
	}

	rules := Extract(text, kind)
	if fields == nil {
		return rules, nil
	}
	return merge(fields, rules, text, kind), nil
}

// Extract runs only the deterministic rules.
func Extract(ocrText string, kind DocumentKind) *ParsedReceiptData {
	text := cleanOCRText(ocrText)
	out := &ParsedReceiptData{ExtractedText: text, Source: SourceRules}

	var total TotalResult
	var date, merchant string
	var dateOK, merchantOK bool
	var vat float64
	var vatOK bool

	var g errgroup.Group
	g.Go(func() error {
		total = StrategyFor(kind)(text)
		return nil
	})
	g.Go(func() error {
		date, dateOK = ExtractDate(text)
		return nil
	})
	g.Go(func() error {
		merchant, merchantOK = ExtractMerchantName(text)
		return nil
	})
	g.Go(func() error {
		vat, vatOK = ExtractVATRate(text)
		return nil
	})
	_ = g.Wait()

	if total.Value != nil {
		out.TotalValue = total.Value
		out.Confidence.Total = float64(total.Confidence) / 100
	}
	if dateOK {
		out.DateDetected = ptr(date)
		out.Confidence.Date = 1
	}
	if merchantOK {
		out.MerchantName = ptr(merchant)
		out.Confidence.Merchant = 1
	}
	if c, ok := ExtractCategory(merchant, text); ok {
		out.Categoria = ptr(c)
	}
	if vatOK {
		out.ValorTotalIVA = ptr(vat)
	}
	out.IVADedutivel = DeductibleByDefault(kind)
	return out
}

// sanitize drops structured fields that fail basic sanity checks.
func sanitize(f *Fields) *Fields {
	if f == nil {
		return nil
	}
	out := *f
	if out.MerchantName != nil {
		name := strings.TrimSpace(*out.MerchantName)
		if name == "" {
			out.MerchantName = nil
		} else {
			out.MerchantName = ptr(name)
		}
	}
	if out.TotalValue != nil {
		v := *out.TotalValue
		if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 || v >= invoiceTotalMax {
			out.TotalValue = nil
		} else {
			out.TotalValue = ptr(math.Round(v*100) / 100)
		}
	}
	if out.DateDetected != nil && !ValidDate(*out.DateDetected) {
		out.DateDetected = nil
	}
	if out.Categoria != nil {
		if c, ok := CanonicalCategory(string(*out.Categoria)); ok {
			out.Categoria = ptr(c)
		} else {
			out.Categoria = nil
		}
	}
	if out.ValorTotalIVA != nil {
		v := *out.ValorTotalIVA
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 || v > 100 {
			out.ValorTotalIVA = nil
		}
	}
	return &out
}

// merge combines structured fields with rules output field by field.
func merge(f *Fields, rules *ParsedReceiptData, text string, kind DocumentKind) *ParsedReceiptData {
	out := &ParsedReceiptData{ExtractedText: text}
	fromLLM, fromRules := 0, 0
	pick := func(llmSet bool) {
		if llmSet {
			fromLLM++
		} else {
			fromRules++
		}
	}

	out.MerchantName, out.Confidence.Merchant = rules.MerchantName, rules.Confidence.Merchant
	if f.MerchantName != nil {
		out.MerchantName, out.Confidence.Merchant = f.MerchantName, 1
	}
	pick(f.MerchantName != nil)

	out.TotalValue, out.Confidence.Total = rules.TotalValue, rules.Confidence.Total
	if f.TotalValue != nil {
		out.TotalValue, out.Confidence.Total = f.TotalValue, 1
	}
	pick(f.TotalValue != nil)

	out.DateDetected, out.Confidence.Date = rules.DateDetected, rules.Confidence.Date
	if f.DateDetected != nil {
		out.DateDetected, out.Confidence.Date = f.DateDetected, 1
	}
	pick(f.DateDetected != nil)

	switch {
	case f.Categoria != nil:
		out.Categoria = f.Categoria
	case f.MerchantName != nil:
		if c, ok := ExtractCategory(*f.MerchantName, text); ok {
			out.Categoria = ptr(c)
		}
	default:
		out.Categoria = rules.Categoria
	}
	pick(f.Categoria != nil)

	out.ValorTotalIVA = rules.ValorTotalIVA
	if f.ValorTotalIVA != nil {
		out.ValorTotalIVA = f.ValorTotalIVA
	}

	if f.IVADedutivel != nil {
		out.IVADedutivel = *f.IVADedutivel
	} else {
		out.IVADedutivel = DeductibleByDefault(kind)
	}

	switch {
	case fromRules == 0:
		out.Source = SourceLLM
	case fromLLM == 0:
		out.Source = SourceRules
	default:
		out.Source = SourceMixed
	}
	return out
}
