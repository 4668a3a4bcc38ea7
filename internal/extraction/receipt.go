package extraction

import (
	"context"
	"errors"
)

// ErrNoText is returned when there is no OCR text to parse.
var ErrNoText = errors.New("no text to parse")

// DocumentKind selects the total-amount strategy.
type DocumentKind string

const (
	// KindReceipt is a photographed till receipt.
	KindReceipt DocumentKind = "receipt"
	// KindInvoice is a formal invoice, usually a PDF with a "TOTAL A PAGAR" line.
	KindInvoice DocumentKind = "invoice"
)

// ParseDocumentKind maps a user supplied string to a DocumentKind, defaulting to KindReceipt.
func ParseDocumentKind(s string) DocumentKind {
	switch DocumentKind(s) {
	case KindInvoice, "pdf", "fatura":
		return KindInvoice
	default:
		return KindReceipt
	}
}

// Source records which tier produced the final fields.
type Source string

const (
	SourceLLM   Source = "llm"
	SourceRules Source = "rules"
	SourceMixed Source = "mixed"
)

// Confidence holds per-field scores in [0,1]. They are presence indicators
// except Total, which carries the invoice extractor's score when available.
type Confidence struct {
	Merchant float64 `json:"merchant"`
	Total    float64 `json:"total"`
	Date     float64 `json:"date"`
}

// ParsedReceiptData is the outcome of parsing one document.
type ParsedReceiptData struct {
	MerchantName  *string    `json:"merchantName"`
	TotalValue    *float64   `json:"totalValue"`
	DateDetected  *string    `json:"dateDetected"`
	Categoria     *Category  `json:"categoria"`
	IVADedutivel  bool       `json:"ivaDedutivel"`
	ValorTotalIVA *float64   `json:"valorTotalIVA"`
	ExtractedText string     `json:"extractedText"`
	Confidence    Confidence `json:"confidence"`
	Source        Source     `json:"source"`
}

// Fields is what a structured extractor (an LLM) returns. Every field is optional.
type Fields struct {
	MerchantName  *string   `json:"merchantName"`
	TotalValue    *float64  `json:"totalValue"`
	DateDetected  *string   `json:"dateDetected"`
	Categoria     *Category `json:"categoria"`
	IVADedutivel  *bool     `json:"ivaDedutivel"`
	ValorTotalIVA *float64  `json:"valorTotalIVA"`
}

// FieldExtractor pulls structured fields out of OCR text.
type FieldExtractor interface {
	ExtractFields(ctx context.Context, text string) (*Fields, error)
}

func ptr[T any](v T) *T {
	return &v
}
