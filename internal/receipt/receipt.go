package receipt

import (
	"errors"
	"time"

	"github.com/zombor/recibos/internal/extraction"
)

var (
	// ErrNotFound is returned when no receipt exists for an ID
	ErrNotFound = errors.New("receipt not found")
	// ErrInvalidUpdate is returned when a manual correction fails validation
	ErrInvalidUpdate = errors.New("invalid receipt update")
)

// Receipt is a stored receipt or invoice together with the data parsed from it
type Receipt struct {
	ID string `json:"id"`
	extraction.ParsedReceiptData
	Kind        extraction.DocumentKind `json:"kind"`
	Filename    string                  `json:"filename"`
	ContentType string                  `json:"contentType"`
	OCREngine   string                  `json:"ocrEngine"`
	OCRQuality  string                  `json:"ocrQuality"`
	Edited      bool                    `json:"edited,omitempty"` // set once a field was corrected by hand
	CreatedAt   time.Time               `json:"createdAt"`
	UpdatedAt   time.Time               `json:"updatedAt"`
}

// ReceiptUpdate carries manual corrections. Nil fields are left unchanged.
type ReceiptUpdate struct {
	MerchantName  *string  `json:"merchantName"`
	TotalValue    *float64 `json:"totalValue"`
	DateDetected  *string  `json:"dateDetected"`
	Categoria     *string  `json:"categoria"`
	IVADedutivel  *bool    `json:"ivaDedutivel"`
	ValorTotalIVA *float64 `json:"valorTotalIVA"`
}

// SummaryFilter restricts a summary to receipts dated within [From, To].
// Zero bounds are open.
type SummaryFilter struct {
	From time.Time
	To   time.Time
}

// CategoryTotal aggregates the receipts of one category
type CategoryTotal struct {
	Categoria     string  `json:"categoria"`
	Count         int     `json:"count"`
	Total         float64 `json:"total"`
	DeductibleVAT float64 `json:"deductibleVAT"`
}

// Summary aggregates totals and deductible VAT over stored receipts
type Summary struct {
	Count         int             `json:"count"`
	Total         float64         `json:"total"`
	DeductibleVAT float64         `json:"deductibleVAT"`
	ByCategory    []CategoryTotal `json:"byCategory"`
}
