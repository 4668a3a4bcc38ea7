package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/gen2brain/go-fitz"
)

// PDFText reads the embedded text layer of digital PDFs. Scanned PDFs have
// no text layer and yield ErrNoText, so a Chain falls through to real OCR.
type PDFText struct {
	maxPages int
}

// NewPDFText creates a PDFText engine reading at most maxPages pages (0 means all).
func NewPDFText(maxPages int) *PDFText {
	return &PDFText{maxPages: maxPages}
}

// Recognize implements Engine
func (p *PDFText) Recognize(ctx context.Context, data []byte, contentType string) (*Result, error) {
	if !IsPDF(data, contentType) {
		return nil, ErrUnsupported
	}

	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer doc.Close()

	pages := doc.NumPage()
	if p.maxPages > 0 && pages > p.maxPages {
		pages = p.maxPages
	}

	var sb strings.Builder
	for i := 0; i < pages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text, err := doc.Text(i)
		if err != nil {
			return nil, fmt.Errorf("reading text of page %d: %w", i+1, err)
		}
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(strings.TrimSpace(text))
	}

	if strings.TrimSpace(sb.String()) == "" {
		return nil, ErrNoText
	}
	return &Result{Text: sb.String(), Engine: "pdf-text", Pages: pages}, nil
}
