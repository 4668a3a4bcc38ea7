package ocr

import (
	"context"
	"errors"
	"log/slog"
	"strings"
)

var (
	// ErrNoText is returned when an engine ran but produced no text.
	ErrNoText = errors.New("no text extracted")
	// ErrUnsupported is returned when an engine cannot handle the content type.
	ErrUnsupported = errors.New("unsupported content type")
	// ErrUpstream wraps failures of a remote OCR service.
	ErrUpstream = errors.New("OCR service unavailable")
)

// Result is the text recognised in one document
type Result struct {
	Text   string `json:"text"`
	Engine string `json:"engine"`
	Pages  int    `json:"pages"`
}

// Engine turns an image or PDF into text
type Engine interface {
	// Recognize extracts the text of the document
	Recognize(ctx context.Context, data []byte, contentType string) (*Result, error)
}

// Chain tries engines in order and returns the first non-empty result.
type Chain []Engine

// Recognize implements Engine
func (c Chain) Recognize(ctx context.Context, data []byte, contentType string) (*Result, error) {
	var lastErr error = ErrNoText
	for _, e := range c {
		res, err := e.Recognize(ctx, data, contentType)
		if err == nil && strings.TrimSpace(res.Text) != "" {
			return res, nil
		}
		if errors.Is(err, ErrUnsupported) {
			continue
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if err == nil {
			err = ErrNoText
		}
		slog.Warn("OCR engine failed, trying next", "error", err)
		lastErr = err
	}
	return nil, lastErr
}

// NormalizeContentType lowercases the MIME type and drops parameters.
func NormalizeContentType(contentType string) string {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	if ct == "" {
		return "image/jpeg"
	}
	return ct
}

// IsPDF reports whether the content is a PDF, by MIME type or magic bytes.
func IsPDF(data []byte, contentType string) bool {
	return NormalizeContentType(contentType) == "application/pdf" || strings.HasPrefix(string(data[:min(len(data), 5)]), "%PDF-")
}
