package receipt

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/zombor/recibos/internal/extraction"
	"github.com/zombor/recibos/internal/ocr"
)

// IDGenerator generates unique IDs for receipts
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

type uuidGenerator struct{}

func (uuidGenerator) Generate() string {
	return uuid.NewString()
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

// HealthChecker reports whether the OCR backend is reachable
type HealthChecker interface {
	Health(ctx context.Context) ocr.HealthStatus
}

// Service recognises, parses and stores receipts
type Service struct {
	db          DB
	engine      ocr.Engine
	parser      *extraction.Parser
	storage     Storage
	idGenerator IDGenerator
	timeSource  TimeSource
	metrics     *Metrics
	health      HealthChecker
}

// NewService creates a Service with UUID identifiers and the system clock
func NewService(db DB, engine ocr.Engine, parser *extraction.Parser, storage Storage) *Service {
	return NewServiceWithDeps(db, engine, parser, storage, uuidGenerator{}, systemClock{})
}

// NewServiceWithDeps creates a Service with custom dependencies for testing
func NewServiceWithDeps(db DB, engine ocr.Engine, parser *extraction.Parser, storage Storage, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		db:          db,
		engine:      engine,
		parser:      parser,
		storage:     storage,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

// UseMetrics records processing counters on m
func (s *Service) UseMetrics(m *Metrics) {
	s.metrics = m
}

// Metrics returns the collectors set with UseMetrics, if any
func (s *Service) Metrics() *Metrics {
	return s.metrics
}

// UseHealthChecker sets the backend probed by Health
func (s *Service) UseHealthChecker(h HealthChecker) {
	s.health = h
}

// Health probes the OCR backend. ok is false when no checker is configured.
func (s *Service) Health(ctx context.Context) (ocr.HealthStatus, bool) {
	if s.health == nil {
		return ocr.HealthStatus{}, false
	}
	return s.health.Health(ctx), true
}

var (
	reFilenameJunk  = regexp.MustCompile(`[^a-zA-Z0-9\s\-_]`)
	reFilenameSpace = regexp.MustCompile(`\s+`)
)

// sanitizeFilename shortens phone-generated names and strips odd characters
func sanitizeFilename(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	base = reFilenameJunk.ReplaceAllString(base, "")
	base = strings.TrimSpace(reFilenameSpace.ReplaceAllString(base, " "))
	if len(base) > 50 {
		base = base[:50]
	}
	if base == "" {
		base = "recibo"
	}
	return base + ext
}

// ResolveKind picks the document kind for an upload. An explicit kind wins;
// otherwise PDFs are treated as invoices.
func ResolveKind(requested string, data []byte, contentType string) extraction.DocumentKind {
	if strings.TrimSpace(requested) != "" {
		return extraction.ParseDocumentKind(requested)
	}
	if ocr.IsPDF(data, contentType) {
		return extraction.KindInvoice
	}
	return extraction.KindReceipt
}

// ProcessReceipt stores the upload, recognises its text, parses it and
// saves the result. The stored file is removed if any later step fails.
func (s *Service) ProcessReceipt(ctx context.Context, filename string, data []byte, contentType string, kind extraction.DocumentKind) (*Receipt, error) {
	start := time.Now()
	id := s.idGenerator.Generate()
	now := s.timeSource.Now()

	savedPath, err := s.storage.Save(fmt.Sprintf("%s_%s", id, sanitizeFilename(filename)), data)
	if err != nil {
		s.metrics.observeFailure("storage")
		return nil, fmt.Errorf("saving file: %w", err)
	}

	res, err := s.engine.Recognize(ctx, data, contentType)
	if err != nil {
		slog.Error("Failed to recognize receipt",
			"filename", filename,
			"content_type", contentType,
			"file_size", len(data),
			"error", err,
		)
		s.metrics.observeFailure("ocr")
		s.cleanup(savedPath)
		return nil, fmt.Errorf("recognizing receipt: %w", err)
	}

	parsed, err := s.parser.ParseReceiptData(ctx, res.Text, kind)
	if err != nil {
		s.metrics.observeFailure("parse")
		s.cleanup(savedPath)
		return nil, fmt.Errorf("parsing receipt: %w", err)
	}
	s.metrics.observeParsed(kind, parsed, time.Since(start))

	receipt := &Receipt{
		ID:                id,
		ParsedReceiptData: *parsed,
		Kind:              kind,
		Filename:          savedPath,
		ContentType:       contentType,
		OCREngine:         res.Engine,
		OCRQuality:        extraction.AnalyzeQuality(res.Text).Confidence,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.db.SaveReceipt(receipt); err != nil {
		s.metrics.observeFailure("database")
		s.cleanup(savedPath)
		return nil, fmt.Errorf("saving receipt to database: %w", err)
	}

	slog.Info("Processed receipt",
		"id", id,
		"kind", kind,
		"engine", res.Engine,
		"source", parsed.Source,
	)
	return receipt, nil
}

func (s *Service) cleanup(path string) {
	if err := s.storage.Delete(path); err != nil {
		slog.Warn("Failed to delete file", "filename", path, "error", err)
	}
}

// ParseText parses already recognised text without storing anything
func (s *Service) ParseText(ctx context.Context, text string, kind extraction.DocumentKind) (*extraction.ParsedReceiptData, error) {
	start := time.Now()
	parsed, err := s.parser.ParseReceiptData(ctx, text, kind)
	if err != nil {
		return nil, err
	}
	s.metrics.observeParsed(kind, parsed, time.Since(start))
	return parsed, nil
}

// GetReceipt retrieves a receipt by ID
func (s *Service) GetReceipt(id string) (*Receipt, error) {
	receipt, err := s.db.GetReceipt(id)
	if err != nil {
		return nil, fmt.Errorf("getting receipt: %w", err)
	}
	return receipt, nil
}

// ListReceipts returns all receipts
func (s *Service) ListReceipts() ([]*Receipt, error) {
	receipts, err := s.db.ListReceipts()
	if err != nil {
		return nil, fmt.Errorf("listing receipts: %w", err)
	}
	return receipts, nil
}

// UpdateReceipt applies manual corrections. Values are validated with the
// same rules used for parsed data; the whole update is rejected on the first
// invalid field.
func (s *Service) UpdateReceipt(id string, upd ReceiptUpdate) (*Receipt, error) {
	stored, err := s.db.GetReceipt(id)
	if err != nil {
		return nil, fmt.Errorf("getting receipt: %w", err)
	}
	receipt := *stored

	if upd.MerchantName != nil {
		name := strings.TrimSpace(*upd.MerchantName)
		if name == "" {
			receipt.MerchantName = nil
		} else {
			receipt.MerchantName = &name
		}
	}
	if upd.TotalValue != nil {
		v := *upd.TotalValue
		if v <= 0 {
			return nil, fmt.Errorf("%w: total must be positive", ErrInvalidUpdate)
		}
		v = decimal.NewFromFloat(v).Round(2).InexactFloat64()
		receipt.TotalValue = &v
	}
	if upd.DateDetected != nil {
		if !extraction.ValidDate(*upd.DateDetected) {
			return nil, fmt.Errorf("%w: date %q is not YYYY-MM-DD", ErrInvalidUpdate, *upd.DateDetected)
		}
		d := *upd.DateDetected
		receipt.DateDetected = &d
	}
	if upd.Categoria != nil {
		c, ok := extraction.CanonicalCategory(*upd.Categoria)
		if !ok {
			return nil, fmt.Errorf("%w: unknown category %q", ErrInvalidUpdate, *upd.Categoria)
		}
		receipt.Categoria = &c
	}
	if upd.IVADedutivel != nil {
		receipt.IVADedutivel = *upd.IVADedutivel
	}
	if upd.ValorTotalIVA != nil {
		v := *upd.ValorTotalIVA
		if v < 0 || v > 100 {
			return nil, fmt.Errorf("%w: VAT rate must be between 0 and 100", ErrInvalidUpdate)
		}
		receipt.ValorTotalIVA = &v
	}

	receipt.Edited = true
	receipt.UpdatedAt = s.timeSource.Now()
	if err := s.db.SaveReceipt(&receipt); err != nil {
		return nil, fmt.Errorf("saving receipt: %w", err)
	}
	return &receipt, nil
}

// Reprocess re-derives a missing merchant and the category from the stored text
func (s *Service) Reprocess(id string) (*Receipt, error) {
	receipt, err := s.db.GetReceipt(id)
	if err != nil {
		return nil, fmt.Errorf("getting receipt: %w", err)
	}
	receipt.ParsedReceiptData = extraction.Reprocess(receipt.ParsedReceiptData)
	receipt.UpdatedAt = s.timeSource.Now()
	if err := s.db.SaveReceipt(receipt); err != nil {
		return nil, fmt.Errorf("saving receipt: %w", err)
	}
	return receipt, nil
}

// DeleteReceipt removes a receipt and its file
func (s *Service) DeleteReceipt(id string) error {
	receipt, err := s.db.GetReceipt(id)
	if err != nil {
		return fmt.Errorf("getting receipt for deletion: %w", err)
	}

	if err := s.storage.Delete(receipt.Filename); err != nil {
		slog.Warn("Failed to delete file", "filename", receipt.Filename, "error", err)
	}

	if err := s.db.DeleteReceipt(id); err != nil {
		return fmt.Errorf("deleting receipt from database: %w", err)
	}
	return nil
}

// GetReceiptFile retrieves the original document for a receipt
func (s *Service) GetReceiptFile(id string) ([]byte, string, error) {
	receipt, err := s.db.GetReceipt(id)
	if err != nil {
		return nil, "", fmt.Errorf("getting receipt: %w", err)
	}

	data, err := s.storage.Get(receipt.Filename)
	if err != nil {
		return nil, "", fmt.Errorf("getting receipt file: %w", err)
	}

	return data, receipt.ContentType, nil
}

const uncategorised = "Sem categoria"

// Summary totals the receipts matching filter per category, together with
// the VAT that can be deducted from receipts flagged as deductible.
func (s *Service) Summary(filter SummaryFilter) (*Summary, error) {
	receipts, err := s.db.ListReceipts()
	if err != nil {
		return nil, fmt.Errorf("listing receipts: %w", err)
	}

	type acc struct {
		count      int
		total, vat decimal.Decimal
	}
	byCategory := make(map[string]*acc)
	var order []string
	var total, vat decimal.Decimal
	count := 0

	for _, r := range receipts {
		if !filter.matches(r) {
			continue
		}
		label := uncategorised
		if r.Categoria != nil {
			label = string(*r.Categoria)
		}
		a, ok := byCategory[label]
		if !ok {
			a = &acc{}
			byCategory[label] = a
			order = append(order, label)
		}
		a.count++
		count++
		if r.TotalValue == nil {
			continue
		}
		t := decimal.NewFromFloat(*r.TotalValue)
		a.total = a.total.Add(t)
		total = total.Add(t)
		if r.IVADedutivel && r.ValorTotalIVA != nil {
			v := decimal.NewFromFloat(extraction.VATIncluded(*r.TotalValue, *r.ValorTotalIVA))
			a.vat = a.vat.Add(v)
			vat = vat.Add(v)
		}
	}

	out := &Summary{
		Count:         count,
		Total:         total.Round(2).InexactFloat64(),
		DeductibleVAT: vat.Round(2).InexactFloat64(),
		ByCategory:    make([]CategoryTotal, 0, len(order)),
	}
	for _, label := range order {
		a := byCategory[label]
		out.ByCategory = append(out.ByCategory, CategoryTotal{
			Categoria:     label,
			Count:         a.count,
			Total:         a.total.Round(2).InexactFloat64(),
			DeductibleVAT: a.vat.Round(2).InexactFloat64(),
		})
	}
	slices.SortStableFunc(out.ByCategory, func(a, b CategoryTotal) int {
		if c := cmp.Compare(b.Total, a.Total); c != 0 {
			return c
		}
		return cmp.Compare(a.Categoria, b.Categoria)
	})
	return out, nil
}

// matches compares the receipt date, or its upload time when no date was
// found, against the filter bounds.
func (f SummaryFilter) matches(r *Receipt) bool {
	when := r.CreatedAt
	if r.DateDetected != nil {
		if d, err := time.Parse(time.DateOnly, *r.DateDetected); err == nil {
			when = d
		}
	}
	day := func(t time.Time) string { return t.Format(time.DateOnly) }
	if !f.From.IsZero() && day(when) < day(f.From) {
		return false
	}
	if !f.To.IsZero() && day(when) > day(f.To) {
		return false
	}
	return true
}

// IsNotFound reports whether err means the receipt or its file is missing
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
