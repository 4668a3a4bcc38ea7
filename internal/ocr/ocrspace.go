package ocr

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultOCRSpaceURL is the public OCR.space parse endpoint
	DefaultOCRSpaceURL = "https://api.ocr.space/parse/image"
	// DefaultTimeout bounds one OCR request
	DefaultTimeout = 30 * time.Second

	healthTimeout = 5 * time.Second
	// free tier rejects uploads above 1 MB
	defaultMaxPDFBytes = 1 << 20
)

// OCRSpace implements Engine using the OCR.space HTTP API. Engine 2 is tried
// first and engine 1 is the fallback.
type OCRSpace struct {
	apiKey      string
	endpoint    string
	language    string
	engines     []string
	maxPDFBytes int
	client      *http.Client
	limiter     *rate.Limiter
}

// OCRSpaceOption configures an OCRSpace client
type OCRSpaceOption func(*OCRSpace)

// WithEndpoint overrides the API URL
func WithEndpoint(endpoint string) OCRSpaceOption {
	return func(o *OCRSpace) {
		if endpoint != "" {
			o.endpoint = endpoint
		}
	}
}

// WithLanguage sets the OCR language code
func WithLanguage(lang string) OCRSpaceOption {
	return func(o *OCRSpace) {
		if lang != "" {
			o.language = lang
		}
	}
}

// WithRateLimit limits requests per minute. Zero disables the limiter.
func WithRateLimit(rpm, burst int) OCRSpaceOption {
	return func(o *OCRSpace) {
		if rpm <= 0 {
			o.limiter = nil
			return
		}
		if burst <= 0 {
			burst = 1
		}
		o.limiter = rate.NewLimiter(rate.Limit(float64(rpm)/60.0), burst)
	}
}

// WithHTTPClient replaces the HTTP client
func WithHTTPClient(c *http.Client) OCRSpaceOption {
	return func(o *OCRSpace) { o.client = c }
}

// WithMaxPDFBytes sets the size above which PDFs are sent as a first-page image
func WithMaxPDFBytes(n int) OCRSpaceOption {
	return func(o *OCRSpace) { o.maxPDFBytes = n }
}

// NewOCRSpace creates a new OCR.space client
func NewOCRSpace(apiKey string, opts ...OCRSpaceOption) (*OCRSpace, error) {
	if apiKey == "" {
		return nil, errors.New("OCR.space API key is required")
	}
	o := &OCRSpace{
		apiKey:      apiKey,
		endpoint:    DefaultOCRSpaceURL,
		language:    "por",
		engines:     []string{"2", "1"},
		maxPDFBytes: defaultMaxPDFBytes,
		client:      &http.Client{Timeout: DefaultTimeout},
		// the free tier allows roughly 180 requests per hour
		limiter: rate.NewLimiter(rate.Limit(3.0/60.0), 2),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// ocrSpaceResponse is the subset of the OCR.space reply we read
type ocrSpaceResponse struct {
	ParsedResults []struct {
		ParsedText   string `json:"ParsedText"`
		ErrorMessage string `json:"ErrorMessage"`
	} `json:"ParsedResults"`
	IsErroredOnProcessing bool            `json:"IsErroredOnProcessing"`
	ErrorMessage          json.RawMessage `json:"ErrorMessage"`
}

// errorMessage flattens ErrorMessage, which the API sends as a string or a list
func (r *ocrSpaceResponse) errorMessage() string {
	if len(r.ErrorMessage) == 0 {
		return ""
	}
	var list []string
	if err := json.Unmarshal(r.ErrorMessage, &list); err == nil {
		return strings.Join(list, "; ")
	}
	var s string
	if err := json.Unmarshal(r.ErrorMessage, &s); err == nil {
		return s
	}
	return string(r.ErrorMessage)
}

// Recognize implements Engine
func (o *OCRSpace) Recognize(ctx context.Context, data []byte, contentType string) (*Result, error) {
	if len(data) == 0 {
		return nil, ErrNoText
	}
	up, err := prepareUpload(data, contentType, o.maxPDFBytes)
	if err != nil {
		return nil, err
	}
	if up.converted {
		slog.Info("Converted document for OCR", "from", NormalizeContentType(contentType), "to", up.mimeType, "bytes", len(up.data))
	}

	var lastErr error
	for _, engine := range o.engines {
		res, err := o.recognizeWith(ctx, up, engine)
		if err == nil {
			return res, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		slog.Warn("OCR.space engine failed", "engine", engine, "error", err)
		lastErr = err
	}
	if errors.Is(lastErr, ErrNoText) {
		return nil, fmt.Errorf("all OCR.space engines failed: %w", lastErr)
	}
	return nil, fmt.Errorf("all OCR.space engines failed: %w: %w", ErrUpstream, lastErr)
}

func (o *OCRSpace) recognizeWith(ctx context.Context, up *upload, engine string) (*Result, error) {
	if o.limiter != nil {
		if err := o.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("waiting for rate limiter: %w", err)
		}
	}

	form := url.Values{}
	form.Set("base64Image", fmt.Sprintf("data:%s;base64,%s", up.mimeType, base64.StdEncoding.EncodeToString(up.data)))
	form.Set("apikey", o.apiKey)
	form.Set("language", o.language)
	form.Set("OCREngine", engine)
	form.Set("scale", "true")
	form.Set("isTable", "true")
	form.Set("detectOrientation", "true")
	form.Set("filetype", up.fileType)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling OCR.space API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("OCR.space API error (status %d): %s", resp.StatusCode, string(body))
	}

	var parsed ocrSpaceResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if parsed.IsErroredOnProcessing {
		return nil, fmt.Errorf("OCR.space processing error: %s", parsed.errorMessage())
	}

	var pages []string
	for _, pr := range parsed.ParsedResults {
		if strings.TrimSpace(pr.ParsedText) != "" {
			pages = append(pages, pr.ParsedText)
		}
	}
	if len(pages) == 0 {
		return nil, ErrNoText
	}

	return &Result{
		Text:   strings.Join(pages, "\n"),
		Engine: "ocrspace-" + engine,
		Pages:  len(parsed.ParsedResults),
	}, nil
}

// HealthStatus is the outcome of a reachability probe
type HealthStatus struct {
	Online       bool          `json:"isOnline"`
	Status       int           `json:"status,omitempty"`
	ResponseTime time.Duration `json:"responseTime"`
	Error        string        `json:"error,omitempty"`
}

// Health checks that the OCR.space endpoint answers within five seconds.
// Any HTTP answer counts as online.
func (o *OCRSpace) Health(ctx context.Context) HealthStatus {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.endpoint, nil)
	if err != nil {
		return HealthStatus{Error: err.Error()}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := o.client.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		msg := err.Error()
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			msg = "timeout: OCR service did not answer in 5 seconds"
		}
		return HealthStatus{ResponseTime: elapsed, Error: msg}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return HealthStatus{Online: true, Status: resp.StatusCode, ResponseTime: elapsed}
}
