package receipt

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/zombor/recibos/internal/extraction"
	"github.com/zombor/recibos/internal/ocr"
)

// maxUploadSize accommodates high-resolution phone photos
const maxUploadSize = int64(50 << 20)

const maxTextSize = int64(1 << 20)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

func writeError(w http.ResponseWriter, code int, message string) {
	setCORSHeaders(w)
	writeJSON(w, code, map[string]string{"error": message})
}

// statusFor maps service errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidUpdate):
		return http.StatusBadRequest
	case errors.Is(err, extraction.ErrNoText), errors.Is(err, ocr.ErrNoText):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ocr.ErrUnsupported):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, ocr.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusBadRequest
	}
}

// contentTypeFor trusts the part header and falls back to the file extension
func contentTypeFor(header string, filename string) string {
	if ct := ocr.NormalizeContentType(header); header != "" && ct != "application/octet-stream" {
		return ct
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".pdf":
		return "application/pdf"
	case ".heic":
		return "image/heic"
	case ".heif":
		return "image/heif"
	}
	return "application/octet-stream"
}

func (s *Server) handleListReceipts(w http.ResponseWriter, r *http.Request) {
	receipts, err := s.service.ListReceipts()
	if err != nil {
		slog.Error("Error listing receipts", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, receipts)
}

func (s *Server) handleUploadReceipt(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "File is too large. Maximum size is 50MB.")
			return
		}
		writeError(w, http.StatusBadRequest, "Error parsing form")
		return
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		slog.Error("Error getting file from form", "error", err)
		writeError(w, http.StatusBadRequest, "No file was selected. Please choose a file to upload.")
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		slog.Error("Error reading file data", "error", err, "filename", header.Filename)
		writeError(w, http.StatusInternalServerError, "Error reading file. Please try again.")
		return
	}

	contentType := contentTypeFor(header.Header.Get("Content-Type"), header.Filename)
	kind := ResolveKind(r.FormValue("kind"), data, contentType)

	receipt, err := s.service.ProcessReceipt(r.Context(), header.Filename, data, contentType, kind)
	if err != nil {
		slog.Error("Error processing receipt", "filename", header.Filename, "error", err)
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, receipt)
}

type parseRequest struct {
	Text string `json:"text"`
	Kind string `json:"kind"`
}

// handleParseText accepts either a JSON body or raw text/plain OCR output
func (s *Server) handleParseText(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxTextSize))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "Text is too large")
		return
	}

	req := parseRequest{Kind: r.URL.Query().Get("kind")}
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		if err := json.Unmarshal(body, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	} else {
		req.Text = string(body)
	}

	parsed, err := s.service.ParseText(r.Context(), req.Text, extraction.ParseDocumentKind(req.Kind))
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, parsed)
}

func (s *Server) handleGetReceipt(w http.ResponseWriter, r *http.Request) {
	receipt, err := s.service.GetReceipt(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Receipt not found")
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

func (s *Server) handleGetReceiptFile(w http.ResponseWriter, r *http.Request) {
	data, contentType, err := s.service.GetReceiptFile(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "File not found")
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Write(data)
}

func (s *Server) handleUpdateReceipt(w http.ResponseWriter, r *http.Request) {
	var upd ReceiptUpdate
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxTextSize)).Decode(&upd); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	receipt, err := s.service.UpdateReceipt(r.PathValue("id"), upd)
	if err != nil {
		slog.Error("Error updating receipt", "id", r.PathValue("id"), "error", err)
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

func (s *Server) handleReprocessReceipt(w http.ResponseWriter, r *http.Request) {
	receipt, err := s.service.Reprocess(r.PathValue("id"))
	if err != nil {
		slog.Error("Error reprocessing receipt", "id", r.PathValue("id"), "error", err)
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

func (s *Server) handleDeleteReceipt(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteReceipt(r.PathValue("id")); err != nil {
		if IsNotFound(err) {
			writeError(w, http.StatusNotFound, "Receipt not found")
			return
		}
		slog.Error("Error deleting receipt", "error", err)
		writeError(w, http.StatusInternalServerError, "Error deleting receipt")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSummary accepts optional from and to query parameters as YYYY-MM-DD
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	var filter SummaryFilter
	for name, dst := range map[string]*time.Time{"from": &filter.From, "to": &filter.To} {
		v := r.URL.Query().Get(name)
		if v == "" {
			continue
		}
		t, err := time.Parse(time.DateOnly, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid "+name+" date, expected YYYY-MM-DD")
			return
		}
		*dst = t
	}

	summary, err := s.service.Summary(filter)
	if err != nil {
		slog.Error("Error building summary", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, extraction.AvailableCategories())
}

type healthResponse struct {
	Status string            `json:"status"`
	OCR    *ocr.HealthStatus `json:"ocr,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status, checked := s.service.Health(r.Context())
	if !checked {
		writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
		return
	}
	if !status.Online {
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "degraded", OCR: &status})
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", OCR: &status})
}
