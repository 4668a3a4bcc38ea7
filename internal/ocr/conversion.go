package ocr

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif" // Register GIF decoder
	"image/jpeg"
	_ "image/png" // Register PNG decoder
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/gen2brain/heic"
)

const jpegQuality = 85

// upload is a document ready to send to a remote OCR service
type upload struct {
	data      []byte
	mimeType  string
	fileType  string
	converted bool
}

// pdfFirstPage renders the first page of a PDF as a JPEG
func pdfFirstPage(pdfData []byte) ([]byte, error) {
	doc, err := fitz.NewFromMemory(pdfData)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer doc.Close()

	// Invoices put the total on the first page
	img, err := doc.Image(0)
	if err != nil {
		return nil, fmt.Errorf("rendering PDF page: %w", err)
	}
	return encodeJPEG(img)
}

// imageToJPEG decodes any supported image, including HEIC, and re-encodes it as JPEG
func imageToJPEG(imageData []byte, mimeType string) ([]byte, error) {
	var img image.Image
	var err error

	// Go's image package has no HEIC decoder
	if isHEICFormat(imageData) || isHEICMimeType(mimeType) {
		img, err = heic.Decode(bytes.NewReader(imageData))
		if err != nil {
			return nil, fmt.Errorf("decoding HEIC/HEIF image: %w", err)
		}
	} else {
		img, _, err = image.Decode(bytes.NewReader(imageData))
		if err != nil {
			if strings.Contains(err.Error(), "unknown format") {
				return nil, fmt.Errorf("unsupported image format (supported: JPEG, PNG, GIF, HEIC, HEIF, PDF): %w", err)
			}
			return nil, fmt.Errorf("decoding image: %w", err)
		}
	}
	return encodeJPEG(img)
}

func encodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encoding JPEG: %w", err)
	}
	return buf.Bytes(), nil
}

// isHEICFormat checks the ftyp box brand of the file
func isHEICFormat(data []byte) bool {
	if len(data) < 12 || string(data[4:8]) != "ftyp" {
		return false
	}
	switch string(data[8:12]) {
	case "heic", "heix", "heif", "mif1", "msf1":
		return true
	}
	return false
}

func isHEICMimeType(mimeType string) bool {
	return strings.Contains(mimeType, "heic") || strings.Contains(mimeType, "heif")
}

// prepareUpload converts the document into something the OCR service
// accepts. PDFs larger than maxPDFBytes are rasterised to their first page.
func prepareUpload(data []byte, contentType string, maxPDFBytes int) (*upload, error) {
	mimeType := NormalizeContentType(contentType)

	switch {
	case IsPDF(data, mimeType):
		if maxPDFBytes > 0 && len(data) > maxPDFBytes {
			jpg, err := pdfFirstPage(data)
			if err != nil {
				return nil, fmt.Errorf("converting PDF to image: %w", err)
			}
			return &upload{data: jpg, mimeType: "image/jpeg", fileType: "JPG", converted: true}, nil
		}
		return &upload{data: data, mimeType: "application/pdf", fileType: "PDF"}, nil
	case mimeType == "image/png" && !isHEICFormat(data):
		return &upload{data: data, mimeType: mimeType, fileType: "PNG"}, nil
	case (mimeType == "image/jpeg" || mimeType == "image/jpg") && !isHEICFormat(data):
		return &upload{data: data, mimeType: "image/jpeg", fileType: "JPG"}, nil
	}

	jpg, err := imageToJPEG(data, mimeType)
	if err != nil {
		return nil, err
	}
	return &upload{data: jpg, mimeType: "image/jpeg", fileType: "JPG", converted: true}, nil
}
