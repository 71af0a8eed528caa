// Package extract turns uploaded documents into plain text for the
// extraction model. Each supported format has its own reader; the output
// of every reader is cleaned the same way.
package extract

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/phuslu/log"
)

// ErrUnsupported is returned for file extensions without a reader.
var ErrUnsupported = errors.New("unsupported file type")

var imageTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
}

var textExtensions = map[string]bool{
	".txt":  true,
	".md":   true,
	".csv":  true,
	".json": true,
}

// Extractor dispatches documents to format readers by extension.
type Extractor struct {
	ocr         OCR
	minPageText int
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithOCR enables image recognition and the scanned-PDF fallback.
func WithOCR(ocr OCR) Option {
	return func(e *Extractor) { e.ocr = ocr }
}

// WithMinPageText sets how many characters a PDF page needs to count as
// native text. Default 50.
func WithMinPageText(n int) Option {
	return func(e *Extractor) { e.minPageText = n }
}

// New creates an Extractor.
func New(opts ...Option) *Extractor {
	e := &Extractor{minPageText: 50}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// AllowedExtensions lists the supported extensions in sorted order.
func (e *Extractor) AllowedExtensions() []string {
	exts := []string{".pdf", ".xlsx", ".docx", ".html", ".htm"}
	for ext := range textExtensions {
		exts = append(exts, ext)
	}
	if e.ocr != nil {
		for ext := range imageTypes {
			exts = append(exts, ext)
		}
	}
	sort.Strings(exts)
	return exts
}

// IsAllowed reports whether filename has a supported extension.
func (e *Extractor) IsAllowed(filename string) bool {
	ext := extension(filename)
	for _, allowed := range e.AllowedExtensions() {
		if ext == allowed {
			return true
		}
	}
	return false
}

// Extract returns the cleaned text of one document.
func (e *Extractor) Extract(ctx context.Context, filename string, data []byte) (string, error) {
	ext := extension(filename)
	log.Info().Str("file", filename).Str("ext", ext).Int("bytes", len(data)).Msg("extracting text")

	var raw string
	var err error
	switch {
	case ext == ".pdf":
		raw, err = e.extractPDF(ctx, data)
	case imageTypes[ext] != "":
		if e.ocr == nil {
			return "", fmt.Errorf("%w: %s (OCR disabled)", ErrUnsupported, ext)
		}
		raw, err = e.ocr.Recognize(ctx, imageTypes[ext], data)
	case ext == ".xlsx":
		raw, err = extractXLSX(data)
	case ext == ".docx":
		raw, err = extractDOCX(data)
	case ext == ".html" || ext == ".htm":
		raw, err = extractHTML(data)
	case textExtensions[ext]:
		raw = string(data)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupported, ext)
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", filename, err)
	}

	cleaned := CleanText(raw)
	if cleaned == "" {
		return "", fmt.Errorf("%s: no text extracted", filename)
	}
	log.Info().Str("file", filename).Int("chars", len([]rune(cleaned))).Msg("extraction complete")
	return cleaned, nil
}

func extension(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}
