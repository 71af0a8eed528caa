package extract

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/phuslu/log"
)

// extractPDF reads the native text layer page by page. When some page has
// too little text and OCR is available, the whole document is sent to OCR
// instead.
func (e *Extractor) extractPDF(ctx context.Context, data []byte) (string, error) {
	pages, scanned, err := readPDFPages(data, e.minPageText)
	if err != nil && e.ocr == nil {
		return "", err
	}

	if err != nil || (scanned > 0 && e.ocr != nil) {
		log.Info().Int("pages", len(pages)).Int("scanned", scanned).Msg("pdf needs OCR")
		text, ocrErr := e.ocr.Recognize(ctx, "application/pdf", data)
		if ocrErr != nil {
			if err != nil {
				return "", fmt.Errorf("%v; OCR fallback: %w", err, ocrErr)
			}
			log.Warn().Err(ocrErr).Msg("OCR fallback failed, keeping native text")
			return joinPages(pages), nil
		}
		return text, nil
	}

	if scanned > 0 {
		log.Warn().Int("scanned", scanned).Int("pages", len(pages)).Msg("pdf has pages without a text layer and OCR is disabled")
	}
	return joinPages(pages), nil
}

// readPDFPages returns the text of every page and how many of them fall
// below minText characters. Corrupt files can panic inside the reader;
// that is reported as an error.
func readPDFPages(data []byte, minText int) (pages []string, scanned int, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages, scanned = nil, 0
			err = fmt.Errorf("panic during PDF extraction: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open PDF: %w", err)
	}

	total := r.NumPage()
	for i := 1; i <= total; i++ {
		page := r.Page(i)
		var text string
		if !page.V.IsNull() {
			text, err = page.GetPlainText(nil)
			if err != nil {
				text = ""
			}
		}
		if utf8.RuneCountInString(strings.TrimSpace(text)) < minText {
			scanned++
		}
		pages = append(pages, text)
	}
	if total == 0 {
		return nil, 0, fmt.Errorf("PDF has no pages")
	}
	return pages, scanned, nil
}

func joinPages(pages []string) string {
	parts := make([]string, 0, len(pages))
	for i, text := range pages {
		parts = append(parts, fmt.Sprintf("--- Page %d ---\n%s", i+1, text))
	}
	return strings.Join(parts, "\n\n")
}
