// Package pdfprocessor reads the text layer of PDF documents.
package pdfprocessor

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

var (
	// ErrNoPDFContent is returned when no page has a text layer.
	ErrNoPDFContent = errors.New("no text content found in PDF")

	// ErrNotPDF is returned when the data does not start with a PDF header.
	ErrNotPDF = errors.New("data is not a PDF document")
)

// pdfMagic is the signature every PDF file starts with.
var pdfMagic = []byte("%PDF-")

// IsPDF reports whether data looks like a PDF document.
func IsPDF(data []byte) bool {
	return bytes.HasPrefix(data, pdfMagic)
}

// ExtractorConfig controls text extraction.
type ExtractorConfig struct {
	// PageSeparator is placed between pages (default "\n\n")
	PageSeparator string
	// MaxPages limits how many pages are read (0 = all)
	MaxPages int
}

// Extractor pulls plain text out of in-memory PDF documents.
type Extractor struct {
	config ExtractorConfig
}

// NewExtractor creates an Extractor, defaulting the page separator.
func NewExtractor(config ExtractorConfig) *Extractor {
	if config.PageSeparator == "" {
		config.PageSeparator = "\n\n"
	}
	return &Extractor{config: config}
}

// Extract returns the text of every page with a text layer, pages joined
// by the separator. Pages that fail to decode are skipped; if nothing is
// left ErrNoPDFContent is returned.
func (e *Extractor) Extract(data []byte) (string, error) {
	if !IsPDF(data) {
		return "", ErrNotPDF
	}

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}

	pages := r.NumPage()
	if e.config.MaxPages > 0 && e.config.MaxPages < pages {
		pages = e.config.MaxPages
	}

	var sb strings.Builder
	for i := 1; i <= pages; i++ {
		text, err := pageText(r, i)
		if err != nil || text == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString(e.config.PageSeparator)
		}
		sb.WriteString(text)
	}

	if sb.Len() == 0 {
		return "", ErrNoPDFContent
	}
	return sb.String(), nil
}

func pageText(r *pdf.Reader, index int) (string, error) {
	p := r.Page(index)
	if p.V.IsNull() {
		return "", nil
	}

	text, err := p.GetPlainText(nil)
	if err != nil {
		return "", fmt.Errorf("page %d: %w", index, err)
	}
	return strings.TrimSpace(text), nil
}
