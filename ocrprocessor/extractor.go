package ocrprocessor

import (
	"context"
	"errors"
	"fmt"

	"seotools/fetch"
	"seotools/pdfprocessor"
)

// Recognizer performs OCR on raw image bytes.
type Recognizer interface {
	Recognize(ctx context.Context, imageData []byte) (string, error)
}

// Fetcher downloads the resource behind a URL.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*fetch.Resource, error)
}

// DocumentExtractor backs the image-to-text tool. PDFs are read from their
// text layer first; images, and PDFs without one, go to the Recognizer.
// An image with no text yields an empty string rather than an error.
type DocumentExtractor struct {
	fetcher Fetcher
	ocr     Recognizer
	pdf     *pdfprocessor.Extractor
}

// NewDocumentExtractor wires the extractor.
func NewDocumentExtractor(fetcher Fetcher, ocr Recognizer) *DocumentExtractor {
	return &DocumentExtractor{
		fetcher: fetcher,
		ocr:     ocr,
		pdf:     pdfprocessor.NewExtractor(pdfprocessor.ExtractorConfig{}),
	}
}

// ExtractText returns the text found in the document at imageURL.
func (d *DocumentExtractor) ExtractText(ctx context.Context, imageURL string) (string, error) {
	res, err := d.fetcher.Fetch(ctx, imageURL)
	if err != nil {
		return "", fmt.Errorf("ocrprocessor: %w", err)
	}

	if pdfprocessor.IsPDF(res.Data) {
		text, err := d.pdf.Extract(res.Data)
		if err == nil {
			return text, nil
		}
		if !errors.Is(err, pdfprocessor.ErrNoPDFContent) {
			return "", fmt.Errorf("ocrprocessor: %w", err)
		}
	}

	text, err := d.ocr.Recognize(ctx, res.Data)
	if errors.Is(err, ErrNoTextFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return text, nil
}
