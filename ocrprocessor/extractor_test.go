package ocrprocessor

import (
	"context"
	"errors"
	"testing"

	"seotools/fetch"
)

type stubFetcher struct {
	res *fetch.Resource
	err error
}

func (s stubFetcher) Fetch(ctx context.Context, rawURL string) (*fetch.Resource, error) {
	return s.res, s.err
}

type stubOCR struct {
	text  string
	err   error
	calls int
}

func (s *stubOCR) Recognize(ctx context.Context, data []byte) (string, error) {
	s.calls++
	return s.text, s.err
}

func TestDocumentExtractor_Image(t *testing.T) {
	ocr := &stubOCR{text: "recognized"}
	d := NewDocumentExtractor(stubFetcher{res: &fetch.Resource{Data: []byte("\x89PNG...")}}, ocr)

	text, err := d.ExtractText(context.Background(), "https://example.com/a.png")
	if err != nil || text != "recognized" {
		t.Errorf("ExtractText() = %q, %v", text, err)
	}
	if ocr.calls != 1 {
		t.Errorf("OCR called %d times, want 1", ocr.calls)
	}
}

func TestDocumentExtractor_NoTextIsEmpty(t *testing.T) {
	d := NewDocumentExtractor(stubFetcher{res: &fetch.Resource{Data: []byte("img")}}, &stubOCR{err: ErrNoTextFound})

	text, err := d.ExtractText(context.Background(), "https://example.com/blank.png")
	if err != nil || text != "" {
		t.Errorf("ExtractText() = %q, %v; want empty, nil", text, err)
	}
}

func TestDocumentExtractor_Errors(t *testing.T) {
	fetchErr := errors.New("boom")
	d := NewDocumentExtractor(stubFetcher{err: fetchErr}, &stubOCR{})
	if _, err := d.ExtractText(context.Background(), "x"); !errors.Is(err, fetchErr) {
		t.Errorf("fetch failure = %v", err)
	}

	ocrErr := errors.New("vision down")
	d = NewDocumentExtractor(stubFetcher{res: &fetch.Resource{Data: []byte("img")}}, &stubOCR{err: ocrErr})
	if _, err := d.ExtractText(context.Background(), "x"); !errors.Is(err, ocrErr) {
		t.Errorf("ocr failure = %v", err)
	}

	// A truncated PDF is reported rather than sent to OCR.
	ocr := &stubOCR{text: "unused"}
	d = NewDocumentExtractor(stubFetcher{res: &fetch.Resource{Data: []byte("%PDF-1.4 truncated")}}, ocr)
	if _, err := d.ExtractText(context.Background(), "x"); err == nil {
		t.Error("broken PDF error = nil")
	}
	if ocr.calls != 0 {
		t.Errorf("OCR called for broken PDF")
	}
}

func TestStaticOCR(t *testing.T) {
	text, err := StaticOCR{}.Recognize(context.Background(), nil)
	if err != nil || text != SampleText {
		t.Errorf("Recognize() = %q, %v", text, err)
	}
}
