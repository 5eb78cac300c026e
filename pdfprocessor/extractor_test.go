package pdfprocessor

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
)

// buildPDF assembles a one-page PDF whose content stream is content,
// computing the xref offsets so the reader accepts it.
func buildPDF(content string) []byte {
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents 4 0 R /Resources << /Font << /F1 5 0 R >> >> >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")

	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func TestIsPDF(t *testing.T) {
	if !IsPDF([]byte("%PDF-1.7 rest")) {
		t.Error("IsPDF(pdf header) = false")
	}
	if IsPDF([]byte("\x89PNG")) {
		t.Error("IsPDF(png) = true")
	}
}

func TestExtractor_Extract(t *testing.T) {
	data := buildPDF("BT /F1 24 Tf 72 720 Td (Hello PDF) Tj ET")

	text, err := NewExtractor(ExtractorConfig{}).Extract(data)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if !strings.Contains(text, "Hello PDF") {
		t.Errorf("Extract() = %q, want it to contain %q", text, "Hello PDF")
	}
}

func TestExtractor_Extract_NoTextLayer(t *testing.T) {
	data := buildPDF("0 0 m 100 100 l S")

	_, err := NewExtractor(ExtractorConfig{}).Extract(data)
	if !errors.Is(err, ErrNoPDFContent) {
		t.Errorf("Extract() error = %v, want ErrNoPDFContent", err)
	}
}

func TestExtractor_Extract_NotPDF(t *testing.T) {
	_, err := NewExtractor(ExtractorConfig{}).Extract([]byte("plain text"))
	if !errors.Is(err, ErrNotPDF) {
		t.Errorf("Extract() error = %v, want ErrNotPDF", err)
	}
}
