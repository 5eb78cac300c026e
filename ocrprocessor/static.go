package ocrprocessor

import "context"

// SampleText is what StaticOCR returns for every image.
const SampleText = "Sample extracted text from image"

// StaticOCR is used when no Vision key is configured.
type StaticOCR struct{}

// Recognize returns SampleText.
func (StaticOCR) Recognize(ctx context.Context, imageData []byte) (string, error) {
	return SampleText, nil
}
