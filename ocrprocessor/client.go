// Package ocrprocessor turns images and documents into text: a Google
// Vision client, a fixed-text stand-in, and the extractor that routes PDFs
// to their text layer and everything else to OCR.
package ocrprocessor

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"seotools/logging"

	"go.uber.org/zap"
)

// VisionClientConfig configures the Vision API request.
type VisionClientConfig struct {
	// Endpoint is the images:annotate URL
	Endpoint string
	// FeatureType is DOCUMENT_TEXT_DETECTION (dense text) or TEXT_DETECTION
	FeatureType string
}

// DefaultVisionClientConfig returns the public endpoint with dense-text detection.
func DefaultVisionClientConfig() VisionClientConfig {
	return VisionClientConfig{
		Endpoint:    "https://vision.googleapis.com/v1/images:annotate",
		FeatureType: "DOCUMENT_TEXT_DETECTION",
	}
}

var (
	// ErrNoTextFound is returned when Vision finds no text in the image.
	ErrNoTextFound = errors.New("ocrprocessor: no text found in image")

	// ErrEmptyResponse is returned when Vision answers with no responses.
	ErrEmptyResponse = errors.New("ocrprocessor: empty response from Vision API")

	// ErrNilClient is returned by NewVisionClient for a nil HTTP client.
	ErrNilClient = errors.New("ocrprocessor: HTTP client cannot be nil")
)

type visionRequest struct {
	Requests []visionRequestItem `json:"requests"`
}

type visionRequestItem struct {
	Image    visionImage     `json:"image"`
	Features []visionFeature `json:"features"`
}

type visionImage struct {
	Content string `json:"content"`
}

type visionFeature struct {
	Type       string `json:"type"`
	MaxResults int    `json:"maxResults"`
}

type visionResponse struct {
	Responses []visionResponseItem `json:"responses"`
}

type visionResponseItem struct {
	FullTextAnnotation struct {
		Text string `json:"text"`
	} `json:"fullTextAnnotation"`
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// VisionClient calls the Google Vision API.
type VisionClient struct {
	apiKey     string
	httpClient *http.Client
	logger     *logging.Logger
	config     VisionClientConfig
}

// NewVisionClient validates the key locally and returns a client. A nil
// logger disables logging.
func NewVisionClient(apiKey string, httpClient *http.Client, logger *logging.Logger, config VisionClientConfig) (*VisionClient, error) {
	if httpClient == nil {
		return nil, ErrNilClient
	}
	if err := ValidateGoogleAPIKey(apiKey); err != nil {
		return nil, fmt.Errorf("ocrprocessor: %w", err)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if config.Endpoint == "" {
		config.Endpoint = DefaultVisionClientConfig().Endpoint
	}
	if config.FeatureType == "" {
		config.FeatureType = DefaultVisionClientConfig().FeatureType
	}

	return &VisionClient{
		apiKey:     apiKey,
		httpClient: httpClient,
		logger:     logger.Named("vision"),
		config:     config,
	}, nil
}

// Recognize sends imageData to Vision and returns the full text annotation.
func (c *VisionClient) Recognize(ctx context.Context, imageData []byte) (string, error) {
	if len(imageData) == 0 {
		return "", fmt.Errorf("ocrprocessor: image data is empty")
	}

	start := time.Now()
	log := c.logger.With(zap.Int("image_size_bytes", len(imageData)))

	body, err := json.Marshal(&visionRequest{
		Requests: []visionRequestItem{{
			Image:    visionImage{Content: base64.StdEncoding.EncodeToString(imageData)},
			Features: []visionFeature{{Type: c.config.FeatureType, MaxResults: 1}},
		}},
	})
	if err != nil {
		return "", fmt.Errorf("ocrprocessor: failed to marshal request: %w", err)
	}

	endpoint := c.config.Endpoint + "?key=" + url.QueryEscape(c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("ocrprocessor: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ocrprocessor: failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("ocrprocessor: failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ocrprocessor: Vision API error: status %d: %s", resp.StatusCode, string(respBody))
	}

	var visionResp visionResponse
	if err := json.Unmarshal(respBody, &visionResp); err != nil {
		return "", fmt.Errorf("ocrprocessor: failed to decode response: %w", err)
	}

	text, err := textFromResponse(&visionResp)
	if err != nil {
		return "", err
	}

	log.Debug("OCR completed",
		zap.Int("text_length", len(text)),
		zap.Duration("duration", time.Since(start)))
	return text, nil
}

func textFromResponse(resp *visionResponse) (string, error) {
	if len(resp.Responses) == 0 {
		return "", ErrEmptyResponse
	}

	item := resp.Responses[0]
	if item.Error.Message != "" {
		return "", fmt.Errorf("ocrprocessor: Vision API error: %s (code: %d)", item.Error.Message, item.Error.Code)
	}
	if item.FullTextAnnotation.Text == "" {
		return "", ErrNoTextFound
	}
	return item.FullTextAnnotation.Text, nil
}

// MaskedAPIKey returns the key in a form safe for logs.
func (c *VisionClient) MaskedAPIKey() string {
	return MaskAPIKey(c.apiKey)
}
