// Package fetch downloads the remote inputs of the image and OCR tools:
// http(s) URLs and inline data: URLs, both capped at a byte limit.
package fetch

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
)

var (
	// ErrEmptyURL is returned when no URL is given.
	ErrEmptyURL = errors.New("fetch: URL cannot be empty")

	// ErrUnsupportedScheme is returned for anything but http, https and data.
	ErrUnsupportedScheme = errors.New("fetch: unsupported URL scheme")

	// ErrTooLarge is returned when the body exceeds the configured limit.
	ErrTooLarge = errors.New("fetch: resource exceeds size limit")

	// ErrMalformedDataURL is returned for data: URLs without a comma or with bad base64.
	ErrMalformedDataURL = errors.New("fetch: malformed data URL")
)

// StatusError reports a non-200 response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch: %s returned status %d", e.URL, e.StatusCode)
}

// Resource is a downloaded body.
type Resource struct {
	Data        []byte
	ContentType string
	// Name is the last path segment of the URL, empty for data: URLs.
	Name string
}

// Fetcher downloads resources with a shared client and size cap.
type Fetcher struct {
	client       *http.Client
	maxBytes     int64
	allowPrivate bool
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithPrivateNetworks lets the fetcher connect to loopback and private
// addresses. Meant for tests and single-user local installs.
func WithPrivateNetworks(allow bool) Option {
	return func(f *Fetcher) {
		f.allowPrivate = allow
	}
}

// New returns a Fetcher. A nil client means a client with the default
// transport. Unless WithPrivateNetworks(true) is given, the client's
// transport is replaced by a copy that only dials public addresses.
func New(client *http.Client, maxBytes int64, opts ...Option) *Fetcher {
	f := &Fetcher{maxBytes: maxBytes}
	for _, opt := range opts {
		opt(f)
	}

	if client == nil {
		client = &http.Client{}
	}
	if !f.allowPrivate {
		client = publicOnlyClient(client)
	}
	f.client = client
	return f
}

// Fetch returns the body at rawURL.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Resource, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, ErrEmptyURL
	}

	if strings.HasPrefix(strings.ToLower(rawURL), "data:") {
		return f.decodeDataURL(rawURL)
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("fetch: invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("fetch: failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "seotools/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{URL: u.Redacted(), StatusCode: resp.StatusCode}
	}
	if f.maxBytes > 0 && resp.ContentLength > f.maxBytes {
		return nil, ErrTooLarge
	}

	data, err := f.readLimited(resp.Body)
	if err != nil {
		return nil, err
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}

	return &Resource{
		Data:        data,
		ContentType: contentType,
		Name:        path.Base(u.Path),
	}, nil
}

func (f *Fetcher) readLimited(r io.Reader) ([]byte, error) {
	if f.maxBytes <= 0 {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("fetch: failed to read body: %w", err)
		}
		return data, nil
	}

	// Read one byte past the limit to tell "exactly max" from "too large".
	data, err := io.ReadAll(io.LimitReader(r, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("fetch: failed to read body: %w", err)
	}
	if int64(len(data)) > f.maxBytes {
		return nil, ErrTooLarge
	}
	return data, nil
}

// decodeDataURL handles data:[<mediatype>][;base64],<data>.
func (f *Fetcher) decodeDataURL(raw string) (*Resource, error) {
	header, payload, ok := strings.Cut(raw[len("data:"):], ",")
	if !ok {
		return nil, ErrMalformedDataURL
	}

	isBase64 := false
	contentType := ""
	for i, part := range strings.Split(header, ";") {
		switch {
		case i == 0:
			contentType = strings.TrimSpace(part)
		case strings.EqualFold(strings.TrimSpace(part), "base64"):
			isBase64 = true
		}
	}

	var data []byte
	if isBase64 {
		decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
		if err != nil {
			// Some encoders drop the padding.
			decoded, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(strings.TrimSpace(payload), "="))
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrMalformedDataURL, err)
			}
		}
		data = decoded
	} else {
		unescaped, err := url.PathUnescape(payload)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedDataURL, err)
		}
		data = []byte(unescaped)
	}

	if f.maxBytes > 0 && int64(len(data)) > f.maxBytes {
		return nil, ErrTooLarge
	}
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	return &Resource{Data: data, ContentType: contentType}, nil
}
