package api

import (
	"context"

	"seotools/imaging"
)

type extractedTextData struct {
	Text string `json:"text"`
}

// requireURL returns the "imageUrl" field, or a ValidationError with
// message when it is missing.
func requireURL(p Payload, message string) (string, error) {
	if !p.Present("imageUrl") {
		return "", NewValidationError(message)
	}
	return p.String("imageUrl")
}

func (s *Server) imageToText(ctx context.Context, p Payload) (any, error) {
	url, err := requireURL(p, "Image URL is required")
	if err != nil {
		return nil, err
	}
	text, err := s.providers.Text.ExtractText(ctx, url)
	if err != nil {
		return nil, err
	}
	return extractedTextData{Text: text}, nil
}

type resizedData struct {
	ResizedImageURL string `json:"resizedImageUrl"`
	Width           int    `json:"width"`
	Height          int    `json:"height"`
}

func (s *Server) imageResizer(ctx context.Context, p Payload) (any, error) {
	const missing = "Image URL, width, and height are required"
	if !p.PresentAll("imageUrl", "width", "height") {
		return nil, NewValidationError(missing)
	}
	url, err := requireURL(p, missing)
	if err != nil {
		return nil, err
	}
	width, _, err := p.Int("width")
	if err != nil {
		return nil, err
	}
	height, _, err := p.Int("height")
	if err != nil {
		return nil, err
	}

	res, err := s.providers.Images.Resize(ctx, url, width, height)
	if err != nil {
		return nil, err
	}
	return resizedData{ResizedImageURL: res.URL, Width: res.Width, Height: res.Height}, nil
}

type resizedKBData struct {
	ResizedImageURL string  `json:"resizedImageUrl"`
	FinalSize       float64 `json:"finalSize"`
}

func (s *Server) photoResizerKB(ctx context.Context, p Payload) (any, error) {
	const missing = "Image URL and target size are required"
	if !p.PresentAll("imageUrl", "targetSize") {
		return nil, NewValidationError(missing)
	}
	url, err := requireURL(p, missing)
	if err != nil {
		return nil, err
	}
	target, _, err := p.Float("targetSize")
	if err != nil {
		return nil, err
	}
	if target <= 0 {
		return nil, NewValidationError("targetSize must be positive")
	}

	res, err := s.providers.Images.ResizeToKB(ctx, url, target)
	if err != nil {
		return nil, err
	}
	return resizedKBData{ResizedImageURL: res.URL, FinalSize: res.KB()}, nil
}

type croppedData struct {
	CroppedImageURL string `json:"croppedImageUrl"`
}

func (s *Server) cropImage(ctx context.Context, p Payload) (any, error) {
	const missing = "Image URL, crop dimensions are required"
	if !p.PresentAll("imageUrl", "width", "height") {
		return nil, NewValidationError(missing)
	}
	url, err := requireURL(p, missing)
	if err != nil {
		return nil, err
	}

	var dims [4]int
	for i, key := range []string{"x", "y", "width", "height"} {
		if dims[i], _, err = p.Int(key); err != nil {
			return nil, err
		}
	}

	res, err := s.providers.Images.Crop(ctx, url, dims[0], dims[1], dims[2], dims[3])
	if err != nil {
		return nil, err
	}
	return croppedData{CroppedImageURL: res.URL}, nil
}

type convertedImageData struct {
	ConvertedImageURL string `json:"convertedImageUrl"`
}

func (s *Server) convertToJPG(ctx context.Context, p Payload) (any, error) {
	url, err := requireURL(p, "Image URL is required")
	if err != nil {
		return nil, err
	}
	res, err := s.providers.Images.Convert(ctx, url, imaging.FormatJPEG)
	if err != nil {
		return nil, err
	}
	return convertedImageData{ConvertedImageURL: res.URL}, nil
}

type jpgImageData struct {
	JPGImageURL string `json:"jpgImageUrl"`
}

func (s *Server) pngToJPG(ctx context.Context, p Payload) (any, error) {
	url, err := requireURL(p, "PNG image URL is required")
	if err != nil {
		return nil, err
	}
	res, err := s.providers.Images.Convert(ctx, url, imaging.FormatJPEG)
	if err != nil {
		return nil, err
	}
	return jpgImageData{JPGImageURL: res.URL}, nil
}

type pngImageData struct {
	PNGImageURL string `json:"pngImageUrl"`
}

func (s *Server) jpgToPNG(ctx context.Context, p Payload) (any, error) {
	url, err := requireURL(p, "JPG image URL is required")
	if err != nil {
		return nil, err
	}
	res, err := s.providers.Images.Convert(ctx, url, imaging.FormatPNG)
	if err != nil {
		return nil, err
	}
	return pngImageData{PNGImageURL: res.URL}, nil
}

type compressedData struct {
	CompressedImageURL string `json:"compressedImageUrl"`
	OriginalSize       string `json:"originalSize"`
	CompressedSize     string `json:"compressedSize"`
}

func (s *Server) compressImage(ctx context.Context, p Payload) (any, error) {
	url, err := requireURL(p, "Image URL is required")
	if err != nil {
		return nil, err
	}
	quality, _, err := p.Int("quality")
	if err != nil {
		return nil, err
	}
	res, err := s.providers.Images.Compress(ctx, url, quality)
	if err != nil {
		return nil, err
	}
	return compressedData{
		CompressedImageURL: res.URL,
		OriginalSize:       res.OriginalSize,
		CompressedSize:     res.CompressedSize,
	}, nil
}

// Domain tools

func requireDomain(p Payload) (string, error) {
	if !p.Present("domain") {
		return "", NewValidationError("Domain name is required")
	}
	return p.String("domain")
}

func (s *Server) domainAge(ctx context.Context, p Payload) (any, error) {
	domain, err := requireDomain(p)
	if err != nil {
		return nil, err
	}
	return s.providers.Domains.Age(ctx, domain)
}

func (s *Server) domainAuthority(ctx context.Context, p Payload) (any, error) {
	domain, err := requireDomain(p)
	if err != nil {
		return nil, err
	}
	return s.providers.Domains.Authority(ctx, domain)
}

func (s *Server) domainIP(ctx context.Context, p Payload) (any, error) {
	domain, err := requireDomain(p)
	if err != nil {
		return nil, err
	}
	return s.providers.Domains.IP(ctx, domain)
}

func (s *Server) domainHosting(ctx context.Context, p Payload) (any, error) {
	domain, err := requireDomain(p)
	if err != nil {
		return nil, err
	}
	return s.providers.Domains.Hosting(ctx, domain)
}

func (s *Server) dnsRecords(ctx context.Context, p Payload) (any, error) {
	domain, err := requireDomain(p)
	if err != nil {
		return nil, err
	}
	return s.providers.Domains.Records(ctx, domain)
}
