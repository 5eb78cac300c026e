package imaging

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"math"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"seotools/fetch"
	"seotools/logging"
)

// Fetcher retrieves the source image.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*fetch.Resource, error)
}

// Result describes a stored output image.
type Result struct {
	URL    string
	Width  int
	Height int
	Bytes  int
}

// KB returns the output size in kilobytes (1024 bytes), rounded to one decimal.
func (r *Result) KB() float64 {
	return math.Round(float64(r.Bytes)/1024*10) / 10
}

// CompressResult adds the human-readable sizes reported by compress-image.
type CompressResult struct {
	Result
	OriginalSize   string
	CompressedSize string
}

// Processor is the local image backend: it fetches the source, transforms
// it in memory and writes the output to a Store.
type Processor struct {
	fetcher Fetcher
	store   *Store
	logger  *logging.Logger
}

// NewProcessor wires a processor. A nil logger disables logging.
func NewProcessor(fetcher Fetcher, store *Store, logger *logging.Logger) *Processor {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Processor{fetcher: fetcher, store: store, logger: logger.Named("imaging")}
}

// Resize scales the image to width x height and stores it in its source
// format (PNG stays PNG, everything else becomes JPEG).
func (p *Processor) Resize(ctx context.Context, url string, width, height int) (*Result, error) {
	if err := ValidateDimensions(width, height); err != nil {
		return nil, err
	}
	img, format, _, err := p.load(ctx, url)
	if err != nil {
		return nil, err
	}
	return p.save(Resize(img, width, height), outputFormat(format), DefaultQuality)
}

// ResizeToKB re-encodes the image as JPEG at or below targetKB kilobytes.
// When the target is unreachable the smallest encoding is stored anyway.
func (p *Processor) ResizeToKB(ctx context.Context, url string, targetKB float64) (*Result, error) {
	maxBytes := int(targetKB * 1024)
	if maxBytes < 1 {
		return nil, fmt.Errorf("%w: target size must be positive", ErrInvalidDimensions)
	}
	img, _, _, err := p.load(ctx, url)
	if err != nil {
		return nil, err
	}

	data, ok, err := FitToSize(img, maxBytes)
	if err != nil {
		return nil, err
	}
	if !ok {
		p.logger.Warn("target size not reachable",
			zap.Float64("target_kb", targetKB),
			zap.Int("final_bytes", len(data)))
	}
	return p.store.saveEncoded(data, FormatJPEG)
}

// Crop cuts the width x height region at (x, y).
func (p *Processor) Crop(ctx context.Context, url string, x, y, width, height int) (*Result, error) {
	img, format, _, err := p.load(ctx, url)
	if err != nil {
		return nil, err
	}
	cropped, err := Crop(img, x, y, width, height)
	if err != nil {
		return nil, err
	}
	return p.save(cropped, outputFormat(format), DefaultQuality)
}

// Convert re-encodes the image in format.
func (p *Processor) Convert(ctx context.Context, url string, format Format) (*Result, error) {
	if format != FormatJPEG && format != FormatPNG {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	img, _, _, err := p.load(ctx, url)
	if err != nil {
		return nil, err
	}
	return p.save(img, format, 90)
}

// Compress re-encodes the image to reduce its size. PNG sources stay PNG at
// maximum deflate compression; others become JPEG at quality (0 = default).
func (p *Processor) Compress(ctx context.Context, url string, quality int) (*CompressResult, error) {
	img, format, original, err := p.load(ctx, url)
	if err != nil {
		return nil, err
	}
	res, err := p.save(img, outputFormat(format), quality)
	if err != nil {
		return nil, err
	}
	return &CompressResult{
		Result:         *res,
		OriginalSize:   humanize.Bytes(uint64(original)),
		CompressedSize: humanize.Bytes(uint64(res.Bytes)),
	}, nil
}

func (p *Processor) load(ctx context.Context, url string) (image.Image, string, int, error) {
	start := time.Now()
	res, err := p.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, "", 0, err
	}
	img, format, err := Decode(res.Data)
	if err != nil {
		return nil, "", 0, err
	}
	p.logger.Debug("source image loaded",
		zap.String("format", format),
		zap.Int("bytes", len(res.Data)),
		zap.Duration("duration", time.Since(start)))
	return img, format, len(res.Data), nil
}

func (p *Processor) save(img image.Image, format Format, quality int) (*Result, error) {
	data, err := Encode(img, format, quality)
	if err != nil {
		return nil, err
	}
	return p.store.saveEncoded(data, format)
}

// saveEncoded stores already encoded data and reads back its dimensions.
func (s *Store) saveEncoded(data []byte, format Format) (*Result, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	url, err := s.Save(data, format.Extension())
	if err != nil {
		return nil, err
	}
	return &Result{URL: url, Width: cfg.Width, Height: cfg.Height, Bytes: len(data)}, nil
}

func outputFormat(source string) Format {
	if source == "png" {
		return FormatPNG
	}
	return FormatJPEG
}
