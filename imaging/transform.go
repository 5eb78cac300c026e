// Package imaging implements the image tools: resize, resize to a byte
// budget, crop, format conversion and compression.
//
// transform.go holds the pure image functions. processor.go composes them
// with fetching and the output store.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	"image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Image processing errors
var (
	ErrEmptyImage        = errors.New("imaging: empty image data")
	ErrInvalidImage      = errors.New("imaging: invalid image data")
	ErrUnsupportedFormat = errors.New("imaging: unsupported output format")
	ErrInvalidDimensions = errors.New("imaging: invalid dimensions")
	ErrImageTooLarge     = errors.New("imaging: image has too many pixels")
)

// Format is an output encoding.
type Format string

const (
	FormatJPEG Format = "jpeg"
	FormatPNG  Format = "png"
)

// Extension returns the file extension including the dot.
func (f Format) Extension() string {
	if f == FormatPNG {
		return ".png"
	}
	return ".jpg"
}

const (
	// MaxDimension bounds requested widths and heights.
	MaxDimension = 10000

	// MaxPixels bounds decoded images.
	MaxPixels = 50_000_000

	// DefaultQuality is the JPEG quality used when none is requested.
	DefaultQuality = 75
)

// Decode decodes PNG, JPEG, GIF, BMP, TIFF and WebP data. It returns the
// image and the registered format name.
func Decode(data []byte) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", ErrEmptyImage
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if cfg.Width*cfg.Height > MaxPixels {
		return nil, "", fmt.Errorf("%w: %dx%d", ErrImageTooLarge, cfg.Width, cfg.Height)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	return img, format, nil
}

// ValidateDimensions checks a requested width and height. Each side is
// capped at MaxDimension and the area at MaxPixels, the same budget Decode
// applies to inputs.
func ValidateDimensions(width, height int) error {
	if width < 1 || height < 1 || width > MaxDimension || height > MaxDimension {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	if width*height > MaxPixels {
		return fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrInvalidDimensions, width, height, MaxPixels)
	}
	return nil
}

// Resize scales img to exactly width x height using Catmull-Rom resampling.
// The aspect ratio is not preserved.
func Resize(img image.Image, width, height int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)
	return dst
}

// Scale resizes img by factor, keeping at least one pixel per side.
func Scale(img image.Image, factor float64) image.Image {
	b := img.Bounds()
	w := max(1, int(float64(b.Dx())*factor))
	h := max(1, int(float64(b.Dy())*factor))
	return Resize(img, w, h)
}

// Crop returns the width x height region whose top-left corner is (x, y),
// clipped to the image bounds. An empty intersection is an error.
func Crop(img image.Image, x, y, width, height int) (image.Image, error) {
	if x < 0 || y < 0 {
		return nil, fmt.Errorf("%w: negative origin (%d,%d)", ErrInvalidDimensions, x, y)
	}
	if err := ValidateDimensions(width, height); err != nil {
		return nil, err
	}

	b := img.Bounds()
	rect := image.Rect(b.Min.X+x, b.Min.Y+y, b.Min.X+x+width, b.Min.Y+y+height).Intersect(b)
	if rect.Empty() {
		return nil, fmt.Errorf("%w: crop region outside %dx%d image", ErrInvalidDimensions, b.Dx(), b.Dy())
	}

	dst := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Draw(dst, dst.Bounds(), img, rect.Min, draw.Src)
	return dst, nil
}

// Flatten composites img onto an opaque white background. JPEG has no
// alpha channel, so transparent regions would otherwise turn black.
func Flatten(img image.Image) image.Image {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Over)
	return dst
}

// Encode encodes img in format. Quality applies to JPEG only and is
// clamped to [1, 100].
func Encode(img image.Image, format Format, quality int) ([]byte, error) {
	var buf bytes.Buffer
	switch format {
	case FormatJPEG:
		if err := jpeg.Encode(&buf, Flatten(img), &jpeg.Options{Quality: ClampQuality(quality)}); err != nil {
			return nil, fmt.Errorf("encode jpeg: %w", err)
		}
	case FormatPNG:
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		if err := enc.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("encode png: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	return buf.Bytes(), nil
}

// ClampQuality maps q into the JPEG quality range; 0 means DefaultQuality.
func ClampQuality(q int) int {
	switch {
	case q == 0:
		return DefaultQuality
	case q < 1:
		return 1
	case q > 100:
		return 100
	}
	return q
}

// Minimum JPEG quality and side length tried by FitToSize.
const (
	minFitQuality = 10
	maxFitQuality = 95
	minFitSide    = 16
	fitScaleStep  = 0.85
)

// FitToSize encodes img as JPEG no larger than maxBytes. It searches for the
// highest quality that fits and downscales when even the lowest quality is
// too large. If the image cannot shrink further the smallest encoding is
// returned with ok=false.
func FitToSize(img image.Image, maxBytes int) (data []byte, ok bool, err error) {
	if maxBytes < 1 {
		return nil, false, fmt.Errorf("%w: target size must be positive", ErrInvalidDimensions)
	}

	current := Flatten(img)
	for {
		data, found, err := bestQualityWithin(current, maxBytes)
		if err != nil {
			return nil, false, err
		}
		if found {
			return data, true, nil
		}

		b := current.Bounds()
		if b.Dx() <= minFitSide || b.Dy() <= minFitSide {
			return data, false, nil
		}
		current = Scale(current, fitScaleStep)
	}
}

// bestQualityWithin binary-searches the JPEG quality. When nothing fits it
// returns the encoding at the minimum quality.
func bestQualityWithin(img image.Image, maxBytes int) ([]byte, bool, error) {
	lo, hi := minFitQuality, maxFitQuality
	var best []byte
	for lo <= hi {
		mid := (lo + hi) / 2
		data, err := Encode(img, FormatJPEG, mid)
		if err != nil {
			return nil, false, err
		}
		if len(data) <= maxBytes {
			best = data
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	if best != nil {
		return best, true, nil
	}
	data, err := Encode(img, FormatJPEG, minFitQuality)
	return data, false, err
}
