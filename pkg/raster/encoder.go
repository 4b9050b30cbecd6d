package raster

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"math"
	"strings"

	"github.com/alde/pagefit/pkg/fit"
	"github.com/chai2010/webp"
)

// Encoder lossy-encodes a bitmap at a quality in (0, 1]
type Encoder interface {
	Encode(img image.Image, quality float64) (fit.Buffer, error)
	Format() fit.Format
}

// JPEGEncoder encodes baseline JPEG
type JPEGEncoder struct{}

// Format returns fit.FormatJPEG
func (JPEGEncoder) Format() fit.Format {
	return fit.FormatJPEG
}

// Encode encodes img as JPEG at quality
func (JPEGEncoder) Encode(img image.Image, quality float64) (fit.Buffer, error) {
	if img == nil {
		return fit.Buffer{}, fit.Invalid("no bitmap to encode")
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality(quality)}); err != nil {
		return fit.Buffer{}, fmt.Errorf("failed to encode JPEG: %w", err)
	}

	return fit.Buffer{Data: buf.Bytes(), Format: fit.FormatJPEG, Parameter: quality}, nil
}

// WebPEncoder encodes lossy WebP
type WebPEncoder struct{}

// Format returns fit.FormatWebP
func (WebPEncoder) Format() fit.Format {
	return fit.FormatWebP
}

// Encode encodes img as lossy WebP at quality
func (WebPEncoder) Encode(img image.Image, quality float64) (fit.Buffer, error) {
	if img == nil {
		return fit.Buffer{}, fit.Invalid("no bitmap to encode")
	}

	var buf bytes.Buffer
	options := &webp.Options{
		Lossless: false,
		Quality:  float32(clampQuality(quality) * 100),
	}
	if err := webp.Encode(&buf, img, options); err != nil {
		return fit.Buffer{}, fmt.Errorf("failed to encode WebP: %w", err)
	}

	return fit.Buffer{Data: buf.Bytes(), Format: fit.FormatWebP, Parameter: quality}, nil
}

// EncoderFor returns the encoder for a format name ("jpeg", "jpg", "webp")
func EncoderFor(name string) (Encoder, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "jpeg", "jpg":
		return JPEGEncoder{}, nil
	case "webp":
		return WebPEncoder{}, nil
	default:
		return nil, fit.Invalid("unsupported output format: %s (valid options: jpeg, webp)", name)
	}
}

func clampQuality(q float64) float64 {
	switch {
	case math.IsNaN(q) || q <= 0:
		return 0.01
	case q > 1:
		return 1
	default:
		return q
	}
}

// jpegQuality maps (0, 1] onto libjpeg's 1..100 scale
func jpegQuality(q float64) int {
	v := int(math.Round(clampQuality(q) * 100))
	if v < 1 {
		return 1
	}
	return v
}
