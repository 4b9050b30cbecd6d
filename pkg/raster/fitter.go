package raster

import (
	"context"
	"image"

	"github.com/alde/pagefit/pkg/fit"
	"github.com/rs/zerolog"
)

// DefaultSearch is the quality sweep used when none is configured
var DefaultSearch = fit.Config{
	Initial:     0.95,
	Step:        0.05,
	Min:         0.05,
	MaxAttempts: 18,
}

// Fitter re-encodes a bitmap at decreasing quality until it fits a target
type Fitter struct {
	encoder Encoder
	search  fit.Config
}

// NewFitter creates a fitter. A nil encoder means JPEG and a zero search
// config means DefaultSearch.
func NewFitter(encoder Encoder, search fit.Config) *Fitter {
	if encoder == nil {
		encoder = JPEGEncoder{}
	}
	if search == (fit.Config{}) {
		search = DefaultSearch
	}
	return &Fitter{
		encoder: encoder,
		search:  search,
	}
}

// Format returns the format of the buffers the fitter produces
func (f *Fitter) Format() fit.Format {
	return f.encoder.Format()
}

// FitToSize encodes img at the highest swept quality whose output fits
// target. The whole bitmap is re-encoded on every attempt.
func (f *Fitter) FitToSize(ctx context.Context, img image.Image, target fit.Target) (fit.Result, error) {
	if img == nil {
		return fit.Result{}, fit.Invalid("no bitmap to fit")
	}
	bounds := img.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return fit.Result{}, fit.Invalid("bitmap has non-positive size %dx%d", bounds.Dx(), bounds.Dy())
	}

	zerolog.Ctx(ctx).Debug().
		Str("format", string(f.encoder.Format())).
		Int("width", bounds.Dx()).
		Int("height", bounds.Dy()).
		Stringer("target", target).
		Msg("fitting bitmap")

	return fit.Search(ctx, f.search, target, func(ctx context.Context, quality float64) (fit.Buffer, error) {
		return f.encoder.Encode(img, quality)
	})
}
