package document

import (
	"context"
	"fmt"

	"github.com/alde/pagefit/pkg/fit"
	"github.com/alde/pagefit/pkg/raster"
	"github.com/rs/zerolog"
)

// DefaultSearch is the scale sweep used when none is configured. The
// attempt budget is derived so the sweep reaches the 0.3 floor.
var DefaultSearch = fit.Config{
	Initial: 0.8,
	Step:    0.05,
	Min:     0.3,
}

// DefaultQuality is the fixed JPEG quality of re-rendered pages
const DefaultQuality = 0.85

// FitterOptions configures a Fitter
type FitterOptions struct {
	Encoder  raster.Encoder
	Quality  float64
	Search   fit.Config
	Progress func(done, total int)
}

// Fitter shrinks a document by re-rendering every page at decreasing scale
// and re-assembling one image per page. Quality is held fixed; only the
// scale is swept.
type Fitter struct {
	assembler Assembler
	encoder   raster.Encoder
	quality   float64
	search    fit.Config
	progress  func(done, total int)
}

// NewFitter creates a document fitter. Zero options fall back to JPEG,
// DefaultQuality and DefaultSearch.
func NewFitter(assembler Assembler, opts FitterOptions) *Fitter {
	if opts.Encoder == nil {
		opts.Encoder = raster.JPEGEncoder{}
	}
	if opts.Quality <= 0 {
		opts.Quality = DefaultQuality
	}
	if opts.Search == (fit.Config{}) {
		opts.Search = DefaultSearch
	}

	return &Fitter{
		assembler: assembler,
		encoder:   opts.Encoder,
		quality:   opts.Quality,
		search:    opts.Search,
		progress:  opts.Progress,
	}
}

// FitToSize searches the render scale for the largest document that fits
// target. A page that fails to render aborts the whole fit.
func (f *Fitter) FitToSize(ctx context.Context, doc *Document, target fit.Target) (fit.Result, error) {
	if doc == nil || doc.PageCount() == 0 {
		return fit.Result{}, fit.Invalid("document has no pages")
	}
	if f.assembler == nil {
		return fit.Result{}, fit.Invalid("no document assembler")
	}

	zerolog.Ctx(ctx).Debug().
		Int("pages", doc.PageCount()).
		Float64("quality", f.quality).
		Stringer("target", target).
		Msg("fitting document")

	return fit.Search(ctx, f.search, target, func(ctx context.Context, scale float64) (fit.Buffer, error) {
		data, err := f.renderAt(ctx, doc, scale)
		if err != nil {
			return fit.Buffer{}, err
		}
		return fit.Buffer{Data: data, Format: fit.FormatPDF, Parameter: scale}, nil
	})
}

// renderAt rasterizes, encodes and re-assembles every page at scale. Only
// one page bitmap is alive at a time.
func (f *Fitter) renderAt(ctx context.Context, doc *Document, scale float64) ([]byte, error) {
	total := doc.PageCount()
	pages := make([]PageImage, 0, total)

	for i := 0; i < total; i++ {
		img, err := doc.Render(ctx, i, scale)
		if err != nil {
			return nil, err
		}

		bounds := img.Bounds()
		buf, err := f.encoder.Encode(img, f.quality)
		if err != nil {
			return nil, fmt.Errorf("failed to encode page %d: %w", i+1, err)
		}

		pages = append(pages, PageImage{
			Data:   buf.Data,
			Width:  bounds.Dx(),
			Height: bounds.Dy(),
		})

		if f.progress != nil {
			f.progress(i+1, total)
		}
	}

	data, err := f.assembler.Assemble(pages)
	if err != nil {
		return nil, fmt.Errorf("failed to assemble document at scale %.2f: %w", scale, err)
	}
	return data, nil
}
