package document

import (
	"context"
	"fmt"
	"image"
	"math"

	"github.com/alde/pagefit/pkg/fit"
	"github.com/rs/zerolog"
)

// Page is one page of a source document in PDF points
type Page struct {
	Index  int
	Width  float64
	Height float64
}

// PixelSize returns the bitmap size of the page rendered at scale
func (p Page) PixelSize(scale float64) (int, int) {
	return scaledPixels(p.Width, scale), scaledPixels(p.Height, scale)
}

func scaledPixels(points, scale float64) int {
	px := int(math.Floor(points * scale))
	if px < 1 {
		return 1
	}
	return px
}

// Source is an opened document that can rasterize its pages
type Source interface {
	PageCount() int
	PageSize(index int) (width, height float64, err error)
	// RenderPage returns a fresh bitmap of page index at scale, where
	// scale 1 maps one PDF point to one pixel.
	RenderPage(ctx context.Context, index int, scale float64) (image.Image, error)
	Close() error
}

// Engine opens PDF bytes into a Source
type Engine interface {
	Name() string
	Open(data []byte) (Source, error)
	Close() error
}

// Document is an ordered sequence of pages backed by an open Source
type Document struct {
	source Source
	pages  []Page
	size   int64
}

// New wraps an opened source, reading every page's dimensions
func New(source Source) (*Document, error) {
	if source == nil {
		return nil, fit.Invalid("no document source")
	}

	count := source.PageCount()
	pages := make([]Page, 0, count)
	for i := 0; i < count; i++ {
		w, h, err := source.PageSize(i)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read size of page %d: %v", fit.ErrDecode, i+1, err)
		}
		pages = append(pages, Page{Index: i, Width: w, Height: h})
	}

	return &Document{
		source: source,
		pages:  pages,
	}, nil
}

// Decode opens PDF bytes with engine. A document whose trailer is damaged
// is retried once with everything after the last %%EOF removed. Failures
// wrap fit.ErrDecode.
func Decode(ctx context.Context, engine Engine, data []byte) (*Document, error) {
	if engine == nil {
		return nil, fit.Invalid("no PDF engine")
	}
	if err := checkHeader(data); err != nil {
		return nil, err
	}

	logger := zerolog.Ctx(ctx)

	source, err := engine.Open(data)
	if err != nil {
		repaired, ok := RepairTrailer(data)
		if !ok {
			return nil, fmt.Errorf("%w: failed to open PDF document: %v", fit.ErrDecode, err)
		}

		logger.Debug().Err(err).Str("engine", engine.Name()).Msg("retrying with repaired trailer")
		source, err = engine.Open(repaired)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to open PDF document: %v", fit.ErrDecode, err)
		}
	}

	doc, err := New(source)
	if err != nil {
		source.Close()
		return nil, err
	}
	doc.size = int64(len(data))

	logger.Debug().
		Str("engine", engine.Name()).
		Int("pages", doc.PageCount()).
		Int64("bytes", doc.size).
		Msg("opened document")

	return doc, nil
}

// PageCount returns the number of pages
func (d *Document) PageCount() int {
	return len(d.pages)
}

// Pages returns a copy of the page list in document order
func (d *Document) Pages() []Page {
	out := make([]Page, len(d.pages))
	copy(out, d.pages)
	return out
}

// Size returns the byte length of the source bytes, or zero if unknown
func (d *Document) Size() int64 {
	return d.size
}

// Render rasterizes page index at scale. Every call returns a new bitmap.
func (d *Document) Render(ctx context.Context, index int, scale float64) (image.Image, error) {
	if index < 0 || index >= len(d.pages) {
		return nil, fit.Invalid("page index %d out of range (0-%d)", index, len(d.pages)-1)
	}
	if !(scale > 0) || math.IsInf(scale, 0) {
		return nil, fit.Invalid("render scale must be positive, got %g", scale)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, err := d.source.RenderPage(ctx, index, scale)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &fit.PageRenderError{Page: index, Err: err}
	}
	if img == nil || img.Bounds().Empty() {
		return nil, &fit.PageRenderError{Page: index, Err: fmt.Errorf("renderer returned an empty bitmap")}
	}

	return img, nil
}

// Close releases the underlying source
func (d *Document) Close() error {
	if d.source != nil {
		return d.source.Close()
	}
	return nil
}
