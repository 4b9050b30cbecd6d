package document

import (
	"context"
	"fmt"
	"image"

	"github.com/alde/pagefit/pkg/fit"
	"github.com/alde/pagefit/pkg/raster"
)

const (
	// DefaultPreviewScale renders pages at twice their point size
	DefaultPreviewScale = 2.0

	// DefaultPreviewQuality is the JPEG quality of exported pages
	DefaultPreviewQuality = 0.9

	// DefaultImageQuality is used when embedding images into a new PDF
	DefaultImageQuality = 0.92
)

// ExtractPagePreview rasterizes exactly one page at scale. There is no
// size target and no search.
func ExtractPagePreview(ctx context.Context, doc *Document, index int, scale float64) (image.Image, error) {
	if doc == nil {
		return nil, fit.Invalid("no document")
	}
	return doc.Render(ctx, index, scale)
}

// ExportPages renders the zero-based pages in order and encodes each one
func ExportPages(ctx context.Context, doc *Document, indices []int, scale float64, enc raster.Encoder, quality float64) ([]fit.Buffer, error) {
	if doc == nil {
		return nil, fit.Invalid("no document")
	}
	if len(indices) == 0 {
		return nil, fit.Invalid("no pages selected")
	}
	if enc == nil {
		enc = raster.JPEGEncoder{}
	}

	out := make([]fit.Buffer, 0, len(indices))
	for _, index := range indices {
		img, err := ExtractPagePreview(ctx, doc, index, scale)
		if err != nil {
			return nil, err
		}

		buf, err := enc.Encode(img, quality)
		if err != nil {
			return nil, fmt.Errorf("failed to encode page %d: %w", index+1, err)
		}
		out = append(out, buf)
	}
	return out, nil
}

// FromImages builds a PDF with one page per image, each page sized to the
// image's pixels, in the order given.
func FromImages(asm Assembler, enc raster.Encoder, quality float64, imgs ...image.Image) (fit.Buffer, error) {
	if asm == nil {
		return fit.Buffer{}, fit.Invalid("no document assembler")
	}
	if len(imgs) == 0 {
		return fit.Buffer{}, fit.Invalid("no images to convert")
	}
	if enc == nil {
		enc = raster.JPEGEncoder{}
	}

	pages := make([]PageImage, 0, len(imgs))
	for i, img := range imgs {
		if img == nil {
			return fit.Buffer{}, fit.Invalid("image %d is missing", i+1)
		}

		buf, err := enc.Encode(img, quality)
		if err != nil {
			return fit.Buffer{}, fmt.Errorf("failed to encode image %d: %w", i+1, err)
		}
		bounds := img.Bounds()
		pages = append(pages, PageImage{Data: buf.Data, Width: bounds.Dx(), Height: bounds.Dy()})
	}

	data, err := asm.Assemble(pages)
	if err != nil {
		return fit.Buffer{}, err
	}
	return fit.Buffer{Data: data, Format: fit.FormatPDF, Parameter: quality}, nil
}
