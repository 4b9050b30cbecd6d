package document

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/alde/pagefit/pkg/fit"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// PageImage is an encoded page bitmap with its pixel dimensions. The
// dimensions must agree with the encoded data; the assembler checks them
// before building a page.
type PageImage struct {
	Data   []byte
	Width  int
	Height int
}

// Assembler builds a document with one page per image, in order, each page
// sized to its image's pixel dimensions.
type Assembler interface {
	Assemble(pages []PageImage) ([]byte, error)
}

// PDFCPUAssembler assembles PDFs with pdfcpu's image import
type PDFCPUAssembler struct {
	conf *model.Configuration
}

// NewPDFCPUAssembler creates an assembler that never touches pdfcpu's
// on-disk configuration directory.
func NewPDFCPUAssembler() *PDFCPUAssembler {
	api.DisableConfigDir()
	return &PDFCPUAssembler{
		conf: model.NewDefaultConfiguration(),
	}
}

// Assemble writes a new PDF holding pages in order
func (a *PDFCPUAssembler) Assemble(pages []PageImage) ([]byte, error) {
	if len(pages) == 0 {
		return nil, fit.Invalid("no pages to assemble")
	}

	// "pos:full" makes every page exactly as large as its image.
	imp, err := api.Import("pos:full", types.POINTS)
	if err != nil {
		return nil, fmt.Errorf("failed to configure image import: %w", err)
	}

	readers := make([]io.Reader, 0, len(pages))
	for i, p := range pages {
		if len(p.Data) == 0 {
			return nil, fit.Invalid("page %d has no image data", i+1)
		}
		if err := checkPageSize(p); err != nil {
			return nil, fit.Invalid("page %d: %v", i+1, err)
		}
		readers = append(readers, bytes.NewReader(p.Data))
	}

	var out bytes.Buffer
	if err := api.ImportImages(nil, &out, readers, imp, a.conf); err != nil {
		return nil, fmt.Errorf("failed to assemble PDF: %w", err)
	}

	return out.Bytes(), nil
}

func checkPageSize(p PageImage) error {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(p.Data))
	if err != nil {
		return fmt.Errorf("unreadable image: %v", err)
	}
	if cfg.Width != p.Width || cfg.Height != p.Height {
		return fmt.Errorf("image is %dx%d, expected %dx%d", cfg.Width, cfg.Height, p.Width, p.Height)
	}
	return nil
}

// CountPages returns the page count of an assembled PDF
func (a *PDFCPUAssembler) CountPages(data []byte) (int, error) {
	n, err := api.PageCount(bytes.NewReader(data), a.conf)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to count pages: %v", fit.ErrDecode, err)
	}
	return n, nil
}
