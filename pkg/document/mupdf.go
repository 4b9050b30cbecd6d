package document

import (
	"context"
	"fmt"
	"image"

	"github.com/gen2brain/go-fitz"
)

// pointsPerInch maps render scale to MuPDF's DPI setting
const pointsPerInch = 72.0

// MuPDFEngine rasterizes with MuPDF through go-fitz
type MuPDFEngine struct{}

// NewMuPDFEngine returns a MuPDF engine
func NewMuPDFEngine() *MuPDFEngine {
	return &MuPDFEngine{}
}

// Name returns "mupdf"
func (e *MuPDFEngine) Name() string {
	return "mupdf"
}

// Open loads data into MuPDF
func (e *MuPDFEngine) Open(data []byte) (Source, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF document: %w", err)
	}
	return &mupdfSource{doc: doc}, nil
}

// Close is a no-op; each source owns its MuPDF context
func (e *MuPDFEngine) Close() error {
	return nil
}

type mupdfSource struct {
	doc *fitz.Document
}

func (s *mupdfSource) PageCount() int {
	return s.doc.NumPage()
}

func (s *mupdfSource) PageSize(index int) (float64, float64, error) {
	bound, err := s.doc.Bound(index)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to get size of page %d: %w", index+1, err)
	}
	return float64(bound.Dx()), float64(bound.Dy()), nil
}

func (s *mupdfSource) RenderPage(ctx context.Context, index int, scale float64) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, err := s.doc.ImageDPI(index, pointsPerInch*scale)
	if err != nil {
		return nil, fmt.Errorf("failed to render page %d: %w", index+1, err)
	}
	return img, nil
}

func (s *mupdfSource) Close() error {
	return s.doc.Close()
}
