package document

import (
	"context"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/klippa-app/go-pdfium"
	"github.com/klippa-app/go-pdfium/references"
	"github.com/klippa-app/go-pdfium/requests"
	"github.com/klippa-app/go-pdfium/webassembly"
)

const instanceTimeout = 30 * time.Second

// PDFiumEngine rasterizes with PDFium compiled to WebAssembly, so it needs
// no cgo or system libraries.
type PDFiumEngine struct {
	pool pdfium.Pool
}

// NewPDFiumEngine starts the WebAssembly PDFium pool
func NewPDFiumEngine() (*PDFiumEngine, error) {
	pool, err := webassembly.Init(webassembly.Config{
		MinIdle:  1,
		MaxIdle:  2,
		MaxTotal: 4,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize PDFium: %w", err)
	}

	return &PDFiumEngine{pool: pool}, nil
}

// Name returns "pdfium"
func (e *PDFiumEngine) Name() string {
	return "pdfium"
}

// Open loads data into a PDFium instance held until the source is closed
func (e *PDFiumEngine) Open(data []byte) (Source, error) {
	instance, err := e.pool.GetInstance(instanceTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to get PDFium instance: %w", err)
	}

	doc, err := instance.OpenDocument(&requests.OpenDocument{
		File: &data,
	})
	if err != nil {
		instance.Close()
		return nil, fmt.Errorf("failed to open PDF document: %w", err)
	}

	pageCountResp, err := instance.FPDF_GetPageCount(&requests.FPDF_GetPageCount{
		Document: doc.Document,
	})
	if err != nil {
		instance.FPDF_CloseDocument(&requests.FPDF_CloseDocument{Document: doc.Document})
		instance.Close()
		return nil, fmt.Errorf("failed to get page count: %w", err)
	}

	return &pdfiumSource{
		instance:  instance,
		doc:       doc.Document,
		pageCount: pageCountResp.PageCount,
	}, nil
}

// Close shuts down the pool
func (e *PDFiumEngine) Close() error {
	if e.pool != nil {
		return e.pool.Close()
	}
	return nil
}

type pdfiumSource struct {
	mu        sync.Mutex
	instance  pdfium.Pdfium
	doc       references.FPDF_DOCUMENT
	pageCount int
	closed    bool
}

func (s *pdfiumSource) PageCount() int {
	return s.pageCount
}

func (s *pdfiumSource) page(index int) requests.Page {
	return requests.Page{
		ByIndex: &requests.PageByIndex{
			Document: s.doc,
			Index:    index,
		},
	}
}

func (s *pdfiumSource) PageSize(index int) (float64, float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, 0, fmt.Errorf("document is closed")
	}

	size, err := s.instance.GetPageSize(&requests.GetPageSize{
		Page: s.page(index),
	})
	if err != nil {
		return 0, 0, fmt.Errorf("failed to get size of page %d: %w", index+1, err)
	}
	return size.Width, size.Height, nil
}

func (s *pdfiumSource) RenderPage(ctx context.Context, index int, scale float64) (image.Image, error) {
	w, h, err := s.PageSize(index)
	if err != nil {
		return nil, err
	}
	page := Page{Index: index, Width: w, Height: h}
	pxWidth, pxHeight := page.PixelSize(scale)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, fmt.Errorf("document is closed")
	}

	rendered, err := s.instance.RenderPageInPixels(&requests.RenderPageInPixels{
		Page:   s.page(index),
		Width:  pxWidth,
		Height: pxHeight,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render page %d: %w", index+1, err)
	}
	defer rendered.Cleanup()

	// The bitmap belongs to PDFium until Cleanup, so hand out a copy.
	return imaging.Clone(rendered.Result.Image), nil
}

func (s *pdfiumSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	s.instance.FPDF_CloseDocument(&requests.FPDF_CloseDocument{Document: s.doc})
	return s.instance.Close()
}
