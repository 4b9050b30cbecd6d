package document

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"

	"github.com/alde/pagefit/pkg/fit"
)

// fakeSource renders each page as a solid bitmap whose red channel is the
// page index, so page order survives encoding.
type fakeSource struct {
	sizes    [][2]float64
	failPage int
	renders  int
	scales   []float64
	closed   bool
}

func newFakeSource(pages int) *fakeSource {
	sizes := make([][2]float64, pages)
	for i := range sizes {
		sizes[i] = [2]float64{100, 200}
	}
	return &fakeSource{sizes: sizes, failPage: -1}
}

func (s *fakeSource) PageCount() int {
	return len(s.sizes)
}

func (s *fakeSource) PageSize(index int) (float64, float64, error) {
	if index < 0 || index >= len(s.sizes) {
		return 0, 0, errors.New("no such page")
	}
	return s.sizes[index][0], s.sizes[index][1], nil
}

func (s *fakeSource) RenderPage(ctx context.Context, index int, scale float64) (image.Image, error) {
	s.renders++
	s.scales = append(s.scales, scale)
	if index == s.failPage {
		return nil, errors.New("broken content stream")
	}

	page := Page{Index: index, Width: s.sizes[index][0], Height: s.sizes[index][1]}
	w, h := page.PixelSize(scale)
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.RGBA{R: uint8(index), A: 255}}, image.Point{}, draw.Src)
	return img, nil
}

func (s *fakeSource) Close() error {
	s.closed = true
	return nil
}

// fakeEncoder emits pixels/10+1 bytes whose first byte is the red channel
// of the top-left pixel.
type fakeEncoder struct {
	qualities []float64
}

func (e *fakeEncoder) Format() fit.Format {
	return fit.FormatJPEG
}

func (e *fakeEncoder) Encode(img image.Image, quality float64) (fit.Buffer, error) {
	e.qualities = append(e.qualities, quality)
	b := img.Bounds()
	data := make([]byte, b.Dx()*b.Dy()/10+1)
	r, _, _, _ := img.At(b.Min.X, b.Min.Y).RGBA()
	data[0] = uint8(r >> 8)
	return fit.Buffer{Data: data, Format: fit.FormatJPEG, Parameter: quality}, nil
}

func fakePageSize(width, height float64, scale float64) int {
	page := Page{Width: width, Height: height}
	w, h := page.PixelSize(scale)
	return w*h/10 + 1
}

// fakeAssembler concatenates page data and remembers every call
type fakeAssembler struct {
	calls [][]PageImage
	err   error
}

func (a *fakeAssembler) Assemble(pages []PageImage) ([]byte, error) {
	if a.err != nil {
		return nil, a.err
	}
	copied := make([]PageImage, len(pages))
	copy(copied, pages)
	a.calls = append(a.calls, copied)

	var out []byte
	for _, p := range pages {
		out = append(out, p.Data...)
	}
	return out, nil
}

// fakeEngine opens a fakeSource, optionally failing until the data is repaired
type fakeEngine struct {
	source      *fakeSource
	failOnTrail bool
	opened      [][]byte
}

func (e *fakeEngine) Name() string {
	return "fake"
}

func (e *fakeEngine) Open(data []byte) (Source, error) {
	e.opened = append(e.opened, data)
	if e.failOnTrail && !endsWithEOF(data) {
		return nil, errors.New("trailing garbage")
	}
	if e.source == nil {
		return nil, errors.New("cannot open")
	}
	return e.source, nil
}

func (e *fakeEngine) Close() error {
	return nil
}

func endsWithEOF(data []byte) bool {
	s := string(data)
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return len(s) >= 5 && s[len(s)-5:] == "%%EOF"
}

func openFakeDocument(t interface{ Fatalf(string, ...any) }, pages int) (*Document, *fakeSource) {
	src := newFakeSource(pages)
	doc, err := New(src)
	if err != nil {
		t.Fatalf("Failed to open fake document: %v", err)
	}
	return doc, src
}
