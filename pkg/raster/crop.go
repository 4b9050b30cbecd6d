package raster

import (
	"errors"
	"image"
	"strconv"
	"strings"
	"sync"

	"github.com/alde/pagefit/pkg/fit"
	"github.com/disintegration/imaging"
)

var (
	// ErrSessionClosed is returned when a crop session is used after apply or cancel
	ErrSessionClosed = errors.New("crop session closed")

	// ErrNoSession is returned when a slot has no active crop session
	ErrNoSession = errors.New("no active crop session")
)

// ApplyCrop returns a copy of exactly rect at native resolution. rect must
// lie fully inside img.Bounds(); it is not clamped.
func ApplyCrop(img image.Image, rect image.Rectangle) (image.Image, error) {
	if img == nil {
		return nil, fit.Invalid("no bitmap to crop")
	}
	if rect.Dx() <= 0 || rect.Dy() <= 0 {
		return nil, fit.Invalid("crop rectangle %v has non-positive size", rect)
	}
	if !rect.In(img.Bounds()) {
		return nil, fit.Invalid("crop rectangle %v is outside bitmap bounds %v", rect, img.Bounds())
	}

	return imaging.Crop(img, rect), nil
}

// ParseRect parses "x,y,w,h" into a rectangle with origin (x, y)
func ParseRect(s string) (image.Rectangle, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return image.Rectangle{}, fit.Invalid("invalid rectangle %q (expected x,y,w,h)", s)
	}

	var vals [4]int
	for i, part := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return image.Rectangle{}, fit.Invalid("invalid rectangle component %q", part)
		}
		vals[i] = v
	}

	if vals[2] <= 0 || vals[3] <= 0 {
		return image.Rectangle{}, fit.Invalid("rectangle width and height must be positive, got %dx%d", vals[2], vals[3])
	}

	return image.Rect(vals[0], vals[1], vals[0]+vals[2], vals[1]+vals[3]), nil
}

// CropSession owns one bitmap under interactive crop. Apply and Cancel
// both release the bitmap and close the session.
type CropSession struct {
	mu     sync.Mutex
	img    image.Image
	closed bool
}

// NewCropSession opens a session on img
func NewCropSession(img image.Image) (*CropSession, error) {
	if img == nil {
		return nil, fit.Invalid("no bitmap to crop")
	}
	return &CropSession{img: img}, nil
}

// Bounds returns the bounds of the bitmap under crop
func (s *CropSession) Bounds() (image.Rectangle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return image.Rectangle{}, ErrSessionClosed
	}
	return s.img.Bounds(), nil
}

// Apply crops to rect and closes the session. An invalid rect leaves the
// session open so the caller can retry.
func (s *CropSession) Apply(rect image.Rectangle) (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrSessionClosed
	}

	out, err := ApplyCrop(s.img, rect)
	if err != nil {
		return nil, err
	}

	s.release()
	return out, nil
}

// Cancel closes the session without producing a bitmap
func (s *CropSession) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.release()
}

// Active reports whether the session still holds its bitmap
func (s *CropSession) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return !s.closed
}

func (s *CropSession) release() {
	s.img = nil
	s.closed = true
}

// CropSlot holds at most one active crop session
type CropSlot struct {
	mu      sync.Mutex
	session *CropSession
}

// Start releases the current session, if any, and opens one on img
func (c *CropSlot) Start(img image.Image) (*CropSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != nil {
		c.session.Cancel()
		c.session = nil
	}

	session, err := NewCropSession(img)
	if err != nil {
		return nil, err
	}
	c.session = session
	return session, nil
}

// Session returns the active session or nil
func (c *CropSlot) Session() *CropSession {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil || !c.session.Active() {
		return nil
	}
	return c.session
}

// Apply crops the active session's bitmap and empties the slot
func (c *CropSlot) Apply(rect image.Rectangle) (image.Image, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return nil, ErrNoSession
	}

	out, err := c.session.Apply(rect)
	if errors.Is(err, ErrSessionClosed) {
		c.session = nil
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, err
	}

	c.session = nil
	return out, nil
}

// Cancel releases the active session, if any
func (c *CropSlot) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != nil {
		c.session.Cancel()
		c.session = nil
	}
}
