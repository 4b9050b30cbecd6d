package fit

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned for bad caller arguments: a missing bitmap,
	// an empty document, a zero-size or out-of-bounds rectangle.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDecode is returned when source bytes cannot be decoded.
	ErrDecode = errors.New("decode error")

	// ErrPageRender is matched by every *PageRenderError.
	ErrPageRender = errors.New("page render error")
)

// PageRenderError reports a rasterization failure for one page.
// Page is zero-based.
type PageRenderError struct {
	Page int
	Err  error
}

func (e *PageRenderError) Error() string {
	return fmt.Sprintf("failed to render page %d: %v", e.Page+1, e.Err)
}

func (e *PageRenderError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrPageRender) true for any page.
func (e *PageRenderError) Is(target error) bool {
	return target == ErrPageRender
}

// Invalid wraps ErrInvalidInput with a formatted reason.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
