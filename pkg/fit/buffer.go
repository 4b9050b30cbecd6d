package fit

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// Format identifies the encoding of a Buffer
type Format string

const (
	FormatJPEG Format = "jpeg"
	FormatWebP Format = "webp"
	FormatPDF  Format = "pdf"
)

// Extension returns the file extension conventionally used for the format
func (f Format) Extension() string {
	switch f {
	case FormatJPEG:
		return ".jpg"
	case FormatWebP:
		return ".webp"
	case FormatPDF:
		return ".pdf"
	default:
		return ""
	}
}

// MIMEType returns the media type of the format
func (f Format) MIMEType() string {
	switch f {
	case FormatJPEG:
		return "image/jpeg"
	case FormatWebP:
		return "image/webp"
	case FormatPDF:
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}

// Buffer is an encoded image or document. Parameter is the quality (images)
// or scale (documents) that produced it.
type Buffer struct {
	Data      []byte
	Format    Format
	Parameter float64
}

// Size returns the byte length of the buffer
func (b Buffer) Size() int64 {
	return int64(len(b.Data))
}

// Target is a byte budget. The zero value means no constraint.
type Target int64

// NoTarget leaves the output size unconstrained
const NoTarget Target = 0

// TargetKB returns a budget of kb kilobytes of 1024 bytes. A positive
// budget below one byte becomes one byte; budgets beyond int64 saturate.
// Zero, negative and NaN values mean no target.
func TargetKB(kb float64) Target {
	if !(kb > 0) {
		return NoTarget
	}
	return bytesTarget(math.Ceil(kb * 1024))
}

func bytesTarget(n float64) Target {
	if n >= math.MaxInt64 {
		return Target(math.MaxInt64)
	}
	if n < 1 {
		return 1
	}
	return Target(n)
}

// Set reports whether the target constrains the output
func (t Target) Set() bool {
	return t > 0
}

// Allows reports whether size fits within the target
func (t Target) Allows(size int64) bool {
	return !t.Set() || size <= int64(t)
}

func (t Target) String() string {
	if !t.Set() {
		return "none"
	}
	return humanize.IBytes(uint64(t))
}

// ParseTarget parses a size budget. A bare number is taken as kilobytes
// (1024 bytes); anything with a unit ("50KB", "1.5MiB") is parsed by
// go-humanize. An empty string or zero yields NoTarget; a budget that is
// positive but under one byte becomes one byte.
func ParseTarget(s string) (Target, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return NoTarget, nil
	}

	if kb, err := strconv.ParseFloat(s, 64); err == nil {
		if math.IsNaN(kb) || math.IsInf(kb, 0) {
			return NoTarget, Invalid("target size must be finite: %s", s)
		}
		if kb < 0 {
			return NoTarget, Invalid("target size cannot be negative: %s", s)
		}
		return TargetKB(kb), nil
	}

	n, err := humanize.ParseBytes(s)
	if err != nil {
		return NoTarget, fmt.Errorf("%w: invalid target size %q: %v", ErrInvalidInput, s, err)
	}
	if n == 0 {
		return NoTarget, Invalid("target size rounds to zero bytes: %s", s)
	}
	if n > math.MaxInt64 {
		return Target(math.MaxInt64), nil
	}
	return Target(n), nil
}
