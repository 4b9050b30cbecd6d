package document

import (
	"bytes"
	"fmt"

	"github.com/alde/pagefit/pkg/fit"
)

var (
	pdfHeader = []byte("%PDF-")
	eofMarker = []byte("%%EOF")
)

// Readers accept a header anywhere in the first kilobyte
const headerWindow = 1024

// IsPDF reports whether data carries a PDF header
func IsPDF(data []byte) bool {
	return checkHeader(data) == nil
}

func checkHeader(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: empty document data", fit.ErrDecode)
	}

	window := data
	if len(window) > headerWindow {
		window = window[:headerWindow]
	}
	if !bytes.Contains(window, pdfHeader) {
		return fmt.Errorf("%w: data does not start with a PDF header", fit.ErrDecode)
	}
	return nil
}

// RepairTrailer returns a copy of data truncated after the last %%EOF
// marker. The bool is false when there is no marker or nothing follows it.
func RepairTrailer(data []byte) ([]byte, bool) {
	idx := bytes.LastIndex(data, eofMarker)
	if idx == -1 {
		return nil, false
	}

	end := idx + len(eofMarker)
	if len(bytes.TrimSpace(data[end:])) == 0 {
		return nil, false
	}

	repaired := make([]byte, 0, end+1)
	repaired = append(repaired, data[:end]...)
	repaired = append(repaired, '\n')
	return repaired, true
}

// ValidatePDF checks for a PDF header and an %%EOF marker in the last kilobyte
func ValidatePDF(data []byte) error {
	if err := checkHeader(data); err != nil {
		return err
	}

	tail := data
	if len(tail) > headerWindow {
		tail = tail[len(tail)-headerWindow:]
	}
	if !bytes.Contains(tail, eofMarker) {
		return fmt.Errorf("%w: PDF file does not contain %%%%EOF marker", fit.ErrDecode)
	}
	return nil
}
