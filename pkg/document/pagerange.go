package document

import (
	"fmt"
	"strconv"
	"strings"
)

// PageRange is an inclusive range of one-based page numbers
type PageRange struct {
	Start int
	End   int
}

// PageRangeSet holds page ranges in the order they were written
type PageRangeSet struct {
	ranges []PageRange
}

// ParsePageRanges parses a page range string like "1-2,5,10-15"
func ParsePageRanges(rangeStr string) (*PageRangeSet, error) {
	if strings.TrimSpace(rangeStr) == "" {
		return &PageRangeSet{}, nil
	}

	var ranges []PageRange
	for _, part := range strings.Split(rangeStr, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		if strings.Contains(part, "-") {
			rangeParts := strings.Split(part, "-")
			if len(rangeParts) != 2 {
				return nil, fmt.Errorf("invalid range format: %s", part)
			}

			start, err := strconv.Atoi(strings.TrimSpace(rangeParts[0]))
			if err != nil {
				return nil, fmt.Errorf("invalid start page: %s", rangeParts[0])
			}

			end, err := strconv.Atoi(strings.TrimSpace(rangeParts[1]))
			if err != nil {
				return nil, fmt.Errorf("invalid end page: %s", rangeParts[1])
			}

			if start > end {
				return nil, fmt.Errorf("start page (%d) cannot be greater than end page (%d)", start, end)
			}

			ranges = append(ranges, PageRange{Start: start, End: end})
		} else {
			page, err := strconv.Atoi(part)
			if err != nil {
				return nil, fmt.Errorf("invalid page number: %s", part)
			}

			ranges = append(ranges, PageRange{Start: page, End: page})
		}
	}

	return &PageRangeSet{ranges: ranges}, nil
}

// Empty reports whether the set selects no pages
func (prs *PageRangeSet) Empty() bool {
	return prs == nil || len(prs.ranges) == 0
}

// Count returns the number of distinct pages selected
func (prs *PageRangeSet) Count() int {
	return len(prs.Indices())
}

// String returns a string representation of the page ranges
func (prs *PageRangeSet) String() string {
	if prs.Empty() {
		return ""
	}

	var parts []string
	for _, r := range prs.ranges {
		if r.Start == r.End {
			parts = append(parts, strconv.Itoa(r.Start))
		} else {
			parts = append(parts, fmt.Sprintf("%d-%d", r.Start, r.End))
		}
	}

	return strings.Join(parts, ",")
}

// ValidateAgainstTotal validates that all page numbers are within the total page count
func (prs *PageRangeSet) ValidateAgainstTotal(totalPages int) error {
	if prs == nil {
		return nil
	}
	for _, r := range prs.ranges {
		if r.Start < 1 {
			return fmt.Errorf("page numbers must be 1 or greater, got: %d", r.Start)
		}
		if r.End > totalPages {
			return fmt.Errorf("page %d exceeds total pages (%d)", r.End, totalPages)
		}
	}
	return nil
}

// Indices returns the selected pages as zero-based indices in the order
// written, each page once.
func (prs *PageRangeSet) Indices() []int {
	if prs == nil {
		return nil
	}

	seen := make(map[int]bool)
	var out []int
	for _, r := range prs.ranges {
		for p := r.Start; p <= r.End; p++ {
			if !seen[p] {
				seen[p] = true
				out = append(out, p-1)
			}
		}
	}
	return out
}
