package progress

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// Bar is a single-line text progress bar
type Bar struct {
	mu      sync.Mutex
	out     io.Writer
	label   string
	width   int
	total   int
	current int
}

// NewBar creates a progress bar writing to out
func NewBar(out io.Writer, label string) *Bar {
	return &Bar{
		out:   out,
		label: label,
		width: 40,
	}
}

// Update redraws the bar at done out of total. It matches the document
// fitter's progress callback.
func (b *Bar) Update(done, total int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.current = done
	b.total = total
	b.display()
}

// SetLabel changes the text shown before the bar
func (b *Bar) SetLabel(label string) {
	b.mu.Lock()
	b.label = label
	b.mu.Unlock()
}

// PerAttempt returns a progress callback for a sweep that renders every page
// once per attempt. A pass restarting at the first page bumps the attempt
// number shown after the label.
func (b *Bar) PerAttempt() func(done, total int) {
	b.mu.Lock()
	base := b.label
	b.mu.Unlock()

	attempt := 0
	return func(done, total int) {
		if done <= 1 {
			attempt++
			b.SetLabel(fmt.Sprintf("%s (attempt %d)", base, attempt))
		}
		b.Update(done, total)
	}
}

func (b *Bar) display() {
	if b.total <= 0 {
		return
	}

	current := b.current
	if current > b.total {
		current = b.total
	}
	percentage := float64(current) / float64(b.total) * 100
	filled := b.width * current / b.total

	bar := strings.Repeat("█", filled) + strings.Repeat("░", b.width-filled)
	fmt.Fprintf(b.out, "\r%s [%s] %d/%d (%.1f%%)", b.label, bar, current, b.total, percentage)
}

// Finish completes the bar and ends the line
func (b *Bar) Finish() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.total > 0 {
		b.current = b.total
		b.display()
	}
	fmt.Fprintln(b.out, " DONE")
}
