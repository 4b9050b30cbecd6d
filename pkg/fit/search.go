package fit

import (
	"context"
	"fmt"
	"math"

	"github.com/rs/zerolog"
)

// Config describes a linear parameter sweep
type Config struct {
	Initial float64
	Step    float64
	Min     float64
	// MaxAttempts caps the number of attempts. Zero derives the count that
	// reaches Min inclusively.
	MaxAttempts int
}

// MaxSearchAttempts bounds the attempt budget of any sweep
const MaxSearchAttempts = 1000

// Validate checks that the sweep is well formed
func (c Config) Validate() error {
	for _, v := range []float64{c.Initial, c.Step, c.Min} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Invalid("search parameters must be finite, got %g/%g/%g", c.Initial, c.Step, c.Min)
		}
	}
	if c.Step <= 0 {
		return Invalid("search step must be positive, got %g", c.Step)
	}
	if c.Min <= 0 {
		return Invalid("search minimum must be positive, got %g", c.Min)
	}
	if c.Initial < c.Min {
		return Invalid("initial parameter %g is below minimum %g", c.Initial, c.Min)
	}
	if c.MaxAttempts < 0 {
		return Invalid("max attempts cannot be negative, got %d", c.MaxAttempts)
	}
	derived := c.MaxAttempts == 0 && math.Round((c.Initial-c.Min)/c.Step) >= MaxSearchAttempts
	if c.MaxAttempts > MaxSearchAttempts || derived {
		return Invalid("search would take more than %d attempts", MaxSearchAttempts)
	}
	return nil
}

// Attempts returns the effective attempt budget
func (c Config) Attempts() int {
	if c.MaxAttempts > 0 {
		return c.MaxAttempts
	}
	return int(math.Round((c.Initial-c.Min)/c.Step)) + 1
}

// ParameterAt returns the parameter of the k-th attempt (zero-based).
// It is computed from the index so repeated subtraction never drifts.
func (c Config) ParameterAt(k int) float64 {
	return round6(c.Initial - float64(k)*c.Step)
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}

// AttemptFunc renders and encodes the source at parameter p
type AttemptFunc func(ctx context.Context, p float64) (Buffer, error)

// Outcome is the terminal state of a search
type Outcome int

const (
	// Succeeded means an attempt met the target, or no target was set.
	Succeeded Outcome = iota
	// Exhausted means the attempt budget or parameter floor was reached.
	Exhausted
)

func (o Outcome) String() string {
	switch o {
	case Succeeded:
		return "succeeded"
	case Exhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// Attempt records one measured attempt
type Attempt struct {
	Parameter float64
	Size      int64
}

// Result is the outcome of a fit call
type Result struct {
	Buffer         Buffer
	FinalParameter float64
	AchievedSize   int64
	WithinTarget   bool
	Outcome        Outcome
	Attempts       []Attempt
}

// Search sweeps the parameter downward from cfg.Initial by cfg.Step,
// calling attempt at each value until the buffer fits target. When the
// floor or attempt budget is reached first it returns the smallest buffer
// seen with WithinTarget false. Errors from attempt abort the search.
func Search(ctx context.Context, cfg Config, target Target, attempt AttemptFunc) (Result, error) {
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}
	if attempt == nil {
		return Result{}, Invalid("attempt function is nil")
	}

	logger := zerolog.Ctx(ctx)
	budget := cfg.Attempts()
	attempts := make([]Attempt, 0, min(budget, 32))

	var best Buffer
	haveBest := false

	for k := 0; ; k++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		p := cfg.ParameterAt(k)
		buf, err := attempt(ctx, p)
		if err != nil {
			return Result{}, err
		}
		buf.Parameter = p
		size := buf.Size()
		attempts = append(attempts, Attempt{Parameter: p, Size: size})

		logger.Debug().
			Int("attempt", k+1).
			Float64("parameter", p).
			Int64("size", size).
			Int64("target", int64(target)).
			Msg("fit attempt measured")

		if target.Allows(size) {
			return newResult(buf, true, Succeeded, attempts), nil
		}

		// Keep only the smallest buffer; the rest are released here.
		if !haveBest || size <= best.Size() {
			best = buf
			haveBest = true
		}

		if k+1 >= budget || cfg.ParameterAt(k+1) < round6(cfg.Min) {
			logger.Debug().
				Int("attempts", len(attempts)).
				Float64("parameter", best.Parameter).
				Int64("size", best.Size()).
				Msg("fit budget exhausted")
			return newResult(best, false, Exhausted, attempts), nil
		}
	}
}

func newResult(buf Buffer, within bool, outcome Outcome, attempts []Attempt) Result {
	return Result{
		Buffer:         buf,
		FinalParameter: buf.Parameter,
		AchievedSize:   buf.Size(),
		WithinTarget:   within,
		Outcome:        outcome,
		Attempts:       attempts,
	}
}

// String summarizes the result for log lines and CLI output
func (r Result) String() string {
	return fmt.Sprintf("%s after %d attempt(s) at %.2f, %d bytes", r.Outcome, len(r.Attempts), r.FinalParameter, r.AchievedSize)
}
