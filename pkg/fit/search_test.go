package fit

import (
	"context"
	"errors"
	"math"
	"testing"
)

var qualitySweep = Config{Initial: 0.95, Step: 0.05, Min: 0.05, MaxAttempts: 18}

var scaleSweep = Config{Initial: 0.8, Step: 0.05, Min: 0.3}

// linearAttempt produces p*10000 bytes and records every parameter it sees
func linearAttempt(seen *[]float64) AttemptFunc {
	return func(ctx context.Context, p float64) (Buffer, error) {
		*seen = append(*seen, p)
		return Buffer{Data: make([]byte, int(math.Round(p*10000))), Format: FormatJPEG}, nil
	}
}

func TestSearchWithoutTarget(t *testing.T) {
	var seen []float64
	result, err := Search(context.Background(), qualitySweep, NoTarget, linearAttempt(&seen))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(seen) != 1 {
		t.Fatalf("Expected 1 attempt, got %d", len(seen))
	}
	if result.FinalParameter != 0.95 {
		t.Errorf("Expected parameter 0.95, got %v", result.FinalParameter)
	}
	if !result.WithinTarget {
		t.Error("Result without a target should be within target")
	}
	if result.Outcome != Succeeded {
		t.Errorf("Expected outcome %v, got %v", Succeeded, result.Outcome)
	}
}

func TestSearchTargetAboveInitialSize(t *testing.T) {
	for _, target := range []Target{9500, 9501, 1 << 20} {
		var seen []float64
		result, err := Search(context.Background(), qualitySweep, target, linearAttempt(&seen))
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if len(result.Attempts) != 1 {
			t.Errorf("target %d: expected 1 attempt, got %d", target, len(result.Attempts))
		}
		if result.FinalParameter != qualitySweep.Initial {
			t.Errorf("target %d: expected initial parameter, got %v", target, result.FinalParameter)
		}
		if !result.WithinTarget {
			t.Errorf("target %d: expected result within target", target)
		}
	}
}

func TestSearchReachesTargetMidSweep(t *testing.T) {
	var seen []float64
	result, err := Search(context.Background(), qualitySweep, 5000, linearAttempt(&seen))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(seen) != 10 {
		t.Errorf("Expected 10 attempts, got %d", len(seen))
	}
	if result.FinalParameter != 0.5 {
		t.Errorf("Expected parameter 0.5, got %v", result.FinalParameter)
	}
	if result.AchievedSize != 5000 {
		t.Errorf("Expected size 5000, got %d", result.AchievedSize)
	}
	if !result.WithinTarget || result.Outcome != Succeeded {
		t.Errorf("Expected success within target, got %v", result)
	}
}

func TestSearchUnreachableTargetStopsAtAttemptBudget(t *testing.T) {
	var seen []float64
	result, err := Search(context.Background(), qualitySweep, 1, linearAttempt(&seen))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(seen) != 18 {
		t.Fatalf("Expected 18 attempts, got %d", len(seen))
	}
	if result.WithinTarget {
		t.Error("Unreachable target should not be within target")
	}
	if result.Outcome != Exhausted {
		t.Errorf("Expected outcome %v, got %v", Exhausted, result.Outcome)
	}
	if result.FinalParameter != 0.1 {
		t.Errorf("Expected last parameter 0.1, got %v", result.FinalParameter)
	}

	smallest := result.Attempts[0].Size
	for _, a := range result.Attempts {
		if a.Size < smallest {
			smallest = a.Size
		}
	}
	if result.AchievedSize != smallest {
		t.Errorf("Expected smallest observed size %d, got %d", smallest, result.AchievedSize)
	}
}

func TestSearchUnreachableTargetStopsAtFloor(t *testing.T) {
	var seen []float64
	result, err := Search(context.Background(), scaleSweep, 1, linearAttempt(&seen))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(seen) != 11 {
		t.Fatalf("Expected 11 attempts, got %d", len(seen))
	}
	if seen[len(seen)-1] != 0.3 {
		t.Errorf("Expected sweep to end at the floor 0.3, got %v", seen[len(seen)-1])
	}
	if result.FinalParameter != 0.3 || result.WithinTarget {
		t.Errorf("Expected best-effort result at 0.3, got %v", result)
	}
}

func TestSearchParameterDecreasesByStep(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"quality sweep", qualitySweep},
		{"scale sweep", scaleSweep},
		{"coarse sweep", Config{Initial: 1, Step: 0.3, Min: 0.1}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var seen []float64
			if _, err := Search(context.Background(), test.cfg, 1, linearAttempt(&seen)); err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			for i := 1; i < len(seen); i++ {
				diff := seen[i-1] - seen[i]
				if math.Abs(diff-test.cfg.Step) > 1e-9 {
					t.Errorf("Step %d: expected decrease of %v, got %v", i, test.cfg.Step, diff)
				}
			}
			if last := seen[len(seen)-1]; last < test.cfg.Min {
				t.Errorf("Parameter %v went below minimum %v", last, test.cfg.Min)
			}
		})
	}
}

func TestSearchReturnsSmallestForNonMonotoneEncoder(t *testing.T) {
	sizes := map[float64]int{0.8: 900, 0.75: 400, 0.7: 700}
	attempt := func(ctx context.Context, p float64) (Buffer, error) {
		return Buffer{Data: make([]byte, sizes[p])}, nil
	}

	cfg := Config{Initial: 0.8, Step: 0.05, Min: 0.7}
	result, err := Search(context.Background(), cfg, 100, attempt)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if result.FinalParameter != 0.75 || result.AchievedSize != 400 {
		t.Errorf("Expected smallest buffer at 0.75 (400 bytes), got %v", result)
	}
	if len(result.Attempts) != 3 {
		t.Errorf("Expected 3 attempts, got %d", len(result.Attempts))
	}
}

func TestSearchPropagatesAttemptError(t *testing.T) {
	boom := &PageRenderError{Page: 2, Err: errors.New("corrupt content stream")}
	calls := 0
	attempt := func(ctx context.Context, p float64) (Buffer, error) {
		calls++
		if calls == 2 {
			return Buffer{}, boom
		}
		return Buffer{Data: make([]byte, 1000)}, nil
	}

	_, err := Search(context.Background(), scaleSweep, 10, attempt)
	if !errors.Is(err, ErrPageRender) {
		t.Fatalf("Expected page render error, got %v", err)
	}
	if calls != 2 {
		t.Errorf("Search should stop at the failing attempt, got %d calls", calls)
	}
}

func TestSearchHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	attempt := func(ctx context.Context, p float64) (Buffer, error) {
		calls++
		cancel()
		return Buffer{Data: make([]byte, 1000)}, nil
	}

	_, err := Search(ctx, qualitySweep, 10, attempt)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected cancellation after 1 attempt, got %d", calls)
	}
}

func TestSearchIsDeterministic(t *testing.T) {
	var first, second []float64
	a, err := Search(context.Background(), qualitySweep, 3000, linearAttempt(&first))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	b, err := Search(context.Background(), qualitySweep, 3000, linearAttempt(&second))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if a.FinalParameter != b.FinalParameter || a.AchievedSize != b.AchievedSize {
		t.Errorf("Expected identical results, got %v and %v", a, b)
	}
	if len(first) != len(second) {
		t.Fatalf("Expected identical attempt sequences, got %v and %v", first, second)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("Attempt %d differs: %v vs %v", i, first[i], second[i])
		}
	}
}

func TestSearchResultInvariants(t *testing.T) {
	for _, target := range []Target{NoTarget, 1, 4321, 9500, 100000} {
		var seen []float64
		result, err := Search(context.Background(), qualitySweep, target, linearAttempt(&seen))
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if result.AchievedSize != int64(len(result.Buffer.Data)) {
			t.Errorf("target %d: achieved size %d differs from buffer length %d", target, result.AchievedSize, len(result.Buffer.Data))
		}
		if result.WithinTarget != target.Allows(result.AchievedSize) {
			t.Errorf("target %d: within flag %v inconsistent with size %d", target, result.WithinTarget, result.AchievedSize)
		}
		if result.Buffer.Parameter != result.FinalParameter {
			t.Errorf("target %d: buffer parameter %v differs from final %v", target, result.Buffer.Parameter, result.FinalParameter)
		}
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name  string
		cfg   Config
		valid bool
	}{
		{"quality sweep", qualitySweep, true},
		{"scale sweep", scaleSweep, true},
		{"single value", Config{Initial: 0.5, Step: 0.1, Min: 0.5}, true},
		{"zero step", Config{Initial: 0.9, Step: 0, Min: 0.1}, false},
		{"negative step", Config{Initial: 0.9, Step: -0.05, Min: 0.1}, false},
		{"zero minimum", Config{Initial: 0.9, Step: 0.05, Min: 0}, false},
		{"initial below minimum", Config{Initial: 0.2, Step: 0.05, Min: 0.3}, false},
		{"negative attempts", Config{Initial: 0.9, Step: 0.05, Min: 0.1, MaxAttempts: -1}, false},
		{"huge explicit budget", Config{Initial: 0.9, Step: 0.05, Min: 0.1, MaxAttempts: 100000000000}, false},
		{"tiny step", Config{Initial: 0.95, Step: 1e-13, Min: 0.05}, false},
		{"budget at limit", Config{Initial: 0.9, Step: 0.05, Min: 0.1, MaxAttempts: MaxSearchAttempts}, true},
		{"derived budget at limit", Config{Initial: 100, Step: 0.1, Min: 0.1}, true},
		{"derived budget past limit", Config{Initial: 100.05, Step: 0.1, Min: 0.05}, false},
		{"explicit budget caps a fine step", Config{Initial: 0.95, Step: 1e-13, Min: 0.05, MaxAttempts: 18}, true},
		{"NaN step", Config{Initial: 0.9, Step: math.NaN(), Min: 0.1}, false},
		{"NaN initial", Config{Initial: math.NaN(), Step: 0.05, Min: 0.1}, false},
		{"infinite initial", Config{Initial: math.Inf(1), Step: 0.05, Min: 0.1}, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := test.cfg.Validate()
			if test.valid && err != nil {
				t.Errorf("Unexpected validation error: %v", err)
			}
			if !test.valid {
				if err == nil {
					t.Error("Expected validation error")
				} else if !errors.Is(err, ErrInvalidInput) {
					t.Errorf("Expected ErrInvalidInput, got %v", err)
				}
			}
		})
	}
}

func TestSearchRejectsInvalidConfigBeforeAttempting(t *testing.T) {
	var seen []float64
	_, err := Search(context.Background(), Config{Initial: 0.5, Step: 0, Min: 0.1}, NoTarget, linearAttempt(&seen))
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("Expected ErrInvalidInput, got %v", err)
	}
	if len(seen) != 0 {
		t.Errorf("Expected no attempts, got %d", len(seen))
	}
}

func TestSearchRejectsUnboundedSweep(t *testing.T) {
	var seen []float64
	cfg := Config{Initial: 0.95, Step: 1e-13, Min: 0.05}

	_, err := Search(context.Background(), cfg, NoTarget, linearAttempt(&seen))
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("Expected ErrInvalidInput, got %v", err)
	}
	if len(seen) != 0 {
		t.Errorf("Expected no attempts, got %d", len(seen))
	}
}

func TestConfigAttempts(t *testing.T) {
	if n := qualitySweep.Attempts(); n != 18 {
		t.Errorf("Expected explicit budget 18, got %d", n)
	}
	if n := scaleSweep.Attempts(); n != 11 {
		t.Errorf("Expected derived budget 11, got %d", n)
	}
	if n := (Config{Initial: 0.3, Step: 0.05, Min: 0.3}).Attempts(); n != 1 {
		t.Errorf("Expected derived budget 1, got %d", n)
	}
}
