package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alde/pagefit/pkg/document"
	"github.com/alde/pagefit/pkg/fit"
	"github.com/dustin/go-humanize"
)

// fits guards against a superseded fit overwriting a newer result
var fits fit.Latest

func runFit(ctx context.Context, fn func(ctx context.Context) (fit.Result, error)) (fit.Result, error) {
	result, fresh, err := fits.Run(ctx, fn)
	if err != nil {
		return fit.Result{}, err
	}
	if !fresh {
		return fit.Result{}, errors.New("fit was superseded by a newer request")
	}
	return result, nil
}

func readInputFile(path string) ([]byte, error) {
	stat, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("input file does not exist: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat input file: %w", err)
	}
	if stat.IsDir() {
		return nil, fmt.Errorf("input path is a directory: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input file: %w", err)
	}
	return data, nil
}

// validateOutputPath checks that the output directory exists and that the
// file extension is one of allowed (lowercase, with dot)
func validateOutputPath(path string, allowed ...string) error {
	if path == "" {
		return fmt.Errorf("output path is required")
	}

	dir := filepath.Dir(path)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return fmt.Errorf("output directory does not exist: %s", dir)
	}

	ext := strings.ToLower(filepath.Ext(path))
	for _, a := range allowed {
		if ext == a {
			return nil
		}
	}
	return fmt.Errorf("unsupported output format: %s (valid options: %s)", ext, strings.Join(allowed, ", "))
}

// formatForPath maps an output extension to an encoder name
func formatForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".webp":
		return "webp"
	case ".pdf":
		return "pdf"
	default:
		return "jpeg"
	}
}

func parseTargetFlag(s string) (fit.Target, error) {
	target, err := fit.ParseTarget(s)
	if err != nil {
		return fit.NoTarget, fmt.Errorf("invalid target size: %w", err)
	}
	return target, nil
}

func validateQuality(q float64) error {
	if q <= 0 || q > 1 {
		return fmt.Errorf("quality must be between 0 and 1, got %g", q)
	}
	return nil
}

func openEngine(name string) (document.Engine, error) {
	switch strings.ToLower(name) {
	case "", "pdfium":
		engine, err := document.NewPDFiumEngine()
		if err != nil {
			return nil, fmt.Errorf("failed to start pdfium: %w", err)
		}
		return engine, nil
	case "mupdf":
		return document.NewMuPDFEngine(), nil
	default:
		return nil, fmt.Errorf("unknown PDF engine: %s (valid options: pdfium, mupdf)", name)
	}
}

func writeOutputFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}

// printFitSummary reports a fit on stdout. Over-budget results are a
// warning, not an error.
func printFitSummary(label string, inputSize int64, target fit.Target, result fit.Result, outputPath string) {
	achieved := uint64(result.AchievedSize)

	if result.WithinTarget {
		fmt.Printf("✅ %s: %s", label, humanize.IBytes(achieved))
		if inputSize > 0 {
			fmt.Printf(" (from %s)", humanize.IBytes(uint64(inputSize)))
		}
		fmt.Printf(" at %.2f after %d attempt(s)\n", result.FinalParameter, len(result.Attempts))
	} else {
		fmt.Printf("Warning: could not reach %s; best effort is %s at %.2f after %d attempt(s)\n",
			target, humanize.IBytes(achieved), result.FinalParameter, len(result.Attempts))
	}
	fmt.Printf("Saved to %s\n", outputPath)
}
