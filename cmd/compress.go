package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/alde/pagefit/pkg/document"
	"github.com/alde/pagefit/pkg/fit"
	"github.com/alde/pagefit/pkg/progress"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	compressOutputPath string
	compressTarget     string
	compressQuality    float64
	compressEngine     string
)

var compressCmd = &cobra.Command{
	Use:   "compress [pdf]",
	Short: "Re-render a PDF until it fits a target size",
	Long: `Compress a PDF by rasterizing every page and rebuilding the document from
the page images, lowering the render scale until it fits under a target size.

The scale starts at 0.8 and drops by 0.05 per attempt down to 0.3. Every page
is re-rendered on each attempt. Text in the output is no longer selectable.

Examples:
  pagefit compress scan.pdf -o scan_small.pdf --target 2MB
  pagefit compress form.pdf -o form.pdf --target 500 --engine mupdf
  pagefit compress deck.pdf -o deck_min.pdf --target 1MiB --quality 0.7 -v`,
	Args: cobra.ExactArgs(1),
	RunE: runCompress,
}

func init() {
	rootCmd.AddCommand(compressCmd)

	compressCmd.Flags().StringVarP(&compressOutputPath, "output", "o", "", "Output PDF path (required)")
	compressCmd.Flags().StringVarP(&compressTarget, "target", "t", "", "Target size, e.g. 2MB (bare numbers are KB)")
	compressCmd.Flags().Float64Var(&compressQuality, "quality", cfg.Document.Quality, "JPEG quality of re-rendered pages (0-1)")
	compressCmd.Flags().StringVar(&compressEngine, "engine", cfg.Document.Engine, "PDF renderer (pdfium, mupdf)")

	compressCmd.MarkFlagRequired("output")
}

func runCompress(cmd *cobra.Command, args []string) error {
	inputPath := args[0]
	ctx := cmd.Context()

	if err := validateOutputPath(compressOutputPath, ".pdf"); err != nil {
		return fmt.Errorf("output validation failed: %w", err)
	}
	if err := validateQuality(compressQuality); err != nil {
		return err
	}

	target, err := parseTargetFlag(compressTarget)
	if err != nil {
		return err
	}

	data, err := readInputFile(inputPath)
	if err != nil {
		return fmt.Errorf("input validation failed: %w", err)
	}

	engine, err := openEngine(compressEngine)
	if err != nil {
		return err
	}
	defer engine.Close()

	doc, err := document.Decode(ctx, engine, data)
	if err != nil {
		return err
	}
	defer doc.Close()

	zerolog.Ctx(ctx).Info().
		Str("input", inputPath).
		Str("engine", engine.Name()).
		Int("pages", doc.PageCount()).
		Stringer("target", target).
		Msg("compressing document")

	opts := document.FitterOptions{
		Quality: compressQuality,
		Search:  cfg.Document.Search,
	}
	var bar *progress.Bar
	if verbose {
		bar = progress.NewBar(os.Stdout, "Rendering pages")
		opts.Progress = bar.PerAttempt()
	}

	fitter := document.NewFitter(document.NewPDFCPUAssembler(), opts)
	result, err := runFit(ctx, func(ctx context.Context) (fit.Result, error) {
		return fitter.FitToSize(ctx, doc, target)
	})
	if bar != nil {
		if err == nil {
			bar.Finish()
		} else {
			fmt.Println()
		}
	}
	if err != nil {
		return fmt.Errorf("failed to compress document: %w", err)
	}

	if err := writeOutputFile(compressOutputPath, result.Buffer.Data); err != nil {
		return err
	}

	printFitSummary(fmt.Sprintf("Compressed %d page(s)", doc.PageCount()), doc.Size(), target, result, compressOutputPath)
	return nil
}
