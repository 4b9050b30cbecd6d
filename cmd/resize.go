package cmd

import (
	"context"
	"fmt"

	"github.com/alde/pagefit/pkg/fit"
	"github.com/alde/pagefit/pkg/raster"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	resizeOutputPath string
	resizeTarget     string
	resizeFormat     string
	resizeCrop       string
)

var resizeCmd = &cobra.Command{
	Use:   "resize [image]",
	Short: "Re-encode an image until it fits a target size",
	Long: `Re-encode an image at decreasing quality until it fits under a target size.

Quality starts at 0.95 and drops by 0.05 per attempt. If the target cannot be
reached, the smallest encoding is saved and a warning is printed.

Examples:
  pagefit resize photo.png -o photo.jpg --target 50KB
  pagefit resize scan.jpg -o scan.webp --target 200 --format webp
  pagefit resize id.jpg -o id_front.jpg --target 100KB --crop 0,0,800,500`,
	Args: cobra.ExactArgs(1),
	RunE: runResize,
}

func init() {
	rootCmd.AddCommand(resizeCmd)

	resizeCmd.Flags().StringVarP(&resizeOutputPath, "output", "o", "", "Output image path (required)")
	resizeCmd.Flags().StringVarP(&resizeTarget, "target", "t", "", "Target size, e.g. 50KB or 1.5MiB (bare numbers are KB)")
	resizeCmd.Flags().StringVar(&resizeFormat, "format", "", "Output format (jpeg, webp); defaults to the output extension")
	resizeCmd.Flags().StringVar(&resizeCrop, "crop", "", "Crop to x,y,width,height before fitting")

	resizeCmd.MarkFlagRequired("output")
}

func runResize(cmd *cobra.Command, args []string) error {
	inputPath := args[0]
	ctx := cmd.Context()

	if err := validateOutputPath(resizeOutputPath, ".jpg", ".jpeg", ".webp"); err != nil {
		return fmt.Errorf("output validation failed: %w", err)
	}

	target, err := parseTargetFlag(resizeTarget)
	if err != nil {
		return err
	}

	format := resizeFormat
	if format == "" {
		format = formatForPath(resizeOutputPath)
	}
	encoder, err := raster.EncoderFor(format)
	if err != nil {
		return err
	}
	if ext := formatForPath(resizeOutputPath); ext != string(encoder.Format()) {
		return fmt.Errorf("output extension does not match format %s", encoder.Format())
	}

	data, err := readInputFile(inputPath)
	if err != nil {
		return fmt.Errorf("input validation failed: %w", err)
	}

	img, err := raster.Decode(data)
	if err != nil {
		return err
	}

	if resizeCrop != "" {
		rect, err := raster.ParseRect(resizeCrop)
		if err != nil {
			return err
		}
		if img, err = raster.ApplyCrop(img, rect); err != nil {
			return err
		}
	}

	zerolog.Ctx(ctx).Info().
		Str("input", inputPath).
		Str("format", string(encoder.Format())).
		Stringer("target", target).
		Msg("fitting image")

	fitter := raster.NewFitter(encoder, cfg.Raster.Search)
	result, err := runFit(ctx, func(ctx context.Context) (fit.Result, error) {
		return fitter.FitToSize(ctx, img, target)
	})
	if err != nil {
		return fmt.Errorf("failed to fit image: %w", err)
	}

	if err := writeOutputFile(resizeOutputPath, result.Buffer.Data); err != nil {
		return err
	}

	printFitSummary("Image fitted", int64(len(data)), target, result, resizeOutputPath)
	return nil
}
