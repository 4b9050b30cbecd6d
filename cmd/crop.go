package cmd

import (
	"fmt"

	"github.com/alde/pagefit/pkg/raster"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var (
	cropOutputPath string
	cropRect       string
	cropQuality    float64
)

var cropCmd = &cobra.Command{
	Use:   "crop [image]",
	Short: "Crop an image to a rectangle",
	Long: `Crop an image to a rectangle given in source pixel coordinates.

Examples:
  pagefit crop scan.jpg -o receipt.jpg --rect 120,80,900,1400
  pagefit crop photo.png -o face.webp --rect 0,0,512,512`,
	Args: cobra.ExactArgs(1),
	RunE: runCrop,
}

// cropSlot holds the single active crop session
var cropSlot raster.CropSlot

func init() {
	rootCmd.AddCommand(cropCmd)

	cropCmd.Flags().StringVarP(&cropOutputPath, "output", "o", "", "Output image path (required)")
	cropCmd.Flags().StringVar(&cropRect, "rect", "", "Crop rectangle as x,y,width,height (required)")
	cropCmd.Flags().Float64Var(&cropQuality, "quality", cfg.Preview.Quality, "Encoding quality of the cropped image (0-1)")

	cropCmd.MarkFlagRequired("output")
	cropCmd.MarkFlagRequired("rect")
}

func runCrop(cmd *cobra.Command, args []string) error {
	inputPath := args[0]

	if err := validateOutputPath(cropOutputPath, ".jpg", ".jpeg", ".webp"); err != nil {
		return fmt.Errorf("output validation failed: %w", err)
	}
	if err := validateQuality(cropQuality); err != nil {
		return err
	}

	rect, err := raster.ParseRect(cropRect)
	if err != nil {
		return err
	}

	encoder, err := raster.EncoderFor(formatForPath(cropOutputPath))
	if err != nil {
		return err
	}

	data, err := readInputFile(inputPath)
	if err != nil {
		return fmt.Errorf("input validation failed: %w", err)
	}

	img, err := raster.Decode(data)
	if err != nil {
		return err
	}

	if _, err := cropSlot.Start(img); err != nil {
		return err
	}
	defer cropSlot.Cancel()

	cropped, err := cropSlot.Apply(rect)
	if err != nil {
		return fmt.Errorf("failed to crop image: %w", err)
	}

	buf, err := encoder.Encode(cropped, cropQuality)
	if err != nil {
		return fmt.Errorf("failed to encode cropped image: %w", err)
	}

	if err := writeOutputFile(cropOutputPath, buf.Data); err != nil {
		return err
	}

	bounds := cropped.Bounds()
	fmt.Printf("✅ Cropped to %dx%d (%s)\n", bounds.Dx(), bounds.Dy(), humanize.IBytes(uint64(buf.Size())))
	fmt.Printf("Saved to %s\n", cropOutputPath)
	return nil
}
