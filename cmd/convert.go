package cmd

import (
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/alde/pagefit/pkg/document"
	"github.com/alde/pagefit/pkg/fit"
	"github.com/alde/pagefit/pkg/raster"
	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	convertOutputPath string
	convertPages      string
	convertScale      float64
	convertCrop       string
	convertEngine     string
)

var convertCmd = &cobra.Command{
	Use:   "convert [input files]",
	Short: "Convert images to PDF or PDF pages to images",
	Long: `Convert between images and PDF. The direction is detected from the input.

Images become a PDF with one page per image, each page sized to the image.
PDF pages are rendered at a fixed scale and written one image per page;
when several pages are selected the page number is appended to the name.

Examples:
  pagefit convert front.jpg back.jpg -o id.pdf
  pagefit convert scan.pdf -o cover.jpg
  pagefit convert scan.pdf -o page.webp --pages "1-3,7" --scale 1.5
  pagefit convert photo.png -o photo.pdf --crop 0,0,1200,1600`,
	Args: cobra.MinimumNArgs(1),
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().StringVarP(&convertOutputPath, "output", "o", "", "Output file path (required)")
	convertCmd.Flags().StringVar(&convertPages, "pages", "1", "Page ranges to export from a PDF (e.g., \"1-2,5\")")
	convertCmd.Flags().Float64Var(&convertScale, "scale", cfg.Preview.Scale, "Render scale for PDF pages (1 = 72 DPI)")
	convertCmd.Flags().StringVar(&convertCrop, "crop", "", "Crop images or rendered pages to x,y,width,height")
	convertCmd.Flags().StringVar(&convertEngine, "engine", cfg.Document.Engine, "PDF renderer (pdfium, mupdf)")

	convertCmd.MarkFlagRequired("output")
}

func runConvert(cmd *cobra.Command, args []string) error {
	inputs := make([][]byte, 0, len(args))
	for _, path := range args {
		data, err := readInputFile(path)
		if err != nil {
			return fmt.Errorf("input validation failed: %w", err)
		}
		inputs = append(inputs, data)
	}

	var crop *image.Rectangle
	if convertCrop != "" {
		rect, err := raster.ParseRect(convertCrop)
		if err != nil {
			return err
		}
		crop = &rect
	}

	if document.IsPDF(inputs[0]) {
		if len(inputs) > 1 {
			return fmt.Errorf("only one PDF can be converted at a time")
		}
		return convertPDFToImages(cmd, args[0], inputs[0], crop)
	}
	return convertImagesToPDF(cmd, args, inputs, crop)
}

func convertImagesToPDF(cmd *cobra.Command, paths []string, inputs [][]byte, crop *image.Rectangle) error {
	if err := validateOutputPath(convertOutputPath, ".pdf"); err != nil {
		return fmt.Errorf("output validation failed: %w", err)
	}

	imgs := make([]image.Image, 0, len(inputs))
	for i, data := range inputs {
		if !raster.IsImage(data) {
			return fmt.Errorf("unsupported input format: %s (expected an image or a PDF)", paths[i])
		}
		img, err := raster.Decode(data)
		if err != nil {
			return fmt.Errorf("failed to decode %s: %w", paths[i], err)
		}
		if crop != nil {
			if img, err = raster.ApplyCrop(img, *crop); err != nil {
				return fmt.Errorf("failed to crop %s: %w", paths[i], err)
			}
		}
		imgs = append(imgs, img)
	}

	zerolog.Ctx(cmd.Context()).Info().Int("images", len(imgs)).Msg("building PDF from images")

	buf, err := document.FromImages(document.NewPDFCPUAssembler(), raster.JPEGEncoder{}, cfg.Preview.ImageQuality, imgs...)
	if err != nil {
		return fmt.Errorf("failed to build PDF: %w", err)
	}

	if err := writeOutputFile(convertOutputPath, buf.Data); err != nil {
		return err
	}

	fmt.Printf("✅ Converted %d image(s) to PDF (%s)\n", len(imgs), humanize.IBytes(uint64(buf.Size())))
	fmt.Printf("Saved to %s\n", convertOutputPath)
	return nil
}

func convertPDFToImages(cmd *cobra.Command, inputPath string, data []byte, crop *image.Rectangle) error {
	ctx := cmd.Context()

	if err := validateOutputPath(convertOutputPath, ".jpg", ".jpeg", ".webp"); err != nil {
		return fmt.Errorf("output validation failed: %w", err)
	}

	encoder, err := raster.EncoderFor(formatForPath(convertOutputPath))
	if err != nil {
		return err
	}

	selection, err := document.ParsePageRanges(convertPages)
	if err != nil {
		return fmt.Errorf("invalid page range: %w", err)
	}
	if selection.Empty() {
		return fmt.Errorf("no pages selected")
	}

	engine, err := openEngine(convertEngine)
	if err != nil {
		return err
	}
	defer engine.Close()

	doc, err := document.Decode(ctx, engine, data)
	if err != nil {
		return err
	}
	defer doc.Close()

	if err := selection.ValidateAgainstTotal(doc.PageCount()); err != nil {
		return fmt.Errorf("invalid page range: %w", err)
	}
	indices := selection.Indices()

	zerolog.Ctx(ctx).Info().
		Str("input", inputPath).
		Str("pages", selection.String()).
		Int("count", selection.Count()).
		Float64("scale", convertScale).
		Msg("exporting pages")

	var bufs []fit.Buffer
	if crop == nil {
		bufs, err = document.ExportPages(ctx, doc, indices, convertScale, encoder, cfg.Preview.Quality)
		if err != nil {
			return fmt.Errorf("failed to export pages: %w", err)
		}
	} else {
		for _, index := range indices {
			buf, err := exportCroppedPage(cmd, doc, index, *crop, encoder)
			if err != nil {
				return err
			}
			bufs = append(bufs, buf)
		}
	}

	for i, buf := range bufs {
		path := convertOutputPath
		if len(bufs) > 1 {
			path = pageOutputPath(convertOutputPath, indices[i]+1)
		}
		if err := writeOutputFile(path, buf.Data); err != nil {
			return err
		}
		fmt.Printf("  ✓ page %d → %s (%s)\n", indices[i]+1, path, humanize.IBytes(uint64(buf.Size())))
	}

	fmt.Printf("✅ Exported %d page(s) from %s\n", len(bufs), filepath.Base(inputPath))
	return nil
}

func exportCroppedPage(cmd *cobra.Command, doc *document.Document, index int, crop image.Rectangle, encoder raster.Encoder) (fit.Buffer, error) {
	img, err := document.ExtractPagePreview(cmd.Context(), doc, index, convertScale)
	if err != nil {
		return fit.Buffer{}, err
	}

	cropped, err := raster.ApplyCrop(img, crop)
	if err != nil {
		return fit.Buffer{}, fmt.Errorf("failed to crop page %d: %w", index+1, err)
	}

	buf, err := encoder.Encode(cropped, cfg.Preview.Quality)
	if err != nil {
		return fit.Buffer{}, fmt.Errorf("failed to encode page %d: %w", index+1, err)
	}
	return buf, nil
}

// pageOutputPath turns "out/page.jpg" into "out/page_3.jpg"
func pageOutputPath(path string, page int) string {
	ext := filepath.Ext(path)
	return fmt.Sprintf("%s_%d%s", strings.TrimSuffix(path, ext), page, ext)
}
