package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alde/pagefit/internal/config"
	"github.com/alde/pagefit/internal/logger"
	"github.com/spf13/cobra"
)

var (
	cfg = loadConfig()

	verbose  bool
	logLevel string
	logFile  string
)

var rootCmd = &cobra.Command{
	Use:   "pagefit",
	Short: "Shrink images and PDFs until they fit a size limit",
	Long: `Pagefit re-encodes images and re-renders PDFs so they fit under an
upload size limit, trading quality or resolution for bytes.

Currently supports:
- Fitting JPEG and WebP images to a target size
- Compressing PDFs by re-rendering every page at a lower scale
- Converting images to PDF and PDF pages to images
- Cropping images`,
	Version:           "0.1.0",
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupLogging,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Close()
	},
}

// Execute runs the root command. Interrupts cancel any in-flight fit at
// its next attempt.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", cfg.Logging.Level, "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", cfg.Logging.File, "Also write logs to this file, rotated")
}

func loadConfig() config.Config {
	loaded, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to read .env: %v\n", err)
		return config.FromEnv()
	}
	return loaded
}

func setupLogging(cmd *cobra.Command, args []string) error {
	err := logger.Init(logger.Options{
		Level:      logLevel,
		Verbose:    verbose,
		Pretty:     cfg.Logging.Pretty,
		File:       logFile,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(logger.Get().WithContext(ctx))
	return nil
}
