package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/alde/pagefit/pkg/fit"
	"github.com/joho/godotenv"
)

// Prefix is prepended to every environment variable read here
const Prefix = "PAGEFIT_"

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level      string
	Pretty     bool
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// RasterConfig controls image fitting
type RasterConfig struct {
	Search fit.Config
}

// DocumentConfig controls PDF fitting
type DocumentConfig struct {
	Engine  string
	Quality float64
	Search  fit.Config
}

// PreviewConfig controls page extraction and image conversion
type PreviewConfig struct {
	Scale        float64
	Quality      float64
	ImageQuality float64
}

// Config is the top-level configuration
type Config struct {
	Logging  LoggingConfig
	Raster   RasterConfig
	Document DocumentConfig
	Preview  PreviewConfig
}

// Load reads an optional .env file and then the environment. A missing
// .env file is not an error; variables already set are not overridden.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, err
		}
	}
	return FromEnv(), nil
}

// FromEnv loads configuration from the environment with defaults matching
// the fitters' built-in values.
func FromEnv() Config {
	cfg := Config{}

	cfg.Logging = LoggingConfig{
		Level:      getEnv("LOG_LEVEL", "info"),
		Pretty:     parseBool(getEnv("LOG_PRETTY", "true")),
		File:       getEnv("LOG_FILE", ""),
		MaxSizeMB:  parseInt(getEnv("LOG_MAX_SIZE_MB", "10"), 10),
		MaxBackups: parseInt(getEnv("LOG_MAX_BACKUPS", "3"), 3),
		MaxAgeDays: parseInt(getEnv("LOG_MAX_AGE_DAYS", "7"), 7),
		Compress:   parseBool(getEnv("LOG_COMPRESS", "false")),
	}

	cfg.Raster = RasterConfig{
		Search: fit.Config{
			Initial:     parseFloat(getEnv("RASTER_INITIAL", "0.95"), 0.95),
			Step:        parseFloat(getEnv("RASTER_STEP", "0.05"), 0.05),
			Min:         parseFloat(getEnv("RASTER_MIN", "0.05"), 0.05),
			MaxAttempts: parseInt(getEnv("RASTER_MAX_ATTEMPTS", "18"), 18),
		},
	}

	cfg.Document = DocumentConfig{
		Engine:  strings.ToLower(getEnv("ENGINE", "pdfium")),
		Quality: parseFloat(getEnv("DOCUMENT_QUALITY", "0.85"), 0.85),
		Search: fit.Config{
			Initial:     parseFloat(getEnv("DOCUMENT_INITIAL", "0.8"), 0.8),
			Step:        parseFloat(getEnv("DOCUMENT_STEP", "0.05"), 0.05),
			Min:         parseFloat(getEnv("DOCUMENT_MIN", "0.3"), 0.3),
			MaxAttempts: parseInt(getEnv("DOCUMENT_MAX_ATTEMPTS", "0"), 0),
		},
	}

	cfg.Preview = PreviewConfig{
		Scale:        parseFloat(getEnv("PREVIEW_SCALE", "2"), 2),
		Quality:      parseFloat(getEnv("PREVIEW_QUALITY", "0.9"), 0.9),
		ImageQuality: parseFloat(getEnv("IMAGE_QUALITY", "0.92"), 0.92),
	}

	return cfg
}

// Helpers
func getEnv(key, def string) string {
	if v := os.Getenv(Prefix + key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

func parseFloat(s string, def float64) float64 {
	if s == "" {
		return def
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return def
}

func parseBool(s string) bool {
	v := strings.ToLower(strings.TrimSpace(s))
	return v == "1" || v == "true" || v == "yes" || v == "on"
}
