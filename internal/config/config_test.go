package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg := FromEnv()

	if cfg.Logging.Level != "info" {
		t.Errorf("Expected log level info, got %s", cfg.Logging.Level)
	}
	if cfg.Raster.Search.Initial != 0.95 || cfg.Raster.Search.Min != 0.05 || cfg.Raster.Search.MaxAttempts != 18 {
		t.Errorf("Unexpected raster search defaults: %+v", cfg.Raster.Search)
	}
	if cfg.Document.Search.Initial != 0.8 || cfg.Document.Search.Min != 0.3 {
		t.Errorf("Unexpected document search defaults: %+v", cfg.Document.Search)
	}
	if cfg.Document.Quality != 0.85 {
		t.Errorf("Expected document quality 0.85, got %v", cfg.Document.Quality)
	}
	if cfg.Document.Engine != "pdfium" {
		t.Errorf("Expected pdfium engine, got %s", cfg.Document.Engine)
	}
	if cfg.Preview.Scale != 2 || cfg.Preview.Quality != 0.9 || cfg.Preview.ImageQuality != 0.92 {
		t.Errorf("Unexpected preview defaults: %+v", cfg.Preview)
	}
	if err := cfg.Raster.Search.Validate(); err != nil {
		t.Errorf("Default raster search should be valid: %v", err)
	}
	if err := cfg.Document.Search.Validate(); err != nil {
		t.Errorf("Default document search should be valid: %v", err)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("PAGEFIT_LOG_LEVEL", "debug")
	t.Setenv("PAGEFIT_LOG_PRETTY", "no")
	t.Setenv("PAGEFIT_ENGINE", "MuPDF")
	t.Setenv("PAGEFIT_RASTER_STEP", "0.1")
	t.Setenv("PAGEFIT_DOCUMENT_MAX_ATTEMPTS", "not-a-number")

	cfg := FromEnv()

	if cfg.Logging.Level != "debug" {
		t.Errorf("Expected debug, got %s", cfg.Logging.Level)
	}
	if cfg.Logging.Pretty {
		t.Error("Expected pretty logging disabled")
	}
	if cfg.Document.Engine != "mupdf" {
		t.Errorf("Expected mupdf, got %s", cfg.Document.Engine)
	}
	if cfg.Raster.Search.Step != 0.1 {
		t.Errorf("Expected step 0.1, got %v", cfg.Raster.Search.Step)
	}
	if cfg.Document.Search.MaxAttempts != 0 {
		t.Errorf("Invalid value should fall back to default, got %d", cfg.Document.Search.MaxAttempts)
	}
}

func TestLoadReadsDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("PAGEFIT_PREVIEW_SCALE=3\n"), 0o644); err != nil {
		t.Fatalf("Failed to write env file: %v", err)
	}
	// Registered so t.Setenv restores the variable godotenv sets.
	t.Setenv("PAGEFIT_PREVIEW_SCALE", "")
	os.Unsetenv("PAGEFIT_PREVIEW_SCALE")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.Preview.Scale != 3 {
		t.Errorf("Expected scale 3 from .env, got %v", cfg.Preview.Scale)
	}
}

func TestLoadIgnoresMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Errorf("Missing .env should not be an error, got %v", err)
	}
}

func TestParseBool(t *testing.T) {
	tests := map[string]bool{"1": true, "TRUE": true, " yes ": true, "on": true, "0": false, "off": false, "": false}
	for input, expected := range tests {
		if got := parseBool(input); got != expected {
			t.Errorf("parseBool(%q): expected %v, got %v", input, expected, got)
		}
	}
}
