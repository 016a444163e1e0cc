package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Server.Address != ":8080" {
		t.Errorf("expected Address :8080, got %s", cfg.Server.Address)
	}
	if cfg.Storage.DBPath != "dtw.db" {
		t.Errorf("expected DBPath dtw.db, got %s", cfg.Storage.DBPath)
	}
	if cfg.Storage.RecordingsDir != "recordings" {
		t.Errorf("expected RecordingsDir recordings, got %s", cfg.Storage.RecordingsDir)
	}
	if cfg.Storage.TemplatesDir != "templates" {
		t.Errorf("expected TemplatesDir templates, got %s", cfg.Storage.TemplatesDir)
	}
	if cfg.Capture.UseZ {
		t.Error("expected UseZ to be false")
	}
	if cfg.Capture.DisplaySmoothingFactor != 0.5 {
		t.Errorf("expected DisplaySmoothingFactor 0.5, got %f", cfg.Capture.DisplaySmoothingFactor)
	}
	if cfg.DTW.SakoeBand != "auto" {
		t.Errorf("expected SakoeBand auto, got %s", cfg.DTW.SakoeBand)
	}
}

func TestLoad_EmptyPath(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg == nil {
		t.Fatal("expected non-nil config")
	}
}

func TestLoad_NonExistentFile(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.toml")
	if err != nil {
		t.Fatalf("unexpected error for non-existent file: %v", err)
	}
	if cfg == nil {
		t.Fatal("expected default config for non-existent file")
	}
}

func TestLoad_ValidFile(t *testing.T) {
	content := `
[server]
address = ":9090"

[storage]
db_path = "custom.db"
recordings_dir = "recs"
templates_dir = "tmpl"

[capture]
use_z = true
display_smoothing_factor = 0.8
worker_pool_size = 4

[dtw]
sakoe_band = "5"
`
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Address != ":9090" {
		t.Errorf("expected Address :9090, got %s", cfg.Server.Address)
	}
	if cfg.Storage.DBPath != "custom.db" {
		t.Errorf("expected DBPath custom.db, got %s", cfg.Storage.DBPath)
	}
	if !cfg.Capture.UseZ {
		t.Error("expected UseZ to be true")
	}
	if cfg.Capture.DisplaySmoothingFactor != 0.8 {
		t.Errorf("expected DisplaySmoothingFactor 0.8, got %f", cfg.Capture.DisplaySmoothingFactor)
	}
	if cfg.Capture.WorkerPoolSize != 4 {
		t.Errorf("expected WorkerPoolSize 4, got %d", cfg.Capture.WorkerPoolSize)
	}
	if cfg.DTW.SakoeBand != "5" {
		t.Errorf("expected SakoeBand 5, got %s", cfg.DTW.SakoeBand)
	}
}

func TestLoad_DBUrlEnvOverride(t *testing.T) {
	t.Setenv("DB_URL", "env.db")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Storage.DBPath != "env.db" {
		t.Errorf("expected DB_URL override to apply, got %s", cfg.Storage.DBPath)
	}
}

func TestLoad_InvalidTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "invalid.toml")
	if err := os.WriteFile(path, []byte("invalid [ toml"), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	_, err := Load(path)
	if err == nil {
		t.Error("expected error for invalid TOML")
	}
}

func TestValidate_EmptyAddress(t *testing.T) {
	cfg := Default()
	cfg.Server.Address = ""
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for empty server address")
	}
}

func TestValidate_InvalidSmoothingFactor(t *testing.T) {
	cfg := Default()
	cfg.Capture.DisplaySmoothingFactor = 1.5
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for smoothing factor > 1")
	}

	cfg.Capture.DisplaySmoothingFactor = -0.1
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for smoothing factor < 0")
	}
}

func TestValidate_InvalidSakoeBand(t *testing.T) {
	cfg := Default()
	cfg.DTW.SakoeBand = "not-a-number"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for invalid sakoe_band")
	}
}

func TestResolve(t *testing.T) {
	cases := []struct {
		band          string
		wantRadius    int
		wantAuto      bool
		wantUnconstr  bool
	}{
		{"", 0, false, true},
		{"auto", 0, true, false},
		{"7", 7, false, false},
	}
	for _, c := range cases {
		d := DTWConfig{SakoeBand: c.band}
		radius, auto, unconstrained := d.Resolve()
		if radius != c.wantRadius || auto != c.wantAuto || unconstrained != c.wantUnconstr {
			t.Errorf("Resolve(%q) = (%d, %v, %v), want (%d, %v, %v)", c.band, radius, auto, unconstrained, c.wantRadius, c.wantAuto, c.wantUnconstr)
		}
	}
}
