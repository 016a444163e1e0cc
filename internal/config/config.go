// Package config provides TOML configuration loading for the motion
// capture server.
//
// The configuration file supports the following structure:
//
//	[server]
//	address = ":8080"
//
//	[storage]
//	db_path = "dtw.db"
//	recordings_dir = "recordings"
//	templates_dir = "templates"
//
//	[capture]
//	use_z = false
//	display_smoothing_factor = 0.5
//	worker_pool_size = 0
//
//	[dtw]
//	sakoe_band = "auto"
//
// Example usage:
//
//	cfg, err := config.Load("config.toml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("Listening on %s\n", cfg.Server.Address)
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config represents the complete configuration for the server.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Storage StorageConfig `toml:"storage"`
	Capture CaptureConfig `toml:"capture"`
	DTW     DTWConfig     `toml:"dtw"`
}

// ServerConfig holds HTTP/WebSocket listener settings.
type ServerConfig struct {
	// Address is the listen address, e.g. ":8080" (default: ":8080").
	Address string `toml:"address"`
}

// StorageConfig holds on-disk layout settings (spec.md §6).
type StorageConfig struct {
	// DBPath is the SQLite database file (default: "dtw.db"). May be
	// overridden by the DB_URL environment variable.
	DBPath string `toml:"db_path"`
	// RecordingsDir holds encoded session MP4s (default: "recordings").
	RecordingsDir string `toml:"recordings_dir"`
	// TemplatesDir holds reference .npz templates (default: "templates").
	TemplatesDir string `toml:"templates_dir"`
}

// CaptureConfig holds feature-extraction and display settings.
type CaptureConfig struct {
	// UseZ enables the 3-D pose feature variant (99-dim instead of 66).
	UseZ bool `toml:"use_z"`
	// DisplaySmoothingFactor is the live-keypoints Kalman smoothing factor
	// (0.0-1.0, default: 0.5). It is validated and logged at startup but
	// not passed to sessions: capture.NewSession always builds its
	// smoother with a factor of 0.5. Never affects scoring (spec.md §4.9).
	DisplaySmoothingFactor float64 `toml:"display_smoothing_factor"`
	// WorkerPoolSize bounds the CPU-worker pool for decode/extraction/DTW
	// (default: 0, meaning GOMAXPROCS).
	WorkerPoolSize int `toml:"worker_pool_size"`
}

// DTWConfig holds default DTW engine settings.
type DTWConfig struct {
	// SakoeBand is "auto", "" (unconstrained), or a literal radius as a
	// string, e.g. "5".
	SakoeBand string `toml:"sakoe_band"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Address: ":8080",
		},
		Storage: StorageConfig{
			DBPath:        "dtw.db",
			RecordingsDir: "recordings",
			TemplatesDir:  "templates",
		},
		Capture: CaptureConfig{
			UseZ:                   false,
			DisplaySmoothingFactor: 0.5,
			WorkerPoolSize:         0,
		},
		DTW: DTWConfig{
			SakoeBand: "auto",
		},
	}
}

// Load reads and parses a TOML configuration file.
// If the file does not exist, it returns the default configuration.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if _, err := toml.Decode(string(data), cfg); err != nil {
				return nil, fmt.Errorf("parsing config file: %w", err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	if dbURL := os.Getenv("DB_URL"); dbURL != "" {
		cfg.Storage.DBPath = dbURL
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Server.Address == "" {
		return fmt.Errorf("server address must not be empty")
	}
	if c.Storage.DBPath == "" {
		return fmt.Errorf("storage db_path must not be empty")
	}
	if c.Storage.RecordingsDir == "" {
		return fmt.Errorf("storage recordings_dir must not be empty")
	}
	if c.Storage.TemplatesDir == "" {
		return fmt.Errorf("storage templates_dir must not be empty")
	}
	if c.Capture.DisplaySmoothingFactor < 0 || c.Capture.DisplaySmoothingFactor > 1 {
		return fmt.Errorf("display_smoothing_factor must be between 0 and 1, got %f", c.Capture.DisplaySmoothingFactor)
	}
	if c.Capture.WorkerPoolSize < 0 {
		return fmt.Errorf("worker_pool_size must be non-negative, got %d", c.Capture.WorkerPoolSize)
	}
	switch c.DTW.SakoeBand {
	case "", "auto":
	default:
		var radius int
		if _, err := fmt.Sscanf(c.DTW.SakoeBand, "%d", &radius); err != nil || radius < 0 {
			return fmt.Errorf("dtw.sakoe_band must be \"auto\", empty, or a non-negative integer, got %q", c.DTW.SakoeBand)
		}
	}
	return nil
}

// Resolve converts the configured SakoeBand string to a
// *capture.Band-compatible radius/auto pair. Returned as (radius, auto,
// unconstrained) to avoid importing pkg/capture from this package.
func (c *DTWConfig) Resolve() (radius int, auto bool, unconstrained bool) {
	switch c.SakoeBand {
	case "":
		return 0, false, true
	case "auto":
		return 0, true, false
	default:
		fmt.Sscanf(c.SakoeBand, "%d", &radius)
		return radius, false, false
	}
}
