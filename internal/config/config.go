// Package config loads runtime settings from a YAML file, a .env file and
// the environment, in increasing order of precedence.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ironsheep/screen-ocr-mcp/internal/imaging"
)

// Config holds all configuration for the OCR server.
type Config struct {
	Tesseract  TesseractConfig  `yaml:"tesseract"`
	Preprocess PreprocessConfig `yaml:"preprocess"`
	Worker     WorkerConfig     `yaml:"worker"`
	Log        LogConfig        `yaml:"log"`
}

// TesseractConfig selects the model directory and default language.
type TesseractConfig struct {
	TessdataPath string `yaml:"tessdata_path"`
	Language     string `yaml:"language"`
}

// PreprocessConfig tunes the image pipeline.
type PreprocessConfig struct {
	// TargetDensity is the density captures are upscaled towards.
	TargetDensity float64 `yaml:"target_density"`
	// MemoryMargin is the share of free memory scaling may use.
	MemoryMargin float64 `yaml:"memory_margin"`
	// DefaultDensity is assumed for files that record none. 0 disables
	// scaling for such files.
	DefaultDensity int `yaml:"default_density"`
	// Interpolation is one of the imaging.Interpolators names.
	Interpolation string `yaml:"interpolation"`
	// MemoryLimit, when positive, replaces the OS memory probe.
	MemoryLimit int64 `yaml:"memory_limit"`
}

// WorkerConfig tunes the recognition worker.
type WorkerConfig struct {
	// MaxEntries bounds the recognized-text cache. 0 disables it.
	MaxEntries int `yaml:"max_entries"`
	// MaxHashDistance is the largest difference-hash distance treated as
	// the same capture.
	MaxHashDistance int `yaml:"max_hash_distance"`
}

// LogConfig selects log level and format.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json or console
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Tesseract: TesseractConfig{
			TessdataPath: os.Getenv("TESSDATA_PREFIX"),
			Language:     "eng",
		},
		Preprocess: PreprocessConfig{
			TargetDensity:  imaging.DefaultTargetDensity,
			MemoryMargin:   imaging.DefaultMemoryMargin,
			DefaultDensity: 96,
			Interpolation:  "bilinear",
		},
		Worker: WorkerConfig{
			MaxEntries:      32,
			MaxHashDistance: 0,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads path (optional), then envFile (optional, missing is fine),
// then applies environment overrides and validates the result.
func Load(path, envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read env file: %w", err)
		}
	}

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Tesseract.Language == "" {
		return fmt.Errorf("tesseract language must be set")
	}
	if c.Preprocess.TargetDensity <= 0 {
		return fmt.Errorf("invalid target density: %v", c.Preprocess.TargetDensity)
	}
	if c.Preprocess.MemoryMargin <= 0 || c.Preprocess.MemoryMargin > 1 {
		return fmt.Errorf("memory margin must be in (0, 1]: %v", c.Preprocess.MemoryMargin)
	}
	if c.Preprocess.DefaultDensity < 0 {
		return fmt.Errorf("invalid default density: %d", c.Preprocess.DefaultDensity)
	}
	if _, ok := imaging.Interpolators[c.Preprocess.Interpolation]; !ok {
		return fmt.Errorf("unknown interpolation: %s", c.Preprocess.Interpolation)
	}
	if c.Worker.MaxEntries < 0 || c.Worker.MaxHashDistance < 0 {
		return fmt.Errorf("worker settings must not be negative")
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("invalid log format: %s", c.Log.Format)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("OCR_TESSDATA_PATH"); v != "" {
		cfg.Tesseract.TessdataPath = v
	}
	if v := os.Getenv("OCR_LANGUAGE"); v != "" {
		cfg.Tesseract.Language = v
	}
	if v := os.Getenv("OCR_DEFAULT_DENSITY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Preprocess.DefaultDensity = n
		}
	}
	if v := os.Getenv("OCR_MEMORY_LIMIT"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Preprocess.MemoryLimit = n
		}
	}
	if v := os.Getenv("OCR_INTERPOLATION"); v != "" {
		cfg.Preprocess.Interpolation = v
	}
	if v := os.Getenv("OCR_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("OCR_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}
