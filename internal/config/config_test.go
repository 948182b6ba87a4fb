package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "eng", cfg.Tesseract.Language)
	assert.Equal(t, 500.0, cfg.Preprocess.TargetDensity)
	assert.Equal(t, 0.95, cfg.Preprocess.MemoryMargin)
	assert.Equal(t, 96, cfg.Preprocess.DefaultDensity)
}

func TestLoad_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ocr.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
tesseract:
  tessdata_path: /opt/tessdata
  language: deu
preprocess:
  target_density: 300
  interpolation: catmull-rom
log:
  format: json
`), 0o644))

	cfg, err := Load(path, "")
	require.NoError(t, err)
	assert.Equal(t, "/opt/tessdata", cfg.Tesseract.TessdataPath)
	assert.Equal(t, "deu", cfg.Tesseract.Language)
	assert.Equal(t, 300.0, cfg.Preprocess.TargetDensity)
	assert.Equal(t, 0.95, cfg.Preprocess.MemoryMargin, "unset keys keep defaults")
	assert.Equal(t, "catmull-rom", cfg.Preprocess.Interpolation)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("OCR_LANGUAGE", "fra")
	t.Setenv("OCR_DEFAULT_DENSITY", "72")
	t.Setenv("OCR_MEMORY_LIMIT", "1048576")
	t.Setenv("OCR_LOG_LEVEL", "trace")

	cfg, err := Load("", "")
	require.NoError(t, err)
	assert.Equal(t, "fra", cfg.Tesseract.Language)
	assert.Equal(t, 72, cfg.Preprocess.DefaultDensity)
	assert.Equal(t, int64(1048576), cfg.Preprocess.MemoryLimit)
	assert.Equal(t, "trace", cfg.Log.Level)
}

func TestLoad_EnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("OCR_TESSDATA_PATH=/from/dotenv\n"), 0o644))
	t.Setenv("OCR_TESSDATA_PATH", "")
	os.Unsetenv("OCR_TESSDATA_PATH")

	cfg, err := Load("", envFile)
	require.NoError(t, err)
	assert.Equal(t, "/from/dotenv", cfg.Tesseract.TessdataPath)

	_, err = Load("", filepath.Join(dir, "missing.env"))
	assert.NoError(t, err, "a missing env file is not an error")
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), "")
	assert.ErrorContains(t, err, "read config file")

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("tesseract: [unclosed"), 0o644))
	_, err = Load(bad, "")
	assert.ErrorContains(t, err, "parse config file")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no language", func(c *Config) { c.Tesseract.Language = "" }},
		{"zero target", func(c *Config) { c.Preprocess.TargetDensity = 0 }},
		{"margin above one", func(c *Config) { c.Preprocess.MemoryMargin = 1.5 }},
		{"negative density", func(c *Config) { c.Preprocess.DefaultDensity = -1 }},
		{"bad interpolation", func(c *Config) { c.Preprocess.Interpolation = "lanczos9" }},
		{"negative cache", func(c *Config) { c.Worker.MaxEntries = -1 }},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
