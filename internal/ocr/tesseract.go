package ocr

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/otiai10/gosseract/v2"

	"github.com/ironsheep/screen-ocr-mcp/internal/imaging"
	"github.com/ironsheep/screen-ocr-mcp/internal/langcodes"
)

// ModelExtension is the file extension of Tesseract language models.
const ModelExtension = ".traineddata"

// TesseractEngine implements Engine with the gosseract client.
//
// The prepared buffer is handed over as a BMP stream, which carries the
// buffer's resolution so Tesseract sees the upscaled density.
type TesseractEngine struct {
	client   *gosseract.Client
	hasImage bool
}

// NewTesseractEngine returns an uninitialized engine.
func NewTesseractEngine() *TesseractEngine {
	return &TesseractEngine{}
}

// NewTesseractFactory returns an EngineFactory producing Tesseract engines.
func NewTesseractFactory() EngineFactory {
	return func() Engine { return NewTesseractEngine() }
}

// Init implements Engine. It fails when the model file for language is
// missing from tessdataPath.
func (e *TesseractEngine) Init(tessdataPath, language string) error {
	if e.client != nil {
		return errors.New("engine already initialized")
	}

	code := langcodes.Tesseract(language)
	model := filepath.Join(tessdataPath, code+ModelExtension)
	if _, err := os.Stat(model); err != nil {
		return fmt.Errorf("language model %s: %w", code, err)
	}

	client := gosseract.NewClient()
	if err := client.SetTessdataPrefix(tessdataPath); err != nil {
		client.Close()
		return fmt.Errorf("failed to set tessdata path: %w", err)
	}
	if err := client.SetLanguage(code); err != nil {
		client.Close()
		return fmt.Errorf("failed to set language: %w", err)
	}

	e.client = client
	return nil
}

// SetImage implements Engine.
func (e *TesseractEngine) SetImage(buf *imaging.PixelBuffer) error {
	if e.client == nil {
		return ErrNotInitialized
	}
	data, err := imaging.EncodeBMP(buf)
	if err != nil {
		return err
	}
	if err := e.client.SetImageFromBytes(data); err != nil {
		return fmt.Errorf("failed to set image: %w", err)
	}
	e.hasImage = true
	return nil
}

// Text implements Engine.
func (e *TesseractEngine) Text() (string, error) {
	if e.client == nil {
		return "", ErrNotInitialized
	}
	if !e.hasImage {
		return "", errNoImage
	}
	text, err := e.client.Text()
	if err != nil {
		return "", fmt.Errorf("OCR failed: %w", err)
	}
	return text, nil
}

// Clear implements Engine. The client replaces its image on the next
// SetImage, so only the bookkeeping is reset here.
func (e *TesseractEngine) Clear() {
	e.hasImage = false
}

// Close implements Engine.
func (e *TesseractEngine) Close() error {
	if e.client == nil {
		return nil
	}
	err := e.client.Close()
	e.client = nil
	return err
}

// TesseractVersion returns the installed Tesseract version.
func TesseractVersion() string {
	client := gosseract.NewClient()
	defer client.Close()
	return client.Version()
}

// Info describes the OCR subsystem.
type Info struct {
	Available    bool     `json:"available"`
	Version      string   `json:"version,omitempty"`
	Error        string   `json:"error,omitempty"`
	Backend      string   `json:"backend"`
	TessdataPath string   `json:"tessdata_path,omitempty"`
	Languages    []string `json:"languages"`
}

// GetInfo reports the Tesseract version and the languages found in
// tessdataPath.
func GetInfo(tessdataPath string) Info {
	info := Info{
		Version:      TesseractVersion(),
		Backend:      "gosseract",
		TessdataPath: tessdataPath,
		Languages:    AvailableLanguageNames(tessdataPath),
	}
	info.Available = info.Version != "" && len(info.Languages) > 0
	if len(info.Languages) == 0 {
		info.Error = "no language models found"
	}
	return info
}
