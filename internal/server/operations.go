package server

import (
	"context"
	"fmt"
	"os"

	"github.com/ironsheep/screen-ocr-mcp/internal/imaging"
	"github.com/ironsheep/screen-ocr-mcp/internal/langcodes"
	"github.com/ironsheep/screen-ocr-mcp/internal/memprobe"
	"github.com/ironsheep/screen-ocr-mcp/internal/ocr"
	"github.com/ironsheep/screen-ocr-mcp/internal/worker"
)

// Box is a rectangle in image coordinates, (X1,Y1) inclusive and (X2,Y2)
// exclusive.
type Box struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// Target selects an image and optionally a part of it. Reload drops the
// cached decode first, for captures rewritten under the same path.
type Target struct {
	Path   string `json:"path"`
	Region string `json:"region,omitempty"`
	Box    *Box   `json:"box,omitempty"`
	Reload bool   `json:"reload,omitempty"`
}

// RecognizeResult is the outcome of a recognition. Error carries the
// user-visible failure message when no text was produced.
type RecognizeResult struct {
	Text     string `json:"text"`
	Error    string `json:"error,omitempty"`
	Language string `json:"language"`
	Cached   bool   `json:"cached"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	XDPI     int    `json:"x_dpi"`
	YDPI     int    `json:"y_dpi"`

	Image *imaging.ImageInfo `json:"image"`
}

// PrepareResult describes a prepared buffer and how it was scaled.
type PrepareResult struct {
	*imaging.EncodedImage
	Scale      imaging.ScaleDecision `json:"scale_decision"`
	OutputPath string                `json:"output_path,omitempty"`
}

// ScaleResult explains the upscaling decision for an image.
type ScaleResult struct {
	Width        int                   `json:"width"`
	Height       int                   `json:"height"`
	XDPI         int                   `json:"x_dpi"`
	YDPI         int                   `json:"y_dpi"`
	Decision     imaging.ScaleDecision `json:"decision"`
	ScaledWidth  int                   `json:"scaled_width"`
	ScaledHeight int                   `json:"scaled_height"`
	Image        *imaging.ImageInfo    `json:"image"`
}

// LanguagesResult lists installed languages.
type LanguagesResult struct {
	TessdataPath string               `json:"tessdata_path"`
	Default      string               `json:"default"`
	Languages    []langcodes.Language `json:"languages"`
}

// MemoryResult reports the memory bound input.
type MemoryResult struct {
	AvailableBytes int64 `json:"available_bytes"`
	Known          bool  `json:"known"`
	Limited        bool  `json:"limited"`
}

// InfoResult describes the engine and pipeline settings.
type InfoResult struct {
	Engine         ocr.Info `json:"engine"`
	Language       string   `json:"default_language"`
	TargetDensity  float64  `json:"target_density"`
	MemoryMargin   float64  `json:"memory_margin"`
	DefaultDensity int      `json:"default_density"`
	Interpolation  string   `json:"interpolation"`
	LoadedEngines  []string `json:"loaded_engines"`
	LiveBuffers    int      `json:"live_buffers"`
}

// ResetResult reports the state after a reset.
type ResetResult struct {
	TessdataPath string   `json:"tessdata_path"`
	Languages    []string `json:"languages"`
}

// load returns the image at t.Path, cropped to the requested part, along
// with the metadata of the whole file.
func (s *Server) load(t Target) (imaging.SourceImage, *imaging.ImageInfo, error) {
	if t.Path == "" {
		return imaging.SourceImage{}, nil, fmt.Errorf("path is required")
	}
	if t.Reload {
		s.cache.Evict(t.Path)
	}
	info, err := imaging.LoadImageInfo(s.cache, t.Path)
	if err != nil {
		return imaging.SourceImage{}, nil, err
	}
	src, err := s.cache.Load(t.Path)
	if err != nil {
		return imaging.SourceImage{}, nil, err
	}
	switch {
	case t.Region != "":
		src, err = src.CropNamed(t.Region)
	case t.Box != nil:
		src, err = src.Crop(t.Box.X1, t.Box.Y1, t.Box.X2, t.Box.Y2)
	}
	if err != nil {
		return imaging.SourceImage{}, nil, err
	}
	return src, info, nil
}

// Recognize extracts the text in the target image. An empty language
// selects the configured default.
func (s *Server) Recognize(ctx context.Context, t Target, language string) (*RecognizeResult, error) {
	if language == "" {
		language = s.cfg.Tesseract.Language
	}
	src, info, err := s.load(t)
	if err != nil {
		return nil, err
	}

	task, err := s.submit(ctx, &worker.Task{Source: src, Language: language})
	if err != nil {
		return nil, err
	}
	s.log.Debug().Uint64("task", task.ID).Bool("cached", task.Cached).
		Str("error", task.Error).Msg("recognition finished")

	return &RecognizeResult{
		Text:     task.Text,
		Error:    task.Error,
		Language: language,
		Cached:   task.Cached,
		Width:    src.Width(),
		Height:   src.Height(),
		XDPI:     src.XDPI,
		YDPI:     src.YDPI,
		Image:    info,
	}, nil
}

// Prepare runs the preprocessing pipeline on the target image. The
// result is written as PNG to outputPath when set, and embedded as base64
// when withPixels is set.
func (s *Server) Prepare(t Target, outputPath string, withPixels bool) (*PrepareResult, error) {
	src, _, err := s.load(t)
	if err != nil {
		return nil, err
	}

	buf, decision, err := s.prep.PrepareDecision(src)
	if err != nil {
		return nil, err
	}
	defer buf.Release()

	desc, err := imaging.Describe(buf, withPixels)
	if err != nil {
		return nil, err
	}
	res := &PrepareResult{EncodedImage: desc, Scale: decision}

	if outputPath != "" {
		data, err := imaging.EncodePNG(buf)
		if err != nil {
			return nil, err
		}
		if err := os.WriteFile(outputPath, data, 0o644); err != nil {
			return nil, fmt.Errorf("failed to write prepared image: %w", err)
		}
		res.OutputPath = outputPath
	}
	return res, nil
}

// Scale computes the upscaling decision for the target image without
// scaling it.
func (s *Server) Scale(t Target) (*ScaleResult, error) {
	src, info, err := s.load(t)
	if err != nil {
		return nil, err
	}

	conv := s.prep.Converter()
	pix, err := conv.ToEngineBuffer(src)
	if err != nil {
		return nil, err
	}
	gray, err := conv.ToGray(pix)
	pix.Release()
	if err != nil {
		return nil, err
	}
	defer gray.Release()

	d := s.prep.Calculator().ComputeScale(gray)
	res := &ScaleResult{
		Width:        src.Width(),
		Height:       src.Height(),
		XDPI:         src.XDPI,
		YDPI:         src.YDPI,
		Decision:     d,
		ScaledWidth:  src.Width(),
		ScaledHeight: src.Height(),
		Image:        info,
	}
	if d.Apply() {
		res.ScaledWidth = int(float64(src.Width())*d.Scale + 0.5)
		res.ScaledHeight = int(float64(src.Height())*d.Scale + 0.5)
	}
	return res, nil
}

// Languages lists the languages installed under tessdataPath, or under
// the current tessdata path when empty.
func (s *Server) Languages(tessdataPath string) *LanguagesResult {
	if tessdataPath == "" {
		tessdataPath = s.worker.TessdataPath()
	}
	langs := ocr.AvailableLanguages(tessdataPath)
	if langs == nil {
		langs = []langcodes.Language{}
	}
	return &LanguagesResult{
		TessdataPath: tessdataPath,
		Default:      s.cfg.Tesseract.Language,
		Languages:    langs,
	}
}

// Memory reports the free memory the scale bound uses.
func (s *Server) Memory() *MemoryResult {
	n := s.probe.Available()
	return &MemoryResult{
		AvailableBytes: n,
		Known:          n != memprobe.Unavailable,
		Limited:        s.cfg.Preprocess.MemoryLimit > 0,
	}
}

// Info describes the engine and the pipeline settings.
func (s *Server) Info() *InfoResult {
	calc := s.prep.Calculator()
	loaded := s.worker.Languages()
	if loaded == nil {
		loaded = []string{}
	}
	return &InfoResult{
		Engine:         ocr.GetInfo(s.worker.TessdataPath()),
		Language:       s.cfg.Tesseract.Language,
		TargetDensity:  calc.TargetDensity,
		MemoryMargin:   calc.MemoryMargin,
		DefaultDensity: s.cfg.Preprocess.DefaultDensity,
		Interpolation:  s.cfg.Preprocess.Interpolation,
		LoadedEngines:  loaded,
		LiveBuffers:    s.prep.Arena().Live(),
	}
}

// Reset closes all engines, drops cached images and results, and switches
// to tessdataPath when it is not empty.
func (s *Server) Reset(tessdataPath string) *ResetResult {
	if tessdataPath == "" {
		tessdataPath = s.worker.TessdataPath()
	}
	s.worker.Reset(tessdataPath)
	s.cache.Clear()
	return &ResetResult{
		TessdataPath: tessdataPath,
		Languages:    ocr.AvailableLanguageNames(tessdataPath),
	}
}
