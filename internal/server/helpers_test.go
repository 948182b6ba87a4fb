package server

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/ironsheep/screen-ocr-mcp/internal/config"
	"github.com/ironsheep/screen-ocr-mcp/internal/imaging"
	"github.com/ironsheep/screen-ocr-mcp/internal/ocr"
)

// fakeEngine answers every recognition with a fixed text.
type fakeEngine struct {
	text     string
	tessdata string
	widths   []int
	mu       *sync.Mutex
}

func (f *fakeEngine) Init(tessdataPath, language string) error {
	f.tessdata = tessdataPath
	return nil
}

func (f *fakeEngine) SetImage(buf *imaging.PixelBuffer) error {
	f.mu.Lock()
	f.widths = append(f.widths, buf.Width())
	f.mu.Unlock()
	return nil
}

func (f *fakeEngine) Text() (string, error) { return f.text, nil }
func (f *fakeEngine) Clear()                {}
func (f *fakeEngine) Close() error          { return nil }

type fakeFactory struct {
	text    string
	mu      sync.Mutex
	engines []*fakeEngine
}

func newFakeFactory(text string) *fakeFactory {
	return &fakeFactory{text: text}
}

func (f *fakeFactory) New() ocr.Engine {
	f.mu.Lock()
	defer f.mu.Unlock()
	e := &fakeEngine{text: f.text, mu: &f.mu}
	f.engines = append(f.engines, e)
	return e
}

func (f *fakeFactory) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.engines)
}

// newTestServer builds a server with a fake engine, a fixed memory limit
// and an empty tessdata directory. A nil factory answers "hello world".
func newTestServer(t *testing.T, factory *fakeFactory) *Server {
	t.Helper()
	if factory == nil {
		factory = newFakeFactory("hello world")
	}
	cfg := config.Default()
	cfg.Tesseract.TessdataPath = t.TempDir()
	cfg.Preprocess.MemoryLimit = 1 << 30
	cfg.Preprocess.DefaultDensity = 100
	cfg.Worker.MaxEntries = 8

	s := New(cfg, WithEngineFactory(factory.New), WithVersion("test"))
	t.Cleanup(s.Close)
	return s
}

// createTestImageFile creates a test image file and returns its path
func createTestImageFile(t *testing.T, width, height int, c color.Color) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}

	path := filepath.Join(t.TempDir(), "capture.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return path
}

// installModels creates empty traineddata files for codes under dir.
func installModels(t *testing.T, dir string, codes ...string) {
	t.Helper()
	for _, code := range codes {
		if err := os.WriteFile(filepath.Join(dir, code+ocr.ModelExtension), nil, 0o644); err != nil {
			t.Fatalf("failed to write model: %v", err)
		}
	}
}
