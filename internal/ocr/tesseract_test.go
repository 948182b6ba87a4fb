package ocr

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/screen-ocr-mcp/internal/imaging"
	"github.com/ironsheep/screen-ocr-mcp/internal/memprobe"
)

// tessdataDir finds an installed English model or skips the test.
func tessdataDir(t *testing.T) string {
	t.Helper()
	candidates := []string{
		os.Getenv("TESSDATA_PREFIX"),
		"/usr/share/tesseract-ocr/5/tessdata",
		"/usr/share/tesseract-ocr/4.00/tessdata",
		"/usr/share/tessdata",
		"/usr/local/share/tessdata",
		"/opt/homebrew/share/tessdata",
	}
	for _, dir := range candidates {
		if dir == "" {
			continue
		}
		if _, err := os.Stat(filepath.Join(dir, "eng"+ModelExtension)); err == nil {
			return dir
		}
	}
	t.Skip("Tesseract language data not available")
	return ""
}

func TestTesseractEngine_InitMissingModel(t *testing.T) {
	e := NewTesseractEngine()
	err := e.Init(t.TempDir(), "eng")
	assert.ErrorContains(t, err, "language model eng")
	assert.NoError(t, e.Close())
}

func TestTesseractEngine_NotInitialized(t *testing.T) {
	e := NewTesseractEngine()
	_, err := e.Text()
	assert.ErrorIs(t, err, ErrNotInitialized)
	assert.ErrorIs(t, e.SetImage(nil), ErrNotInitialized)
}

func TestTesseractSession_Recognize(t *testing.T) {
	dir := tessdataDir(t)
	prep := imaging.NewPreprocessor(memprobe.NewSystem())
	s := NewSession(NewTesseractEngine(), "eng", dir, WithPreprocessor(prep))
	defer s.Close()
	require.True(t, s.Valid(), s.Error())

	src := imaging.SourceImage{Image: createTextImage(300, 40, "HELLO WORLD"), XDPI: 96, YDPI: 96}
	text, err := s.Recognize(src)
	require.NoError(t, err)
	assert.Contains(t, strings.ToUpper(text), "HELLO")
	assert.Zero(t, prep.Arena().Live())

	// the engine stays usable after reset
	text, err = s.Recognize(src)
	require.NoError(t, err)
	assert.NotEmpty(t, text)
}

func TestTesseractSession_BlankImage(t *testing.T) {
	dir := tessdataDir(t)
	s := NewSession(NewTesseractEngine(), "eng", dir)
	defer s.Close()

	src := imaging.SourceImage{Image: createTextImage(200, 50, ""), XDPI: 300, YDPI: 300}
	_, err := s.Recognize(src)
	assert.ErrorIs(t, err, ErrNoText)
	assert.Equal(t, NoTextMessage, s.Error())
}

func TestGetInfo(t *testing.T) {
	info := GetInfo(t.TempDir())
	assert.Equal(t, "gosseract", info.Backend)
	assert.False(t, info.Available)
	assert.NotEmpty(t, info.Error)
}
