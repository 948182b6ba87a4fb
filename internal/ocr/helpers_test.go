package ocr

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/ironsheep/screen-ocr-mcp/internal/imaging"
)

// fakeEngine records how a Session drives it.
type fakeEngine struct {
	initErr  error
	text     string
	textErr  error
	imageErr error

	inits      int
	images     []*imaging.PixelBuffer
	widths     []int
	texts      int
	clears     int
	closed     bool
	tessdata   string
	language   string
	arena      *imaging.Arena
	liveOnText int
}

func (f *fakeEngine) Init(tessdataPath, language string) error {
	f.inits++
	f.tessdata, f.language = tessdataPath, language
	return f.initErr
}

func (f *fakeEngine) SetImage(buf *imaging.PixelBuffer) error {
	f.images = append(f.images, buf)
	f.widths = append(f.widths, buf.Width())
	return f.imageErr
}

func (f *fakeEngine) Text() (string, error) {
	f.texts++
	if f.arena != nil {
		f.liveOnText = f.arena.Live()
	}
	if len(f.images) > 0 && f.images[len(f.images)-1].Released() {
		return "", imaging.ErrReleased
	}
	return f.text, f.textErr
}

func (f *fakeEngine) Clear() { f.clears++ }

func (f *fakeEngine) Close() error {
	f.closed = true
	return nil
}

// createTextImage renders text in black on white.
func createTextImage(width, height int, text string) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.Black),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(10), Y: fixed.I(25)},
	}
	d.DrawString(text)
	return img
}
