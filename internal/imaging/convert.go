package imaging

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/anthonynsimon/bild/effect"
	"github.com/disintegration/imaging"
	"golang.org/x/image/bmp"
)

// BMP layout: 14-byte file header, then an info header whose
// pixels-per-meter fields sit at fixed offsets for every header version.
const (
	bmpFileHeaderLen = 14
	bmpMinInfoLen    = 40
	bmpXPPMOffset    = bmpFileHeaderLen + 24
	bmpYPPMOffset    = bmpFileHeaderLen + 28
	bmpMinLen        = bmpYPPMOffset + 4

	inchesPerMeter = 39.37
)

// Converter moves images between SourceImage and PixelBuffer by way of an
// in-memory uncompressed BMP stream. The stream carries the pixel density
// in its header so resolution survives the trip.
type Converter struct {
	arena *Arena
}

// NewConverter returns a converter allocating buffers from arena.
func NewConverter(arena *Arena) *Converter {
	if arena == nil {
		arena = NewArena()
	}
	return &Converter{arena: arena}
}

// ToEngineBuffer converts a captured image into an engine buffer.
//
// The result is 8-bit when the source decodes to a gray image and 32-bit
// otherwise. It fails with ErrInvalidInput for empty sources.
func (c *Converter) ToEngineBuffer(src SourceImage) (*PixelBuffer, error) {
	if src.Empty() {
		return nil, ErrInvalidInput
	}

	data, err := encodeBMP(src.Image, src.XDPI, src.YDPI)
	if err != nil {
		return nil, fmt.Errorf("failed to encode bitmap: %w", err)
	}

	img, xRes, yRes, err := decodeBMP(data)
	if err != nil {
		return nil, err
	}
	return c.arena.wrap(normalize(img), xRes, yRes), nil
}

// ToSourceImage converts a buffer back into a SourceImage through the same
// BMP encoding. Width and height are preserved exactly.
func (c *Converter) ToSourceImage(buf *PixelBuffer) (SourceImage, error) {
	data, err := EncodeBMP(buf)
	if err != nil {
		return SourceImage{}, err
	}

	img, xRes, yRes, err := decodeBMP(data)
	if err != nil {
		return SourceImage{}, err
	}
	return SourceImage{Image: img, XDPI: xRes, YDPI: yRes}, nil
}

// ToGray reduces buf to a single 8-bit channel. The input is left
// untouched; releasing it is the caller's job.
func (c *Converter) ToGray(buf *PixelBuffer) (*PixelBuffer, error) {
	img, err := buf.Image()
	if err != nil {
		return nil, err
	}

	var gray *image.Gray
	if g, ok := img.(*image.Gray); ok {
		gray = copyGray(g)
	} else {
		gray = foldGray(effect.Grayscale(img))
	}
	if gray == nil || gray.Rect.Empty() {
		return nil, fmt.Errorf("grayscale conversion produced no pixels: %w", ErrInvalidInput)
	}
	return c.arena.wrap(gray, buf.xRes, buf.yRes), nil
}

func copyGray(g *image.Gray) *image.Gray {
	b := g.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		row := g.PixOffset(b.Min.X, b.Min.Y+y)
		copy(out.Pix[y*out.Stride:y*out.Stride+b.Dx()], g.Pix[row:row+b.Dx()])
	}
	return out
}

// foldGray collapses the equal channels of a grayscale RGBA image into one
// byte per pixel.
func foldGray(rgba *image.RGBA) *image.Gray {
	if rgba == nil {
		return nil
	}
	b := rgba.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		src := rgba.PixOffset(b.Min.X, b.Min.Y+y)
		dst := y * out.Stride
		for x := 0; x < b.Dx(); x++ {
			out.Pix[dst+x] = rgba.Pix[src+x*4]
		}
	}
	return out
}

// EncodeBMP serializes buf as an uncompressed BMP stream with its
// resolution recorded in the header.
func EncodeBMP(buf *PixelBuffer) ([]byte, error) {
	img, err := buf.Image()
	if err != nil {
		return nil, err
	}
	data, err := encodeBMP(img, buf.xRes, buf.yRes)
	if err != nil {
		return nil, fmt.Errorf("failed to encode bitmap: %w", err)
	}
	return data, nil
}

func encodeBMP(img image.Image, xDPI, yDPI int) ([]byte, error) {
	var buf bytes.Buffer
	if err := bmp.Encode(&buf, img); err != nil {
		return nil, err
	}
	data := buf.Bytes()
	if len(data) < bmpMinLen {
		return nil, errors.New("bitmap header too short")
	}
	binary.LittleEndian.PutUint32(data[bmpXPPMOffset:], uint32(dpiToPPM(xDPI)))
	binary.LittleEndian.PutUint32(data[bmpYPPMOffset:], uint32(dpiToPPM(yDPI)))
	return data, nil
}

func decodeBMP(data []byte) (image.Image, int, int, error) {
	xRes, yRes, err := bmpDensity(data)
	if err != nil {
		return nil, 0, 0, err
	}
	img, err := bmp.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, 0, 0, fmt.Errorf("failed to decode bitmap: %w", err)
	}
	return img, xRes, yRes, nil
}

// bmpDensity reads the pixels-per-meter header fields and returns them as
// pixels per inch.
func bmpDensity(data []byte) (int, int, error) {
	if len(data) < bmpMinLen || data[0] != 'B' || data[1] != 'M' {
		return 0, 0, errors.New("not a bitmap stream")
	}
	if binary.LittleEndian.Uint32(data[bmpFileHeaderLen:]) < bmpMinInfoLen {
		return 0, 0, errors.New("unsupported bitmap info header")
	}
	xPPM := int32(binary.LittleEndian.Uint32(data[bmpXPPMOffset:]))
	yPPM := int32(binary.LittleEndian.Uint32(data[bmpYPPMOffset:]))
	return ppmToDPI(xPPM), ppmToDPI(yPPM), nil
}

func dpiToPPM(dpi int) int32 {
	if dpi <= 0 {
		return 0
	}
	ppm := float64(dpi)*inchesPerMeter + 0.5
	if ppm >= math.MaxInt32 {
		return math.MaxInt32
	}
	return int32(ppm)
}

func ppmToDPI(ppm int32) int {
	if ppm <= 0 {
		return 0
	}
	return int(float64(ppm)/inchesPerMeter + 0.5)
}

// normalize maps a decoded image onto one of the two buffer layouts.
func normalize(img image.Image) image.Image {
	switch m := img.(type) {
	case *image.Gray:
		return m
	case *image.Paletted:
		if grayPalette(m.Palette) {
			return paletteToGray(m)
		}
	}
	return imaging.Clone(img)
}

func grayPalette(p color.Palette) bool {
	for _, c := range p {
		r, g, b, _ := c.RGBA()
		if r != g || g != b {
			return false
		}
	}
	return len(p) > 0
}

func paletteToGray(m *image.Paletted) *image.Gray {
	lut := make([]uint8, len(m.Palette))
	for i, c := range m.Palette {
		lut[i] = color.GrayModel.Convert(c).(color.Gray).Y
	}

	b := m.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		off := m.PixOffset(b.Min.X, b.Min.Y+y)
		src := m.Pix[off : off+b.Dx()]
		dst := gray.Pix[y*gray.Stride : y*gray.Stride+b.Dx()]
		for x, idx := range src {
			if int(idx) < len(lut) {
				dst[x] = lut[idx]
			}
		}
	}
	return gray
}
