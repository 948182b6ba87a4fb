package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"

	"github.com/disintegration/imaging"
)

// Crop returns the capture sub-region (x1,y1)-(x2,y2) of s with the same
// density. (x1,y1) is inclusive, (x2,y2) exclusive.
func (s SourceImage) Crop(x1, y1, x2, y2 int) (SourceImage, error) {
	if s.Empty() {
		return SourceImage{}, ErrInvalidInput
	}
	bounds := s.Image.Bounds()

	if x1 < bounds.Min.X || y1 < bounds.Min.Y || x2 > bounds.Max.X || y2 > bounds.Max.Y {
		return SourceImage{}, fmt.Errorf("crop region (%d,%d)-(%d,%d) outside image bounds (%d,%d)-(%d,%d)",
			x1, y1, x2, y2, bounds.Min.X, bounds.Min.Y, bounds.Max.X, bounds.Max.Y)
	}
	if x1 >= x2 || y1 >= y2 {
		return SourceImage{}, fmt.Errorf("invalid crop region: x1 must be < x2, y1 must be < y2")
	}

	return SourceImage{
		Image: imaging.Crop(s.Image, image.Rect(x1, y1, x2, y2)),
		XDPI:  s.XDPI,
		YDPI:  s.YDPI,
	}, nil
}

// CropNamed returns a named region of s: a quadrant, a half, or "center"
// (the middle 50%).
func (s SourceImage) CropNamed(region string) (SourceImage, error) {
	if s.Empty() {
		return SourceImage{}, ErrInvalidInput
	}
	b := s.Image.Bounds()
	w, h := b.Dx(), b.Dy()
	midX, midY := w/2, h/2

	var x1, y1, x2, y2 int
	switch region {
	case "top-left":
		x1, y1, x2, y2 = 0, 0, midX, midY
	case "top-right":
		x1, y1, x2, y2 = midX, 0, w, midY
	case "bottom-left":
		x1, y1, x2, y2 = 0, midY, midX, h
	case "bottom-right":
		x1, y1, x2, y2 = midX, midY, w, h
	case "top-half":
		x1, y1, x2, y2 = 0, 0, w, midY
	case "bottom-half":
		x1, y1, x2, y2 = 0, midY, w, h
	case "left-half":
		x1, y1, x2, y2 = 0, 0, midX, h
	case "right-half":
		x1, y1, x2, y2 = midX, 0, w, h
	case "center":
		qW, qH := w/4, h/4
		x1, y1, x2, y2 = qW, qH, w-qW, h-qH
	default:
		return SourceImage{}, fmt.Errorf("unknown region: %s", region)
	}

	return s.Crop(b.Min.X+x1, b.Min.Y+y1, b.Min.X+x2, b.Min.Y+y2)
}

// EncodedImage is a buffer rendered as base64 PNG for transport.
type EncodedImage struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	BitDepth    int    `json:"bit_depth"`
	XRes        int    `json:"x_res"`
	YRes        int    `json:"y_res"`
	ImageBase64 string `json:"image_base64,omitempty"`
	MimeType    string `json:"mime_type,omitempty"`
}

// EncodePNG renders buf as PNG bytes.
func EncodePNG(buf *PixelBuffer) ([]byte, error) {
	img, err := buf.Image()
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := png.Encode(&out, img); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	return out.Bytes(), nil
}

// Describe summarizes buf. With withPixels set the PNG rendering is
// included as base64.
func Describe(buf *PixelBuffer, withPixels bool) (*EncodedImage, error) {
	if buf.Released() {
		return nil, ErrReleased
	}
	out := &EncodedImage{
		Width:    buf.Width(),
		Height:   buf.Height(),
		BitDepth: buf.Depth(),
		XRes:     buf.XRes(),
		YRes:     buf.YRes(),
	}
	if !withPixels {
		return out, nil
	}
	data, err := EncodePNG(buf)
	if err != nil {
		return nil, err
	}
	out.ImageBase64 = base64.StdEncoding.EncodeToString(data)
	out.MimeType = "image/png"
	return out, nil
}
