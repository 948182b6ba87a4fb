package imaging

import (
	"bytes"
	"encoding/binary"
)

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

// DetectDensity reads the pixel density recorded in an encoded image.
//
// BMP pixels-per-meter fields, the PNG pHYs chunk and the JPEG JFIF header
// are understood. ok is false when the format carries no usable density.
func DetectDensity(data []byte) (xDPI, yDPI int, ok bool) {
	switch {
	case bytes.HasPrefix(data, []byte("BM")):
		x, y, err := bmpDensity(data)
		return x, y, err == nil && x > 0 && y > 0
	case bytes.HasPrefix(data, pngSignature):
		return pngDensity(data)
	case bytes.HasPrefix(data, []byte{0xFF, 0xD8}):
		return jfifDensity(data)
	}
	return 0, 0, false
}

func pngDensity(data []byte) (int, int, bool) {
	pos := len(pngSignature)
	for pos+8 <= len(data) {
		length := int(binary.BigEndian.Uint32(data[pos:]))
		kind := string(data[pos+4 : pos+8])
		body := pos + 8
		if length < 0 || body+length > len(data) {
			return 0, 0, false
		}
		switch kind {
		case "pHYs":
			if length < 9 || data[body+8] != 1 {
				return 0, 0, false
			}
			x := ppmToDPI(int32(binary.BigEndian.Uint32(data[body:])))
			y := ppmToDPI(int32(binary.BigEndian.Uint32(data[body+4:])))
			return x, y, x > 0 && y > 0
		case "IDAT", "IEND":
			return 0, 0, false
		}
		pos = body + length + 4
	}
	return 0, 0, false
}

func jfifDensity(data []byte) (int, int, bool) {
	pos := 2
	for pos+4 <= len(data) && data[pos] == 0xFF {
		marker := data[pos+1]
		length := int(binary.BigEndian.Uint16(data[pos+2:]))
		if marker == 0xDA || length < 2 || pos+2+length > len(data) {
			return 0, 0, false
		}
		seg := data[pos+4 : pos+2+length]
		if marker == 0xE0 && len(seg) >= 12 && bytes.HasPrefix(seg, []byte("JFIF\x00")) {
			units := seg[7]
			x := int(binary.BigEndian.Uint16(seg[8:]))
			y := int(binary.BigEndian.Uint16(seg[10:]))
			switch units {
			case 1:
			case 2:
				x = int(float64(x)*2.54 + 0.5)
				y = int(float64(y)*2.54 + 0.5)
			default:
				return 0, 0, false
			}
			return x, y, x > 0 && y > 0
		}
		pos += 2 + length
	}
	return 0, 0, false
}
