package imaging

import (
	"errors"
	"image"
	"sync"
)

var (
	// ErrInvalidInput is returned when a source image or buffer is nil or empty.
	ErrInvalidInput = errors.New("invalid input image")

	// ErrReleased is returned when a buffer is used after Release.
	ErrReleased = errors.New("pixel buffer already released")

	// ErrScaleFailed is returned by scalers that cannot produce the requested size.
	ErrScaleFailed = errors.New("scaling failed")
)

// SourceImage is a bitmap as captured, together with its pixel density.
//
// XDPI and YDPI are pixels per inch; zero means the density is unknown.
// A SourceImage is never modified after capture.
type SourceImage struct {
	Image image.Image
	XDPI  int
	YDPI  int
}

// Empty reports whether the image has no pixels.
func (s SourceImage) Empty() bool {
	return s.Image == nil || s.Image.Bounds().Empty()
}

// Width returns the image width in pixels.
func (s SourceImage) Width() int {
	if s.Image == nil {
		return 0
	}
	return s.Image.Bounds().Dx()
}

// Height returns the image height in pixels.
func (s SourceImage) Height() int {
	if s.Image == nil {
		return 0
	}
	return s.Image.Bounds().Dy()
}

// PixelBuffer is the engine-native image representation: either an 8-bit
// single channel *image.Gray or a 32-bit *image.NRGBA, plus resolution.
//
// A buffer has exactly one owner. The owner calls Release once the buffer
// has been superseded; after that every accessor reports the buffer as
// released and the arena no longer counts it.
type PixelBuffer struct {
	arena *Arena
	img   image.Image
	depth int
	xRes  int
	yRes  int
	size  int64
}

// Width returns the buffer width in pixels, or 0 after Release.
func (b *PixelBuffer) Width() int {
	if b == nil || b.img == nil {
		return 0
	}
	return b.img.Bounds().Dx()
}

// Height returns the buffer height in pixels, or 0 after Release.
func (b *PixelBuffer) Height() int {
	if b == nil || b.img == nil {
		return 0
	}
	return b.img.Bounds().Dy()
}

// Depth returns the bits per pixel (8 or 32).
func (b *PixelBuffer) Depth() int { return b.depth }

// XRes returns the horizontal resolution in pixels per inch.
func (b *PixelBuffer) XRes() int { return b.xRes }

// YRes returns the vertical resolution in pixels per inch.
func (b *PixelBuffer) YRes() int { return b.yRes }

// Footprint returns width*height*depth/8, the bytes held by the buffer.
func (b *PixelBuffer) Footprint() int64 {
	return int64(b.Width()) * int64(b.Height()) * int64(b.depth) / 8
}

// Image returns the underlying pixels. Callers must not keep the image
// past Release.
func (b *PixelBuffer) Image() (image.Image, error) {
	if b == nil {
		return nil, ErrInvalidInput
	}
	if b.img == nil {
		return nil, ErrReleased
	}
	return b.img, nil
}

// Released reports whether Release has been called.
func (b *PixelBuffer) Released() bool {
	return b == nil || b.img == nil
}

// Release frees the pixel storage. Calling it more than once is a no-op.
func (b *PixelBuffer) Release() {
	if b == nil || b.img == nil {
		return
	}
	b.img = nil
	if b.arena != nil {
		b.arena.free(b.size)
	}
}

// Arena hands out PixelBuffers and keeps count of the ones still alive.
// It is safe for concurrent use, although a single buffer is not.
type Arena struct {
	mu    sync.Mutex
	live  int
	bytes int64
}

// NewArena returns an empty arena.
func NewArena() *Arena {
	return &Arena{}
}

// Live returns the number of buffers allocated and not yet released.
func (a *Arena) Live() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.live
}

// LiveBytes returns the footprint of all live buffers.
func (a *Arena) LiveBytes() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.bytes
}

// wrap takes ownership of img. img must be *image.Gray or *image.NRGBA.
func (a *Arena) wrap(img image.Image, xRes, yRes int) *PixelBuffer {
	depth := 32
	if _, ok := img.(*image.Gray); ok {
		depth = 8
	}
	b := &PixelBuffer{arena: a, img: img, depth: depth, xRes: xRes, yRes: yRes}
	b.size = b.Footprint()

	a.mu.Lock()
	a.live++
	a.bytes += b.size
	a.mu.Unlock()
	return b
}

func (a *Arena) free(size int64) {
	a.mu.Lock()
	a.live--
	a.bytes -= size
	a.mu.Unlock()
}
