package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"sync"

	_ "golang.org/x/image/bmp" // Register BMP format decoder
)

// ImageCache provides thread-safe caching of loaded captures to avoid
// redundant disk reads.
//
// Each entry is decoded once together with its pixel density. Files that
// carry no density get the cache's default density, matching what a screen
// capture reports.
//
// # Memory Management
//
// Cached images remain in memory until explicitly removed via Evict() or
// Clear().
type ImageCache struct {
	mu             sync.RWMutex
	images         map[string]SourceImage
	formats        map[string]string
	defaultDensity int
}

// NewImageCache creates an empty cache. defaultDensity is used for images
// without recorded density; 0 leaves their density unknown.
func NewImageCache(defaultDensity int) *ImageCache {
	return &ImageCache{
		images:         make(map[string]SourceImage),
		formats:        make(map[string]string),
		defaultDensity: defaultDensity,
	}
}

// Load retrieves an image from the cache or loads it from disk if not cached.
//
// Supported formats are PNG, JPEG, GIF and BMP. The image is cached under
// the exact path string provided.
func (c *ImageCache) Load(path string) (SourceImage, error) {
	c.mu.RLock()
	if img, ok := c.images[path]; ok {
		c.mu.RUnlock()
		return img, nil
	}
	c.mu.RUnlock()

	data, err := os.ReadFile(path)
	if err != nil {
		return SourceImage{}, fmt.Errorf("failed to open image: %w", err)
	}

	src, format, err := Decode(data, c.defaultDensity)
	if err != nil {
		return SourceImage{}, err
	}

	c.mu.Lock()
	c.images[path] = src
	c.formats[path] = format
	c.mu.Unlock()

	return src, nil
}

// Decode decodes an encoded image and attaches its density, falling back
// to defaultDensity on both axes when none is recorded.
func Decode(data []byte, defaultDensity int) (SourceImage, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return SourceImage{}, "", fmt.Errorf("failed to decode image: %w", err)
	}

	x, y, ok := DetectDensity(data)
	if !ok {
		x, y = defaultDensity, defaultDensity
	}
	return SourceImage{Image: img, XDPI: x, YDPI: y}, format, nil
}

// Clear removes all images from the cache.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]SourceImage)
	c.formats = make(map[string]string)
	c.mu.Unlock()
}

// Evict removes a specific image from the cache by its path.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.images, path)
	delete(c.formats, path)
	c.mu.Unlock()
}

// ImageInfo contains metadata about a loaded capture.
type ImageInfo struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Format string `json:"format"`

	// XDPI and YDPI are the densities the pipeline will use.
	XDPI int `json:"x_dpi"`
	YDPI int `json:"y_dpi"`

	FileSizeBytes int64 `json:"file_size_bytes"`
}

// LoadImageInfo loads an image through cache and returns its metadata.
// The format is the decoder's name ("png", "jpeg", "gif", "bmp").
func LoadImageInfo(cache *ImageCache, path string) (*ImageInfo, error) {
	src, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	cache.mu.RLock()
	format := cache.formats[path]
	cache.mu.RUnlock()

	return &ImageInfo{
		Width:         src.Width(),
		Height:        src.Height(),
		Format:        format,
		XDPI:          src.XDPI,
		YDPI:          src.YDPI,
		FileSizeBytes: stat.Size(),
	}, nil
}
