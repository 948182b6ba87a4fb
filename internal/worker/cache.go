package worker

import (
	"container/list"

	"github.com/corona10/goimagehash"

	"github.com/ironsheep/screen-ocr-mcp/internal/imaging"
)

// hashSide is the difference hash grid size; 16x16 tells apart captures
// that differ by a few glyphs.
const hashSide = 16

type cacheKey struct {
	language string
	width    int
	height   int
	xDPI     int
	yDPI     int
	hash     *goimagehash.ExtImageHash
}

func (k cacheKey) sameShape(o cacheKey) bool {
	return k.language == o.language && k.width == o.width && k.height == o.height &&
		k.xDPI == o.xDPI && k.yDPI == o.yDPI
}

type cacheEntry struct {
	key  cacheKey
	text string
}

// resultCache remembers recognized text by perceptual hash, oldest entry
// evicted first.
type resultCache struct {
	maxEntries  int
	maxDistance int
	entries     *list.List
}

func newResultCache(maxEntries, maxDistance int) *resultCache {
	return &resultCache{
		maxEntries:  maxEntries,
		maxDistance: maxDistance,
		entries:     list.New(),
	}
}

func (c *resultCache) key(language string, src imaging.SourceImage) (cacheKey, bool) {
	if c.maxEntries <= 0 || src.Empty() {
		return cacheKey{}, false
	}
	hash, err := goimagehash.ExtDifferenceHash(src.Image, hashSide, hashSide)
	if err != nil {
		return cacheKey{}, false
	}
	return cacheKey{
		language: language,
		width:    src.Width(),
		height:   src.Height(),
		xDPI:     src.XDPI,
		yDPI:     src.YDPI,
		hash:     hash,
	}, true
}

func (c *resultCache) lookup(k cacheKey) (string, bool) {
	for e := c.entries.Front(); e != nil; e = e.Next() {
		entry := e.Value.(cacheEntry)
		if !entry.key.sameShape(k) {
			continue
		}
		dist, err := entry.key.hash.Distance(k.hash)
		if err == nil && dist <= c.maxDistance {
			return entry.text, true
		}
	}
	return "", false
}

func (c *resultCache) store(k cacheKey, text string) {
	c.entries.PushBack(cacheEntry{key: k, text: text})
	for c.entries.Len() > c.maxEntries {
		c.entries.Remove(c.entries.Front())
	}
}

func (c *resultCache) clear() {
	c.entries.Init()
}

func (c *resultCache) size() int {
	return c.entries.Len()
}
