// Package imaging prepares captured images for text recognition.
//
// A capture arrives as a SourceImage (pixels plus density). The Converter
// turns it into an engine PixelBuffer through an in-memory BMP stream, the
// Preprocessor reduces it to 8-bit gray and the ScaleCalculator decides how
// far to upscale it so the text reaches a density the engine reads well,
// without exceeding addressable dimensions or free memory.
//
// # Buffer Ownership
//
// Every PixelBuffer comes from an Arena and has a single owner. Each
// pipeline step consumes one buffer and produces a new one; the step that
// supersedes a buffer releases it. After a Prepare pass only the returned
// buffer is live, and Arena.Live lets callers verify that.
//
// # Density
//
// Densities are pixels per inch. Zero means unknown, in which case the
// pipeline skips scaling. ImageCache reads density from BMP headers, PNG
// pHYs chunks and JFIF headers and falls back to a configured default.
//
// # Thread Safety
//
// ImageCache and Arena are safe for concurrent use. A PixelBuffer is not:
// it belongs to one goroutine at a time.
package imaging
