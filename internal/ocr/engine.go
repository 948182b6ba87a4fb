package ocr

import (
	"errors"

	"github.com/ironsheep/screen-ocr-mcp/internal/imaging"
)

// Engine is the text-recognition capability a Session drives.
//
// Init loads one language model and is called exactly once. SetImage, Text
// and Clear form one recognition; Clear must leave the engine ready for
// the next SetImage without another Init.
type Engine interface {
	Init(tessdataPath, language string) error
	SetImage(buf *imaging.PixelBuffer) error
	Text() (string, error)
	Clear()
	Close() error
}

// EngineFactory creates a fresh, uninitialized engine.
type EngineFactory func() Engine

var (
	// ErrNotInitialized is returned when the session's engine failed to load.
	ErrNotInitialized = errors.New("recognition engine not initialized")

	// ErrPrepareFailed is returned when a capture cannot be turned into an
	// engine buffer.
	ErrPrepareFailed = errors.New("failed to prepare image")

	// ErrNoText is returned when recognition yields no text.
	ErrNoText = errors.New(NoTextMessage)

	errNoImage = errors.New("no image set")
)

// Messages reported by Session.Error.
const (
	NoTextMessage     = "Failed to recognize text or no text selected"
	InitFailedMessage = "init failed"
)
