// Package ocr runs text recognition on captured images using Tesseract.
//
// A Session binds one engine instance to one language model. It prepares
// each capture with the imaging pipeline, hands the prepared buffer to the
// engine, and returns the trimmed text. The engine is reset after every
// call so the session can be reused without reinitialization.
//
// # Prerequisites
//
// Tesseract and its language data must be installed:
//   - Ubuntu/Debian: apt-get install tesseract-ocr tesseract-ocr-eng
//   - macOS: brew install tesseract
//   - Windows: https://github.com/UB-Mannheim/tesseract/wiki
//
// The tessdata directory holds one <code>.traineddata file per language.
// AvailableLanguageNames lists what a directory provides.
//
// # Lifecycle
//
// NewSession initializes the engine once. If that fails the session stays
// invalid for its whole life: Valid reports false, Error reports "init
// failed", and Recognize returns ErrNotInitialized.
//
// # Concurrency
//
// A Session is not safe for concurrent use. The engine state is mutated in
// place by every call, so each goroutine needs its own session.
//
// # Errors
//
// Recognize returns:
//   - ErrNotInitialized or imaging.ErrInvalidInput for guarded preconditions.
//     These are logged and never touch the engine.
//   - ErrPrepareFailed when the capture could not be converted.
//   - ErrNoText when recognition produced nothing but whitespace. Error
//     then reports the user-visible message.
package ocr
