package ocr

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ironsheep/screen-ocr-mcp/internal/check"
	"github.com/ironsheep/screen-ocr-mcp/internal/imaging"
	"github.com/ironsheep/screen-ocr-mcp/internal/memprobe"
)

// Session owns one initialized engine and recognizes captures with it.
type Session struct {
	engine       Engine
	prep         *imaging.Preprocessor
	language     string
	tessdataPath string
	err          string
	log          zerolog.Logger
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithPreprocessor sets the image pipeline. The default uses the system
// memory probe.
func WithPreprocessor(p *imaging.Preprocessor) SessionOption {
	return func(s *Session) { s.prep = p }
}

// WithLogger sets the session logger.
func WithLogger(l zerolog.Logger) SessionOption {
	return func(s *Session) { s.log = l }
}

// NewSession initializes engine with the language model found under
// tessdataPath. The session takes ownership of engine and closes it if
// initialization fails.
func NewSession(engine Engine, language, tessdataPath string, opts ...SessionOption) *Session {
	s := &Session{
		language:     language,
		tessdataPath: tessdataPath,
		log:          zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With().Str("language", language).Logger()
	if s.prep == nil {
		s.prep = imaging.NewPreprocessor(memprobe.NewSystem(), imaging.WithLogger(s.log))
	}

	if !check.That(engine != nil, s.log, "engine provided") ||
		!check.That(tessdataPath != "", s.log, "tessdata path set") ||
		!check.That(language != "", s.log, "language set") {
		if engine != nil {
			engine.Close()
		}
		return s
	}

	if err := engine.Init(tessdataPath, language); err != nil {
		s.log.Error().Err(err).Str("tessdata", tessdataPath).Msg("engine init failed")
		s.err = InitFailedMessage
		engine.Close()
		return s
	}
	s.log.Trace().Str("tessdata", tessdataPath).Msg("engine initialized")

	s.engine = engine
	return s
}

// Valid reports whether the engine initialized successfully.
func (s *Session) Valid() bool {
	return s.engine != nil
}

// Error returns the last user-visible error message, or "".
func (s *Session) Error() string {
	return s.err
}

// Language returns the language the session recognizes.
func (s *Session) Language() string {
	return s.language
}

// TessdataPath returns the model directory the session was built with.
func (s *Session) TessdataPath() string {
	return s.tessdataPath
}

// Preprocessor returns the session's image pipeline.
func (s *Session) Preprocessor() *imaging.Preprocessor {
	return s.prep
}

// Recognize extracts the text in src.
//
// The prepared buffer is released and the engine reset before returning,
// on success and failure alike. Surrounding whitespace is trimmed; an empty
// result sets Error to NoTextMessage and returns ErrNoText.
func (s *Session) Recognize(src imaging.SourceImage) (string, error) {
	if !check.That(s.engine != nil, s.log, "engine initialized") {
		return "", ErrNotInitialized
	}
	if !check.That(!src.Empty(), s.log, "source image not empty") {
		return "", imaging.ErrInvalidInput
	}

	s.err = ""

	buf, err := s.prep.Prepare(src)
	if err != nil {
		check.That(false, s.log.With().Err(err).Logger(), "image prepared")
		return "", fmt.Errorf("%w: %w", ErrPrepareFailed, err)
	}
	s.log.Trace().Int("width", buf.Width()).Int("height", buf.Height()).Msg("preprocessed image")

	text, err := s.extract(buf)
	buf.Release()
	s.log.Trace().Msg("released preprocessed image")

	text = strings.TrimSpace(text)
	if text == "" {
		s.err = NoTextMessage
		if err != nil {
			s.log.Warn().Err(err).Msg("recognition failed")
			return "", fmt.Errorf("%w: %w", ErrNoText, err)
		}
		return "", ErrNoText
	}
	return text, nil
}

func (s *Session) extract(buf *imaging.PixelBuffer) (string, error) {
	defer func() {
		s.engine.Clear()
		s.log.Trace().Msg("cleared engine")
	}()

	if err := s.engine.SetImage(buf); err != nil {
		return "", err
	}
	s.log.Trace().Msg("set image to engine")

	text, err := s.engine.Text()
	if err != nil {
		return "", err
	}
	s.log.Trace().Msg("received recognized text")
	return text, nil
}

// Close releases the engine. The session is invalid afterwards.
func (s *Session) Close() error {
	if s.engine == nil {
		return nil
	}
	err := s.engine.Close()
	s.engine = nil
	return err
}
