// Package worker runs recognition tasks against per-language OCR sessions.
//
// A Worker keeps one ocr.Session per language and reuses it across tasks.
// Every task carries a Generation; after a task finishes, sessions whose
// language was last requested by an older generation are closed. Callers
// bump the generation when the set of languages they need changes.
//
// Sessions never cross goroutines: Handle, Reset and Close serialize on
// the worker, and Run drives it from a single goroutine.
package worker

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ironsheep/screen-ocr-mcp/internal/imaging"
	"github.com/ironsheep/screen-ocr-mcp/internal/ocr"
)

// Generation orders batches of tasks.
type Generation uint64

// Task is one recognition request and, once handled, its result.
type Task struct {
	ID         uint64
	Generation Generation
	Source     imaging.SourceImage
	Language   string

	// Text and Error are filled by Handle. Error is empty on success.
	Text   string
	Error  string
	Cached bool
}

// Config configures a Worker.
type Config struct {
	TessdataPath string

	// MaxEntries bounds the result cache. 0 disables caching.
	MaxEntries int
	// MaxHashDistance is the largest hash distance treated as the same
	// capture.
	MaxHashDistance int
}

// Option configures a Worker.
type Option func(*Worker)

// WithLogger sets the worker logger. Sessions inherit it.
func WithLogger(l zerolog.Logger) Option {
	return func(w *Worker) { w.log = l }
}

// WithPreprocessor shares p across all sessions.
func WithPreprocessor(p *imaging.Preprocessor) Option {
	return func(w *Worker) { w.prep = p }
}

// Worker owns the sessions and serializes recognition.
type Worker struct {
	mu              sync.Mutex
	factory         ocr.EngineFactory
	tessdataPath    string
	sessions        map[string]*ocr.Session
	lastGenerations map[string]Generation
	cache           *resultCache
	prep            *imaging.Preprocessor
	log             zerolog.Logger
}

// New creates a worker that builds engines with factory.
func New(cfg Config, factory ocr.EngineFactory, opts ...Option) *Worker {
	w := &Worker{
		factory:         factory,
		tessdataPath:    cfg.TessdataPath,
		sessions:        make(map[string]*ocr.Session),
		lastGenerations: make(map[string]Generation),
		cache:           newResultCache(cfg.MaxEntries, cfg.MaxHashDistance),
		log:             zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// TessdataPath returns the model directory new sessions use.
func (w *Worker) TessdataPath() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.tessdataPath
}

// Languages returns the languages with a live session.
func (w *Worker) Languages() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, 0, len(w.sessions))
	for lang := range w.sessions {
		out = append(out, lang)
	}
	return out
}

// Handle recognizes task.Source and fills task.Text and task.Error.
func (w *Worker) Handle(task *Task) {
	w.mu.Lock()
	defer w.mu.Unlock()

	log := w.log.With().Uint64("task", task.ID).Str("language", task.Language).Logger()
	w.lastGenerations[task.Language] = task.Generation
	defer w.removeUnused(task.Generation)

	key, hashed := w.cache.key(task.Language, task.Source)
	if hashed {
		if text, ok := w.cache.lookup(key); ok {
			log.Debug().Msg("reusing cached recognition")
			task.Text, task.Error, task.Cached = text, "", true
			return
		}
	}

	session := w.session(task.Language)
	if !session.Valid() {
		task.Error = session.Error()
		if task.Error == "" {
			task.Error = ocr.InitFailedMessage
		}
		delete(w.sessions, task.Language)
		return
	}

	text, err := session.Recognize(task.Source)
	if err != nil {
		task.Error = session.Error()
		if task.Error == "" {
			task.Error = err.Error()
		}
		log.Debug().Err(err).Msg("recognition failed")
		return
	}

	task.Text, task.Error = text, ""
	if hashed {
		w.cache.store(key, text)
	}
}

func (w *Worker) session(language string) *ocr.Session {
	if s, ok := w.sessions[language]; ok {
		return s
	}
	opts := []ocr.SessionOption{ocr.WithLogger(w.log)}
	if w.prep != nil {
		opts = append(opts, ocr.WithPreprocessor(w.prep))
	}
	s := ocr.NewSession(w.factory(), language, w.tessdataPath, opts...)
	w.sessions[language] = s
	w.log.Debug().Str("language", language).Bool("valid", s.Valid()).Msg("created session")
	return s
}

// Reset closes every session and points new ones at tessdataPath. Cached
// results are dropped since they depend on the models.
func (w *Worker) Reset(tessdataPath string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for lang, s := range w.sessions {
		s.Close()
		delete(w.sessions, lang)
	}
	w.lastGenerations = make(map[string]Generation)
	w.cache.clear()
	w.tessdataPath = tessdataPath
	w.log.Info().Str("tessdata", tessdataPath).Msg("worker reset")
}

func (w *Worker) removeUnused(current Generation) {
	for lang, gen := range w.lastGenerations {
		if gen >= current {
			continue
		}
		if s, ok := w.sessions[lang]; ok {
			s.Close()
			delete(w.sessions, lang)
			w.log.Debug().Str("language", lang).Msg("closed unused session")
		}
		delete(w.lastGenerations, lang)
	}
}

// Close closes all sessions.
func (w *Worker) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for lang, s := range w.sessions {
		s.Close()
		delete(w.sessions, lang)
	}
}

// Run handles tasks until ctx is done or tasks is closed, sending each
// handled task to finished. Sessions are closed on return.
func (w *Worker) Run(ctx context.Context, tasks <-chan *Task, finished chan<- *Task) error {
	defer w.Close()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case task, ok := <-tasks:
			if !ok {
				return nil
			}
			w.Handle(task)
			select {
			case finished <- task:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}
