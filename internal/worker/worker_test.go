package worker

import (
	"context"
	"errors"
	"image"
	"image/color"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/screen-ocr-mcp/internal/imaging"
	"github.com/ironsheep/screen-ocr-mcp/internal/memprobe"
	"github.com/ironsheep/screen-ocr-mcp/internal/ocr"
)

type fakeEngine struct {
	initErr  error
	text     string
	tessdata string
	language string
	texts    int
	closed   bool
}

func (f *fakeEngine) Init(tessdataPath, language string) error {
	f.tessdata, f.language = tessdataPath, language
	return f.initErr
}

func (f *fakeEngine) SetImage(*imaging.PixelBuffer) error { return nil }

func (f *fakeEngine) Text() (string, error) {
	f.texts++
	return f.text, nil
}

func (f *fakeEngine) Clear() {}

func (f *fakeEngine) Close() error {
	f.closed = true
	return nil
}

// fakeFactory hands out fake engines and remembers them.
type fakeFactory struct {
	text    string
	initErr error
	engines []*fakeEngine
}

func (f *fakeFactory) New() ocr.Engine {
	e := &fakeEngine{text: f.text, initErr: f.initErr}
	f.engines = append(f.engines, e)
	return e
}

func (f *fakeFactory) byLanguage(lang string) []*fakeEngine {
	var out []*fakeEngine
	for _, e := range f.engines {
		if e.language == lang {
			out = append(out, e)
		}
	}
	return out
}

func (f *fakeFactory) textCalls() int {
	n := 0
	for _, e := range f.engines {
		n += e.texts
	}
	return n
}

func newTestWorker(t *testing.T, cfg Config, factory *fakeFactory) *Worker {
	t.Helper()
	if cfg.TessdataPath == "" {
		cfg.TessdataPath = "/models"
	}
	prep := imaging.NewPreprocessor(memprobe.Fixed(1 << 30))
	return New(cfg, factory.New, WithPreprocessor(prep))
}

// gradient returns a capture whose brightness rises left to right, or falls
// when rising is false.
func gradient(rising bool) imaging.SourceImage {
	img := image.NewGray(image.Rect(0, 0, 64, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 64; x++ {
			v := uint8(x * 4)
			if !rising {
				v = 255 - v
			}
			img.SetGray(x, y, color.Gray{Y: v})
		}
	}
	return imaging.SourceImage{Image: img}
}

func TestHandle_ReusesSessionPerLanguage(t *testing.T) {
	factory := &fakeFactory{text: "  hello  "}
	w := newTestWorker(t, Config{}, factory)

	for i := 0; i < 3; i++ {
		task := &Task{ID: uint64(i), Generation: 1, Source: gradient(true), Language: "eng"}
		w.Handle(task)
		assert.Equal(t, "hello", task.Text)
		assert.Empty(t, task.Error)
		assert.False(t, task.Cached)
	}

	require.Len(t, factory.engines, 1)
	assert.Equal(t, "/models", factory.engines[0].tessdata)
	assert.Equal(t, 3, factory.engines[0].texts)
	assert.Equal(t, []string{"eng"}, w.Languages())
}

func TestHandle_RemovesOlderGenerations(t *testing.T) {
	factory := &fakeFactory{text: "text"}
	w := newTestWorker(t, Config{}, factory)

	w.Handle(&Task{Generation: 1, Source: gradient(true), Language: "eng"})
	w.Handle(&Task{Generation: 1, Source: gradient(true), Language: "deu"})
	langs := w.Languages()
	sort.Strings(langs)
	assert.Equal(t, []string{"deu", "eng"}, langs)

	w.Handle(&Task{Generation: 2, Source: gradient(true), Language: "eng"})

	assert.Equal(t, []string{"eng"}, w.Languages())
	assert.True(t, factory.byLanguage("deu")[0].closed)
	assert.False(t, factory.byLanguage("eng")[0].closed)
}

func TestHandle_InitFailure(t *testing.T) {
	factory := &fakeFactory{initErr: errors.New("no model")}
	w := newTestWorker(t, Config{}, factory)

	task := &Task{Generation: 1, Source: gradient(true), Language: "xyz"}
	w.Handle(task)
	assert.Equal(t, ocr.InitFailedMessage, task.Error)
	assert.Empty(t, task.Text)
	assert.Empty(t, w.Languages(), "failed sessions are not kept")

	w.Handle(&Task{Generation: 1, Source: gradient(true), Language: "xyz"})
	assert.Len(t, factory.engines, 2, "next task retries initialization")
}

func TestHandle_NoText(t *testing.T) {
	factory := &fakeFactory{text: " \n "}
	w := newTestWorker(t, Config{}, factory)

	task := &Task{Generation: 1, Source: gradient(true), Language: "eng"}
	w.Handle(task)
	assert.Equal(t, ocr.NoTextMessage, task.Error)
	assert.Empty(t, task.Text)
}

func TestHandle_EmptySource(t *testing.T) {
	factory := &fakeFactory{text: "text"}
	w := newTestWorker(t, Config{MaxEntries: 4}, factory)

	task := &Task{Generation: 1, Language: "eng"}
	w.Handle(task)
	assert.Equal(t, imaging.ErrInvalidInput.Error(), task.Error)
	assert.Zero(t, factory.textCalls())
}

func TestHandle_ResultCache(t *testing.T) {
	factory := &fakeFactory{text: "cached text"}
	w := newTestWorker(t, Config{MaxEntries: 4}, factory)

	first := &Task{Generation: 1, Source: gradient(true), Language: "eng"}
	w.Handle(first)
	second := &Task{Generation: 1, Source: gradient(true), Language: "eng"}
	w.Handle(second)

	assert.False(t, first.Cached)
	assert.True(t, second.Cached)
	assert.Equal(t, "cached text", second.Text)
	assert.Equal(t, 1, factory.textCalls())

	w.Handle(&Task{Generation: 1, Source: gradient(false), Language: "eng"})
	assert.Equal(t, 2, factory.textCalls(), "different capture misses")

	w.Handle(&Task{Generation: 1, Source: gradient(true), Language: "deu"})
	assert.Equal(t, 3, factory.textCalls(), "different language misses")
}

func TestHandle_ResultCacheEvictsOldest(t *testing.T) {
	factory := &fakeFactory{text: "text"}
	w := newTestWorker(t, Config{MaxEntries: 1}, factory)

	w.Handle(&Task{Generation: 1, Source: gradient(true), Language: "eng"})
	w.Handle(&Task{Generation: 1, Source: gradient(false), Language: "eng"})
	assert.Equal(t, 1, w.cache.size())

	task := &Task{Generation: 1, Source: gradient(true), Language: "eng"}
	w.Handle(task)
	assert.False(t, task.Cached)
	assert.Equal(t, 3, factory.textCalls())
}

func TestHandle_CacheDisabled(t *testing.T) {
	factory := &fakeFactory{text: "text"}
	w := newTestWorker(t, Config{}, factory)

	w.Handle(&Task{Generation: 1, Source: gradient(true), Language: "eng"})
	w.Handle(&Task{Generation: 1, Source: gradient(true), Language: "eng"})
	assert.Equal(t, 2, factory.textCalls())
	assert.Zero(t, w.cache.size())
}

func TestReset(t *testing.T) {
	factory := &fakeFactory{text: "text"}
	w := newTestWorker(t, Config{MaxEntries: 4}, factory)

	w.Handle(&Task{Generation: 1, Source: gradient(true), Language: "eng"})
	w.Reset("/other")

	assert.True(t, factory.engines[0].closed)
	assert.Empty(t, w.Languages())
	assert.Zero(t, w.cache.size())
	assert.Equal(t, "/other", w.TessdataPath())

	task := &Task{Generation: 1, Source: gradient(true), Language: "eng"}
	w.Handle(task)
	assert.False(t, task.Cached)
	require.Len(t, factory.engines, 2)
	assert.Equal(t, "/other", factory.engines[1].tessdata)
}

func TestRun(t *testing.T) {
	factory := &fakeFactory{text: "text"}
	w := newTestWorker(t, Config{}, factory)

	tasks := make(chan *Task, 3)
	finished := make(chan *Task, 3)
	for i := 1; i <= 3; i++ {
		tasks <- &Task{ID: uint64(i), Generation: 1, Source: gradient(true), Language: "eng"}
	}
	close(tasks)

	require.NoError(t, w.Run(context.Background(), tasks, finished))
	close(finished)

	var ids []uint64
	for task := range finished {
		assert.Equal(t, "text", task.Text)
		ids = append(ids, task.ID)
	}
	assert.Equal(t, []uint64{1, 2, 3}, ids)
	assert.True(t, factory.engines[0].closed, "sessions closed when Run returns")
}

func TestRun_Cancel(t *testing.T) {
	w := newTestWorker(t, Config{}, &fakeFactory{})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, make(chan *Task), make(chan *Task)) }()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
