package imaging

import (
	"fmt"
	"image"
	"math"

	"github.com/rs/zerolog"
	"golang.org/x/image/draw"

	"github.com/ironsheep/screen-ocr-mcp/internal/memprobe"
)

// Scaler resizes a buffer by independent horizontal and vertical factors.
// It never releases its input.
type Scaler interface {
	Scale(buf *PixelBuffer, sx, sy float64) (*PixelBuffer, error)
}

// Interpolators selectable by name.
var Interpolators = map[string]draw.Interpolator{
	"nearest":         draw.NearestNeighbor,
	"approx-bilinear": draw.ApproxBiLinear,
	"bilinear":        draw.BiLinear,
	"catmull-rom":     draw.CatmullRom,
}

// InterpolatingScaler resamples with an x/image/draw interpolator, keeping
// the buffer's layout. Resolution grows with the scale factor.
type InterpolatingScaler struct {
	arena        *Arena
	interpolator draw.Interpolator
}

// NewInterpolatingScaler returns a scaler allocating from arena. A nil
// interpolator selects bilinear.
func NewInterpolatingScaler(arena *Arena, interpolator draw.Interpolator) *InterpolatingScaler {
	if interpolator == nil {
		interpolator = draw.BiLinear
	}
	return &InterpolatingScaler{arena: arena, interpolator: interpolator}
}

// Scale implements Scaler.
func (s *InterpolatingScaler) Scale(buf *PixelBuffer, sx, sy float64) (*PixelBuffer, error) {
	src, err := buf.Image()
	if err != nil {
		return nil, err
	}

	w := scaledSize(buf.Width(), sx)
	h := scaledSize(buf.Height(), sy)
	if w < 1 || h < 1 || w > maxDimension || h > maxDimension {
		return nil, fmt.Errorf("%w: %dx%d by %.3fx%.3f", ErrScaleFailed, buf.Width(), buf.Height(), sx, sy)
	}
	if int64(w)*int64(h) > math.MaxInt/4 {
		return nil, fmt.Errorf("%w: %dx%d exceeds addressable size", ErrScaleFailed, w, h)
	}

	rect := image.Rect(0, 0, w, h)
	var dst draw.Image
	if buf.Depth() == 8 {
		dst = image.NewGray(rect)
	} else {
		dst = image.NewNRGBA(rect)
	}
	s.interpolator.Scale(dst, rect, src, src.Bounds(), draw.Src, nil)

	return s.arena.wrap(dst, scaledSize(buf.XRes(), sx), scaledSize(buf.YRes(), sy)), nil
}

func scaledSize(n int, scale float64) int {
	return int(float64(n)*scale + 0.5)
}

// scaledFootprint is the byte size of buf resized by scale on both axes.
func scaledFootprint(buf *PixelBuffer, scale float64) int64 {
	w := int64(scaledSize(buf.Width(), scale))
	h := int64(scaledSize(buf.Height(), scale))
	return w * h * int64(buf.Depth()) / 8
}

// Preprocessor turns captured images into buffers ready for recognition:
// engine conversion, grayscale reduction, then upscaling when the source
// density is too low.
type Preprocessor struct {
	arena      *Arena
	converter  *Converter
	calculator *ScaleCalculator
	scaler     Scaler
	log        zerolog.Logger
}

// Option configures a Preprocessor.
type Option func(*Preprocessor)

// WithArena sets the arena buffers are allocated from.
func WithArena(a *Arena) Option {
	return func(p *Preprocessor) { p.arena = a }
}

// WithCalculator replaces the scale calculator.
func WithCalculator(c *ScaleCalculator) Option {
	return func(p *Preprocessor) { p.calculator = c }
}

// WithScaler replaces the default bilinear scaler.
func WithScaler(s Scaler) Option {
	return func(p *Preprocessor) { p.scaler = s }
}

// WithLogger sets the logger used for pipeline tracing.
func WithLogger(l zerolog.Logger) Option {
	return func(p *Preprocessor) { p.log = l }
}

// NewPreprocessor builds a preprocessor whose memory bound comes from probe.
func NewPreprocessor(probe memprobe.Probe, opts ...Option) *Preprocessor {
	p := &Preprocessor{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(p)
	}
	if p.arena == nil {
		p.arena = NewArena()
	}
	if p.calculator == nil {
		p.calculator = NewScaleCalculator(probe)
	}
	if p.scaler == nil {
		p.scaler = NewInterpolatingScaler(p.arena, nil)
	}
	p.converter = NewConverter(p.arena)
	return p
}

// Arena returns the arena the preprocessor allocates from.
func (p *Preprocessor) Arena() *Arena { return p.arena }

// Converter returns the converter bound to the preprocessor's arena.
func (p *Preprocessor) Converter() *Converter { return p.converter }

// Calculator returns the scale calculator.
func (p *Preprocessor) Calculator() *ScaleCalculator { return p.calculator }

// Prepare converts src into a gray, possibly upscaled buffer owned by the
// caller. See PrepareDecision.
func (p *Preprocessor) Prepare(src SourceImage) (*PixelBuffer, error) {
	buf, _, err := p.PrepareDecision(src)
	return buf, err
}

// PrepareDecision is Prepare that also returns the scale decision.
//
// Conversion and grayscale failures abort with an error. A scaling failure
// falls back to the unscaled gray buffer. Only the returned buffer is left
// alive in the arena.
func (p *Preprocessor) PrepareDecision(src SourceImage) (*PixelBuffer, ScaleDecision, error) {
	decision := ScaleDecision{Scale: NoScale}

	pix, err := p.converter.ToEngineBuffer(src)
	if err != nil {
		return nil, decision, fmt.Errorf("failed to convert image: %w", err)
	}
	p.log.Trace().Int("width", pix.Width()).Int("height", pix.Height()).
		Int("depth", pix.Depth()).Msg("converted image to engine buffer")

	gray, err := p.converter.ToGray(pix)
	pix.Release()
	if err != nil {
		return nil, decision, fmt.Errorf("failed to convert to grayscale: %w", err)
	}
	p.log.Trace().Msg("created gray buffer, released converted buffer")

	decision = p.calculator.ComputeScale(gray)
	if !decision.Apply() {
		p.log.Trace().Float64("scale", decision.Scale).Str("reason", decision.Reason).Msg("skipping scale")
		return gray, decision, nil
	}

	scaled, err := p.scale(gray, decision)
	if err != nil {
		p.log.Warn().Err(err).Float64("scale", decision.Scale).Msg("scaling failed, using unscaled buffer")
		return gray, decision, nil
	}
	gray.Release()
	p.log.Trace().Float64("scale", decision.Scale).Int("width", scaled.Width()).
		Int("height", scaled.Height()).Msg("scaled buffer, released unscaled buffer")

	return scaled, decision, nil
}

// scale runs the scaler only when the resized buffer fits the memory the
// decision was computed against. The decision bounds the scale linearly
// while the output grows with its square.
func (p *Preprocessor) scale(gray *PixelBuffer, decision ScaleDecision) (*PixelBuffer, error) {
	need := scaledFootprint(gray, decision.Scale)
	budget := float64(decision.Available) * p.calculator.MemoryMargin
	if decision.Available <= 0 || float64(need) > budget {
		return nil, fmt.Errorf("%w: scaled buffer needs %d bytes, %d available", ErrScaleFailed, need, decision.Available)
	}
	return p.scaler.Scale(gray, decision.Scale, decision.Scale)
}
