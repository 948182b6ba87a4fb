package imaging

import (
	"math"

	"github.com/ironsheep/screen-ocr-mcp/internal/memprobe"
)

const (
	// NoScale is the sentinel scale meaning "leave the image as is".
	NoScale = -1.0

	// DefaultTargetDensity is the pixel density below which recognition
	// accuracy starts to drop.
	DefaultTargetDensity = 500.0

	// DefaultMemoryMargin is the share of free memory a scaled buffer may use.
	DefaultMemoryMargin = 0.95

	// maxDimension is the largest width or height the engine can address.
	maxDimension = math.MaxInt32
)

// ScaleDecision records how a scale factor was reached.
//
// Scale is NoScale when scaling was ruled out early; otherwise it is the
// minimum of the geometry and memory bounds, which can itself be <= 1.0.
type ScaleDecision struct {
	Preferred float64 `json:"preferred"`
	Geometry  float64 `json:"geometry_bound"`
	Memory    float64 `json:"memory_bound"`
	Available int64   `json:"available_memory"`
	Scale     float64 `json:"scale"`
	Reason    string  `json:"reason,omitempty"`
}

// Apply reports whether the decision calls for upscaling.
func (d ScaleDecision) Apply() bool {
	return d.Scale > 1.0
}

// ScaleCalculator decides how far to upscale a buffer for recognition.
type ScaleCalculator struct {
	// TargetDensity is the density the image should reach, in pixels per inch.
	TargetDensity float64

	// MemoryMargin is multiplied with the free memory before bounding the scale.
	MemoryMargin float64

	probe memprobe.Probe
}

// NewScaleCalculator returns a calculator with the default density target
// and memory margin.
func NewScaleCalculator(probe memprobe.Probe) *ScaleCalculator {
	if probe == nil {
		probe = memprobe.NewSystem()
	}
	return &ScaleCalculator{
		TargetDensity: DefaultTargetDensity,
		MemoryMargin:  DefaultMemoryMargin,
		probe:         probe,
	}
}

// ComputeScale returns the upscaling factor for buf.
//
// The preferred factor lifts the lower of the two densities to the target.
// It is then bounded so neither scaled dimension exceeds the engine's
// addressable size and the scaled buffer fits in free memory. The result is
// NoScale when the buffer is missing, its density is unknown, it already
// meets the target, or free memory cannot be determined.
func (c *ScaleCalculator) ComputeScale(buf *PixelBuffer) ScaleDecision {
	d := ScaleDecision{Scale: NoScale}
	if buf.Released() {
		d.Reason = "no buffer"
		return d
	}

	xRes, yRes := buf.XRes(), buf.YRes()
	if xRes*yRes == 0 {
		d.Reason = "density unknown"
		return d
	}

	d.Preferred = math.Max(c.TargetDensity/float64(min(xRes, yRes)), 1.0)
	if d.Preferred <= 1.0 {
		d.Reason = "density sufficient"
		return d
	}

	scaleX := math.Min(d.Preferred, maxDimension/float64(buf.Width()))
	scaleY := math.Min(d.Preferred, maxDimension/float64(buf.Height()))
	d.Geometry = math.Min(scaleX, scaleY)

	d.Available = c.probe.Available()
	available := float64(d.Available) * c.MemoryMargin
	if available < 1 {
		d.Reason = "free memory unknown"
		return d
	}

	footprint := buf.Footprint()
	if footprint <= 0 {
		d.Reason = "empty buffer"
		return d
	}
	d.Memory = available / float64(footprint)

	d.Scale = math.Min(d.Geometry, d.Memory)
	if !d.Apply() {
		d.Reason = "bounded below 1"
	}
	return d
}
