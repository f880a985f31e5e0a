package vectorize

import (
	"github.com/tracevec/tracevec/pkg/errors"
	"github.com/tracevec/tracevec/pkg/trace"
)

// Default option values.
const (
	DefaultThreshold         = 128
	DefaultEdgeThreshold     = 50
	DefaultEdgeSimpleCutoff  = 30
	DefaultEpsilon           = 2.0
	DefaultMinContourLength  = 10
	DefaultMinComponentArea  = 16
	DefaultLayer             = "TRACE"
	DefaultSequenceBatchSize = 50
)

// Rect is a destination rectangle in output coordinates. X, Y is the
// bottom-left corner.
type Rect struct {
	X      float64 `json:"x" toml:"x"`
	Y      float64 `json:"y" toml:"y"`
	Width  float64 `json:"width" toml:"width"`
	Height float64 `json:"height" toml:"height"`
}

// Options configures one vectorization run. The zero value of a field
// means "use the default"; call Validate before use.
//
// Because zero means unset, an explicit zero is indistinguishable from an
// omitted field: Threshold 0, Epsilon 0, MinLength 0, and MinArea 0 all
// resolve to their defaults. To effectively disable a stage, use the
// smallest meaningful value instead (threshold 1, epsilon 0.001, min
// length 1, min area 1).
type Options struct {
	// Mode selects the preprocessing rule: binary, edge, or edge_simple.
	Mode string `json:"mode,omitempty" toml:"mode"`

	// Threshold is the binarization cutoff for binary mode (0-255).
	Threshold int `json:"threshold,omitempty" toml:"threshold"`

	// EdgeThreshold is the gradient cutoff for the edge modes. Zero means
	// unset: edge mode defaults to 50 and edge_simple to 30.
	EdgeThreshold float64 `json:"edge_threshold,omitempty" toml:"edge_threshold"`

	// Epsilon is the Douglas-Peucker tolerance; larger values simplify more.
	Epsilon float64 `json:"epsilon,omitempty" toml:"epsilon"`

	// MinLength drops contours with fewer points than this.
	MinLength int `json:"min_length,omitempty" toml:"min_length"`

	// MinArea drops connected components smaller than this many pixels.
	MinArea int `json:"min_area,omitempty" toml:"min_area"`

	// Layer names the output layer the lines are grouped under.
	Layer string `json:"layer,omitempty" toml:"layer"`

	// Dest is the destination rectangle the image is fitted into with a
	// uniform scale. A zero rectangle maps pixels 1:1 (the vertical flip
	// still applies).
	Dest Rect `json:"dest" toml:"dest"`
}

// DefaultOptions returns the documented defaults with an unset destination
// rectangle.
func DefaultOptions() Options {
	return Options{
		Mode:      trace.ModeBinary,
		Threshold: DefaultThreshold,
		Epsilon:   DefaultEpsilon,
		MinLength: DefaultMinContourLength,
		MinArea:   DefaultMinComponentArea,
		Layer:     DefaultLayer,
	}
}

// Validate checks option values, returning an INVALID_CONFIG error for the
// first violation found.
func (o Options) Validate() error {
	switch o.Mode {
	case "", trace.ModeBinary, trace.ModeEdge, trace.ModeEdgeSimple:
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown mode %q (supported: binary, edge, edge_simple)", o.Mode)
	}
	if o.Threshold < 0 || o.Threshold > 255 {
		return errors.New(errors.ErrCodeInvalidConfig, "threshold %d out of range [0, 255]", o.Threshold)
	}
	if o.EdgeThreshold < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "edge threshold %g must not be negative", o.EdgeThreshold)
	}
	if o.Epsilon < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "epsilon %g must not be negative", o.Epsilon)
	}
	if o.MinLength < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "min length %d must not be negative", o.MinLength)
	}
	if o.MinArea < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "min area %d must not be negative", o.MinArea)
	}
	if o.Dest.Width < 0 || o.Dest.Height < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "destination rectangle %gx%g must not be negative", o.Dest.Width, o.Dest.Height)
	}
	return nil
}

// normalized resolves unset fields to their effective values. Zero values
// are treated as unset, per the Options doc.
func (o Options) normalized() Options {
	if o.Mode == "" {
		o.Mode = trace.ModeBinary
	}
	if o.Threshold == 0 {
		o.Threshold = DefaultThreshold
	}
	if o.EdgeThreshold == 0 {
		if o.Mode == trace.ModeEdgeSimple {
			o.EdgeThreshold = DefaultEdgeSimpleCutoff
		} else {
			o.EdgeThreshold = DefaultEdgeThreshold
		}
	}
	if o.Epsilon == 0 {
		o.Epsilon = DefaultEpsilon
	}
	if o.MinLength == 0 {
		o.MinLength = DefaultMinContourLength
	}
	if o.MinArea == 0 {
		o.MinArea = DefaultMinComponentArea
	}
	if o.Layer == "" {
		o.Layer = DefaultLayer
	}
	return o
}
