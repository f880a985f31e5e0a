// Package vectorize orchestrates the image-to-lines pipeline.
//
// One call runs decode, preprocess, component labeling, contour tracing,
// simplification, and the coordinate transform, in that order, and returns
// the resulting line segments. Every call is independent: the package
// keeps no state between calls and the stages share nothing but their
// inputs.
package vectorize

import (
	"time"

	"github.com/tracevec/tracevec/pkg/errors"
	"github.com/tracevec/tracevec/pkg/imaging"
	"github.com/tracevec/tracevec/pkg/observability"
	"github.com/tracevec/tracevec/pkg/trace"
)

// Result is the outcome of one vectorization run.
type Result struct {
	// Lines are the emitted segments in destination coordinates.
	Lines []trace.Line

	// Width and Height are the source image dimensions in pixels.
	Width, Height int

	// Components is the number of connected components that met the
	// minimum area.
	Components int

	// Contours are the simplified boundary chains, still in pixel
	// coordinates.
	Contours []trace.Contour

	// Partial is true when the source was a JPEG whose entropy stream
	// failed partway; the lines were traced from the pixels decoded up to
	// that point.
	Partial bool

	// PartialReason describes the decode failure when Partial is true.
	PartialReason string
}

// Vectorize decodes data as the image format named by ext and traces it
// into line segments under opts.
//
// An image that yields no contours is not an error: the result has an
// empty Lines slice. Invalid options, undecodable input, and unsupported
// formats return typed errors.
func Vectorize(data []byte, ext string, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	opts = opts.normalized()

	if len(data) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "empty image data")
	}

	hooks := observability.Pipeline()

	hooks.OnDecodeStart(ext)
	start := time.Now()
	img, err := imaging.Decode(data, ext)
	if err != nil {
		hooks.OnDecodeComplete(ext, 0, 0, false, time.Since(start), err)
		return nil, err
	}
	hooks.OnDecodeComplete(ext, img.Width, img.Height, img.Partial, time.Since(start), nil)

	hooks.OnTraceStart(opts.Mode)
	start = time.Now()

	bitmap := preprocess(img.Gray, opts)
	components, labels := trace.LabelComponents(bitmap, opts.MinArea)
	clearUnlabeled(bitmap, labels)
	contours := trace.TraceContours(bitmap, opts.MinLength)

	simplified := make([]trace.Contour, 0, len(contours))
	for _, c := range contours {
		simplified = append(simplified, trace.Contour{
			Points: trace.Simplify(c.Points, opts.Epsilon),
			Closed: c.Closed,
		})
	}
	hooks.OnTraceComplete(opts.Mode, components, len(simplified), time.Since(start), nil)

	res := &Result{
		Width:      img.Width,
		Height:     img.Height,
		Components: components,
		Contours:   simplified,
		Partial:    img.Partial,
	}
	if img.Partial && img.Reason != nil {
		res.PartialReason = img.Reason.Error()
	}

	tr := newTransform(img.Width, img.Height, opts.Dest)
	for _, c := range simplified {
		res.Lines = append(res.Lines, contourLines(c, tr, opts.Layer)...)
	}
	return res, nil
}

// preprocess applies the configured mode to produce the binary bitmap.
func preprocess(g *imaging.Grid, opts Options) *imaging.Bitmap {
	switch opts.Mode {
	case trace.ModeEdge:
		return trace.SobelEdges(g, opts.EdgeThreshold)
	case trace.ModeEdgeSimple:
		return trace.SimpleEdges(g, opts.EdgeThreshold)
	default:
		return trace.Binarize(g, opts.Threshold)
	}
}

// clearUnlabeled removes foreground pixels that belong to no retained
// component, so the tracer never walks a region dropped for being under
// the minimum area.
func clearUnlabeled(b *imaging.Bitmap, labels []int) {
	w, h := b.Width(), b.Height()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if b.At(x, y) == 1 && labels[y*w+x] == 0 {
				b.Set(x, y, 0)
			}
		}
	}
}

// transform maps pixel coordinates into the destination rectangle with a
// uniform scale and a vertical flip (image row 0 is the top, destination
// row 0 is the bottom).
type transform struct {
	scale      float64
	offX, offY float64
	height     float64
}

// newTransform derives the uniform scale min(dw/w, dh/h) and translation
// for fitting a w x h image into dest. A zero dest maps pixels 1:1.
func newTransform(w, h int, dest Rect) transform {
	t := transform{scale: 1, height: float64(h)}
	if dest.Width > 0 && dest.Height > 0 {
		t.scale = min(dest.Width/float64(w), dest.Height/float64(h))
	}
	t.offX = dest.X
	t.offY = dest.Y
	return t
}

func (t transform) apply(p trace.Point) trace.Point {
	return trace.Point{
		X: p.X*t.scale + t.offX,
		Y: (t.height-p.Y)*t.scale + t.offY,
	}
}

// contourLines connects consecutive contour points, plus the closing
// segment back to the first point for closed contours of 3+ points.
func contourLines(c trace.Contour, tr transform, layer string) []trace.Line {
	pts := c.Points
	if len(pts) < 2 {
		return nil
	}
	lines := make([]trace.Line, 0, len(pts))
	for i := 1; i < len(pts); i++ {
		lines = append(lines, trace.Line{
			Start: tr.apply(pts[i-1]),
			End:   tr.apply(pts[i]),
			Layer: layer,
		})
	}
	if c.Closed && len(pts) > 2 {
		lines = append(lines, trace.Line{
			Start: tr.apply(pts[len(pts)-1]),
			End:   tr.apply(pts[0]),
			Layer: layer,
		})
	}
	return lines
}
