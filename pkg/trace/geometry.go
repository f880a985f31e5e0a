// Package trace turns a grayscale image into simplified contours.
//
// The stages run in a fixed order: a preprocessing rule produces a binary
// bitmap, connected components below a minimum area are discarded, the
// boundary of each remaining region is walked with Moore neighbor tracing,
// and the resulting point chains are reduced with Douglas-Peucker
// simplification. Each stage is a pure function over its inputs; the
// package holds no state and does no I/O.
package trace

import "math"

// Point is a 2D coordinate. Pipeline stages use pixel coordinates (origin
// top-left, Y down); the final transform converts to destination
// coordinates (Y up).
type Point struct {
	X, Y float64
}

// Contour is an ordered chain of boundary points. Closed marks contours
// whose walk returned to its starting pixel.
type Contour struct {
	Points []Point
	Closed bool
}

// Line is a straight segment between two points, tagged with the layer it
// will be drawn on.
type Line struct {
	Start, End Point
	Layer      string
}

// Length returns the Euclidean length of the line.
func (l Line) Length() float64 {
	return math.Hypot(l.End.X-l.Start.X, l.End.Y-l.Start.Y)
}

// PerimeterLength returns the total length of the contour's point chain,
// including the closing segment for closed contours.
func (c Contour) PerimeterLength() float64 {
	if len(c.Points) < 2 {
		return 0
	}
	total := 0.0
	for i := 1; i < len(c.Points); i++ {
		total += math.Hypot(c.Points[i].X-c.Points[i-1].X, c.Points[i].Y-c.Points[i-1].Y)
	}
	if c.Closed {
		last := c.Points[len(c.Points)-1]
		total += math.Hypot(c.Points[0].X-last.X, c.Points[0].Y-last.Y)
	}
	return total
}
