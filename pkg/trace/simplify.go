package trace

import "math"

// Simplify reduces a point chain with the Douglas-Peucker algorithm.
//
// The two endpoints are always kept, the output never has more points than
// the input, and chains of fewer than 3 points are returned unchanged.
// Within a subrange the farthest point wins ties by lowest index, so the
// output is deterministic for a given input.
//
// The recursion is replaced by an explicit range stack; contour point
// counts scale with image size and a deep chain must not overflow the
// call stack.
func Simplify(points []Point, epsilon float64) []Point {
	if len(points) < 3 {
		return points
	}

	keep := make([]bool, len(points))
	keep[0] = true
	keep[len(points)-1] = true

	type span struct{ lo, hi int }
	stack := []span{{0, len(points) - 1}}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		maxDist := 0.0
		maxIdx := 0
		for i := s.lo + 1; i < s.hi; i++ {
			if d := perpendicularDistance(points[i], points[s.lo], points[s.hi]); d > maxDist {
				maxDist = d
				maxIdx = i
			}
		}
		if maxDist > epsilon {
			keep[maxIdx] = true
			stack = append(stack, span{s.lo, maxIdx}, span{maxIdx, s.hi})
		}
	}

	out := make([]Point, 0, len(points))
	for i, p := range points {
		if keep[i] {
			out = append(out, p)
		}
	}
	return out
}

// perpendicularDistance returns the distance from p to the segment
// [start, end]. The projection parameter is clamped to the segment, so
// points beyond either endpoint measure to that endpoint.
func perpendicularDistance(p, start, end Point) float64 {
	dx := end.X - start.X
	dy := end.Y - start.Y
	if dx == 0 && dy == 0 {
		return math.Hypot(p.X-start.X, p.Y-start.Y)
	}

	t := ((p.X-start.X)*dx + (p.Y-start.Y)*dy) / (dx*dx + dy*dy)
	t = math.Max(0, math.Min(1, t))

	projX := start.X + t*dx
	projY := start.Y + t*dy
	return math.Hypot(p.X-projX, p.Y-projY)
}
