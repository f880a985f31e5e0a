package trace

import (
	"github.com/tracevec/tracevec/pkg/imaging"
)

// mooreDirections enumerates the 8-neighborhood clockwise, starting right.
var mooreDirections = [8][2]int{
	{1, 0},   // right
	{1, 1},   // down-right
	{0, 1},   // down
	{-1, 1},  // down-left
	{-1, 0},  // left
	{-1, -1}, // up-left
	{0, -1},  // up
	{1, -1},  // up-right
}

// TraceContours extracts the boundary of every foreground region in b with
// Moore neighbor tracing.
//
// Candidate start pixels are scanned row-major: a foreground pixel whose
// left neighbor is background starts a new walk unless a previous walk
// already visited it. Each walk searches the 8-neighborhood clockwise,
// beginning one step past the backtrack direction of the previous move,
// and stops when it returns to its start or finds no foreground neighbor.
// Walks are capped at width*height points to bound degenerate inputs.
//
// Contours shorter than 3 points or minPoints are dropped. All returned
// contours are closed; emitters connect the last point back to the first.
func TraceContours(b *imaging.Bitmap, minPoints int) []Contour {
	w, h := b.Width(), b.Height()
	visited := make([]bool, w*h)

	var contours []Contour
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if b.At(x, y) != 1 || b.At(x-1, y) != 0 || visited[y*w+x] {
				continue
			}
			points := traceFrom(b, visited, x, y)
			if len(points) >= 3 && len(points) >= minPoints {
				contours = append(contours, Contour{Points: points, Closed: true})
			}
		}
	}
	return contours
}

// traceFrom walks one boundary starting at (startX, startY).
func traceFrom(b *imaging.Bitmap, visited []bool, startX, startY int) []Point {
	w, h := b.Width(), b.Height()
	x, y := startX, startY
	direction := 0 // entered from the left

	var points []Point
	first := true
	for {
		points = append(points, Point{X: float64(x), Y: float64(y)})
		visited[y*w+x] = true

		// Resume the clockwise search one step past the backtrack direction.
		found := false
		startDir := (direction + 5) % 8
		for i := 0; i < 8; i++ {
			checkDir := (startDir + i) % 8
			d := mooreDirections[checkDir]
			if b.At(x+d[0], y+d[1]) == 1 {
				x, y = x+d[0], y+d[1]
				direction = checkDir
				found = true
				break
			}
		}
		if !found {
			break
		}
		if !first && x == startX && y == startY {
			break
		}
		first = false

		if len(points) > w*h {
			break
		}
	}
	return points
}
