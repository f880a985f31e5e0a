package trace

import (
	"github.com/tracevec/tracevec/pkg/imaging"
)

// Preprocessing modes selecting how the grayscale image becomes a binary
// bitmap.
const (
	// ModeBinary marks pixels darker than the threshold as foreground.
	ModeBinary = "binary"

	// ModeEdge marks pixels whose Sobel gradient magnitude exceeds the
	// edge threshold.
	ModeEdge = "edge"

	// ModeEdgeSimple marks pixels whose intensity difference to the right
	// or lower neighbor exceeds the edge threshold.
	ModeEdgeSimple = "edge_simple"
)

// Modes returns the supported preprocessing modes in display order.
func Modes() []string {
	return []string{ModeBinary, ModeEdge, ModeEdgeSimple}
}

// Binarize produces a bitmap in which pixels strictly darker than
// threshold are foreground. Dark shapes on light backgrounds become
// foreground regions.
func Binarize(g *imaging.Grid, threshold int) *imaging.Bitmap {
	w, h := g.Width(), g.Height()
	b := imaging.NewBitmap(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if g.At(x, y) < threshold {
				b.Set(x, y, 1)
			}
		}
	}
	return b
}

// Sobel kernels for horizontal and vertical gradients.
var (
	sobelX = [3][3]int{{-1, 0, 1}, {-2, 0, 2}, {-1, 0, 1}}
	sobelY = [3][3]int{{-1, -2, -1}, {0, 0, 0}, {1, 2, 1}}
)

// SobelEdges produces a bitmap of pixels whose Sobel gradient magnitude
// exceeds threshold. Only interior pixels are evaluated; the one-pixel
// border stays background.
func SobelEdges(g *imaging.Grid, threshold float64) *imaging.Bitmap {
	w, h := g.Width(), g.Height()
	b := imaging.NewBitmap(w, h)
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			gx, gy := 0, 0
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					v := g.At(x+dx, y+dy)
					gx += sobelX[dy+1][dx+1] * v
					gy += sobelY[dy+1][dx+1] * v
				}
			}
			if float64(gx*gx+gy*gy) > threshold*threshold {
				b.Set(x, y, 1)
			}
		}
	}
	return b
}

// SimpleEdges produces a bitmap of pixels whose absolute intensity
// difference to the right or lower neighbor exceeds threshold. The last
// row and column have no such neighbor and stay background.
func SimpleEdges(g *imaging.Grid, threshold float64) *imaging.Bitmap {
	w, h := g.Width(), g.Height()
	b := imaging.NewBitmap(w, h)
	for y := 0; y < h-1; y++ {
		for x := 0; x < w-1; x++ {
			v := g.At(x, y)
			dx := abs(g.At(x+1, y) - v)
			dy := abs(g.At(x, y+1) - v)
			if float64(max(dx, dy)) > threshold {
				b.Set(x, y, 1)
			}
		}
	}
	return b
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
