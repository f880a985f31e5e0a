package trace

import (
	"github.com/tracevec/tracevec/pkg/imaging"
)

// LabelComponents partitions the foreground of b into 4-connected
// components and discards those smaller than minArea pixels.
//
// The returned label buffer is flat and row-major, 0 for background, with
// retained components numbered contiguously from 1 in discovery order
// (row-major order of their first pixel). The count of retained components
// is returned alongside.
func LabelComponents(b *imaging.Bitmap, minArea int) (int, []int) {
	w, h := b.Width(), b.Height()
	labels := make([]int, w*h)

	next := 1
	var queue []int
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if b.At(x, y) == 0 || labels[y*w+x] != 0 {
				continue
			}

			// Flood-fill this component, collecting its pixel indices.
			queue = queue[:0]
			queue = append(queue, y*w+x)
			labels[y*w+x] = next
			for head := 0; head < len(queue); head++ {
				i := queue[head]
				cx, cy := i%w, i/w
				for _, d := range [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
					nx, ny := cx+d[0], cy+d[1]
					if b.At(nx, ny) == 0 {
						continue
					}
					j := ny*w + nx
					if labels[j] == 0 {
						labels[j] = next
						queue = append(queue, j)
					}
				}
			}

			if len(queue) < minArea {
				// Too small: clear the labels so numbering stays contiguous.
				for _, i := range queue {
					labels[i] = 0
				}
				continue
			}
			next++
		}
	}
	return next - 1, labels
}
