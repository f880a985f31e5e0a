package imaging

// Grid is a grayscale pixel grid stored as a single flat, row-major buffer.
// Values are in [0, 255]. The grid is immutable once decoding completes;
// downstream stages only read from it.
//
// Accessors are bounds-checked: reads outside the grid return 0 (background),
// which is the neighbor-lookup behavior the edge detector and contour tracer
// rely on. There is no wrap-around.
type Grid struct {
	width, height int
	pix           []uint8
}

// NewGrid creates a zero-filled grayscale grid of the given dimensions.
func NewGrid(width, height int) *Grid {
	return &Grid{width: width, height: height, pix: make([]uint8, width*height)}
}

// Width returns the grid width in pixels.
func (g *Grid) Width() int { return g.width }

// Height returns the grid height in pixels.
func (g *Grid) Height() int { return g.height }

// At returns the pixel value at (x, y), or 0 outside the grid.
func (g *Grid) At(x, y int) int {
	if x < 0 || x >= g.width || y < 0 || y >= g.height {
		return 0
	}
	return int(g.pix[y*g.width+x])
}

// Set writes a pixel value at (x, y), clamping to [0, 255].
// Writes outside the grid are ignored.
func (g *Grid) Set(x, y, v int) {
	if x < 0 || x >= g.width || y < 0 || y >= g.height {
		return
	}
	if v < 0 {
		v = 0
	} else if v > 255 {
		v = 255
	}
	g.pix[y*g.width+x] = uint8(v)
}

// Bitmap is a binary (foreground/background) grid derived from a Grid by a
// threshold or edge rule. Values are 0 (background) or 1 (foreground),
// stored flat and row-major like Grid.
type Bitmap struct {
	width, height int
	bits          []uint8
}

// NewBitmap creates a zero-filled (all background) bitmap.
func NewBitmap(width, height int) *Bitmap {
	return &Bitmap{width: width, height: height, bits: make([]uint8, width*height)}
}

// Width returns the bitmap width in pixels.
func (b *Bitmap) Width() int { return b.width }

// Height returns the bitmap height in pixels.
func (b *Bitmap) Height() int { return b.height }

// At returns 1 for foreground pixels, 0 for background or out-of-range reads.
func (b *Bitmap) At(x, y int) int {
	if x < 0 || x >= b.width || y < 0 || y >= b.height {
		return 0
	}
	return int(b.bits[y*b.width+x])
}

// Set writes a foreground (nonzero v) or background (v == 0) value at (x, y).
// Writes outside the bitmap are ignored.
func (b *Bitmap) Set(x, y, v int) {
	if x < 0 || x >= b.width || y < 0 || y >= b.height {
		return
	}
	if v != 0 {
		b.bits[y*b.width+x] = 1
	} else {
		b.bits[y*b.width+x] = 0
	}
}
