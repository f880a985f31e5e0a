package trace

import (
	"testing"

	"github.com/tracevec/tracevec/pkg/imaging"
)

func TestBinarize(t *testing.T) {
	g := imaging.NewGrid(3, 1)
	g.Set(0, 0, 0)
	g.Set(1, 0, 127)
	g.Set(2, 0, 128)

	b := Binarize(g, 128)

	// Strictly darker than the threshold is foreground.
	want := []int{1, 1, 0}
	for x, v := range want {
		if got := b.At(x, 0); got != v {
			t.Errorf("pixel (%d,0) = %d, want %d", x, v, got)
		}
	}
}

func TestSobelEdgesVerticalStep(t *testing.T) {
	// Left half black, right half white: a strong vertical edge through
	// the middle columns.
	g := imaging.NewGrid(6, 6)
	for y := 0; y < 6; y++ {
		for x := 3; x < 6; x++ {
			g.Set(x, y, 255)
		}
	}

	b := SobelEdges(g, 50)

	if got := b.At(2, 3); got != 1 {
		t.Error("edge column should be foreground")
	}
	if got := b.At(1, 3); got != 0 {
		t.Error("flat region should be background")
	}
}

func TestSobelEdgesBorderStaysBackground(t *testing.T) {
	g := imaging.NewGrid(4, 4)
	g.Set(0, 0, 255)
	g.Set(1, 1, 255)

	b := SobelEdges(g, 1)

	for x := 0; x < 4; x++ {
		if b.At(x, 0) != 0 || b.At(x, 3) != 0 {
			t.Fatal("border rows must stay background")
		}
	}
	for y := 0; y < 4; y++ {
		if b.At(0, y) != 0 || b.At(3, y) != 0 {
			t.Fatal("border columns must stay background")
		}
	}
}

func TestSimpleEdges(t *testing.T) {
	g := imaging.NewGrid(3, 3)
	g.Set(1, 1, 255)

	b := SimpleEdges(g, 30)

	// (0,1) sees the bright right neighbor; (1,0) the bright lower one.
	if b.At(0, 1) != 1 {
		t.Error("pixel left of step should be foreground")
	}
	if b.At(1, 0) != 1 {
		t.Error("pixel above step should be foreground")
	}
	// The last row and column have no right/lower neighbor to compare.
	if b.At(2, 2) != 0 {
		t.Error("bottom-right corner must stay background")
	}
}

func TestModes(t *testing.T) {
	got := Modes()
	want := []string{ModeBinary, ModeEdge, ModeEdgeSimple}
	if len(got) != len(want) {
		t.Fatalf("Modes() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Modes() = %v, want %v", got, want)
		}
	}
}
