package trace

import (
	"testing"

	"github.com/tracevec/tracevec/pkg/imaging"
)

// bitmapFrom builds a bitmap from rows of 0/1 runes.
func bitmapFrom(rows []string) *imaging.Bitmap {
	b := imaging.NewBitmap(len(rows[0]), len(rows))
	for y, row := range rows {
		for x, r := range row {
			if r == '1' {
				b.Set(x, y, 1)
			}
		}
	}
	return b
}

func TestLabelComponents(t *testing.T) {
	b := bitmapFrom([]string{
		"1100",
		"1100",
		"0001",
	})

	count, labels := LabelComponents(b, 1)
	if count != 2 {
		t.Fatalf("count = %d, want 2", count)
	}

	if labels[0] != 1 {
		t.Errorf("first component label = %d, want 1", labels[0])
	}
	if got := labels[2*4+3]; got != 2 {
		t.Errorf("second component label = %d, want 2", got)
	}
}

func TestLabelComponentsMinArea(t *testing.T) {
	b := bitmapFrom([]string{
		"1100",
		"1100",
		"0001",
	})

	count, labels := LabelComponents(b, 2)
	if count != 1 {
		t.Fatalf("count = %d, want 1", count)
	}

	// The single-pixel component is unlabeled and numbering stays
	// contiguous.
	if got := labels[2*4+3]; got != 0 {
		t.Errorf("small component label = %d, want 0", got)
	}
	if labels[0] != 1 {
		t.Errorf("retained component label = %d, want 1", labels[0])
	}
}

func TestLabelComponentsDiagonalNotConnected(t *testing.T) {
	b := bitmapFrom([]string{
		"10",
		"01",
	})

	count, _ := LabelComponents(b, 1)
	if count != 2 {
		t.Fatalf("count = %d, want 2: diagonal pixels are not 4-connected", count)
	}
}

func TestLabelComponentsEmpty(t *testing.T) {
	b := imaging.NewBitmap(3, 3)
	count, labels := LabelComponents(b, 1)
	if count != 0 {
		t.Fatalf("count = %d, want 0", count)
	}
	for i, l := range labels {
		if l != 0 {
			t.Fatalf("labels[%d] = %d, want 0", i, l)
		}
	}
}
