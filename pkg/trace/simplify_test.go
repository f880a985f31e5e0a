package trace

import (
	"testing"
)

func TestSimplifyCollinear(t *testing.T) {
	points := []Point{{0, 0}, {1, 0}, {2, 0}, {3, 0}, {4, 0}}

	got := Simplify(points, 0.5)
	if len(got) != 2 {
		t.Fatalf("simplified to %d points, want 2", len(got))
	}
	if got[0] != points[0] || got[1] != points[4] {
		t.Errorf("endpoints = %v, %v, want %v, %v", got[0], got[1], points[0], points[4])
	}
}

func TestSimplifyKeepsCorner(t *testing.T) {
	// An L shape: the corner is far from the start-end chord and must
	// survive.
	points := []Point{{0, 0}, {5, 0}, {10, 0}, {10, 5}, {10, 10}}

	got := Simplify(points, 2)
	want := []Point{{0, 0}, {10, 0}, {10, 10}}
	if len(got) != len(want) {
		t.Fatalf("simplified = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("simplified = %v, want %v", got, want)
		}
	}
}

func TestSimplifyShortChainUnchanged(t *testing.T) {
	points := []Point{{0, 0}, {7, 3}}
	got := Simplify(points, 1)
	if len(got) != 2 {
		t.Fatalf("2-point chain changed length: %d", len(got))
	}
}

func TestSimplifyNeverGrows(t *testing.T) {
	points := []Point{{0, 0}, {1, 2}, {2, -1}, {3, 3}, {4, 0}, {5, 2}}

	got := Simplify(points, 0.1)
	if len(got) > len(points) {
		t.Fatalf("simplify grew the chain: %d > %d", len(got), len(points))
	}
	if got[0] != points[0] || got[len(got)-1] != points[len(points)-1] {
		t.Error("simplify must keep both endpoints")
	}
}

func TestSimplifyIdempotent(t *testing.T) {
	points := []Point{{0, 0}, {2, 1}, {4, 0}, {6, 5}, {8, 0}, {10, 1}, {12, 0}}

	once := Simplify(points, 1.5)
	twice := Simplify(once, 1.5)
	if len(once) != len(twice) {
		t.Fatalf("second pass changed point count: %d != %d", len(once), len(twice))
	}
	for i := range once {
		if once[i] != twice[i] {
			t.Fatalf("second pass changed points: %v != %v", once, twice)
		}
	}
}

func TestPerpendicularDistance(t *testing.T) {
	tests := []struct {
		name          string
		p, start, end Point
		want          float64
	}{
		{"above segment", Point{5, 3}, Point{0, 0}, Point{10, 0}, 3},
		{"beyond endpoint", Point{13, 4}, Point{0, 0}, Point{10, 0}, 5},
		{"degenerate segment", Point{3, 4}, Point{0, 0}, Point{0, 0}, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := perpendicularDistance(tt.p, tt.start, tt.end); got != tt.want {
				t.Errorf("perpendicularDistance() = %g, want %g", got, tt.want)
			}
		})
	}
}
