package geometry

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSegmentsLikelyIntersect(t *testing.T) {
	tests := []struct {
		name           string
		p1, p2, q1, q2 Point
		want           bool
	}{
		{"perpendicular", Point{0, 0}, Point{10, 0}, Point{5, -5}, Point{5, 5}, true},
		{"parallel", Point{0, 0}, Point{10, 0}, Point{0, 5}, Point{10, 5}, false},
		{"anti-parallel", Point{0, 0}, Point{10, 0}, Point{10, 5}, Point{0, 5}, false},
		{"shallow angle", Point{0, 0}, Point{10, 0}, Point{0, 0}, Point{10, 2}, false},
		{"45 degrees", Point{0, 0}, Point{10, 0}, Point{0, 0}, Point{10, 10}, false},
		{"60 degrees", Point{0, 0}, Point{100, 0}, Point{0, 0}, Point{50, 87}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SegmentsLikelyIntersect(tt.p1, tt.p2, tt.q1, tt.q2)
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSegmentIntersection(t *testing.T) {
	tests := []struct {
		name           string
		p1, p2, p3, p4 Point
		wantOK         bool
		wantX, wantY   float64
	}{
		{"cross", Point{0, 0}, Point{10, 10}, Point{0, 10}, Point{10, 0}, true, 5, 5},
		{"touching endpoint", Point{0, 0}, Point{10, 0}, Point{10, 0}, Point{10, 10}, true, 10, 0},
		{"lines cross outside segments", Point{0, 0}, Point{4, 0}, Point{5, -5}, Point{5, 5}, false, 0, 0},
		{"parallel", Point{0, 0}, Point{10, 0}, Point{0, 1}, Point{10, 1}, false, 0, 0},
		{"collinear overlap", Point{0, 0}, Point{10, 0}, Point{5, 0}, Point{15, 0}, true, 5, 0},
		{"collinear disjoint", Point{0, 0}, Point{4, 0}, Point{5, 0}, Point{15, 0}, false, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SegmentIntersection(tt.p1, tt.p2, tt.p3, tt.p4)
			if ok != tt.wantOK {
				t.Fatalf("ok: got %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if math.Abs(got.X-tt.wantX) > 1e-9 || math.Abs(got.Y-tt.wantY) > 1e-9 {
				t.Errorf("point: got (%v,%v), want (%v,%v)", got.X, got.Y, tt.wantX, tt.wantY)
			}
		})
	}
}

func TestOrderClockwise(t *testing.T) {
	// Scrambled corners of a rectangle.
	in := []Point{{100, 50}, {0, 0}, {0, 50}, {100, 0}}
	got := OrderClockwise(in)
	want := []Point{{0, 0}, {100, 0}, {100, 50}, {0, 50}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("OrderClockwise mismatch (-want +got):\n%s", diff)
	}

	// Input must not be modified.
	if in[0] != (Point{100, 50}) {
		t.Error("OrderClockwise modified its input")
	}
}

func TestOrderClockwise_Idempotent(t *testing.T) {
	inputs := [][]Point{
		{{3, 9}, {12, 1}, {7, 7}, {0, 0}, {5, 2}},
		{{10, 10}, {20, 10}, {20, 20}, {10, 20}},
		{{0, 0}, {0, 0}, {4, 4}},
	}

	for _, in := range inputs {
		once := OrderClockwise(in)
		twice := OrderClockwise(once)
		if diff := cmp.Diff(once, twice); diff != "" {
			t.Errorf("not idempotent for %v (-once +twice):\n%s", in, diff)
		}
	}
}

func TestOrderClockwise_AnglesNonDecreasing(t *testing.T) {
	in := []Point{{40, 3}, {2, 30}, {39, 28}, {5, 4}}
	got := OrderClockwise(in)
	c := Centroid(got)

	prev := math.Inf(-1)
	for _, p := range got {
		a := math.Atan2(float64(p.Y)-c.Y, float64(p.X)-c.X)
		if a < prev {
			t.Fatalf("angles decrease at %v: %v < %v", p, a, prev)
		}
		prev = a
	}
}

func TestInBounds(t *testing.T) {
	if !InBounds(Point{0, 0}, 10, 5) {
		t.Error("origin should be in bounds")
	}
	if InBounds(Point{10, 0}, 10, 5) {
		t.Error("x == width should be out of bounds")
	}
	if InBounds(Point{0, -1}, 10, 5) {
		t.Error("negative y should be out of bounds")
	}
}

func TestSegmentLength(t *testing.T) {
	s := Segment{P1: Point{0, 0}, P2: Point{3, 4}}
	if s.Length() != 5 {
		t.Errorf("Length: got %v, want 5", s.Length())
	}
}
