package dedup

import (
	"math"
	"testing"
	"time"
)

func TestSimilarity(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"ABC123", "ABC123", 1},
		{"", "", 1},
		{"ABC123", "", 0},
		{"ABC123", "XYZ999", 0},
		{"ABC123", "ABC124", 10.0 / 12.0},
		{"ABC123", "ABD123", 10.0 / 12.0},
		{"AB", "ABCD", 4.0 / 6.0},
	}
	for _, tt := range tests {
		got := Similarity(tt.a, tt.b)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Similarity(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
		if back := Similarity(tt.b, tt.a); math.Abs(back-got) > 1e-9 {
			t.Errorf("Similarity not symmetric for %q, %q: %v vs %v", tt.a, tt.b, got, back)
		}
	}
}

func TestPercentRoundsUp(t *testing.T) {
	if got := Percent("ABC123", "ABC124"); got != 84 {
		t.Errorf("Percent = %d, want 84", got)
	}
	if got := Percent("ABC123", "ABC123"); got != 100 {
		t.Errorf("Percent = %d, want 100", got)
	}
	if got := Percent("", "ABC123"); got != 0 {
		t.Errorf("Percent = %d, want 0", got)
	}
}

func TestImageName(t *testing.T) {
	ts := time.Date(2024, 3, 1, 8, 30, 5, 0, time.UTC)
	if got := ImageName("ABC123", ts); got != "ABC123_20240301T083005.jpg" {
		t.Errorf("ImageName = %q", got)
	}
}
