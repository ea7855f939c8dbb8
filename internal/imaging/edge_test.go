package imaging

import (
	"image"
	"image/color"
	"testing"
)

func TestCanny(t *testing.T) {
	img := createEdgeTestImage(100, 100)

	edges := Canny(img, 50, 150)
	if edges.Width != 100 || edges.Height != 100 {
		t.Errorf("dimensions: got %dx%d, want 100x100", edges.Width, edges.Height)
	}
	if edges.Count() == 0 {
		t.Fatal("expected edges around the rectangle, found none")
	}

	// Far from the rectangle border there should be nothing.
	if edges.At(5, 5) {
		t.Error("unexpected edge in uniform background at (5,5)")
	}
	if edges.At(50, 50) {
		t.Error("unexpected edge inside the uniform rectangle at (50,50)")
	}
}

func TestCanny_DifferentThresholds(t *testing.T) {
	img := createEdgeTestImage(50, 50)

	tests := []struct {
		name      string
		low, high int
	}{
		{"low thresholds", 10, 50},
		{"medium thresholds", 50, 150},
		{"high thresholds", 100, 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			edges := Canny(img, tt.low, tt.high)
			if edges.Count() == 0 {
				t.Error("no edges detected")
			}
		})
	}
}

func TestCanny_UniformImage(t *testing.T) {
	img := createInMemoryImage(50, 50, color.RGBA{128, 128, 128, 255})

	edges := Canny(img, 50, 150)
	if edges.At(25, 25) {
		t.Error("uniform image should have no edge at center")
	}
}

func TestCanny_StrongEdge(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 100, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			if x < 50 {
				img.Set(x, y, color.Black)
			} else {
				img.Set(x, y, color.White)
			}
		}
	}

	edges := Canny(img, 50, 150)

	edgeFound := false
	for x := 47; x <= 52; x++ {
		if edges.At(x, 50) {
			edgeFound = true
			break
		}
	}
	if !edgeFound {
		t.Error("strong vertical edge was not detected")
	}
}

func TestCanny_OffsetBounds(t *testing.T) {
	full := createEdgeTestImage(100, 100).(*image.RGBA)
	sub := full.SubImage(image.Rect(20, 20, 80, 80))

	edges := Canny(sub, 50, 150)
	if edges.Width != 60 || edges.Height != 60 {
		t.Fatalf("dimensions: got %dx%d, want 60x60", edges.Width, edges.Height)
	}
	if edges.Count() == 0 {
		t.Error("expected edges in offset sub-image")
	}
}

func TestCanny_ColorInput(t *testing.T) {
	// Red on blue differs only in hue and luminance, so edges must come
	// from the grayscale conversion.
	img := image.NewNRGBA(image.Rect(0, 0, 60, 40))
	for y := 0; y < 40; y++ {
		for x := 0; x < 60; x++ {
			c := color.NRGBA{0, 0, 255, 255}
			if x >= 20 && x < 40 && y >= 10 && y < 30 {
				c = color.NRGBA{255, 0, 0, 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}

	edges := Canny(img, 10, 30)
	if edges.Count() == 0 {
		t.Fatal("expected edges around the red rectangle")
	}
	if edges.At(3, 3) {
		t.Error("unexpected edge in uniform background at (3,3)")
	}
	if edges.At(30, 20) {
		t.Error("unexpected edge inside the rectangle at (30,20)")
	}
}

func TestCanny_SmallImage(t *testing.T) {
	img := createInMemoryImage(5, 5, color.RGBA{128, 128, 128, 255})

	edges := Canny(img, 50, 150)
	if edges.Width != 5 || edges.Height != 5 {
		t.Errorf("dimensions: got %dx%d, want 5x5", edges.Width, edges.Height)
	}
}

func TestEdgeMap_SetAt(t *testing.T) {
	m := NewEdgeMap(4, 3)
	m.Set(1, 2, true)
	m.Set(10, 10, true) // ignored

	if !m.At(1, 2) {
		t.Error("At(1,2) should be set")
	}
	if m.At(-1, 0) || m.At(4, 0) {
		t.Error("out of range should never be an edge")
	}
	if m.Count() != 1 {
		t.Errorf("Count: got %d, want 1", m.Count())
	}

	g := m.Gray()
	if g.GrayAt(1, 2).Y != 255 || g.GrayAt(0, 0).Y != 0 {
		t.Error("Gray rendering mismatch")
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		val, min, max, want int
	}{
		{5, 0, 10, 5},   // within range
		{-1, 0, 10, 0},  // below min
		{15, 0, 10, 10}, // above max
		{0, 0, 10, 0},   // at min
		{10, 0, 10, 10}, // at max
	}

	for _, tt := range tests {
		got := clamp(tt.val, tt.min, tt.max)
		if got != tt.want {
			t.Errorf("clamp(%d, %d, %d): got %d, want %d",
				tt.val, tt.min, tt.max, got, tt.want)
		}
	}
}
