package detection

import (
	"image"
	"image/color"

	"github.com/ironsheep/plate-gate/internal/geometry"
	"github.com/ironsheep/plate-gate/internal/imaging"
)

// createTestImage creates a solid-color test image.
func createTestImage(width, height int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// drawEdgeLine marks a straight horizontal or vertical run on an edge map.
func drawEdgeLine(m *imaging.EdgeMap, x1, y1, x2, y2 int) {
	if y1 == y2 {
		for x := x1; x <= x2; x++ {
			m.Set(x, y1, true)
		}
		return
	}
	for y := y1; y <= y2; y++ {
		m.Set(x1, y, true)
	}
}

// hashEdgeMap draws a "#" shape: two full-width horizontals and two
// full-height verticals crossing near the corners of a w x h map.
func hashEdgeMap(w, h, left, right, top, bottom int) *imaging.EdgeMap {
	m := imaging.NewEdgeMap(w, h)
	drawEdgeLine(m, 0, top, w-1, top)
	drawEdgeLine(m, 0, bottom, w-1, bottom)
	drawEdgeLine(m, left, 0, left, h-1)
	drawEdgeLine(m, right, 0, right, h-1)
	return m
}

// fixedLines is a LineDetector returning a canned set of segments.
type fixedLines []geometry.Segment

func (f fixedLines) Segments(_ *imaging.EdgeMap, _ float64) []geometry.Segment {
	return f
}

func seg(x1, y1, x2, y2 int) geometry.Segment {
	return geometry.Segment{P1: geometry.Point{X: x1, Y: y1}, P2: geometry.Point{X: x2, Y: y2}}
}
