package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Highlight is a box to outline on an annotated frame.
type Highlight struct {
	Box   image.Rectangle
	Label string
	Color color.Color
}

const (
	highlightMargin    = 3
	highlightThickness = 3
)

// Annotate returns a copy of frame with every highlight outlined and labeled,
// and the frame rate drawn in the top-left corner when fps is positive.
//
// Boxes are drawn 3 pixels outside the highlight box with a 3 pixel stroke.
// Drawing is clipped to the frame.
func Annotate(frame image.Image, highlights []Highlight, fps float64) *image.RGBA {
	bounds := frame.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(out, out.Bounds(), frame, bounds.Min, draw.Src)

	for _, h := range highlights {
		c := h.Color
		if c == nil {
			c = color.RGBA{255, 0, 0, 255}
		}
		r := h.Box.Inset(-highlightMargin)
		strokeRect(out, r, highlightThickness, c)
		if h.Label != "" {
			drawLabel(out, r.Min.X, r.Min.Y-highlightThickness, h.Label, color.White, labelBackground(c))
		}
	}

	if fps > 0 {
		drawLabel(out, 4, 14, fmt.Sprintf("FPS: %.1f", fps), color.RGBA{0, 255, 0, 255}, color.RGBA{0, 0, 0, 180})
	}
	return out
}

// strokeRect draws the outline of r with the given thickness, growing inward.
func strokeRect(img *image.RGBA, r image.Rectangle, thickness int, c color.Color) {
	src := image.NewUniform(c)
	for i := 0; i < thickness; i++ {
		edge := r.Inset(i)
		if edge.Empty() {
			return
		}
		sides := []image.Rectangle{
			image.Rect(edge.Min.X, edge.Min.Y, edge.Max.X, edge.Min.Y+1),
			image.Rect(edge.Min.X, edge.Max.Y-1, edge.Max.X, edge.Max.Y),
			image.Rect(edge.Min.X, edge.Min.Y, edge.Min.X+1, edge.Max.Y),
			image.Rect(edge.Max.X-1, edge.Min.Y, edge.Max.X, edge.Max.Y),
		}
		for _, s := range sides {
			draw.Draw(img, s.Intersect(img.Bounds()), src, image.Point{}, draw.Over)
		}
	}
}

// drawLabel draws text with its baseline at (x, y) over a filled background.
func drawLabel(img *image.RGBA, x, y int, text string, fg, bg color.Color) {
	face := basicfont.Face7x13
	width := font.MeasureString(face, text).Ceil()
	metrics := face.Metrics()
	box := image.Rect(x-1, y-metrics.Ascent.Ceil()-1, x+width+1, y+metrics.Descent.Ceil()+1)
	draw.Draw(img, box.Intersect(img.Bounds()), image.NewUniform(bg), image.Point{}, draw.Over)

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(fg),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}

// labelBackground darkens the highlight color so white text stays legible.
func labelBackground(c color.Color) color.Color {
	cf, ok := colorful.MakeColor(c)
	if !ok {
		return color.RGBA{0, 0, 0, 200}
	}
	return cf.BlendLab(colorful.Color{}, 0.45).Clamped()
}

// ParseColor parses a hex color like "#1FA34A" or "1FA34A".
func ParseColor(hex string) (color.Color, error) {
	if hex == "" {
		return nil, fmt.Errorf("empty color string")
	}
	if hex[0] != '#' {
		hex = "#" + hex
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return nil, fmt.Errorf("failed to parse color %q: %w", hex, err)
	}
	return c, nil
}

// EncodeJPEG encodes img as a JPEG with the given quality (1-100).
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
