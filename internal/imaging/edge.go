package imaging

import (
	"image"
	"image/color"
	"math"

	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/effect"
	"github.com/disintegration/imaging"
)

// EdgeMap is a binary raster marking edge pixels. It has the same dimensions
// as the image it was computed from and uses 0-based coordinates regardless
// of the source image's bounds origin.
type EdgeMap struct {
	Width  int
	Height int
	pix    []bool
}

// NewEdgeMap returns an empty edge map of the given size.
func NewEdgeMap(width, height int) *EdgeMap {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &EdgeMap{Width: width, Height: height, pix: make([]bool, width*height)}
}

// At reports whether (x, y) is an edge pixel. Out-of-range coordinates are
// never edges.
func (m *EdgeMap) At(x, y int) bool {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return false
	}
	return m.pix[y*m.Width+x]
}

// Set marks or clears (x, y). Out-of-range coordinates are ignored.
func (m *EdgeMap) Set(x, y int, v bool) {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return
	}
	m.pix[y*m.Width+x] = v
}

// Count returns the number of edge pixels.
func (m *EdgeMap) Count() int {
	n := 0
	for _, v := range m.pix {
		if v {
			n++
		}
	}
	return n
}

// Gray renders the map as a grayscale image with edges in white (255).
func (m *EdgeMap) Gray() *image.Gray {
	out := image.NewGray(image.Rect(0, 0, m.Width, m.Height))
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			if m.At(x, y) {
				out.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return out
}

// Canny performs Canny-style edge detection and returns the binary edge map.
//
// Parameters:
//   - img: Source image (color or grayscale).
//   - thresholdLow: Low hysteresis threshold (0-255). Gradients below it are
//     discarded. Typical value: 50.
//   - thresholdHigh: High hysteresis threshold (0-255). Gradients above it are
//     always edges. Typical value: 150.
//
// # Algorithm
//
//  1. Grayscale conversion and a Gaussian pre-blur to suppress sensor noise
//  2. Sobel gradients: magnitude = sqrt(Gx² + Gy²), direction = atan2(Gy, Gx)
//  3. Non-maximum suppression along the gradient direction to thin edges
//  4. Hysteresis: weak pixels survive only next to a strong pixel
func Canny(img image.Image, thresholdLow, thresholdHigh int) *EdgeMap {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	edges := NewEdgeMap(width, height)
	if width == 0 || height == 0 {
		return edges
	}

	if bounds.Min != (image.Point{}) {
		img = imaging.Clone(img)
	}
	// Grayscale returns RGBA with equal channels.
	gray := effect.Grayscale(blur.Gaussian(img, 1.4))
	origin := gray.Bounds().Min
	lum := make([][]float64, height)
	for y := 0; y < height; y++ {
		lum[y] = make([]float64, width)
		for x := 0; x < width; x++ {
			lum[y][x] = float64(gray.RGBAAt(origin.X+x, origin.Y+y).R) / 255.0
		}
	}

	magnitude, direction := sobel(lum, width, height)
	suppressed := nonMaxSuppress(magnitude, direction, width, height)

	lowThresh := float64(thresholdLow) / 255.0
	highThresh := float64(thresholdHigh) / 255.0

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			val := suppressed[y][x]
			if val >= highThresh {
				edges.Set(x, y, true)
				continue
			}
			if val < lowThresh {
				continue
			}
			strong := false
			for ky := -1; ky <= 1 && !strong; ky++ {
				for kx := -1; kx <= 1 && !strong; kx++ {
					py := clamp(y+ky, 0, height-1)
					px := clamp(x+kx, 0, width-1)
					strong = suppressed[py][px] >= highThresh
				}
			}
			if strong {
				edges.Set(x, y, true)
			}
		}
	}
	return edges
}

var (
	sobelX = [3][3]float64{{-1, 0, 1}, {-2, 0, 2}, {-1, 0, 1}}
	sobelY = [3][3]float64{{-1, -2, -1}, {0, 0, 0}, {1, 2, 1}}
)

// sobel returns per-pixel gradient magnitude and direction. Borders use
// replicated edge values.
func sobel(lum [][]float64, width, height int) (magnitude, direction [][]float64) {
	magnitude = make([][]float64, height)
	direction = make([][]float64, height)
	for y := 0; y < height; y++ {
		magnitude[y] = make([]float64, width)
		direction[y] = make([]float64, width)
		for x := 0; x < width; x++ {
			var gx, gy float64
			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					v := lum[clamp(y+ky, 0, height-1)][clamp(x+kx, 0, width-1)]
					gx += v * sobelX[ky+1][kx+1]
					gy += v * sobelY[ky+1][kx+1]
				}
			}
			magnitude[y][x] = math.Sqrt(gx*gx + gy*gy)
			direction[y][x] = math.Atan2(gy, gx)
		}
	}
	return magnitude, direction
}

// nonMaxSuppress keeps only pixels that are local maxima along their gradient
// direction, quantized to four orientations. The one-pixel border is dropped.
func nonMaxSuppress(magnitude, direction [][]float64, width, height int) [][]float64 {
	out := make([][]float64, height)
	for y := 0; y < height; y++ {
		out[y] = make([]float64, width)
		if y == 0 || y == height-1 {
			continue
		}
		for x := 1; x < width-1; x++ {
			angle := direction[y][x]
			mag := magnitude[y][x]

			var n1, n2 float64
			switch {
			case (angle >= -math.Pi/8 && angle < math.Pi/8) || angle >= 7*math.Pi/8 || angle < -7*math.Pi/8:
				n1, n2 = magnitude[y][x-1], magnitude[y][x+1]
			case (angle >= math.Pi/8 && angle < 3*math.Pi/8) || (angle >= -7*math.Pi/8 && angle < -5*math.Pi/8):
				n1, n2 = magnitude[y-1][x+1], magnitude[y+1][x-1]
			case (angle >= 3*math.Pi/8 && angle < 5*math.Pi/8) || (angle >= -5*math.Pi/8 && angle < -3*math.Pi/8):
				n1, n2 = magnitude[y-1][x], magnitude[y+1][x]
			default:
				n1, n2 = magnitude[y-1][x-1], magnitude[y+1][x+1]
			}

			if mag >= n1 && mag >= n2 {
				out[y][x] = mag
			}
		}
	}
	return out
}

// clamp constrains an integer value to the range [min, max].
func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
