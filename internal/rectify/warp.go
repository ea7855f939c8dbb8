package rectify

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

// Warp resamples src into a width x height image through h, where h maps
// source coordinates to output coordinates. Each output pixel is looked up
// through the inverse transform with bilinear interpolation; pixels mapping
// outside src are opaque black.
func Warp(src image.Image, h Homography, width, height int) (*image.NRGBA, error) {
	inv, err := h.Inverse()
	if err != nil {
		return nil, err
	}

	in := imaging.Clone(src)
	out := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			sx, sy, ok := inv.Apply(float64(x), float64(y))
			if !ok {
				out.SetNRGBA(x, y, color.NRGBA{A: 255})
				continue
			}
			out.SetNRGBA(x, y, bilinear(in, sx, sy))
		}
	}
	return out, nil
}

// bilinear samples img at a fractional position. Positions more than half a
// pixel outside the image are black.
func bilinear(img *image.NRGBA, x, y float64) color.NRGBA {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	if x < -0.5 || y < -0.5 || x > float64(w)-0.5 || y > float64(h)-0.5 {
		return color.NRGBA{A: 255}
	}

	x0 := int(math.Floor(x))
	y0 := int(math.Floor(y))
	fx := x - float64(x0)
	fy := y - float64(y0)

	c00 := pixel(img, x0, y0)
	c10 := pixel(img, x0+1, y0)
	c01 := pixel(img, x0, y0+1)
	c11 := pixel(img, x0+1, y0+1)

	var out [4]uint8
	for i := 0; i < 4; i++ {
		top := float64(c00[i])*(1-fx) + float64(c10[i])*fx
		bottom := float64(c01[i])*(1-fx) + float64(c11[i])*fx
		out[i] = uint8(math.Round(top*(1-fy) + bottom*fy))
	}
	return color.NRGBA{R: out[0], G: out[1], B: out[2], A: out[3]}
}

// pixel returns the RGBA bytes at (x, y), clamping to the nearest edge.
func pixel(img *image.NRGBA, x, y int) [4]uint8 {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	x = min(max(x, 0), w-1)
	y = min(max(y, 0), h-1)
	i := y*img.Stride + x*4
	return [4]uint8{img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3]}
}
