package rectify

import (
	"image"

	"github.com/ironsheep/plate-gate/internal/geometry"
)

// Rectify warps a cropped plate image so that its corners land on the
// image's own rectangle, giving a front-on view of the same size.
//
// When corners is nil the input is returned unchanged. When the corners do
// not define a usable transform the input is returned together with an error
// wrapping ErrSingularHomography; the image is always safe to use.
func Rectify(img image.Image, corners *geometry.Quad) (image.Image, error) {
	if corners == nil {
		return img, nil
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w < 2 || h < 2 {
		return img, nil
	}

	var src, dst geometry.Quad
	copy(src[:], geometry.OrderClockwise(corners.Points()))
	copy(dst[:], geometry.OrderClockwise([]geometry.Point{
		{X: w - 1, Y: 0},
		{X: 0, Y: 0},
		{X: 0, Y: h - 1},
		{X: w - 1, Y: h - 1},
	}))

	hom, err := ComputeHomography(src, dst)
	if err != nil {
		return img, err
	}
	warped, err := Warp(img, hom, w, h)
	if err != nil {
		return img, err
	}
	return warped, nil
}
