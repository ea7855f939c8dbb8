package imaging

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// PlateMarginFactor widens a plate box by this fraction of its width on each
// side, and by twice this fraction of its height.
const PlateMarginFactor = 0.25

// CropPlate extracts a detected plate box from a frame with a context margin.
//
// The box is widened by factor x width horizontally and 2 x factor x height
// vertically, on both sides. Each axis is widened only if the widened extent
// still fits inside the frame; otherwise that axis uses the box as detected.
//
// Parameters:
//   - img: The frame the box was detected in.
//   - box: Plate box in frame coordinates.
//   - factor: Margin factor, normally PlateMarginFactor.
//
// Returns:
//   - *image.NRGBA: The cropped region, anchored at (0,0).
//   - image.Rectangle: The region actually cropped, in frame coordinates.
//   - error: Non-nil if the box is empty or extends outside the frame.
func CropPlate(img image.Image, box image.Rectangle, factor float64) (*image.NRGBA, image.Rectangle, error) {
	bounds := img.Bounds()
	if box.Empty() {
		return nil, image.Rectangle{}, fmt.Errorf("invalid crop region %v: empty", box)
	}
	if !box.In(bounds) {
		return nil, image.Rectangle{}, fmt.Errorf("crop region %v outside image bounds %v", box, bounds)
	}

	mw := int(float64(box.Dx()) * factor)
	mh := int(float64(box.Dy()) * factor * 2)
	if box.Min.X-mw < bounds.Min.X || box.Max.X+mw > bounds.Max.X {
		mw = 0
	}
	if box.Min.Y-mh < bounds.Min.Y || box.Max.Y+mh > bounds.Max.Y {
		mh = 0
	}

	region := image.Rect(box.Min.X-mw, box.Min.Y-mh, box.Max.X+mw, box.Max.Y+mh)
	return imaging.Crop(img, region), region, nil
}

// Resize scales an image to exactly width x height using Lanczos resampling.
func Resize(img image.Image, width, height int) *image.NRGBA {
	return imaging.Resize(img, width, height, imaging.Lanczos)
}
