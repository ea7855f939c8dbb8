package imaging

import (
	"image"
	"image/color"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/anthonynsimon/bild/blur"
	"github.com/disintegration/imaging"
)

// PrepareFrame scales a raw frame to the working resolution and stretches its
// contrast with a 1% histogram cutoff.
func PrepareFrame(img image.Image, width, height int) *image.NRGBA {
	resized := imaging.Resize(img, width, height, imaging.Linear)
	return AutoContrast(resized, 0.01)
}

// AutoContrast stretches each color channel so that the darkest and lightest
// cutoff fraction of pixels map to 0 and 255.
//
// Parameters:
//   - img: Source image.
//   - cutoff: Fraction (0 to 0.5) of pixels clipped at each end of every
//     channel histogram. 0.01 clips 1%.
//
// A channel whose remaining range collapses to a single value is left as-is.
func AutoContrast(img image.Image, cutoff float64) *image.NRGBA {
	src := imaging.Clone(img)
	if cutoff < 0 {
		cutoff = 0
	}
	if cutoff >= 0.5 {
		cutoff = 0.49
	}

	var hist [3][256]int
	total := 0
	for i := 0; i+3 < len(src.Pix); i += 4 {
		hist[0][src.Pix[i]]++
		hist[1][src.Pix[i+1]]++
		hist[2][src.Pix[i+2]]++
		total++
	}
	if total == 0 {
		return src
	}

	var lut [3][256]uint8
	for ch := 0; ch < 3; ch++ {
		lo, hi := histogramBounds(hist[ch][:], int(float64(total)*cutoff))
		for v := 0; v < 256; v++ {
			switch {
			case hi <= lo:
				lut[ch][v] = uint8(v)
			case v <= lo:
				lut[ch][v] = 0
			case v >= hi:
				lut[ch][v] = 255
			default:
				lut[ch][v] = uint8(float64(v-lo) * 255 / float64(hi-lo))
			}
		}
	}

	return imaging.AdjustFunc(src, func(c color.NRGBA) color.NRGBA {
		return color.NRGBA{R: lut[0][c.R], G: lut[1][c.G], B: lut[2][c.B], A: c.A}
	})
}

// histogramBounds returns the lowest and highest levels left after removing
// clip samples from each end of the histogram.
func histogramBounds(hist []int, clip int) (lo, hi int) {
	lo, hi = 0, len(hist)-1
	for cut := clip; lo < len(hist)-1; lo++ {
		if hist[lo] > cut {
			break
		}
		cut -= hist[lo]
	}
	for cut := clip; hi > 0; hi-- {
		if hist[hi] > cut {
			break
		}
		cut -= hist[hi]
	}
	return lo, hi
}

// Enhance prepares a plate crop for edge and character detection: a light
// Gaussian denoise, a contrast boost and an unsharp pass.
func Enhance(img image.Image) *image.NRGBA {
	denoised := blur.Gaussian(img, 1.0)
	contrasted := adjust.Contrast(denoised, 0.25)
	return imaging.Sharpen(contrasted, 1.0)
}
