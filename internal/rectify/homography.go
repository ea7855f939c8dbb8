package rectify

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/ironsheep/plate-gate/internal/geometry"
)

// ErrSingularHomography is returned when no usable projective transform
// exists for a set of correspondences, e.g. when corners are collinear or
// coincide.
var ErrSingularHomography = errors.New("singular homography")

// Homography is a 3x3 projective transform in row-major order, normalized
// so that the last element is 1.
type Homography [9]float64

// Identity is the transform that maps every point to itself.
var Identity = Homography{1, 0, 0, 0, 1, 0, 0, 0, 1}

// Apply maps (x, y) through the transform. It returns false when the point
// maps to infinity.
func (h Homography) Apply(x, y float64) (float64, float64, bool) {
	w := h[6]*x + h[7]*y + h[8]
	if math.Abs(w) < 1e-12 {
		return 0, 0, false
	}
	return (h[0]*x + h[1]*y + h[2]) / w, (h[3]*x + h[4]*y + h[5]) / w, true
}

// Inverse returns the inverse transform.
func (h Homography) Inverse() (Homography, error) {
	m := mat.NewDense(3, 3, h[:])
	var inv mat.Dense
	if err := inv.Inverse(m); err != nil {
		return Homography{}, errors.Wrap(ErrSingularHomography, err.Error())
	}
	var out Homography
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			out[r*3+c] = inv.At(r, c)
		}
	}
	return out.normalized()
}

func (h Homography) normalized() (Homography, error) {
	if math.Abs(h[8]) < 1e-12 {
		return Homography{}, errors.Wrap(ErrSingularHomography, "h33 is zero")
	}
	s := 1 / h[8]
	for i := range h {
		h[i] *= s
		if math.IsNaN(h[i]) || math.IsInf(h[i], 0) {
			return Homography{}, errors.Wrap(ErrSingularHomography, "non-finite coefficient")
		}
	}
	return h, nil
}

// ComputeHomography solves for the transform mapping each src[i] onto dst[i].
//
// With h33 fixed to 1, each correspondence (x,y) -> (u,v) contributes two
// linear equations:
//
//	x*h11 + y*h12 + h13 - u*x*h31 - u*y*h32 = u
//	x*h21 + y*h22 + h23 - v*x*h31 - v*y*h32 = v
//
// Four correspondences give an 8x8 system solved directly. A singular or
// ill-conditioned system yields ErrSingularHomography.
func ComputeHomography(src, dst geometry.Quad) (Homography, error) {
	a := mat.NewDense(8, 8, nil)
	b := mat.NewVecDense(8, nil)
	for i := 0; i < 4; i++ {
		x, y := float64(src[i].X), float64(src[i].Y)
		u, v := float64(dst[i].X), float64(dst[i].Y)

		a.SetRow(2*i, []float64{x, y, 1, 0, 0, 0, -u * x, -u * y})
		b.SetVec(2*i, u)
		a.SetRow(2*i+1, []float64{0, 0, 0, x, y, 1, -v * x, -v * y})
		b.SetVec(2*i+1, v)
	}

	var sol mat.VecDense
	if err := sol.SolveVec(a, b); err != nil {
		return Homography{}, errors.Wrap(ErrSingularHomography, err.Error())
	}

	var h Homography
	for i := 0; i < 8; i++ {
		h[i] = sol.AtVec(i)
	}
	h[8] = 1

	det := h[0]*(h[4]*h[8]-h[5]*h[7]) - h[1]*(h[3]*h[8]-h[5]*h[6]) + h[2]*(h[3]*h[7]-h[4]*h[6])
	if math.Abs(det) < 1e-12 {
		return Homography{}, errors.Wrap(ErrSingularHomography, "zero determinant")
	}
	return h.normalized()
}
