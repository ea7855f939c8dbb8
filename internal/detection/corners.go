package detection

import (
	"fmt"
	"math"
	"strings"

	"github.com/pkg/errors"

	"github.com/ironsheep/plate-gate/internal/geometry"
	"github.com/ironsheep/plate-gate/internal/imaging"
)

// ErrNoCorners is returned when a plate's four corners cannot be located.
// Callers fall back to the unrectified crop.
var ErrNoCorners = errors.New("plate corners not found")

// ExclusionPolicy decides which intersection points count as lying in the
// center of the plate and are therefore discarded as corner candidates.
type ExclusionPolicy int

const (
	// ExcludeBoth discards a point only when it is in the central third
	// horizontally and vertically.
	ExcludeBoth ExclusionPolicy = iota
	// ExcludeEither discards a point when it is in the central third
	// horizontally or vertically.
	ExcludeEither
)

// String returns "both" or "either".
func (p ExclusionPolicy) String() string {
	switch p {
	case ExcludeBoth:
		return "both"
	case ExcludeEither:
		return "either"
	default:
		return fmt.Sprintf("ExclusionPolicy(%d)", int(p))
	}
}

// ParseExclusionPolicy parses "both" or "either" (case-insensitive).
func ParseExclusionPolicy(s string) (ExclusionPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "both", "":
		return ExcludeBoth, nil
	case "either":
		return ExcludeEither, nil
	default:
		return ExcludeBoth, errors.Errorf("unknown exclusion policy %q", s)
	}
}

// excludes reports whether p falls in the central region of a w x h image.
func (p ExclusionPolicy) excludes(pt geometry.Point, w, h int) bool {
	inX := w/3 < pt.X && pt.X < 2*w/3
	inY := h/3 < pt.Y && pt.Y < 2*h/3
	if p == ExcludeEither {
		return inX || inY
	}
	return inX && inY
}

// CornerDetector locates the four corners of a plate in a cropped plate
// image's edge map.
//
// It finds long line segments, intersects every pair that crosses at a
// useful angle, drops intersections in the middle of the plate, and clusters
// the rest into four corners seeded at the crop's own corners.
type CornerDetector struct {
	// Lines supplies candidate segments.
	Lines LineDetector

	// MinLineRatio sets the minimum segment length as a fraction of
	// min(height, width).
	MinLineRatio float64

	// Exclusion selects how central intersection points are discarded.
	Exclusion ExclusionPolicy

	// MaxIterations bounds the clustering loop.
	MaxIterations int
}

// NewCornerDetector returns a detector using HoughSegments, a 0.3 minimum
// line ratio, ExcludeBoth and at most 300 clustering rounds.
func NewCornerDetector() *CornerDetector {
	return &CornerDetector{
		Lines:         NewHoughSegments(),
		MinLineRatio:  0.3,
		Exclusion:     ExcludeBoth,
		MaxIterations: 300,
	}
}

// Detect returns the plate corners ordered clockwise around their centroid.
//
// Parameters:
//   - edges: Edge map of the cropped plate image.
//   - height, width: Dimensions of the cropped plate image.
//
// Returns ErrNoCorners (wrapped with the reason) when fewer than four usable
// intersections exist, when too few survive the central-region exclusion, or
// when a cluster ends up empty. Every returned point lies inside
// [0,width) x [0,height).
func (d *CornerDetector) Detect(edges *imaging.EdgeMap, height, width int) (geometry.Quad, error) {
	if width <= 0 || height <= 0 {
		return geometry.Quad{}, errors.Wrapf(ErrNoCorners, "empty image %dx%d", width, height)
	}

	minLength := d.MinLineRatio * float64(min(height, width))
	segments := d.Lines.Segments(edges, minLength)

	points := intersections(segments, width, height)
	if len(points) < 4 {
		return geometry.Quad{}, errors.Wrapf(ErrNoCorners, "%d intersections", len(points))
	}

	kept := points[:0]
	for _, p := range points {
		if !d.Exclusion.excludes(p, width, height) {
			kept = append(kept, p)
		}
	}
	if len(kept) < 4 {
		return geometry.Quad{}, errors.Wrapf(ErrNoCorners, "%d intersections outside the central region", len(kept))
	}

	samples := make([][2]float64, len(kept))
	for i, p := range kept {
		samples[i] = [2]float64{float64(p.X), float64(p.Y)}
	}
	seeds := [][2]float64{
		{0, 0},
		{float64(width), 0},
		{0, float64(height)},
		{float64(width), float64(height)},
	}

	maxIter := d.MaxIterations
	if maxIter <= 0 {
		maxIter = 300
	}
	centers, sizes := seededKMeans(samples, seeds, maxIter)

	corners := make([]geometry.Point, 0, 4)
	for i, c := range centers {
		if sizes[i] == 0 {
			return geometry.Quad{}, errors.Wrapf(ErrNoCorners, "corner cluster %d is empty", i)
		}
		corners = append(corners, geometry.Point{
			X: int(math.Round(c[0])),
			Y: int(math.Round(c[1])),
		})
	}

	var quad geometry.Quad
	copy(quad[:], geometry.OrderClockwise(corners))
	return quad, nil
}

// intersections returns the in-bounds crossing points of every segment pair
// that crosses at a useful angle. Coordinates are truncated to whole pixels.
func intersections(segments []geometry.Segment, width, height int) []geometry.Point {
	points := make([]geometry.Point, 0)
	for i := 0; i < len(segments); i++ {
		a := segments[i]
		if a.Length() == 0 {
			continue
		}
		for j := i + 1; j < len(segments); j++ {
			b := segments[j]
			if b.Length() == 0 {
				continue
			}
			if !geometry.SegmentsLikelyIntersect(a.P1, a.P2, b.P1, b.P2) {
				continue
			}
			ip, ok := geometry.SegmentIntersection(a.P1, a.P2, b.P1, b.P2)
			if !ok {
				continue
			}
			if ip.X < 0 || ip.Y < 0 || ip.X >= float64(width) || ip.Y >= float64(height) {
				continue
			}
			points = append(points, geometry.Point{X: int(ip.X), Y: int(ip.Y)})
		}
	}
	return points
}
