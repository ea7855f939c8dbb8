package detection

import (
	"math"
	"sort"

	"github.com/ironsheep/plate-gate/internal/geometry"
	"github.com/ironsheep/plate-gate/internal/imaging"
)

// LineDetector extracts straight line segments from an edge map.
type LineDetector interface {
	// Segments returns segments at least minLength pixels long.
	Segments(edges *imaging.EdgeMap, minLength float64) []geometry.Segment
}

// HoughSegments is a probabilistic-style Hough line detector: it votes in
// (rho, theta) space, takes accumulator peaks, and splits the edge pixels of
// each peak line into segments wherever consecutive pixels are more than
// MaxGap apart.
type HoughSegments struct {
	// Threshold is the minimum number of accumulator votes for a line. It is
	// lowered to the minimum segment length when that is smaller, so short
	// plate crops can still yield their sides.
	Threshold int

	// MaxGap is the largest gap in pixels bridged within one segment.
	MaxGap int

	// MaxLines caps the number of segments returned.
	MaxLines int
}

// NewHoughSegments returns a detector with threshold 50, max gap 15 and at
// most 50 segments.
func NewHoughSegments() *HoughSegments {
	return &HoughSegments{Threshold: 50, MaxGap: 15, MaxLines: 50}
}

type houghPeak struct {
	rho   int
	theta int
	votes int
}

// Segments implements LineDetector.
func (h *HoughSegments) Segments(edges *imaging.EdgeMap, minLength float64) []geometry.Segment {
	width, height := edges.Width, edges.Height
	if width == 0 || height == 0 {
		return nil
	}

	points := make([]geometry.Point, 0, edges.Count())
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if edges.At(x, y) {
				points = append(points, geometry.Point{X: x, Y: y})
			}
		}
	}
	if len(points) == 0 {
		return nil
	}

	maxDist := int(math.Sqrt(float64(width*width+height*height))) + 1
	const numAngles = 180
	cosT := make([]float64, numAngles)
	sinT := make([]float64, numAngles)
	for theta := 0; theta < numAngles; theta++ {
		angle := float64(theta) * math.Pi / 180.0
		cosT[theta] = math.Cos(angle)
		sinT[theta] = math.Sin(angle)
	}

	accumulator := make([][]int, maxDist*2)
	for i := range accumulator {
		accumulator[i] = make([]int, numAngles)
	}
	for _, p := range points {
		for theta := 0; theta < numAngles; theta++ {
			rho := float64(p.X)*cosT[theta] + float64(p.Y)*sinT[theta]
			rhoIdx := int(rho) + maxDist
			if rhoIdx >= 0 && rhoIdx < maxDist*2 {
				accumulator[rhoIdx][theta]++
			}
		}
	}

	threshold := h.Threshold
	if m := int(minLength); m > 0 && m < threshold {
		threshold = m
	}
	if threshold < 1 {
		threshold = 1
	}

	peaks := make([]houghPeak, 0)
	for rhoIdx := 0; rhoIdx < maxDist*2; rhoIdx++ {
		for theta := 0; theta < numAngles; theta++ {
			votes := accumulator[rhoIdx][theta]
			if votes < threshold {
				continue
			}
			isMax := true
			for dr := -2; dr <= 2 && isMax; dr++ {
				for dt := -2; dt <= 2 && isMax; dt++ {
					if dr == 0 && dt == 0 {
						continue
					}
					nr := rhoIdx + dr
					nt := (theta + dt + numAngles) % numAngles
					if nr >= 0 && nr < maxDist*2 && accumulator[nr][nt] > votes {
						isMax = false
					}
				}
			}
			if isMax {
				peaks = append(peaks, houghPeak{rho: rhoIdx - maxDist, theta: theta, votes: votes})
			}
		}
	}

	sort.SliceStable(peaks, func(i, j int) bool {
		return peaks[i].votes > peaks[j].votes
	})

	segments := make([]geometry.Segment, 0)
	for _, peak := range peaks {
		if h.MaxLines > 0 && len(segments) >= h.MaxLines {
			break
		}
		for _, s := range h.trace(points, peak, cosT[peak.theta], sinT[peak.theta], minLength) {
			segments = append(segments, s)
			if h.MaxLines > 0 && len(segments) >= h.MaxLines {
				break
			}
		}
	}
	return segments
}

// trace collects the edge pixels lying on a peak's line, orders them along
// the line and splits them into gap-bounded runs.
func (h *HoughSegments) trace(points []geometry.Point, peak houghPeak, cosA, sinA, minLength float64) []geometry.Segment {
	type onLine struct {
		p geometry.Point
		t float64
	}

	rho := float64(peak.rho)
	line := make([]onLine, 0)
	for _, p := range points {
		dist := math.Abs(float64(p.X)*cosA + float64(p.Y)*sinA - rho)
		if dist < 2.0 {
			// Position along the line direction (-sin, cos).
			t := -float64(p.X)*sinA + float64(p.Y)*cosA
			line = append(line, onLine{p: p, t: t})
		}
	}
	if len(line) < 2 {
		return nil
	}
	sort.SliceStable(line, func(i, j int) bool { return line[i].t < line[j].t })

	var out []geometry.Segment
	start := 0
	flush := func(end int) {
		s := geometry.Segment{P1: line[start].p, P2: line[end].p}
		if s.Length() >= minLength && s.Length() > 0 {
			out = append(out, s)
		}
	}
	for i := 1; i < len(line); i++ {
		if line[i].t-line[i-1].t > float64(h.MaxGap) {
			flush(i - 1)
			start = i
		}
	}
	flush(len(line) - 1)
	return out
}
