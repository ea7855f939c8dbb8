package detection

import (
	"context"
	"image"
	"math"
	"sort"

	"github.com/ironsheep/plate-gate/internal/imaging"
)

// Region is a candidate plate location in frame coordinates.
type Region struct {
	Box        image.Rectangle `json:"box"`
	Confidence float64         `json:"confidence"`
}

// EdgeDensityPlateDetector is a model-free plate-region detector. It slides
// plate-shaped windows over the frame's edge map and scores windows whose
// edge density and stroke pattern look like a row of characters.
//
// It stands in for a trained detector when none is configured; confidence
// values are heuristic scores in [0, 1].
type EdgeDensityPlateDetector struct {
	// Windows are the plate-shaped window sizes to scan, in pixels.
	Windows []image.Point

	// MinConfidence drops windows scoring below it before merging.
	MinConfidence float64

	// LowThreshold and HighThreshold are the Canny hysteresis thresholds.
	LowThreshold, HighThreshold int
}

// NewEdgeDensityPlateDetector returns a detector tuned for 960x540 frames.
func NewEdgeDensityPlateDetector() *EdgeDensityPlateDetector {
	return &EdgeDensityPlateDetector{
		Windows: []image.Point{
			{X: 90, Y: 30},
			{X: 120, Y: 40},
			{X: 160, Y: 52},
			{X: 200, Y: 64},
		},
		MinConfidence: 0.5,
		LowThreshold:  50,
		HighThreshold: 150,
	}
}

// DetectPlates returns candidate plate regions sorted by confidence, highest
// first. Overlapping windows are merged into their union.
func (d *EdgeDensityPlateDetector) DetectPlates(ctx context.Context, img image.Image) ([]Region, error) {
	bounds := img.Bounds()
	edges := imaging.Canny(img, d.LowThreshold, d.HighThreshold)

	candidates := make([]Region, 0)
	for _, ws := range d.Windows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		stepX := max(ws.X/2, 1)
		stepY := max(ws.Y/2, 1)

		for y := 0; y+ws.Y <= edges.Height; y += stepY {
			for x := 0; x+ws.X <= edges.Width; x += stepX {
				edgeCount := 0
				for wy := 0; wy < ws.Y; wy++ {
					for wx := 0; wx < ws.X; wx++ {
						if edges.At(x+wx, y+wy) {
							edgeCount++
						}
					}
				}

				density := float64(edgeCount) / float64(ws.X*ws.Y)
				// Characters give a medium density: sparse windows are
				// background, saturated ones are texture or noise.
				if density < 0.05 || density > 0.4 {
					continue
				}

				confidence := strokeScore(edges, x, y, ws.X, ws.Y) * (1.0 - math.Abs(density-0.2)/0.2)
				if confidence < d.MinConfidence {
					continue
				}
				candidates = append(candidates, Region{
					Box:        image.Rect(x, y, x+ws.X, y+ws.Y).Add(bounds.Min),
					Confidence: math.Round(confidence*1000) / 1000,
				})
			}
		}
	}

	merged := mergeOverlappingRegions(candidates)
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Confidence > merged[j].Confidence
	})
	return merged, nil
}

// strokeScore measures how much of the window's edge structure is made of
// vertical strokes, which dominate a row of plate characters. It is the
// fraction of horizontal edge runs among all runs, since every vertical
// stroke is crossed by each scan row.
func strokeScore(edges *imaging.EdgeMap, x, y, w, h int) float64 {
	horizontalRuns := 0
	verticalRuns := 0

	for row := y; row < y+h; row++ {
		inRun := false
		for col := x; col < x+w; col++ {
			if edges.At(col, row) {
				if !inRun {
					horizontalRuns++
					inRun = true
				}
			} else {
				inRun = false
			}
		}
	}

	for col := x; col < x+w; col++ {
		inRun := false
		for row := y; row < y+h; row++ {
			if edges.At(col, row) {
				if !inRun {
					verticalRuns++
					inRun = true
				}
			} else {
				inRun = false
			}
		}
	}

	if horizontalRuns+verticalRuns == 0 {
		return 0
	}
	return float64(horizontalRuns) / float64(horizontalRuns+verticalRuns)
}

// mergeOverlappingRegions combines overlapping regions into their union,
// keeping the higher confidence.
func mergeOverlappingRegions(regions []Region) []Region {
	merged := make([]Region, 0, len(regions))
	for _, r := range regions {
		found := false
		for i := range merged {
			if r.Box.Overlaps(merged[i].Box) {
				merged[i].Box = merged[i].Box.Union(r.Box)
				merged[i].Confidence = math.Max(r.Confidence, merged[i].Confidence)
				found = true
				break
			}
		}
		if !found {
			merged = append(merged, r)
		}
	}
	return merged
}
