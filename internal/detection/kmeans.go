package detection

import (
	"github.com/muesli/clusters"
)

// seededKMeans runs Lloyd's k-means over points starting from the given
// centers, and returns the final centers and the size of each cluster.
//
// Unlike randomly initialized k-means the result depends only on the inputs,
// so the same points always produce the same centers. Iteration stops when no
// point changes cluster or after maxIter rounds. A cluster that loses all of
// its points keeps its previous center and reports size 0.
func seededKMeans(points [][2]float64, seeds [][2]float64, maxIter int) ([][2]float64, []int) {
	cc := make(clusters.Clusters, len(seeds))
	for i, s := range seeds {
		cc[i] = clusters.Cluster{Center: clusters.Coordinates{s[0], s[1]}}
	}

	dataset := make(clusters.Observations, len(points))
	for i, p := range points {
		dataset[i] = clusters.Coordinates{p[0], p[1]}
	}

	assigned := make([]int, len(dataset))
	for i := range assigned {
		assigned[i] = -1
	}

	for iter := 0; iter < maxIter; iter++ {
		changes := 0
		cc.Reset()
		for i, point := range dataset {
			ci := cc.Nearest(point)
			cc[ci].Append(point)
			if assigned[i] != ci {
				assigned[i] = ci
				changes++
			}
		}
		if changes == 0 {
			break
		}
		cc.Recenter()
	}

	centers := make([][2]float64, len(cc))
	sizes := make([]int, len(cc))
	for i, c := range cc {
		centers[i] = [2]float64{c.Center[0], c.Center[1]}
		sizes[i] = len(c.Observations)
	}
	return centers, sizes
}
