// Package density implements weighted DBSCAN over a precomputed distance matrix.
package density

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Noise is the label assigned to points that belong to no cluster.
const Noise = -1

// ErrInvalidParams is returned when eps, minSamples or the weights are unusable.
var ErrInvalidParams = errors.New("dbscan: invalid parameters")

// Params configures a DBSCAN run.
type Params struct {
	// Eps is the neighbourhood radius, in the units of the distance matrix.
	Eps float64
	// MinSamples is the weight a neighbourhood (the point included) must reach
	// for its center to be a core point.
	MinSamples float64
}

// Validate rejects non-positive or NaN parameters.
func (p Params) Validate() error {
	if math.IsNaN(p.Eps) || p.Eps <= 0 {
		return fmt.Errorf("%w: eps must be positive, got %g", ErrInvalidParams, p.Eps)
	}
	if math.IsNaN(p.MinSamples) || p.MinSamples <= 0 {
		return fmt.Errorf("%w: min_samples must be positive, got %g", ErrInvalidParams, p.MinSamples)
	}
	return nil
}

// DBSCAN labels every row of dist. Point j is a neighbour of i when
// dist(i, j) <= eps; i is a core point when the weights of its neighbours sum
// to at least MinSamples. Clusters are numbered from 0 in the order their first
// core point appears, and a border point joins the first cluster that reaches it.
// A nil weights slice counts every point as 1.
func DBSCAN(dist mat.Symmetric, weights []float64, p Params) ([]int, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if dist == nil {
		return []int{}, nil
	}

	n := dist.SymmetricDim()
	if weights != nil && len(weights) != n {
		return nil, fmt.Errorf("%w: %d weights for %d points", ErrInvalidParams, len(weights), n)
	}
	for i, w := range weights {
		if math.IsNaN(w) || w < 0 {
			return nil, fmt.Errorf("%w: weight %d is %g", ErrInvalidParams, i, w)
		}
	}

	neighbors := make([][]int, n)
	core := make([]bool, n)
	for i := 0; i < n; i++ {
		var sum float64
		for j := 0; j < n; j++ {
			if dist.At(i, j) <= p.Eps {
				neighbors[i] = append(neighbors[i], j)
				sum += weight(weights, j)
			}
		}
		core[i] = sum >= p.MinSamples
	}

	labels := make([]int, n)
	for i := range labels {
		labels[i] = Noise
	}

	clusterID := 0
	for i := 0; i < n; i++ {
		if labels[i] != Noise || !core[i] {
			continue
		}
		expandCluster(labels, neighbors, core, i, clusterID)
		clusterID++
	}

	return labels, nil
}

// expandCluster labels everything density-reachable from seed.
func expandCluster(labels []int, neighbors [][]int, core []bool, seed, clusterID int) {
	labels[seed] = clusterID
	queue := append([]int(nil), neighbors[seed]...)

	for k := 0; k < len(queue); k++ {
		idx := queue[k]
		if labels[idx] != Noise {
			continue // already in this or an earlier cluster
		}

		labels[idx] = clusterID
		if core[idx] {
			queue = append(queue, neighbors[idx]...)
		}
	}
}

// CountClusters returns the number of distinct non-noise labels.
func CountClusters(labels []int) int {
	maxLabel := Noise
	for _, l := range labels {
		if l > maxLabel {
			maxLabel = l
		}
	}
	return maxLabel + 1
}

func weight(weights []float64, i int) float64 {
	if weights == nil {
		return 1
	}
	return weights[i]
}
