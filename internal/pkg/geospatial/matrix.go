package geospatial

import "gonum.org/v1/gonum/mat"

// HaversineMatrix builds the symmetric matrix of pairwise central angles
// (radians on the unit sphere) between points given in radians.
// It allocates n*n floats and returns nil for empty input.
func HaversineMatrix(lats, lons []float64) *mat.SymDense {
	n := len(lats)
	if n == 0 || len(lons) != n {
		return nil
	}

	m := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			m.SetSym(i, j, CentralAngle(lats[i], lons[i], lats[j], lons[j]))
		}
	}
	return m
}
