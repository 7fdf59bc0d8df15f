// Package vecmath ranks stored embeddings by cosine distance for backends
// without a native vector index.
package vecmath

import (
	"math"
	"sort"
)

// CosineDistance returns 1 - cosine similarity. Vectors of different length
// or zero magnitude are maximally distant.
func CosineDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 2
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 2
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}

// Nearest returns the indices of the limit candidates closest to query,
// ascending by distance. Ties keep candidate order.
func Nearest(query []float32, candidates [][]float32, limit int) []int {
	if limit <= 0 || len(candidates) == 0 {
		return nil
	}
	idx := make([]int, len(candidates))
	dist := make([]float64, len(candidates))
	for i, c := range candidates {
		idx[i] = i
		dist[i] = CosineDistance(query, c)
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return dist[idx[a]] < dist[idx[b]]
	})
	return idx[:min(limit, len(idx))]
}
