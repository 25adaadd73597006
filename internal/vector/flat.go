// Package vector provides an in-process flat vector index with exact
// L2 nearest-neighbour search and a versioned binary codec for persistence.
package vector

import (
	"sort"

	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/core/domain"
)

// Flat is an exact L2 similarity index. Vectors are stored contiguously
// and searched by brute force; positions are stable, so position i can be
// paired with external metadata entry i.
//
// Flat is not safe for concurrent use; callers synchronise access.
type Flat struct {
	dim  int
	data []float32 // len(data) == count * dim
}

// NewFlat creates an empty index for vectors of the given dimension
func NewFlat(dim int) *Flat {
	return &Flat{dim: dim}
}

// Dimension returns the vector dimension of the index
func (f *Flat) Dimension() int {
	return f.dim
}

// Count returns the number of stored vectors
func (f *Flat) Count() int {
	if f.dim == 0 {
		return 0
	}
	return len(f.data) / f.dim
}

// Add appends vectors to the index. All-or-nothing: if any vector has the
// wrong dimension, nothing is added and ErrDimensionMismatch is returned.
func (f *Flat) Add(vectors [][]float32) error {
	for _, v := range vectors {
		if len(v) != f.dim {
			return domain.ErrDimensionMismatch
		}
	}
	for _, v := range vectors {
		f.data = append(f.data, v...)
	}
	return nil
}

// Match is one search result: the position of a stored vector and its
// squared L2 distance to the query.
type Match struct {
	Position int
	Distance float32
}

// Search returns the k nearest vectors to the query, closest first.
// k is capped at Count; an empty index yields no matches. Ties are broken
// by insertion order.
func (f *Flat) Search(query []float32, k int) ([]Match, error) {
	if len(query) != f.dim {
		return nil, domain.ErrDimensionMismatch
	}
	n := f.Count()
	if k > n {
		k = n
	}
	if k <= 0 {
		return nil, nil
	}

	matches := make([]Match, n)
	for i := 0; i < n; i++ {
		row := f.data[i*f.dim : (i+1)*f.dim]
		var dist float32
		for j, q := range query {
			d := row[j] - q
			dist += d * d
		}
		matches[i] = Match{Position: i, Distance: dist}
	}

	sort.SliceStable(matches, func(a, b int) bool {
		return matches[a].Distance < matches[b].Distance
	})
	return matches[:k], nil
}

// Reset discards all vectors, keeping the dimension
func (f *Flat) Reset() {
	f.data = nil
}

// Vector returns the stored vector at the given position.
// The returned slice aliases index storage; callers must not modify it.
func (f *Flat) Vector(position int) []float32 {
	return f.data[position*f.dim : (position+1)*f.dim]
}
