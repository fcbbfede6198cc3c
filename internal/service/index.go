package service

import (
	"fmt"
	"slices"

	"github.com/cloo-solutions/grootai/internal/domain"
)

// FlatIndex is an exhaustive squared-L2 nearest-neighbour index. It lives for
// one pipeline invocation and is not safe for concurrent writes.
type FlatIndex struct {
	dims    int
	entries []domain.EmbeddedChunk
}

// NewFlatIndex creates an empty index; the first vector fixes its width.
func NewFlatIndex() *FlatIndex {
	return &FlatIndex{}
}

// Add inserts an embedded chunk; every vector must share one width.
func (x *FlatIndex) Add(ec domain.EmbeddedChunk) error {
	if len(ec.Vector) == 0 {
		return domain.Wrap(domain.ErrDimensionMismatch, fmt.Errorf("empty vector for chunk %d of %s", ec.Chunk.Index, ec.Chunk.SourceURL))
	}
	if x.dims == 0 {
		x.dims = len(ec.Vector)
	}
	if len(ec.Vector) != x.dims {
		return domain.Wrap(domain.ErrDimensionMismatch, fmt.Errorf("got %d, index holds %d", len(ec.Vector), x.dims))
	}
	x.entries = append(x.entries, ec)
	return nil
}

// Len returns the number of indexed chunks.
func (x *FlatIndex) Len() int {
	return len(x.entries)
}

// Dims returns the vector width, zero while empty.
func (x *FlatIndex) Dims() int {
	return x.dims
}

// Search returns up to k chunks by ascending distance to query. Equal
// distances keep insertion order.
func (x *FlatIndex) Search(query []float32, k int) ([]domain.ScoredChunk, error) {
	if k <= 0 || len(x.entries) == 0 {
		return []domain.ScoredChunk{}, nil
	}
	if len(query) != x.dims {
		return nil, domain.Wrap(domain.ErrDimensionMismatch, fmt.Errorf("query has %d, index holds %d", len(query), x.dims))
	}

	hits := make([]domain.ScoredChunk, len(x.entries))
	for i, e := range x.entries {
		hits[i] = domain.ScoredChunk{Chunk: e.Chunk, Distance: squaredL2(query, e.Vector)}
	}
	slices.SortStableFunc(hits, func(a, b domain.ScoredChunk) int {
		switch {
		case a.Distance < b.Distance:
			return -1
		case a.Distance > b.Distance:
			return 1
		default:
			return 0
		}
	})

	if k > len(hits) {
		k = len(hits)
	}
	return hits[:k], nil
}

func squaredL2(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
