package retrieval

import (
	"context"
	"encoding/gob"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// FlatIndex is an exact nearest-neighbor index over L2 distance. Vectors are
// stored as-is and every search scans the full set, which is plenty for a
// catalog of tens of thousands of movies. All methods are safe for concurrent
// use.
type FlatIndex struct {
	mu        sync.RWMutex
	dimension int
	ids       []int64
	vectors   [][]float32
}

// NewFlatIndex creates an empty index for vectors of the given dimension.
func NewFlatIndex(dimension int) (*FlatIndex, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("index dimension must be positive, got %d", dimension)
	}
	return &FlatIndex{dimension: dimension}, nil
}

// Dimension returns the vector dimension the index was created with.
func (idx *FlatIndex) Dimension() int {
	return idx.dimension
}

// Len reports the number of indexed vectors.
func (idx *FlatIndex) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.ids)
}

// AddVectors adds vectors with their external IDs. The batch is validated
// before anything is stored: if any vector has the wrong dimension, or the
// slices differ in length, the index is left untouched and
// ErrDimensionMismatch is returned.
func (idx *FlatIndex) AddVectors(ctx context.Context, vectors [][]float32, ids []int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(vectors) != len(ids) {
		return fmt.Errorf("%w: %d vectors for %d ids", ErrDimensionMismatch, len(vectors), len(ids))
	}
	for i, v := range vectors {
		if len(v) != idx.dimension {
			return fmt.Errorf("%w: vector %d has dimension %d, index expects %d",
				ErrDimensionMismatch, i, len(v), idx.dimension)
		}
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	for i, v := range vectors {
		stored := make([]float32, len(v))
		copy(stored, v)
		idx.vectors = append(idx.vectors, stored)
		idx.ids = append(idx.ids, ids[i])
	}
	return nil
}

// Neighbor is a single search hit.
type Neighbor struct {
	ID       int64
	Distance float32
}

// Search returns up to k nearest neighbors of the query vector, closest
// first. Fewer than k results are returned when the index holds fewer
// vectors.
func (idx *FlatIndex) Search(ctx context.Context, query []float32, k int) ([]Neighbor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(query) != idx.dimension {
		return nil, fmt.Errorf("%w: query has dimension %d, index expects %d",
			ErrDimensionMismatch, len(query), idx.dimension)
	}
	if k <= 0 {
		return nil, nil
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	neighbors := make([]Neighbor, len(idx.ids))
	for i, v := range idx.vectors {
		var sum float64
		for j := range v {
			d := float64(v[j] - query[j])
			sum += d * d
		}
		neighbors[i] = Neighbor{ID: idx.ids[i], Distance: float32(math.Sqrt(sum))}
	}

	sort.SliceStable(neighbors, func(i, j int) bool {
		return neighbors[i].Distance < neighbors[j].Distance
	})

	if k < len(neighbors) {
		neighbors = neighbors[:k]
	}
	return neighbors, nil
}

type indexSnapshot struct {
	Dimension int
	IDs       []int64
	Vectors   [][]float32
}

// Persist writes the index to path atomically. A partially written file never
// replaces an existing snapshot.
func (idx *FlatIndex) Persist(path string) error {
	idx.mu.RLock()
	snapshot := indexSnapshot{
		Dimension: idx.dimension,
		IDs:       idx.ids,
		Vectors:   idx.vectors,
	}
	idx.mu.RUnlock()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create index directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".index-*")
	if err != nil {
		return fmt.Errorf("create index file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := gob.NewEncoder(tmp).Encode(snapshot); err != nil {
		tmp.Close()
		return fmt.Errorf("encode index: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace index: %w", err)
	}
	return nil
}

// Restore replaces the index contents with a snapshot previously written by
// Persist. On any failure the current contents are kept and
// ErrIndexUnavailable is returned.
func (idx *FlatIndex) Restore(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIndexUnavailable, err)
	}
	defer f.Close()

	var snapshot indexSnapshot
	if err := gob.NewDecoder(f).Decode(&snapshot); err != nil {
		return fmt.Errorf("%w: decode snapshot: %v", ErrIndexUnavailable, err)
	}
	if snapshot.Dimension != idx.dimension {
		return fmt.Errorf("%w: snapshot dimension %d, index expects %d",
			ErrIndexUnavailable, snapshot.Dimension, idx.dimension)
	}
	if len(snapshot.IDs) != len(snapshot.Vectors) {
		return fmt.Errorf("%w: snapshot is inconsistent", ErrIndexUnavailable)
	}
	for _, v := range snapshot.Vectors {
		if len(v) != idx.dimension {
			return fmt.Errorf("%w: snapshot contains a vector of dimension %d", ErrIndexUnavailable, len(v))
		}
	}

	idx.mu.Lock()
	idx.ids = snapshot.IDs
	idx.vectors = snapshot.Vectors
	idx.mu.Unlock()
	return nil
}
