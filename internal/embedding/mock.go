package embedding

import (
	"context"
	"hash/fnv"
	"math"
)

// MockEmbedder produces deterministic pseudo-random vectors derived from the
// input text. Identical texts always map to identical vectors, which makes
// nearest-neighbor behavior reproducible in tests and demos without an API
// key.
type MockEmbedder struct {
	dimension int
}

// NewMockEmbedder creates a deterministic embedder with the given dimension.
func NewMockEmbedder(dimension int) *MockEmbedder {
	if dimension <= 0 {
		dimension = 1536
	}
	return &MockEmbedder{dimension: dimension}
}

func (m *MockEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = m.vectorFor(text)
	}
	return vectors, nil
}

func (m *MockEmbedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return m.vectorFor(text), nil
}

func (m *MockEmbedder) Dimension() int {
	return m.dimension
}

func (m *MockEmbedder) Model() string {
	return "mock"
}

// vectorFor seeds a simple linear congruential sequence from the FNV hash of
// the text and normalizes the result to unit length.
func (m *MockEmbedder) vectorFor(text string) []float32 {
	h := fnv.New64a()
	h.Write([]byte(text))
	state := h.Sum64()

	vector := make([]float32, m.dimension)
	var norm float64
	for i := range vector {
		state = state*6364136223846793005 + 1442695040888963407
		v := float32(int64(state>>32))/float32(math.MaxInt32) - 0.5
		vector[i] = v
		norm += float64(v) * float64(v)
	}

	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vector {
			vector[i] = float32(float64(vector[i]) / norm)
		}
	}
	return vector
}
