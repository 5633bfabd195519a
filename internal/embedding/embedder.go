// Package embedding provides text embedding generation for semantic search.
package embedding

import "context"

// Embedder turns text into fixed-dimension vectors.
type Embedder interface {
	// Embed generates one vector per input text, in order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedSingle generates a vector for one text.
	EmbedSingle(ctx context.Context, text string) ([]float32, error)

	// Dimension returns the vector dimension the embedder produces.
	Dimension() int

	// Model returns the embedding model identifier.
	Model() string
}
