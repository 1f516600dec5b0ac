package interfaces

import "context"

// EmbeddingClient turns text into fixed-dimension vectors via an
// external provider. Implementations retry transient failures
// internally and surface embedding.ErrProviderUnavailable once
// retries are exhausted.
type EmbeddingClient interface {
	// Embed returns the embedding vector for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch returns one vector per input text, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the fixed vector dimension the client produces.
	Dimension() int
}
