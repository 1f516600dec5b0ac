package embedding

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/seisaku-lab/yosan/pkg/utils/logging"
)

// ErrProviderUnavailable indicates the embedding provider kept failing
// after all retry attempts.
var ErrProviderUnavailable = goerr.New("embedding provider unavailable")

// embedder is the subset of gollem.LLMClient this service needs.
type embedder interface {
	GenerateEmbedding(ctx context.Context, dimension int, input []string) ([][]float64, error)
}

const (
	defaultBatchSize  = 128
	defaultMaxRetries = 3
	defaultBackoff    = time.Second
)

// Client generates embedding vectors for project texts. Provider calls
// are retried with exponential backoff, and large inputs are split into
// fixed-size batches.
type Client struct {
	llm        embedder
	dimension  int
	batchSize  int
	maxRetries int
	backoff    time.Duration
}

// Option is a functional option for Client configuration
type Option func(*Client)

// WithBatchSize sets the maximum number of texts per provider call
func WithBatchSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.batchSize = n
		}
	}
}

// WithMaxRetries sets the number of attempts per provider call
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxRetries = n
		}
	}
}

// WithBackoff sets the initial retry delay. Each subsequent retry doubles it.
func WithBackoff(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.backoff = d
		}
	}
}

// New creates a new embedding client with the provided LLM client
func New(llm embedder, dimension int, opts ...Option) (*Client, error) {
	if llm == nil {
		return nil, goerr.New("LLM client is required")
	}
	if dimension <= 0 {
		return nil, goerr.New("embedding dimension must be positive", goerr.V("dimension", dimension))
	}

	c := &Client{
		llm:        llm,
		dimension:  dimension,
		batchSize:  defaultBatchSize,
		maxRetries: defaultMaxRetries,
		backoff:    defaultBackoff,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Dimension returns the vector dimension this client produces
func (c *Client) Dimension() int {
	return c.dimension
}

// Embed generates an embedding vector for a single text
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch generates embedding vectors for multiple texts, preserving
// input order. Inputs larger than the batch size are split across
// multiple provider calls.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	result := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += c.batchSize {
		end := start + c.batchSize
		if end > len(texts) {
			end = len(texts)
		}

		vectors, err := c.embedWithRetry(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		result = append(result, vectors...)
	}

	return result, nil
}

func (c *Client) embedWithRetry(ctx context.Context, texts []string) ([][]float32, error) {
	var lastErr error
	delay := c.backoff

	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		embeddings, err := c.llm.GenerateEmbedding(ctx, c.dimension, texts)
		if err == nil {
			if len(embeddings) != len(texts) {
				return nil, goerr.New("embedding count mismatch",
					goerr.V("expected", len(texts)),
					goerr.V("actual", len(embeddings)))
			}
			return toFloat32(embeddings), nil
		}

		lastErr = err
		logging.From(ctx).Warn("embedding request failed",
			"attempt", attempt,
			"maxRetries", c.maxRetries,
			"error", err)

		if attempt == c.maxRetries {
			break
		}

		select {
		case <-ctx.Done():
			return nil, goerr.Wrap(ctx.Err(), "embedding canceled")
		case <-time.After(delay):
		}
		delay *= 2
	}

	return nil, goerr.Wrap(ErrProviderUnavailable, "all retry attempts failed",
		goerr.V("attempts", c.maxRetries),
		goerr.V("cause", lastErr.Error()))
}

func toFloat32(embeddings [][]float64) [][]float32 {
	result := make([][]float32, len(embeddings))
	for i, vec := range embeddings {
		converted := make([]float32, len(vec))
		for j, v := range vec {
			converted[j] = float32(v)
		}
		result[i] = converted
	}
	return result
}
