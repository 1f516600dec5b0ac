package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gollem/llm/gemini"
	"github.com/m-mizutani/gollem/llm/openai"
	"github.com/seisaku-lab/yosan/pkg/service/embedding"
	"github.com/urfave/cli/v3"
)

// Embedding holds CLI flags for the embedding provider
type Embedding struct {
	provider       string
	geminiProject  string
	geminiLocation string
	openaiAPIKey   string
	dimension      int
	batchSize      int
	maxRetries     int
}

// Flags returns CLI flags for embedding provider configuration
func (e *Embedding) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "embedding-provider",
			Usage:       "Embedding provider (gemini or openai)",
			Value:       "gemini",
			Sources:     cli.EnvVars("YOSAN_EMBEDDING_PROVIDER"),
			Destination: &e.provider,
		},
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project ID for Gemini API",
			Sources:     cli.EnvVars("YOSAN_GEMINI_PROJECT"),
			Destination: &e.geminiProject,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Google Cloud location for Gemini API",
			Value:       "us-central1",
			Sources:     cli.EnvVars("YOSAN_GEMINI_LOCATION"),
			Destination: &e.geminiLocation,
		},
		&cli.StringFlag{
			Name:        "openai-api-key",
			Usage:       "OpenAI API key",
			Sources:     cli.EnvVars("YOSAN_OPENAI_API_KEY"),
			Destination: &e.openaiAPIKey,
		},
		&cli.IntFlag{
			Name:        "embedding-dimension",
			Usage:       "Embedding vector dimension",
			Value:       1536,
			Sources:     cli.EnvVars("YOSAN_EMBEDDING_DIMENSION"),
			Destination: &e.dimension,
		},
		&cli.IntFlag{
			Name:        "embedding-batch-size",
			Usage:       "Maximum texts per embedding request",
			Value:       128,
			Sources:     cli.EnvVars("YOSAN_EMBEDDING_BATCH_SIZE"),
			Destination: &e.batchSize,
		},
		&cli.IntFlag{
			Name:        "embedding-max-retries",
			Usage:       "Retry attempts per embedding request",
			Value:       3,
			Sources:     cli.EnvVars("YOSAN_EMBEDDING_MAX_RETRIES"),
			Destination: &e.maxRetries,
		},
	}
}

// LogAttrs returns log attributes for the embedding configuration.
// The API key is never included.
func (e *Embedding) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("provider", e.provider),
		slog.Int("dimension", e.dimension),
		slog.Int("batch_size", e.batchSize),
		slog.Int("max_retries", e.maxRetries),
	}
}

// Configure creates the embedding client for the configured provider
func (e *Embedding) Configure(ctx context.Context) (*embedding.Client, error) {
	var llmClient gollem.LLMClient
	switch e.provider {
	case "gemini":
		if e.geminiProject == "" {
			return nil, goerr.Wrap(ErrInvalidConfig, "gemini-project is required when using gemini provider")
		}
		client, err := gemini.New(ctx, e.geminiProject, e.geminiLocation)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create Gemini client")
		}
		llmClient = client

	case "openai":
		if e.openaiAPIKey == "" {
			return nil, goerr.Wrap(ErrInvalidConfig, "openai-api-key is required when using openai provider")
		}
		client, err := openai.New(ctx, e.openaiAPIKey)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create OpenAI client")
		}
		llmClient = client

	default:
		return nil, goerr.Wrap(ErrInvalidConfig, "invalid embedding provider", goerr.V("provider", e.provider))
	}

	return embedding.New(llmClient, e.dimension,
		embedding.WithBatchSize(e.batchSize),
		embedding.WithMaxRetries(e.maxRetries),
	)
}
