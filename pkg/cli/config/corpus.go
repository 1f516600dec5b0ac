package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/seisaku-lab/yosan/pkg/domain/interfaces"
	"github.com/seisaku-lab/yosan/pkg/service/corpus"
	"github.com/urfave/cli/v3"
)

// Corpus holds CLI flags for the historical corpus source
type Corpus struct {
	csvPath    string
	cachePath  string
	fiscalYear int
}

// Flags returns CLI flags for corpus configuration
func (c *Corpus) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "corpus-csv",
			Usage:       "Path to the historical project CSV file",
			Required:    true,
			Sources:     cli.EnvVars("YOSAN_CORPUS_CSV"),
			Destination: &c.csvPath,
		},
		&cli.StringFlag{
			Name:        "corpus-cache",
			Usage:       "Path to the embedding cache file (empty disables caching)",
			Sources:     cli.EnvVars("YOSAN_CORPUS_CACHE"),
			Destination: &c.cachePath,
		},
		&cli.IntFlag{
			Name:        "corpus-fiscal-year",
			Usage:       "Fiscal year assigned to rows without a year column",
			Value:       2024,
			Sources:     cli.EnvVars("YOSAN_CORPUS_FISCAL_YEAR"),
			Destination: &c.fiscalYear,
		},
	}
}

// LogAttrs returns log attributes for the corpus configuration
func (c *Corpus) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("csv_path", c.csvPath),
		slog.String("cache_path", c.cachePath),
		slog.Int("fiscal_year", c.fiscalYear),
	}
}

// Configure builds the corpus store from the CSV source
func (c *Corpus) Configure(ctx context.Context, embedder interfaces.EmbeddingClient) (*corpus.Store, error) {
	store, err := corpus.Load(ctx, corpus.Config{
		CSVPath:    c.csvPath,
		CachePath:  c.cachePath,
		Embedder:   embedder,
		FiscalYear: c.fiscalYear,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to build corpus")
	}
	return store, nil
}
