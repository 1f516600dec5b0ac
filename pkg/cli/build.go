package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/seisaku-lab/yosan/pkg/cli/config"
	"github.com/seisaku-lab/yosan/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdBuild() *cli.Command {
	var embeddingCfg config.Embedding
	var corpusCfg config.Corpus

	flags := append(embeddingCfg.Flags(), corpusCfg.Flags()...)

	return &cli.Command{
		Name:    "build",
		Aliases: []string{"b"},
		Usage:   "Vectorize the historical project CSV and warm the embedding cache",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			embedder, err := embeddingCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to configure embedding provider")
			}

			store, err := corpusCfg.Configure(ctx, embedder)
			if err != nil {
				return err
			}

			stats := store.Stats()
			logging.Default().Info("Corpus build completed",
				"projects", store.Len(),
				"dimension", store.Dimension(),
				"rank_distribution", stats.RankDistribution,
			)
			return nil
		},
	}
}
