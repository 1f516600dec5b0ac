package cli

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/seisaku-lab/yosan/pkg/cli/config"
	httpctrl "github.com/seisaku-lab/yosan/pkg/controller/http"
	"github.com/seisaku-lab/yosan/pkg/service/worker"
	"github.com/seisaku-lab/yosan/pkg/usecase"
	"github.com/seisaku-lab/yosan/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdServe() *cli.Command {
	var addr string
	var retentionDays int
	var repoCfg config.Repository
	var embeddingCfg config.Embedding
	var corpusCfg config.Corpus
	var predictorCfg config.Predictor

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("YOSAN_ADDR"),
			Destination: &addr,
		},
		&cli.IntFlag{
			Name:        "log-retention-days",
			Usage:       "Delete analysis logs older than this many days (0 disables the retention worker)",
			Value:       0,
			Sources:     cli.EnvVars("YOSAN_LOG_RETENTION_DAYS"),
			Destination: &retentionDays,
		},
	}
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, embeddingCfg.Flags()...)
	flags = append(flags, corpusCfg.Flags()...)
	flags = append(flags, predictorCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			embedder, err := embeddingCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to configure embedding provider")
			}
			logging.Default().Info("Embedding provider configured", "embedding", slog.GroupValue(embeddingCfg.LogAttrs()...))

			store, err := corpusCfg.Configure(ctx, embedder)
			if err != nil {
				return err
			}

			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logging.Default().Error("failed to close repository", "error", err.Error())
				}
			}()

			predictor, err := predictorCfg.Configure()
			if err != nil {
				return err
			}
			logging.Default().Info("Predictor configured", "predictor", slog.GroupValue(predictorCfg.LogAttrs()...))

			uc := usecase.New(repo, store, embedder, usecase.WithPredictorConfig(predictor))

			var retentionWorker *worker.LogRetentionWorker
			if retentionDays > 0 {
				retentionWorker = worker.NewLogRetentionWorker(repo,
					time.Duration(retentionDays)*24*time.Hour, time.Hour)
				if err := retentionWorker.Start(ctx); err != nil {
					return goerr.Wrap(err, "failed to start log retention worker")
				}
			}

			server := &http.Server{
				Addr:              addr,
				Handler:           httpctrl.New(uc),
				ReadHeaderTimeout: 30 * time.Second,
			}

			// Setup signal handling for graceful shutdown
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			errCh := make(chan error, 1)
			go func() {
				logging.Default().Info("Starting HTTP server", "addr", addr, "projects", store.Len())
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				logging.Default().Info("Received shutdown signal", "signal", sig)

				if retentionWorker != nil {
					retentionWorker.Stop()
				}

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}

				logging.Default().Info("Server shutdown completed")
				return nil
			}
		},
	}
}
