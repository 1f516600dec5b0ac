package config

import (
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/seisaku-lab/yosan/pkg/usecase"
	"github.com/urfave/cli/v3"
)

// Predictor holds CLI flags for the prediction algorithm parameters
type Predictor struct {
	topK  int
	tau   float64
	alpha float64
	beta  float64
}

// Flags returns CLI flags for predictor configuration
func (p *Predictor) Flags() []cli.Flag {
	defaults := usecase.DefaultPredictorConfig()
	return []cli.Flag{
		&cli.IntFlag{
			Name:        "predictor-topk",
			Usage:       "Maximum number of similar projects per prediction",
			Value:       defaults.TopK,
			Sources:     cli.EnvVars("YOSAN_PREDICTOR_TOPK"),
			Destination: &p.topK,
		},
		&cli.FloatFlag{
			Name:        "predictor-tau",
			Usage:       "Minimum cosine similarity for a project to match",
			Value:       defaults.Tau,
			Sources:     cli.EnvVars("YOSAN_PREDICTOR_TAU"),
			Destination: &p.tau,
		},
		&cli.FloatFlag{
			Name:        "predictor-alpha",
			Usage:       "Share of the similarity-weighted budget in the blend",
			Value:       defaults.Alpha,
			Sources:     cli.EnvVars("YOSAN_PREDICTOR_ALPHA"),
			Destination: &p.alpha,
		},
		&cli.FloatFlag{
			Name:        "predictor-beta",
			Usage:       "Share of the plain average budget in the blend",
			Value:       defaults.Beta,
			Sources:     cli.EnvVars("YOSAN_PREDICTOR_BETA"),
			Destination: &p.beta,
		},
	}
}

// LogAttrs returns log attributes for the predictor configuration
func (p *Predictor) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.Int("topk", p.topK),
		slog.Float64("tau", p.tau),
		slog.Float64("alpha", p.alpha),
		slog.Float64("beta", p.beta),
	}
}

// Configure validates the flags and returns the predictor parameters
func (p *Predictor) Configure() (usecase.PredictorConfig, error) {
	cfg := usecase.PredictorConfig{
		TopK:  p.topK,
		Tau:   p.tau,
		Alpha: p.alpha,
		Beta:  p.beta,
	}
	if err := cfg.Validate(); err != nil {
		return usecase.PredictorConfig{}, goerr.Wrap(err, "invalid predictor configuration")
	}
	return cfg, nil
}
