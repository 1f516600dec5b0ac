package usecase

import (
	"github.com/seisaku-lab/yosan/pkg/domain/interfaces"
)

type UseCases struct {
	repo            interfaces.Repository
	predictorConfig PredictorConfig

	Prediction  *PredictionUseCase
	AnalysisLog *AnalysisLogUseCase
	Corpus      *CorpusUseCase
}

type Option func(*UseCases)

func WithPredictorConfig(cfg PredictorConfig) Option {
	return func(uc *UseCases) {
		uc.predictorConfig = cfg
	}
}

func New(repo interfaces.Repository, store interfaces.CorpusStore, embedder interfaces.EmbeddingClient, opts ...Option) *UseCases {
	uc := &UseCases{
		repo:            repo,
		predictorConfig: DefaultPredictorConfig(),
	}

	for _, opt := range opts {
		opt(uc)
	}

	uc.Prediction = NewPredictionUseCase(repo, store, embedder, uc.predictorConfig)
	uc.AnalysisLog = NewAnalysisLogUseCase(repo)
	uc.Corpus = NewCorpusUseCase(store)

	return uc
}
