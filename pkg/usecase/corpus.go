package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/seisaku-lab/yosan/pkg/domain/interfaces"
	"github.com/seisaku-lab/yosan/pkg/domain/model"
)

// CorpusUseCase exposes read access to the loaded historical corpus.
// The context parameters keep the call shape uniform with the other
// use cases even though the store never blocks.
type CorpusUseCase struct {
	store interfaces.CorpusStore
}

func NewCorpusUseCase(store interfaces.CorpusStore) *CorpusUseCase {
	return &CorpusUseCase{store: store}
}

func (uc *CorpusUseCase) ListProjects(_ context.Context) []*model.HistoricalProject {
	return uc.store.All()
}

func (uc *CorpusUseCase) GetProject(_ context.Context, id int64) (*model.HistoricalProject, error) {
	project, ok := uc.store.Get(id)
	if !ok {
		return nil, goerr.Wrap(ErrProjectNotFound, "project not found", goerr.V(ProjectIDKey, id))
	}
	return project, nil
}

func (uc *CorpusUseCase) Stats(_ context.Context) *model.CorpusStats {
	return uc.store.Stats()
}
