package worker_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/seisaku-lab/yosan/pkg/domain/model"
	"github.com/seisaku-lab/yosan/pkg/domain/types"
	"github.com/seisaku-lab/yosan/pkg/repository/memory"
	"github.com/seisaku-lab/yosan/pkg/service/worker"
)

func seedLogs(t *testing.T, repo *memory.Memory, ageDays ...int) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()
	for _, days := range ageDays {
		_, err := repo.AnalysisLog().Create(ctx, &model.AnalysisLog{
			Status:      types.LogStatusSuccess,
			IssueText:   fmt.Sprintf("entry aged %d days", days),
			SummaryText: "s",
			CreatedAt:   now.AddDate(0, 0, -days),
		})
		if err != nil {
			t.Fatalf("failed to seed log: %v", err)
		}
	}
}

func TestLogRetentionWorker_InitialCleanup(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	seedLogs(t, repo, 10, 95, 200)

	// Intervals far longer than the test, so only the initial run fires
	w := worker.NewLogRetentionWorker(repo, 90*24*time.Hour, 10*time.Minute)
	if err := w.Start(ctx); err != nil {
		t.Fatalf("failed to start worker: %v", err)
	}
	defer w.Stop()

	// Wait for background initial cleanup to complete
	time.Sleep(50 * time.Millisecond)

	_, total, err := repo.AnalysisLog().List(ctx, model.LogListFilter{}, 10, 0)
	if err != nil {
		t.Fatalf("failed to list logs: %v", err)
	}
	if total != 1 {
		t.Errorf("expected 1 log to survive cleanup, got %d", total)
	}
}

func TestLogRetentionWorker_PeriodicCleanup(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()

	w := worker.NewLogRetentionWorker(repo, 90*24*time.Hour, 100*time.Millisecond)
	if err := w.Start(ctx); err != nil {
		t.Fatalf("failed to start worker: %v", err)
	}
	defer w.Stop()

	// Wait for the initial run, then add an already-expired entry
	time.Sleep(50 * time.Millisecond)
	seedLogs(t, repo, 200)

	// Wait for at least one periodic run
	time.Sleep(200 * time.Millisecond)

	_, total, err := repo.AnalysisLog().List(ctx, model.LogListFilter{}, 10, 0)
	if err != nil {
		t.Fatalf("failed to list logs: %v", err)
	}
	if total != 0 {
		t.Errorf("expected expired log to be removed by periodic cleanup, got %d remaining", total)
	}
}

func TestLogRetentionWorker_StopsCleanly(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()

	w := worker.NewLogRetentionWorker(repo, 90*24*time.Hour, 100*time.Millisecond)
	if err := w.Start(ctx); err != nil {
		t.Fatalf("failed to start worker: %v", err)
	}

	time.Sleep(50 * time.Millisecond)

	stopStart := time.Now()
	w.Stop()
	stopDuration := time.Since(stopStart)

	if stopDuration > time.Second {
		t.Errorf("Stop() took too long: %v", stopDuration)
	}
}
