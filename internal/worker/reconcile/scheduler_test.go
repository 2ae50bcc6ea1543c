package reconcile

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hitoshi/shiftman/internal/model"
)

// mockWorkerRepo はWorkerRepositoryのテスト用モック。
type mockWorkerRepo struct {
	workers []*model.Worker
	listErr error
}

func (m *mockWorkerRepo) FindByID(_ context.Context, id string) (*model.Worker, error) {
	for _, w := range m.workers {
		if w.ID == id {
			return w, nil
		}
	}
	return nil, nil
}

func (m *mockWorkerRepo) List(_ context.Context) ([]*model.Worker, error) {
	return m.workers, m.listErr
}

// mockSyncer は同期呼び出しを記録し、並列度を計測する。
type mockSyncer struct {
	mu          sync.Mutex
	synced      []string
	inFlight    int32
	maxInFlight int32
	err         error
}

func (m *mockSyncer) Synchronize(_ context.Context, worker *model.Worker) (int, error) {
	cur := atomic.AddInt32(&m.inFlight, 1)
	defer atomic.AddInt32(&m.inFlight, -1)
	for {
		prev := atomic.LoadInt32(&m.maxInFlight)
		if cur <= prev || atomic.CompareAndSwapInt32(&m.maxInFlight, prev, cur) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)

	m.mu.Lock()
	m.synced = append(m.synced, worker.ID)
	m.mu.Unlock()
	return 1, m.err
}

func newTestScheduler(repo *mockWorkerRepo, syncer *mockSyncer, maxConcurrency int) *Scheduler {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	return NewScheduler(repo, syncer, logger, maxConcurrency)
}

func makeWorkers(n int) []*model.Worker {
	workers := make([]*model.Worker, 0, n)
	for i := 0; i < n; i++ {
		workers = append(workers, &model.Worker{
			ID:          "w-" + string(rune('a'+i)),
			DisplayName: "キャスト" + string(rune('a'+i)),
			LocationID:  "loc-1",
		})
	}
	return workers
}

func TestRunOnce_SyncsAllWorkers(t *testing.T) {
	repo := &mockWorkerRepo{workers: makeWorkers(6)}
	syncer := &mockSyncer{}
	s := newTestScheduler(repo, syncer, 2)

	if err := s.RunOnce(context.Background()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(syncer.synced) != 6 {
		t.Errorf("synced = %d workers, want 6", len(syncer.synced))
	}
}

func TestRunOnce_RespectsMaxConcurrency(t *testing.T) {
	repo := &mockWorkerRepo{workers: makeWorkers(8)}
	syncer := &mockSyncer{}
	s := newTestScheduler(repo, syncer, 2)

	if err := s.RunOnce(context.Background()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if max := atomic.LoadInt32(&syncer.maxInFlight); max > 2 {
		t.Errorf("max in-flight = %d, want <= 2", max)
	}
}

func TestRunOnce_NoWorkers_NoError(t *testing.T) {
	repo := &mockWorkerRepo{}
	syncer := &mockSyncer{}
	s := newTestScheduler(repo, syncer, 4)

	if err := s.RunOnce(context.Background()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(syncer.synced) != 0 {
		t.Errorf("no workers should be synced, got %v", syncer.synced)
	}
}

func TestRunOnce_ListError_Propagates(t *testing.T) {
	repo := &mockWorkerRepo{listErr: errors.New("db down")}
	syncer := &mockSyncer{}
	s := newTestScheduler(repo, syncer, 4)

	if err := s.RunOnce(context.Background()); err == nil {
		t.Fatal("キャスト一覧の取得失敗はエラーとして返るはず")
	}
}

func TestRunOnce_PerWorkerErrorDoesNotAbortCycle(t *testing.T) {
	repo := &mockWorkerRepo{workers: makeWorkers(3)}
	syncer := &mockSyncer{err: errors.New("store error")}
	s := newTestScheduler(repo, syncer, 2)

	if err := s.RunOnce(context.Background()); err != nil {
		t.Fatalf("個別キャストの失敗はサイクル全体を失敗させないはず: %v", err)
	}
	if len(syncer.synced) != 3 {
		t.Errorf("synced = %d workers, want 3", len(syncer.synced))
	}
}

func TestStart_StopsOnContextCancel(t *testing.T) {
	repo := &mockWorkerRepo{workers: makeWorkers(1)}
	syncer := &mockSyncer{}
	s := newTestScheduler(repo, syncer, 1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Start(ctx, time.Hour)
		close(done)
	}()

	// 起動直後の1回が走るのを待つ
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("キャンセル後1秒以内にStartが戻らない")
	}

	if len(syncer.synced) == 0 {
		t.Error("起動直後に1回同期が実行されるはず")
	}
}
