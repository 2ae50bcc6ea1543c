package reconcile

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hitoshi/shiftman/internal/model"
	"github.com/hitoshi/shiftman/internal/repository"
)

// WorkerSyncer はキャスト1人分の同期パス実行インターフェース。
type WorkerSyncer interface {
	// Synchronize は1パスを実行し、出勤と判定された日数を返す。
	Synchronize(ctx context.Context, worker *model.Worker) (int, error)
}

// Scheduler は全キャストの定期同期と並列制御を行う。
// ティッカーで同期サイクルを起動し、semaphoreパターンでキャスト単位の
// 最大並列数を制御する。1人のキャストのパスは常に1つのゴルーチンが担うため、
// 同一 (worker_id, date) への書き込みが競合することはない。
type Scheduler struct {
	workerRepo     repository.WorkerRepository
	syncer         WorkerSyncer
	logger         *slog.Logger
	maxConcurrency int
}

// NewScheduler はSchedulerの新しいインスタンスを生成する。
// maxConcurrencyが0以下の場合はデフォルト値4を使用する。
func NewScheduler(
	workerRepo repository.WorkerRepository,
	syncer WorkerSyncer,
	logger *slog.Logger,
	maxConcurrency int,
) *Scheduler {
	if maxConcurrency <= 0 {
		maxConcurrency = 4
	}
	return &Scheduler{
		workerRepo:     workerRepo,
		syncer:         syncer,
		logger:         logger,
		maxConcurrency: maxConcurrency,
	}
}

// Start は指定間隔のティッカーでスケジューラを起動する。
// コンテキストがキャンセルされるまで実行を継続する。
func (s *Scheduler) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("同期スケジューラを開始しました",
		slog.Duration("interval", interval),
		slog.Int("max_concurrency", s.maxConcurrency),
	)

	// 起動直後に1回実行
	if err := s.RunOnce(ctx); err != nil {
		s.logger.Error("同期サイクルの実行に失敗しました",
			slog.String("error", err.Error()),
		)
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("同期スケジューラを停止しました")
			return
		case <-ticker.C:
			if err := s.RunOnce(ctx); err != nil {
				s.logger.Error("同期サイクルの実行に失敗しました",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

// RunOnce は全キャストを1回同期する。
// semaphoreパターンで最大並列数を制御し、全パスの完了を待ってから返る
// （サイクルが重なって同一キャストのパスが並走することはない）。
func (s *Scheduler) RunOnce(ctx context.Context) error {
	start := time.Now()

	workers, err := s.workerRepo.List(ctx)
	if err != nil {
		return err
	}

	if len(workers) == 0 {
		s.logger.Info("同期対象のキャストはいません")
		return nil
	}

	s.logger.Info("同期サイクルを開始します",
		slog.Int("worker_count", len(workers)),
	)

	sem := make(chan struct{}, s.maxConcurrency)
	var wg sync.WaitGroup

	for _, worker := range workers {
		wg.Add(1)
		sem <- struct{}{} // semaphore取得（ブロック）

		go func(w *model.Worker) {
			defer wg.Done()
			defer func() { <-sem }() // semaphore解放

			if _, err := s.syncer.Synchronize(ctx, w); err != nil {
				s.logger.Error("キャストの同期に失敗しました",
					slog.String("worker_id", w.ID),
					slog.String("error", err.Error()),
				)
			}
		}(worker)
	}

	wg.Wait()

	s.logger.Info("同期サイクルが完了しました",
		slog.Int("worker_count", len(workers)),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)

	return nil
}
