// Package reconcile は外部スケジュールと永続ストアの整合を取る同期エンジンを提供する。
// 固定長のローリングウィンドウを日単位に評価し、ストアが常に
// 「最後に取得へ成功したソースの状態」を反映するように収束させる。
package reconcile

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/hitoshi/shiftman/internal/model"
	"github.com/hitoshi/shiftman/internal/repository"
)

// DefaultWindowDays は同期ウィンドウの既定日数。
const DefaultWindowDays = 7

// SourceFetcher は日付単位のスケジュールページ取得インターフェース。
type SourceFetcher interface {
	// Fetch は指定日のページ本文を返す。失敗は *model.FetchError として返る。
	Fetch(ctx context.Context, date time.Time) (string, error)
}

// TextExtractor は出勤情報抽出のインターフェース。
type TextExtractor interface {
	Extract(rawText, displayName string) model.Observation
}

// TextSanitizer は抽出テキストの保存前サニタイズのインターフェース。
type TextSanitizer interface {
	Sanitize(raw string) string
}

// SyncMetrics は同期処理のメトリクス記録インターフェース。
type SyncMetrics interface {
	RecordObservation(kind string)
	RecordFetchFailure()
	RecordFetchLatency(d time.Duration)
	RecordShiftUpserted()
	RecordShiftDeleted()
	RecordSyncPass(success bool)
}

// Config は同期エンジンの設定パラメータ。
type Config struct {
	// WindowDays は同期ウィンドウの日数（デフォルト: 7）。
	WindowDays int
	// RequestDelay は外部サイトへのリクエスト最低間隔（デフォルト: 2秒）。
	RequestDelay time.Duration
}

// Engine はシフト同期エンジン。
// ウィンドウ内の各日について 取得→抽出→UPSERT/削除 を順に実行する。
// 日ごとの書き込みは独立にコミットされ、パス途中の失敗が他の日を壊すことはない。
type Engine struct {
	fetcher   SourceFetcher
	extractor TextExtractor
	sanitizer TextSanitizer
	shiftRepo repository.ShiftRepository
	metrics   SyncMetrics
	logger    *slog.Logger
	limiter   *rate.Limiter
	cfg       Config
}

// NewEngine はEngineの新しいインスタンスを生成する。
// リクエスト間隔はrate.Limiterで制御し、並列にパスが走っても
// 外部サイトへの送信レートが合計でRequestDelayあたり1件を超えないようにする。
func NewEngine(
	fetcher SourceFetcher,
	extractor TextExtractor,
	sanitizer TextSanitizer,
	shiftRepo repository.ShiftRepository,
	metrics SyncMetrics,
	logger *slog.Logger,
	cfg Config,
) *Engine {
	if cfg.WindowDays <= 0 {
		cfg.WindowDays = DefaultWindowDays
	}
	if cfg.RequestDelay <= 0 {
		cfg.RequestDelay = 2 * time.Second
	}
	return &Engine{
		fetcher:   fetcher,
		extractor: extractor,
		sanitizer: sanitizer,
		shiftRepo: shiftRepo,
		metrics:   metrics,
		logger:    logger,
		limiter:   rate.NewLimiter(rate.Every(cfg.RequestDelay), 1),
		cfg:       cfg,
	}
}

// Synchronize は今日から始まるウィンドウを1パス同期し、出勤と判定された日数を返す。
//
// 日ごとの動作:
//   - 取得失敗（FetchError）: ストアを変更せず次の日へ。既存レコードは前回値のまま凍結される。
//   - Present: シフトをUPSERTし、出勤日数に数える。
//   - Absent: 該当キーのシフトを削除する（存在しなければ何もしない冪等削除）。
//
// ストア書き込みの失敗はその日の書き込みのみを中断し、残りの日は処理を続行する。
// ウィンドウ完了後、最初のストアエラーをパスのエラーとして返す（再実行の判断は呼び出し元）。
// 同一スナップショットに対して繰り返し呼んでも格納結果は変化しない（冪等）。
func (e *Engine) Synchronize(ctx context.Context, worker *model.Worker) (int, error) {
	start := time.Now()
	today := dateOf(time.Now())

	var present int
	var firstStoreErr error

	for i := 0; i < e.cfg.WindowDays; i++ {
		date := today.AddDate(0, 0, i)

		// 外部サイトへの負荷を抑えるためのリクエスト間隔制御。
		// コンテキストキャンセル時は日の境界で中断し、処理済みの日の書き込みはそのまま残る。
		if err := e.limiter.Wait(ctx); err != nil {
			e.metrics.RecordSyncPass(false)
			return present, err
		}

		fetchStart := time.Now()
		rawText, err := e.fetcher.Fetch(ctx, date)
		e.metrics.RecordFetchLatency(time.Since(fetchStart))
		if err != nil {
			var fetchErr *model.FetchError
			status := 0
			if errors.As(err, &fetchErr) {
				status = fetchErr.Status
			}
			e.logger.Warn("ページ取得に失敗したためこの日をスキップします",
				slog.String("worker_id", worker.ID),
				slog.String("date", date.Format("2006-01-02")),
				slog.Int("http_status", status),
				slog.String("error", err.Error()),
			)
			e.metrics.RecordFetchFailure()
			continue
		}

		obs := e.extractor.Extract(rawText, worker.DisplayName)
		e.metrics.RecordObservation(string(obs.Kind))

		switch obs.Kind {
		case model.ObservationPresent:
			present++
			if err := e.upsertShift(ctx, worker, date, obs.ShiftTime); err != nil {
				e.logger.Error("シフトのUPSERTに失敗しました",
					slog.String("worker_id", worker.ID),
					slog.String("date", date.Format("2006-01-02")),
					slog.String("error", err.Error()),
				)
				if firstStoreErr == nil {
					firstStoreErr = err
				}
				continue
			}
			e.metrics.RecordShiftUpserted()

		case model.ObservationAbsent:
			if err := e.shiftRepo.Delete(ctx, worker.ID, date); err != nil {
				e.logger.Error("シフトの削除に失敗しました",
					slog.String("worker_id", worker.ID),
					slog.String("date", date.Format("2006-01-02")),
					slog.String("error", err.Error()),
				)
				if firstStoreErr == nil {
					firstStoreErr = err
				}
				continue
			}
			e.metrics.RecordShiftDeleted()
		}
	}

	e.metrics.RecordSyncPass(firstStoreErr == nil)
	e.logger.Info("同期パスが完了しました",
		slog.String("worker_id", worker.ID),
		slog.Int("window_days", e.cfg.WindowDays),
		slog.Int("present_days", present),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)

	return present, firstStoreErr
}

// upsertShift は1日分のシフトをストアへUPSERTする。
// 抽出テキストはサニタイズし、空になった場合は時間未定として保存する。
func (e *Engine) upsertShift(ctx context.Context, worker *model.Worker, date time.Time, shiftTime string) error {
	cleaned := e.sanitizer.Sanitize(shiftTime)
	if cleaned == "" {
		cleaned = model.ShiftTimeUnknown
	}

	now := time.Now()
	return e.shiftRepo.Upsert(ctx, &model.Shift{
		ID:         uuid.New().String(),
		WorkerID:   worker.ID,
		Date:       date,
		LocationID: worker.LocationID,
		Status:     model.ShiftStatusConfirmed,
		ShiftTime:  cleaned,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
}

// dateOf は時刻部分を切り落として日付に正規化する。
func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
