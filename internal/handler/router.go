package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/shiftman/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	HTTPMetrics       middleware.HTTPMetrics
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter

	// ドメイン
	WorkerReader WorkerReaderInterface
	ShiftReader  ShiftReaderInterface
	SyncService  SyncServiceInterface

	// 運用系
	DB             DBPinger
	MetricsHandler http.Handler
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Logging → RateLimit(General)
//
// 運用系ルート（/healthz、/metrics）はレート制限の外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewLoggingMiddleware(deps.Logger, deps.HTTPMetrics))

	syncHandler := NewSyncHandler(deps.WorkerReader, deps.SyncService)
	shiftHandler := NewShiftHandler(deps.WorkerReader, deps.ShiftReader)
	workerHandler := NewWorkerHandler(deps.WorkerReader)

	// --- 運用系ルート ---

	r.Get("/healthz", NewHealthHandler(deps.DB))
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	// --- APIルート ---
	// ミドルウェアスタック: RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Route("/api/workers", func(r chi.Router) {
			r.Get("/", workerHandler.ListWorkers)

			r.Route("/{workerID}", func(r chi.Router) {
				// POST /api/workers/:workerID/sync - 同期トリガー（専用レート制限を追加）
				r.With(deps.RateLimiter.SyncMiddleware()).Post("/sync", syncHandler.Sync)

				// GET /api/workers/:workerID/shifts - シフト一覧
				r.Get("/shifts", shiftHandler.ListShifts)
			})
		})
	})

	return r
}
