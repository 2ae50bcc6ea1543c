// Package handler はHTTP APIのハンドラーを提供する。
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/shiftman/internal/model"
)

// WorkerReaderInterface は同期・一覧ハンドラーが必要とするキャスト読み取りインターフェース。
type WorkerReaderInterface interface {
	// FindByID は指定IDのキャストを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Worker, error)
	// List は全キャストをID昇順で取得する。
	List(ctx context.Context) ([]*model.Worker, error)
}

// SyncServiceInterface は同期ハンドラーが必要とする同期エンジンインターフェース。
type SyncServiceInterface interface {
	// Synchronize は1人のキャストについて同期ウィンドウ全体を1パス実行し、
	// 出勤が確認された日数を返す。
	Synchronize(ctx context.Context, worker *model.Worker) (int, error)
}

// SyncHandler は同期トリガーのHTTPハンドラー。
type SyncHandler struct {
	workers WorkerReaderInterface
	syncer  SyncServiceInterface
}

// NewSyncHandler はSyncHandlerを生成する。
func NewSyncHandler(workers WorkerReaderInterface, syncer SyncServiceInterface) *SyncHandler {
	return &SyncHandler{
		workers: workers,
		syncer:  syncer,
	}
}

// syncResponse は同期実行結果のAPIレスポンス。
type syncResponse struct {
	Count int `json:"count"`
}

// apiErrorResponse は統一エラーフォーマットのレスポンス。
type apiErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// Sync は指定キャストの同期を1パス実行する。
// POST /api/workers/:workerID/sync
func (h *SyncHandler) Sync(w http.ResponseWriter, r *http.Request) {
	workerID := chi.URLParam(r, "workerID")

	worker, err := h.workers.FindByID(r.Context(), workerID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if worker == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewWorkerNotFoundError(workerID))
		return
	}

	count, err := h.syncer.Synchronize(r.Context(), worker)
	if err != nil {
		slog.Error("sync pass failed",
			slog.String("worker_id", workerID),
			slog.String("error", err.Error()),
		)
		writeAPIErrorResponse(w, http.StatusInternalServerError, model.NewSyncFailedError())
		return
	}

	writeJSONResponse(w, http.StatusOK, syncResponse{Count: count})
}

// --- ヘルパー関数 ---

// writeJSONResponse はJSONレスポンスを書き込む。
func writeJSONResponse(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	writeJSONResponse(w, statusCode, apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		writeAPIErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeWorkerNotFound:
		return http.StatusNotFound
	case model.ErrCodeInvalidDateRange:
		return http.StatusBadRequest
	case model.ErrCodeSyncFailed:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
