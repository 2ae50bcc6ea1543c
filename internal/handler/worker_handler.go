package handler

import (
	"net/http"

	"github.com/hitoshi/shiftman/internal/model"
)

// WorkerHandler はキャストマスターデータ閲覧のHTTPハンドラー。
type WorkerHandler struct {
	workers WorkerReaderInterface
}

// NewWorkerHandler はWorkerHandlerを生成する。
func NewWorkerHandler(workers WorkerReaderInterface) *WorkerHandler {
	return &WorkerHandler{workers: workers}
}

// workerResponse はキャスト情報のAPIレスポンス。
type workerResponse struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	LocationID  string `json:"location_id"`
}

// workerListResponse はキャスト一覧のAPIレスポンス。
type workerListResponse struct {
	Workers []workerResponse `json:"workers"`
}

// ListWorkers は全キャストの一覧を返す。
// GET /api/workers
func (h *WorkerHandler) ListWorkers(w http.ResponseWriter, r *http.Request) {
	workers, err := h.workers.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := workerListResponse{Workers: make([]workerResponse, len(workers))}
	for i, worker := range workers {
		resp.Workers[i] = toWorkerResponse(worker)
	}

	writeJSONResponse(w, http.StatusOK, resp)
}

// toWorkerResponse はmodel.WorkerからAPIレスポンスに変換する。
func toWorkerResponse(worker *model.Worker) workerResponse {
	return workerResponse{
		ID:          worker.ID,
		DisplayName: worker.DisplayName,
		LocationID:  worker.LocationID,
	}
}
