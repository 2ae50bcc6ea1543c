package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/shiftman/internal/model"
)

// dateLayout はクエリパラメータの日付形式。
const dateLayout = "2006-01-02"

// maxRangeDays は1回のクエリで取得できる最大日数。
const maxRangeDays = 92

// ShiftReaderInterface はシフト一覧ハンドラーが必要とする読み取りインターフェース。
type ShiftReaderInterface interface {
	// ListByWorkerAndRange は指定期間（両端含む）のシフトをshift_date昇順で取得する。
	ListByWorkerAndRange(ctx context.Context, workerID string, from, to time.Time) ([]*model.Shift, error)
}

// ShiftHandler はシフト閲覧のHTTPハンドラー。
type ShiftHandler struct {
	workers WorkerReaderInterface
	shifts  ShiftReaderInterface
}

// NewShiftHandler はShiftHandlerを生成する。
func NewShiftHandler(workers WorkerReaderInterface, shifts ShiftReaderInterface) *ShiftHandler {
	return &ShiftHandler{
		workers: workers,
		shifts:  shifts,
	}
}

// shiftResponse はシフト情報のAPIレスポンス。
type shiftResponse struct {
	ID         string `json:"id"`
	WorkerID   string `json:"worker_id"`
	Date       string `json:"date"`
	LocationID string `json:"location_id"`
	Status     string `json:"status"`
	ShiftTime  string `json:"shift_time"`
}

// shiftListResponse はシフト一覧のAPIレスポンス。
type shiftListResponse struct {
	Shifts []shiftResponse `json:"shifts"`
}

// ListShifts は指定キャストの期間内シフト一覧を返す。
// GET /api/workers/:workerID/shifts?from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *ShiftHandler) ListShifts(w http.ResponseWriter, r *http.Request) {
	workerID := chi.URLParam(r, "workerID")

	from, to, apiErr := parseDateRange(r)
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	worker, err := h.workers.FindByID(r.Context(), workerID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if worker == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewWorkerNotFoundError(workerID))
		return
	}

	shifts, err := h.shifts.ListByWorkerAndRange(r.Context(), workerID, from, to)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := shiftListResponse{Shifts: make([]shiftResponse, len(shifts))}
	for i, s := range shifts {
		resp.Shifts[i] = toShiftResponse(s)
	}

	writeJSONResponse(w, http.StatusOK, resp)
}

// parseDateRange はfrom/toクエリパラメータを検証して日付範囲を返す。
// fromが省略された場合は当日、toが省略された場合はfromと同日を使う。
func parseDateRange(r *http.Request) (from, to time.Time, apiErr *model.APIError) {
	now := time.Now()
	from = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	if v := r.URL.Query().Get("from"); v != "" {
		parsed, err := time.Parse(dateLayout, v)
		if err != nil {
			return time.Time{}, time.Time{}, model.NewInvalidDateRangeError("from の形式が不正です")
		}
		from = parsed
	}

	to = from
	if v := r.URL.Query().Get("to"); v != "" {
		parsed, err := time.Parse(dateLayout, v)
		if err != nil {
			return time.Time{}, time.Time{}, model.NewInvalidDateRangeError("to の形式が不正です")
		}
		to = parsed
	}

	if to.Before(from) {
		return time.Time{}, time.Time{}, model.NewInvalidDateRangeError("to が from より前です")
	}
	if int(to.Sub(from).Hours()/24) >= maxRangeDays {
		return time.Time{}, time.Time{}, model.NewInvalidDateRangeError("期間が長すぎます")
	}

	return from, to, nil
}

// toShiftResponse はmodel.ShiftからAPIレスポンスに変換する。
func toShiftResponse(s *model.Shift) shiftResponse {
	return shiftResponse{
		ID:         s.ID,
		WorkerID:   s.WorkerID,
		Date:       s.Date.Format(dateLayout),
		LocationID: s.LocationID,
		Status:     string(s.Status),
		ShiftTime:  s.ShiftTime,
	}
}
