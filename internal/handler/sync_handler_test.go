package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/shiftman/internal/model"
)

// mockWorkerReader はWorkerReaderInterfaceのテスト用モック。
type mockWorkerReader struct {
	workers map[string]*model.Worker
	listErr error
	findErr error
}

func (m *mockWorkerReader) FindByID(_ context.Context, id string) (*model.Worker, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	return m.workers[id], nil
}

func (m *mockWorkerReader) List(_ context.Context) ([]*model.Worker, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	result := make([]*model.Worker, 0, len(m.workers))
	for _, w := range m.workers {
		result = append(result, w)
	}
	return result, nil
}

// mockSyncService はSyncServiceInterfaceのテスト用モック。
type mockSyncService struct {
	count    int
	err      error
	syncedID string
}

func (m *mockSyncService) Synchronize(_ context.Context, worker *model.Worker) (int, error) {
	m.syncedID = worker.ID
	return m.count, m.err
}

// mockShiftReader はShiftReaderInterfaceのテスト用モック。
type mockShiftReader struct {
	shifts []*model.Shift
	err    error

	gotFrom time.Time
	gotTo   time.Time
}

func (m *mockShiftReader) ListByWorkerAndRange(_ context.Context, workerID string, from, to time.Time) ([]*model.Shift, error) {
	m.gotFrom = from
	m.gotTo = to
	if m.err != nil {
		return nil, m.err
	}
	return m.shifts, nil
}

func testWorkerMap() map[string]*model.Worker {
	return map[string]*model.Worker{
		"w-1": {ID: "w-1", DisplayName: "ユキちゃん", LocationID: "loc-1"},
	}
}

// newSyncRouter はSyncHandlerをURLパラメータ付きで実行するためのルーターを組む。
func newSyncRouter(h *SyncHandler) http.Handler {
	r := chi.NewRouter()
	r.Post("/api/workers/{workerID}/sync", h.Sync)
	return r
}

func TestSync_ReturnsCount(t *testing.T) {
	syncer := &mockSyncService{count: 5}
	h := NewSyncHandler(&mockWorkerReader{workers: testWorkerMap()}, syncer)

	req := httptest.NewRequest(http.MethodPost, "/api/workers/w-1/sync", nil)
	rec := httptest.NewRecorder()
	newSyncRouter(h).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp syncResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("レスポンスの解析に失敗: %v", err)
	}
	if resp.Count != 5 {
		t.Errorf("count = %d, want 5", resp.Count)
	}
	if syncer.syncedID != "w-1" {
		t.Errorf("同期対象 = %q, want w-1", syncer.syncedID)
	}
}

func TestSync_UnknownWorkerReturns404(t *testing.T) {
	h := NewSyncHandler(&mockWorkerReader{workers: testWorkerMap()}, &mockSyncService{})

	req := httptest.NewRequest(http.MethodPost, "/api/workers/unknown/sync", nil)
	rec := httptest.NewRecorder()
	newSyncRouter(h).ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}

	var resp apiErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("レスポンスの解析に失敗: %v", err)
	}
	if resp.Code != model.ErrCodeWorkerNotFound {
		t.Errorf("code = %q, want %q", resp.Code, model.ErrCodeWorkerNotFound)
	}
}

func TestSync_StoreErrorReturns500(t *testing.T) {
	syncer := &mockSyncService{count: 2, err: errors.New("書き込み失敗")}
	h := NewSyncHandler(&mockWorkerReader{workers: testWorkerMap()}, syncer)

	req := httptest.NewRequest(http.MethodPost, "/api/workers/w-1/sync", nil)
	rec := httptest.NewRecorder()
	newSyncRouter(h).ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}

	var resp apiErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("レスポンスの解析に失敗: %v", err)
	}
	if resp.Code != model.ErrCodeSyncFailed {
		t.Errorf("code = %q, want %q", resp.Code, model.ErrCodeSyncFailed)
	}
}

func TestSync_WorkerLookupErrorReturns500(t *testing.T) {
	h := NewSyncHandler(&mockWorkerReader{findErr: errors.New("db down")}, &mockSyncService{})

	req := httptest.NewRequest(http.MethodPost, "/api/workers/w-1/sync", nil)
	rec := httptest.NewRecorder()
	newSyncRouter(h).ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}
