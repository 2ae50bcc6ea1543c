package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hitoshi/shiftman/internal/model"
)

// plainClientProvider はテスト用のClientProvider。
// httptestサーバーはループバック宛になるため、SSRF防止なしの素のクライアントを返す。
type plainClientProvider struct{}

func (p *plainClientProvider) NewSafeClient(timeout time.Duration, _ int64) *http.Client {
	return &http.Client{Timeout: timeout}
}

func newTestFetcher(baseURL string) *Fetcher {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	return NewFetcher(Config{
		BaseURL:     baseURL,
		Timeout:     5 * time.Second,
		MaxBodySize: 1024 * 1024,
	}, &plainClientProvider{}, logger)
}

func TestFetch_Success_ReturnsBodyAndSendsDateParam(t *testing.T) {
	var gotDate string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotDate = r.URL.Query().Get("date")
		fmt.Fprint(w, "<html><body>ユキちゃん 19:00〜24:00</body></html>")
	}))
	defer server.Close()

	f := newTestFetcher(server.URL)
	text, err := f.Fetch(context.Background(), time.Date(2025, 7, 1, 0, 0, 0, 0, time.Local))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if gotDate != "20250701" {
		t.Errorf("date param = %q, want %q", gotDate, "20250701")
	}
	if text != "<html><body>ユキちゃん 19:00〜24:00</body></html>" {
		t.Errorf("unexpected body: %q", text)
	}
}

func TestFetch_CustomDateParamAndFormat(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("ymd")
		fmt.Fprint(w, "ok")
	}))
	defer server.Close()

	var buf bytes.Buffer
	f := NewFetcher(Config{
		BaseURL:     server.URL,
		DateParam:   "ymd",
		DateFormat:  "2006-01-02",
		Timeout:     5 * time.Second,
		MaxBodySize: 1024,
	}, &plainClientProvider{}, slog.New(slog.NewJSONHandler(&buf, nil)))

	if _, err := f.Fetch(context.Background(), time.Date(2025, 7, 1, 0, 0, 0, 0, time.Local)); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if gotQuery != "2025-07-01" {
		t.Errorf("date param = %q, want %q", gotQuery, "2025-07-01")
	}
}

func TestFetch_NonSuccessStatus_ReturnsFetchError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	f := newTestFetcher(server.URL)
	_, err := f.Fetch(context.Background(), time.Now())

	var fetchErr *model.FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected *model.FetchError, got %T: %v", err, err)
	}
	if fetchErr.Status != http.StatusServiceUnavailable {
		t.Errorf("Status = %d, want %d", fetchErr.Status, http.StatusServiceUnavailable)
	}
}

func TestFetch_TransportError_ReturnsFetchError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // 即座に閉じて接続エラーを誘発する

	f := newTestFetcher(server.URL)
	_, err := f.Fetch(context.Background(), time.Now())

	var fetchErr *model.FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected *model.FetchError, got %T: %v", err, err)
	}
	if fetchErr.Err == nil {
		t.Error("トランスポートエラーは原因エラーを保持するはず")
	}
}

func TestFetch_Timeout_ReturnsFetchError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	var buf bytes.Buffer
	f := NewFetcher(Config{
		BaseURL:     server.URL,
		Timeout:     20 * time.Millisecond,
		MaxBodySize: 1024,
	}, &plainClientProvider{}, slog.New(slog.NewJSONHandler(&buf, nil)))

	_, err := f.Fetch(context.Background(), time.Now())

	var fetchErr *model.FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("タイムアウトもFetchErrorに分類されるはず: %T %v", err, err)
	}
}

func TestFetch_BodyLimitedToMaxSize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for i := 0; i < 1000; i++ {
			fmt.Fprint(w, "0123456789")
		}
	}))
	defer server.Close()

	var buf bytes.Buffer
	f := NewFetcher(Config{
		BaseURL:     server.URL,
		Timeout:     5 * time.Second,
		MaxBodySize: 100,
	}, &plainClientProvider{}, slog.New(slog.NewJSONHandler(&buf, nil)))

	text, err := f.Fetch(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(text) != 100 {
		t.Errorf("body length = %d, want %d", len(text), 100)
	}
}

func TestFetch_InvalidUTF8BytesAreDropped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 宣言ヘッダーと無関係に不正バイトを混ぜる
		w.Header().Set("Content-Type", "text/html; charset=shift_jis")
		w.Write([]byte("ユキちゃん\xff\xfe 19:00〜24:00"))
	}))
	defer server.Close()

	f := newTestFetcher(server.URL)
	text, err := f.Fetch(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	for _, r := range text {
		if r == '�' {
			t.Errorf("不正UTF-8は置換文字ではなく除去されるはず: %q", text)
		}
	}
}
