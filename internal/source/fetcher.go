// Package source は外部スケジュールサイトからのページ取得を提供する。
// サイトはシステムの管理外にあり、日単位の安定性すら保証されないため、
// 取得失敗はすべて *model.FetchError に分類して呼び出し元に委ねる。
package source

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hitoshi/shiftman/internal/model"
)

// Config はフェッチャーの設定を保持する。
type Config struct {
	BaseURL     string        // スケジュールページのベースURL
	DateParam   string        // 日付クエリパラメータ名（例: "date"）
	DateFormat  string        // 日付のtime.Formatレイアウト（例: "20060102"）
	Timeout     time.Duration // 1リクエストのタイムアウト
	MaxBodySize int64         // レスポンスボディの最大読み取りサイズ
}

// ClientProvider は送信用HTTPクライアント生成のインターフェース。
// security.SafeClientServiceを抽象化してテスタビリティを向上させる。
type ClientProvider interface {
	NewSafeClient(timeout time.Duration, maxResponseSize int64) *http.Client
}

// Fetcher は日付をキーに外部スケジュールページを取得する。
// 1回の呼び出しで1回の送信リクエストを行い、リトライはしない
// （パスをまたいだリトライは呼び出し元の責務）。
type Fetcher struct {
	cfg    Config
	client *http.Client
	logger *slog.Logger
}

// NewFetcher はFetcherの新しいインスタンスを生成する。
func NewFetcher(cfg Config, clients ClientProvider, logger *slog.Logger) *Fetcher {
	if cfg.DateParam == "" {
		cfg.DateParam = "date"
	}
	if cfg.DateFormat == "" {
		cfg.DateFormat = "20060102"
	}
	return &Fetcher{
		cfg:    cfg,
		client: clients.NewSafeClient(cfg.Timeout, cfg.MaxBodySize),
		logger: logger,
	}
}

// Fetch は指定日のスケジュールページを取得し、本文テキストを返す。
// トランスポートエラー、タイムアウト、非2xxステータスはすべて *model.FetchError として返す。
// ソースの文字コード宣言は日によって一貫しないため、宣言ヘッダーに関わらず
// 本文は常にUTF-8として解釈する。
func (f *Fetcher) Fetch(ctx context.Context, date time.Time) (string, error) {
	reqURL, err := f.buildURL(date)
	if err != nil {
		return "", &model.FetchError{URL: f.cfg.BaseURL, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", &model.FetchError{URL: reqURL, Err: err}
	}
	req.Header.Set("User-Agent", "Shiftman/1.0 Schedule Sync")

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.Warn("スケジュールページのリクエストに失敗しました",
			slog.String("url", reqURL),
			slog.String("error", err.Error()),
		)
		return "", &model.FetchError{URL: reqURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		f.logger.Warn("スケジュールページが非成功ステータスを返しました",
			slog.String("url", reqURL),
			slog.Int("http_status", resp.StatusCode),
		)
		return "", &model.FetchError{URL: reqURL, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.cfg.MaxBodySize))
	if err != nil {
		return "", &model.FetchError{URL: reqURL, Err: err}
	}

	f.logger.Info("スケジュールページを取得しました",
		slog.String("url", reqURL),
		slog.Int("body_bytes", len(body)),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)

	// 壊れたバイト列が混ざっていても後段のテキスト照合が動くよう、不正なUTF-8は落とす
	return strings.ToValidUTF8(string(body), ""), nil
}

// buildURL はベースURLに日付クエリパラメータを付与したリクエストURLを構築する。
func (f *Fetcher) buildURL(date time.Time) (string, error) {
	u, err := url.Parse(f.cfg.BaseURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set(f.cfg.DateParam, date.Format(f.cfg.DateFormat))
	u.RawQuery = q.Encode()
	return u.String(), nil
}
