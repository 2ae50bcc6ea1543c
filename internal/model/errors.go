// Package model はドメインモデルを定義する。
package model

import "fmt"

// FetchError は外部スケジュールサイトからのページ取得失敗を表す。
// トランスポートエラー、タイムアウト、非2xxステータスのすべてをこの型に分類する。
// 同期エンジンはこのエラーを受けた日をスキップし、ストアを変更しない。
type FetchError struct {
	URL    string
	Status int   // HTTPステータス。トランスポートエラーの場合は0
	Err    error // 原因となったエラー。ステータス由来の場合はnil
}

// Error はerrorインターフェースを実装する。
func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("スケジュールページの取得に失敗しました: %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("スケジュールページの取得に失敗しました: %s: ステータス %d", e.URL, e.Status)
}

// Unwrap は原因エラーを返す。
func (e *FetchError) Unwrap() error {
	return e.Err
}

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: validation, sync, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeWorkerNotFound   = "WORKER_NOT_FOUND"
	ErrCodeInvalidDateRange = "INVALID_DATE_RANGE"
	ErrCodeSyncFailed       = "SYNC_FAILED"
)

// NewWorkerNotFoundError はキャスト未検出エラーを生成する。
func NewWorkerNotFoundError(workerID string) *APIError {
	return &APIError{
		Code:     ErrCodeWorkerNotFound,
		Message:  fmt.Sprintf("指定されたキャストが見つかりません: %s", workerID),
		Category: "validation",
		Action:   "キャストIDを確認してください。",
	}
}

// NewInvalidDateRangeError は無効な日付範囲エラーを生成する。
func NewInvalidDateRangeError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidDateRange,
		Message:  fmt.Sprintf("無効な日付範囲です: %s", reason),
		Category: "validation",
		Action:   "日付は YYYY-MM-DD 形式で、from が to 以前になるように指定してください。",
	}
}

// NewSyncFailedError は同期パス失敗エラーを生成する。
// 個別日の取得失敗はこのエラーに含めない（集計結果にのみ反映される）。
func NewSyncFailedError() *APIError {
	return &APIError{
		Code:     ErrCodeSyncFailed,
		Message:  "シフトの同期中に保存エラーが発生しました。",
		Category: "sync",
		Action:   "しばらく待ってから再度同期を実行してください。",
	}
}
