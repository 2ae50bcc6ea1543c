// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/shiftman/internal/model"
)

// WorkerRepository はキャストマスターデータの読み取りインターフェース。
// マスターデータの書き込みは外部のインポート処理が行うため、読み取り操作のみを提供する。
type WorkerRepository interface {
	// FindByID は指定IDのキャストを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Worker, error)

	// List は全キャストをID昇順で取得する。
	List(ctx context.Context) ([]*model.Worker, error)
}

// ShiftRepository はシフトデータの永続化インターフェース。
// 同期エンジンと（スコープ外の）カレンダーUIの両方から利用される。
type ShiftRepository interface {
	// FindByWorkerAndDate は (worker_id, shift_date) でシフトを取得する。見つからない場合はnilを返す。
	FindByWorkerAndDate(ctx context.Context, workerID string, date time.Time) (*model.Shift, error)

	// Upsert は (worker_id, shift_date) をキーにシフトを挿入または上書きする。
	// 既存行がある場合はlocation_id、status、shift_time、updated_atのみを更新し、
	// idとcreated_atは維持する。
	Upsert(ctx context.Context, shift *model.Shift) error

	// Delete は (worker_id, shift_date) のシフトを削除する。存在しない場合は何もしない。
	Delete(ctx context.Context, workerID string, date time.Time) error

	// ListByWorkerAndRange は指定期間（両端含む）のシフトをshift_date昇順で取得する。
	ListByWorkerAndRange(ctx context.Context, workerID string, from, to time.Time) ([]*model.Shift, error)
}
