package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/shiftman/internal/model"
)

// PostgresShiftRepo はPostgreSQLを使用したシフトリポジトリ。
// (worker_id, shift_date) のUNIQUE制約とUPSERTにより、
// 同一キーのレコードが高々1件であることをストア側で保証する。
type PostgresShiftRepo struct {
	db *sql.DB
}

// NewPostgresShiftRepo はPostgresShiftRepoを生成する。
func NewPostgresShiftRepo(db *sql.DB) *PostgresShiftRepo {
	return &PostgresShiftRepo{db: db}
}

// FindByWorkerAndDate は (worker_id, shift_date) でシフトを取得する。見つからない場合はnilを返す。
func (r *PostgresShiftRepo) FindByWorkerAndDate(ctx context.Context, workerID string, date time.Time) (*model.Shift, error) {
	shift := &model.Shift{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, worker_id, shift_date, location_id, status, shift_time, created_at, updated_at
		 FROM shifts
		 WHERE worker_id = $1 AND shift_date = $2`,
		workerID, dateOnly(date),
	).Scan(&shift.ID, &shift.WorkerID, &shift.Date, &shift.LocationID,
		&shift.Status, &shift.ShiftTime, &shift.CreatedAt, &shift.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("シフトの取得に失敗しました: %w", err)
	}
	return shift, nil
}

// Upsert は (worker_id, shift_date) をキーにシフトを挿入または上書きする。
// 既存行がある場合はidとcreated_atを維持したまま内容のみ更新する。
func (r *PostgresShiftRepo) Upsert(ctx context.Context, shift *model.Shift) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO shifts (id, worker_id, shift_date, location_id, status, shift_time, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (worker_id, shift_date) DO UPDATE SET
		    location_id = EXCLUDED.location_id,
		    status = EXCLUDED.status,
		    shift_time = EXCLUDED.shift_time,
		    updated_at = EXCLUDED.updated_at`,
		shift.ID, shift.WorkerID, dateOnly(shift.Date), shift.LocationID,
		shift.Status, shift.ShiftTime, shift.CreatedAt, shift.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("シフトのUPSERTに失敗しました: %w", err)
	}
	return nil
}

// Delete は (worker_id, shift_date) のシフトを削除する。存在しない場合は何もしない。
func (r *PostgresShiftRepo) Delete(ctx context.Context, workerID string, date time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM shifts WHERE worker_id = $1 AND shift_date = $2`,
		workerID, dateOnly(date),
	)
	if err != nil {
		return fmt.Errorf("シフトの削除に失敗しました: %w", err)
	}
	return nil
}

// ListByWorkerAndRange は指定期間（両端含む）のシフトをshift_date昇順で取得する。
func (r *PostgresShiftRepo) ListByWorkerAndRange(ctx context.Context, workerID string, from, to time.Time) ([]*model.Shift, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, worker_id, shift_date, location_id, status, shift_time, created_at, updated_at
		 FROM shifts
		 WHERE worker_id = $1 AND shift_date BETWEEN $2 AND $3
		 ORDER BY shift_date`,
		workerID, dateOnly(from), dateOnly(to),
	)
	if err != nil {
		return nil, fmt.Errorf("シフト一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var shifts []*model.Shift
	for rows.Next() {
		shift := &model.Shift{}
		if err := rows.Scan(&shift.ID, &shift.WorkerID, &shift.Date, &shift.LocationID,
			&shift.Status, &shift.ShiftTime, &shift.CreatedAt, &shift.UpdatedAt); err != nil {
			return nil, fmt.Errorf("シフト行の読み取りに失敗しました: %w", err)
		}
		shifts = append(shifts, shift)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("シフト一覧の走査に失敗しました: %w", err)
	}

	return shifts, nil
}

// dateOnly はDATEカラム比較用に時刻部分を切り落とす。
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// compile-time interface check
var _ ShiftRepository = (*PostgresShiftRepo)(nil)
