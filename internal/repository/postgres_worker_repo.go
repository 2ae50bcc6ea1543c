package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/shiftman/internal/model"
)

// PostgresWorkerRepo はPostgreSQLを使用したキャストリポジトリ。
type PostgresWorkerRepo struct {
	db *sql.DB
}

// NewPostgresWorkerRepo はPostgresWorkerRepoを生成する。
func NewPostgresWorkerRepo(db *sql.DB) *PostgresWorkerRepo {
	return &PostgresWorkerRepo{db: db}
}

// FindByID は指定IDのキャストを取得する。見つからない場合はnilを返す。
func (r *PostgresWorkerRepo) FindByID(ctx context.Context, id string) (*model.Worker, error) {
	worker := &model.Worker{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, display_name, location_id, created_at, updated_at
		 FROM workers
		 WHERE id = $1`,
		id,
	).Scan(&worker.ID, &worker.DisplayName, &worker.LocationID, &worker.CreatedAt, &worker.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("キャストの取得に失敗しました: %w", err)
	}
	return worker, nil
}

// List は全キャストをID昇順で取得する。
func (r *PostgresWorkerRepo) List(ctx context.Context) ([]*model.Worker, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, display_name, location_id, created_at, updated_at
		 FROM workers
		 ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("キャスト一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var workers []*model.Worker
	for rows.Next() {
		worker := &model.Worker{}
		if err := rows.Scan(&worker.ID, &worker.DisplayName, &worker.LocationID, &worker.CreatedAt, &worker.UpdatedAt); err != nil {
			return nil, fmt.Errorf("キャスト行の読み取りに失敗しました: %w", err)
		}
		workers = append(workers, worker)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("キャスト一覧の走査に失敗しました: %w", err)
	}

	return workers, nil
}

// compile-time interface check
var _ WorkerRepository = (*PostgresWorkerRepo)(nil)
