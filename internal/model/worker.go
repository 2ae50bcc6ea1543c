// Package model はドメインモデルを定義する。
package model

import "time"

// Worker は店舗に所属するキャスト（シフト同期の対象者）を表す。
// マスターデータは外部のスプレッドシートインポート処理が管理しており、
// 本システムは読み取り専用の上流フィードとして扱う。
type Worker struct {
	ID          string
	DisplayName string // 外部スケジュールサイト上の表示名。照合キーとして使用する
	LocationID  string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
