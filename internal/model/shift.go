// Package model はドメインモデルを定義する。
package model

import "time"

const (
	// ShiftStatusConfirmed は確定済みシフトのステータス。現行スコープでは全シフトがこの値を取る。
	ShiftStatusConfirmed = "confirmed"

	// ShiftTimeUnknown は出勤は確認できたが時間帯を特定できなかった場合のシフト時間。
	// 時間抽出の失敗を欠勤と混同してはならないため、削除ではなくこの値で登録する。
	ShiftTimeUnknown = "時間未定"
)

// Shift は1キャスト・1日分の出勤予定を表す。
// (WorkerID, Date) の組につき高々1件のみ存在し、
// shiftsテーブルのUNIQUE制約とUPSERTでこの不変条件を保証する。
type Shift struct {
	ID         string
	WorkerID   string
	Date       time.Time // 日付のみ有効。時刻部分は使用しない
	LocationID string
	Status     string
	ShiftTime  string // 自由テキストの時間帯（例: "19:00〜24:00"）またはShiftTimeUnknown
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
