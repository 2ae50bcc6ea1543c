// Package model はドメインモデルを定義する。
package model

// ObservationKind は外部スケジュールの1日・1キャスト分の観測結果の種別を表す。
type ObservationKind string

const (
	// ObservationPresent は表示名がページ内に見つかった（出勤）ことを示す。
	ObservationPresent ObservationKind = "present"
	// ObservationAbsent は表示名がページ内に見つからなかった（休み）ことを示す。
	ObservationAbsent ObservationKind = "absent"
)

// Observation は外部スケジュールページの抽出結果を表す。
// 1回の同期パス内で生成・消費され、永続化されない。
// 取得失敗はObservationではなく *FetchError として呼び出し元に伝搬する。
type Observation struct {
	Kind      ObservationKind
	ShiftTime string // Presentの場合のみ有効。抽出できなかった場合はShiftTimeUnknown
}

// PresentObservation は出勤観測を生成する。
func PresentObservation(shiftTime string) Observation {
	return Observation{Kind: ObservationPresent, ShiftTime: shiftTime}
}

// AbsentObservation は休み観測を生成する。
func AbsentObservation() Observation {
	return Observation{Kind: ObservationAbsent}
}
