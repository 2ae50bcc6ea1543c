package extract

import "regexp"

// TimePattern は時間帯抽出の1パターンを表す。
// Reのマッチ全体がそのままシフト時間テキストとして採用される。
type TimePattern struct {
	Name string
	Re   *regexp.Regexp
}

// timeSep は時間帯の区切り文字クラス。波ダッシュ・全角チルダ・各種ハイフンを許容する。
const timeSep = `[〜～~\-−]`

// clock は時刻表記。夜のシフトでは 24:00 以降の表記（25:00 など）が使われるため
// 時の上限は 29 まで許容する。
const clock = `[0-2]?[0-9]:[0-5][0-9]`

// DefaultPatterns は既定の時間帯パターンテーブルを返す。
// 先頭から順に評価され、最初にマッチしたパターンが採用される。
// ソース側の表記ゆれに追従する場合はこのテーブルを差し替える。
func DefaultPatterns() []TimePattern {
	return []TimePattern{
		{
			// 例: "20:00〜翌1:00" （日またぎマーカー付き）
			Name: "range_next_day",
			Re:   regexp.MustCompile(clock + `\s*` + timeSep + `\s*翌\s*` + clock),
		},
		{
			// 例: "19:00〜LAST" "19:00〜ラスト" （閉店まで）
			Name: "range_last",
			Re:   regexp.MustCompile(`(?i)` + clock + `\s*` + timeSep + `\s*(?:LAST|ＬＡＳＴ|ﾗｽﾄ|ラスト|らすと)`),
		},
		{
			// 例: "19:00〜24:00"
			Name: "range",
			Re:   regexp.MustCompile(clock + `\s*` + timeSep + `\s*` + clock),
		},
	}
}
