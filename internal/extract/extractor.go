// Package extract は外部スケジュールページのテキストから出勤情報を抽出する。
// ソースには安定した機械可読構造がないため、表示名の部分一致と
// マッチ近傍のパターン照合というヒューリスティックで抽出する。
package extract

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/hitoshi/shiftman/internal/model"
)

// ancestorLevels はマッチしたテキストノードから遡る祖先要素の最大段数。
// この範囲のサブツリーを「近傍」とみなして時間帯パターンを探す。
const ancestorLevels = 3

// fallbackWindowRunes はHTML構造から近傍を特定できなかった場合に、
// マッチ位置の前後から切り出すプレーンテキストの幅（ルーン数）。
const fallbackWindowRunes = 120

// Extractor は表示名の出勤有無と時間帯を判定する純粋関数的なコンポーネント。
// I/Oを持たず、パターンテーブルは注入により差し替え可能。
type Extractor struct {
	patterns []TimePattern
}

// NewExtractor はExtractorを生成する。patternsが空の場合はDefaultPatternsを使用する。
func NewExtractor(patterns []TimePattern) *Extractor {
	if len(patterns) == 0 {
		patterns = DefaultPatterns()
	}
	return &Extractor{patterns: patterns}
}

// Extract は生テキスト内のdisplayNameの出勤有無と時間帯を判定する。
//
// 判定手順:
//  1. 在否判定: rawTextに対するdisplayNameの大文字小文字区別ありの部分一致。
//     見つからなければAbsent。
//  2. 時間抽出: マッチしたテキストノードの近傍（最大3段の祖先サブツリー）を
//     狭い順にパターンテーブルで照合し、最初のマッチを採用する。
//  3. 名前は見つかったが時間が解決できない場合はPresent(ShiftTimeUnknown)。
//     時間抽出の失敗を欠勤と混同してはならない。
func (e *Extractor) Extract(rawText, displayName string) model.Observation {
	if displayName == "" || !strings.Contains(rawText, displayName) {
		return model.AbsentObservation()
	}

	for _, c := range e.collectContexts(rawText, displayName) {
		if t, ok := e.findTime(c); ok {
			return model.PresentObservation(t)
		}
	}

	return model.PresentObservation(model.ShiftTimeUnknown)
}

// collectContexts はdisplayNameのマッチ近傍テキストを狭い順に収集する。
// HTMLとしてパースし、マッチしたテキストノードの親→祖父→曾祖父のサブツリー
// テキストを順に返す。構造から特定できない場合に備えて、最後にプレーン
// テキスト上の固定幅ウィンドウをフォールバックとして追加する。
func (e *Extractor) collectContexts(rawText, displayName string) []string {
	var contexts []string

	// html.Parseは不正なマークアップでも失敗せず常にツリーを返す
	doc, err := html.Parse(strings.NewReader(rawText))
	if err == nil {
		var walk func(n *html.Node)
		walk = func(n *html.Node) {
			if n.Type == html.TextNode && strings.Contains(n.Data, displayName) {
				ancestor := n
				for level := 0; level < ancestorLevels && ancestor.Parent != nil; level++ {
					ancestor = ancestor.Parent
					contexts = append(contexts, nodeText(ancestor))
				}
				return
			}
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				walk(c)
			}
		}
		walk(doc)
	}

	contexts = append(contexts, textWindow(rawText, displayName))
	return contexts
}

// findTime はパターンテーブルを先頭から順に評価し、最初のマッチを返す。
func (e *Extractor) findTime(text string) (string, bool) {
	for _, p := range e.patterns {
		if m := p.Re.FindString(text); m != "" {
			return m, true
		}
	}
	return "", false
}

// nodeText はノード配下の全テキストノードを空白区切りで連結して返す。
func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

// textWindow はマッチ位置の前後fallbackWindowRunesルーンを切り出す。
func textWindow(rawText, displayName string) string {
	idx := strings.Index(rawText, displayName)
	if idx < 0 {
		return ""
	}

	runes := []rune(rawText)
	start := len([]rune(rawText[:idx]))
	end := start + len([]rune(displayName))

	lo := start - fallbackWindowRunes
	if lo < 0 {
		lo = 0
	}
	hi := end + fallbackWindowRunes
	if hi > len(runes) {
		hi = len(runes)
	}
	return string(runes[lo:hi])
}
