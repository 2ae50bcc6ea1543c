package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestSetup_WritesJSONToWriter(t *testing.T) {
	var buf bytes.Buffer
	l := Setup(&buf, slog.LevelInfo)

	l.Info("同期テスト", slog.String("worker_id", "w-1"))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("ログ出力がJSONではありません: %v", err)
	}
	if entry["msg"] != "同期テスト" {
		t.Errorf("msg = %v, want %q", entry["msg"], "同期テスト")
	}
	if entry["worker_id"] != "w-1" {
		t.Errorf("worker_id = %v, want %q", entry["worker_id"], "w-1")
	}
}

func TestSetup_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := Setup(&buf, slog.LevelWarn)

	l.Info("出力されないはずのログ")
	if buf.Len() != 0 {
		t.Errorf("Info はレベルWarnでは出力されないはず: %q", buf.String())
	}

	l.Warn("出力されるログ")
	if buf.Len() == 0 {
		t.Error("Warn はレベルWarnで出力されるはず")
	}
}

func TestSetupDefault_SetsGlobalLogger(t *testing.T) {
	var buf bytes.Buffer
	SetupDefault(&buf)

	slog.Info("グローバルロガー経由")
	if buf.Len() == 0 {
		t.Error("グローバルロガーがwriterに出力していない")
	}
}
