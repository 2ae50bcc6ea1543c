// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector は同期エンジンとHTTP層のメトリクスを収集する。
// reconcile.SyncMetricsインターフェースを実装する。
type Collector struct {
	syncPassSuccess prometheus.Counter
	syncPassFail    prometheus.Counter
	observations    *prometheus.CounterVec
	fetchFail       prometheus.Counter
	fetchLatency    prometheus.Histogram
	shiftsUpserted  prometheus.Counter
	shiftsDeleted   prometheus.Counter
	httpStatus      *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		syncPassSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shiftman_sync_pass_success_total",
			Help: "ストアエラーなしで完了した同期パスの合計数",
		}),
		syncPassFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shiftman_sync_pass_fail_total",
			Help: "ストアエラーまたはキャンセルで終了した同期パスの合計数",
		}),
		observations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shiftman_observations_total",
			Help: "観測結果種別ごとの日数",
		}, []string{"kind"}),
		fetchFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shiftman_fetch_fail_total",
			Help: "スケジュールページ取得失敗の合計数",
		}),
		fetchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "shiftman_fetch_latency_seconds",
			Help:    "スケジュールページ取得のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		shiftsUpserted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shiftman_shifts_upserted_total",
			Help: "UPSERTされたシフトの合計数",
		}),
		shiftsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shiftman_shifts_deleted_total",
			Help: "削除処理が実行されたシフトの合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shiftman_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.syncPassSuccess,
		c.syncPassFail,
		c.observations,
		c.fetchFail,
		c.fetchLatency,
		c.shiftsUpserted,
		c.shiftsDeleted,
		c.httpStatus,
	)

	return c
}

// RecordSyncPass は同期パスの成否を記録する。
func (c *Collector) RecordSyncPass(success bool) {
	if success {
		c.syncPassSuccess.Inc()
	} else {
		c.syncPassFail.Inc()
	}
}

// RecordObservation は観測結果種別（present/absent）を記録する。
func (c *Collector) RecordObservation(kind string) {
	c.observations.WithLabelValues(kind).Inc()
}

// RecordFetchFailure はページ取得失敗を記録する。
func (c *Collector) RecordFetchFailure() {
	c.fetchFail.Inc()
}

// RecordFetchLatency はページ取得のレイテンシを記録する。
func (c *Collector) RecordFetchLatency(d time.Duration) {
	c.fetchLatency.Observe(d.Seconds())
}

// RecordShiftUpserted はシフトUPSERTの成功を記録する。
func (c *Collector) RecordShiftUpserted() {
	c.shiftsUpserted.Inc()
}

// RecordShiftDeleted はシフト削除の実行を記録する。
func (c *Collector) RecordShiftDeleted() {
	c.shiftsDeleted.Inc()
}

// RecordHTTPStatus はAPIレスポンスのステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Handler は指定レジストリのメトリクスを公開するHTTPハンドラーを返す。
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
