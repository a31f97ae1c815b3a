// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// スケジューラやサービス層から利用する。
type MetricsCollector interface {
	RecordSyncPass()
	RecordSyncPassSkipped()
	RecordFetchSuccess(channelID string)
	RecordFetchFailure(channelID string)
	RecordFetchFallback(channelID string)
	RecordSyncLatency(duration time.Duration)
	RecordVideosInserted(count int)
	RecordEventsCreated(count int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	syncPasses     prometheus.Counter
	syncSkipped    prometheus.Counter
	fetchSuccess   *prometheus.CounterVec
	fetchFail      *prometheus.CounterVec
	fetchFallback  *prometheus.CounterVec
	syncLatency    prometheus.Histogram
	videosInserted prometheus.Counter
	eventsCreated  prometheus.Counter
}

var _ MetricsCollector = (*Collector)(nil)

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		syncPasses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gamecal_sync_passes_total",
			Help: "実行された同期パスの合計数",
		}),
		syncSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gamecal_sync_passes_skipped_total",
			Help: "前回パス実行中のためスキップされた同期パスの合計数",
		}),
		fetchSuccess: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gamecal_fetch_success_total",
			Help: "チャンネル別のフェッチ成功の合計数",
		}, []string{"channel_id"}),
		fetchFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gamecal_fetch_fail_total",
			Help: "チャンネル別のフェッチ失敗（両経路とも失敗）の合計数",
		}, []string{"channel_id"}),
		fetchFallback: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gamecal_fetch_fallback_total",
			Help: "チャンネル別のRSSが利用できずHTMLフォールバックに切り替えた回数",
		}, []string{"channel_id"}),
		syncLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "gamecal_channel_sync_latency_seconds",
			Help:    "チャンネル同期のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		videosInserted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gamecal_videos_inserted_total",
			Help: "新規挿入された動画の合計数",
		}),
		eventsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gamecal_events_created_total",
			Help: "新規作成されたイベントの合計数",
		}),
	}

	reg.MustRegister(
		c.syncPasses,
		c.syncSkipped,
		c.fetchSuccess,
		c.fetchFail,
		c.fetchFallback,
		c.syncLatency,
		c.videosInserted,
		c.eventsCreated,
	)

	return c
}

// RecordSyncPass は同期パスの実行を記録する。
func (c *Collector) RecordSyncPass() {
	c.syncPasses.Inc()
}

// RecordSyncPassSkipped はスキップされた同期パスを記録する。
func (c *Collector) RecordSyncPassSkipped() {
	c.syncSkipped.Inc()
}

// RecordFetchSuccess はチャンネルフェッチ成功を記録する。
func (c *Collector) RecordFetchSuccess(channelID string) {
	c.fetchSuccess.WithLabelValues(channelID).Inc()
}

// RecordFetchFailure はチャンネルフェッチ失敗を記録する。
func (c *Collector) RecordFetchFailure(channelID string) {
	c.fetchFail.WithLabelValues(channelID).Inc()
}

// RecordFetchFallback はHTMLフォールバックへの切り替えを記録する。
func (c *Collector) RecordFetchFallback(channelID string) {
	c.fetchFallback.WithLabelValues(channelID).Inc()
}

// RecordSyncLatency はチャンネル同期のレイテンシを記録する。
func (c *Collector) RecordSyncLatency(duration time.Duration) {
	c.syncLatency.Observe(duration.Seconds())
}

// RecordVideosInserted は新規挿入された動画数を記録する。
func (c *Collector) RecordVideosInserted(count int) {
	c.videosInserted.Add(float64(count))
}

// RecordEventsCreated は新規作成されたイベント数を記録する。
func (c *Collector) RecordEventsCreated(count int) {
	c.eventsCreated.Add(float64(count))
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
