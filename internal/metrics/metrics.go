// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ハンドラーや通知ディスパッチャーから利用する。
type MetricsCollector interface {
	RecordSignup()
	RecordLogin(success bool)
	RecordJoin()
	RecordLeave()
	RecordRating()
	RecordRenumberedPrograms(count int)
	RecordNotificationSent()
	RecordNotificationFailure()
	RecordHTTPStatus(statusCode int)
	RecordRequestLatency(duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	signups            prometheus.Counter
	logins             *prometheus.CounterVec
	joins              prometheus.Counter
	leaves             prometheus.Counter
	ratings            prometheus.Counter
	renumberedPrograms prometheus.Counter
	notificationsSent  prometheus.Counter
	notificationsFail  prometheus.Counter
	httpStatus         *prometheus.CounterVec
	requestLatency     prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		signups: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sportsreg_signups_total",
			Help: "ユーザー登録の合計数",
		}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sportsreg_logins_total",
			Help: "ログイン試行の結果別合計数",
		}, []string{"result"}),
		joins: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sportsreg_joins_total",
			Help: "プログラム参加の合計数",
		}),
		leaves: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sportsreg_leaves_total",
			Help: "プログラム参加取消の合計数",
		}),
		ratings: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sportsreg_ratings_total",
			Help: "評価登録・更新の合計数",
		}),
		renumberedPrograms: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sportsreg_renumbered_programs_total",
			Help: "ID振り直しされたプログラムの合計数",
		}),
		notificationsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sportsreg_notifications_sent_total",
			Help: "送信に成功した確認メールの合計数",
		}),
		notificationsFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sportsreg_notifications_fail_total",
			Help: "最終的に送信を断念した確認メールの合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sportsreg_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sportsreg_request_latency_seconds",
			Help:    "APIリクエストのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.signups,
		c.logins,
		c.joins,
		c.leaves,
		c.ratings,
		c.renumberedPrograms,
		c.notificationsSent,
		c.notificationsFail,
		c.httpStatus,
		c.requestLatency,
	)

	return c
}

// RecordSignup はユーザー登録を記録する。
func (c *Collector) RecordSignup() {
	c.signups.Inc()
}

// RecordLogin はログイン試行の結果を記録する。
func (c *Collector) RecordLogin(success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	c.logins.WithLabelValues(result).Inc()
}

// RecordJoin はプログラム参加を記録する。
func (c *Collector) RecordJoin() {
	c.joins.Inc()
}

// RecordLeave はプログラム参加取消を記録する。
func (c *Collector) RecordLeave() {
	c.leaves.Inc()
}

// RecordRating は評価の登録または更新を記録する。
func (c *Collector) RecordRating() {
	c.ratings.Inc()
}

// RecordRenumberedPrograms はID振り直しされたプログラム数を記録する。
func (c *Collector) RecordRenumberedPrograms(count int) {
	c.renumberedPrograms.Add(float64(count))
}

// RecordNotificationSent は確認メールの送信成功を記録する。
func (c *Collector) RecordNotificationSent() {
	c.notificationsSent.Inc()
}

// RecordNotificationFailure は確認メールの送信断念を記録する。
func (c *Collector) RecordNotificationFailure() {
	c.notificationsFail.Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestLatency はリクエストのレイテンシを記録する。
func (c *Collector) RecordRequestLatency(duration time.Duration) {
	c.requestLatency.Observe(duration.Seconds())
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}
