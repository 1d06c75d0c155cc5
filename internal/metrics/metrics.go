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
// ミドルウェアやサービス層から利用する。
type MetricsCollector interface {
	RecordSignup()
	RecordSigninSuccess()
	RecordSigninFailure()
	RecordTokenRejected(reason string)
	RecordOwnershipDenied()
	RecordHTTPStatus(statusCode int)
	RecordRequestLatency(duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	signups         prometheus.Counter
	signinSuccess   prometheus.Counter
	signinFail      prometheus.Counter
	tokenRejected   *prometheus.CounterVec
	ownershipDenied prometheus.Counter
	httpStatus      *prometheus.CounterVec
	requestLatency  prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		signups: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "taskman_signup_total",
			Help: "ユーザー登録成功の合計数",
		}),
		signinSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "taskman_signin_success_total",
			Help: "ログイン成功の合計数",
		}),
		signinFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "taskman_signin_fail_total",
			Help: "ログイン失敗の合計数",
		}),
		tokenRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskman_token_rejected_total",
			Help: "拒否されたトークンの理由別合計数",
		}, []string{"reason"}),
		ownershipDenied: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "taskman_ownership_denied_total",
			Help: "所有権不一致で拒否されたリクエストの合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskman_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "taskman_request_latency_seconds",
			Help:    "リクエスト処理のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.signups,
		c.signinSuccess,
		c.signinFail,
		c.tokenRejected,
		c.ownershipDenied,
		c.httpStatus,
		c.requestLatency,
	)

	return c
}

// RecordSignup はユーザー登録成功を記録する。
func (c *Collector) RecordSignup() {
	c.signups.Inc()
}

// RecordSigninSuccess はログイン成功を記録する。
func (c *Collector) RecordSigninSuccess() {
	c.signinSuccess.Inc()
}

// RecordSigninFailure はログイン失敗を記録する。
func (c *Collector) RecordSigninFailure() {
	c.signinFail.Inc()
}

// RecordTokenRejected はトークン拒否を理由付きで記録する。
func (c *Collector) RecordTokenRejected(reason string) {
	c.tokenRejected.WithLabelValues(reason).Inc()
}

// RecordOwnershipDenied は所有権不一致による拒否を記録する。
func (c *Collector) RecordOwnershipDenied() {
	c.ownershipDenied.Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestLatency はリクエスト処理のレイテンシを記録する。
func (c *Collector) RecordRequestLatency(duration time.Duration) {
	c.requestLatency.Observe(duration.Seconds())
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
