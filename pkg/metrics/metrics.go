package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const prefix = "cropcare"

var (
	// HTTP请求
	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HttpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// 邀请码兑换结果，outcome 取 success / idempotent / 错误类别
	RedemptionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_redemptions_total",
			Help: "Invitation code redemption attempts by outcome",
		},
		[]string{"outcome"},
	)

	RedemptionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    prefix + "_redemption_duration_seconds",
			Help:    "Duration of the redemption transaction in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	CodesCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_invitation_codes_created_total",
			Help: "Total number of invitation codes created",
		},
	)

	// 邀请码状态分布，由定时任务刷新
	InvitationCodesGauge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: prefix + "_invitation_codes",
			Help: "Invitation codes by state",
		},
		[]string{"state"},
	)

	RateLimitedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		},
		[]string{"path"},
	)
)

// RecordRedemption 记录一次兑换结果和耗时
func RecordRedemption(outcome string, startTime time.Time) {
	RedemptionsTotal.WithLabelValues(outcome).Inc()
	RedemptionDuration.Observe(time.Since(startTime).Seconds())
}

// SetCodeStates 覆盖邀请码状态分布
func SetCodeStates(states map[string]int64) {
	for state, n := range states {
		InvitationCodesGauge.WithLabelValues(state).Set(float64(n))
	}
}
