package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsCollector 指标收集器
type MetricsCollector struct {
	// HTTP 指标
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Payme 回调指标
	callbackTotal    *prometheus.CounterVec
	callbackDuration *prometheus.HistogramVec

	// 余额变动指标
	balanceCreditsTotal prometheus.Counter
	balanceDebitsTotal  prometheus.Counter
}

var (
	globalCollector *MetricsCollector
	once            sync.Once
)

// GetGlobalCollector 获取全局指标收集器
func GetGlobalCollector() *MetricsCollector {
	once.Do(func() {
		globalCollector = NewMetricsCollector()
	})
	return globalCollector
}

// NewMetricsCollector 创建指标收集器
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		httpRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),

		httpRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		callbackTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payme_callback_total",
				Help: "Total number of Payme merchant API callbacks by method and result code",
			},
			[]string{"rpc_method", "code"},
		),

		callbackDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "payme_callback_duration_seconds",
				Help:    "Payme callback handling duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"rpc_method"},
		),

		balanceCreditsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "balance_credits_total",
				Help: "Total pricing credits granted to users",
			},
		),

		balanceDebitsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "balance_debits_total",
				Help: "Total pricing credits clawed back on cancel-after-complete",
			},
		),
	}
}

// RecordHTTPRequest 记录 HTTP 请求指标
func (m *MetricsCollector) RecordHTTPRequest(method, endpoint string, status int, duration time.Duration) {
	m.httpRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordCallback 记录 Payme 回调指标
// code 为 0 表示业务成功，否则为协议错误码
func (m *MetricsCollector) RecordCallback(rpcMethod string, code int, duration time.Duration) {
	m.callbackTotal.WithLabelValues(rpcMethod, strconv.Itoa(code)).Inc()
	m.callbackDuration.WithLabelValues(rpcMethod).Observe(duration.Seconds())
}

// RecordCredit 记录余额充值
func (m *MetricsCollector) RecordCredit(count int) {
	m.balanceCreditsTotal.Add(float64(count))
}

// RecordDebit 记录余额回收
func (m *MetricsCollector) RecordDebit(count int) {
	m.balanceDebitsTotal.Add(float64(count))
}
