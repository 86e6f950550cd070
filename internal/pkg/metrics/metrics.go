package metrics

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	HTTPRequests    *prometheus.CounterVec
	HTTPDuration    *prometheus.HistogramVec
	UpstreamCalls   *prometheus.CounterVec
	UpstreamLatency *prometheus.HistogramVec
	BatchRows       *prometheus.CounterVec
}

var Default = sync.OnceValue(func() *Metrics {
	return &Metrics{
		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hub",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests handled by the hub.",
		}, []string{"route", "result"}),
		HTTPDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "hub",
			Name:      "http_request_duration_seconds",
			Help:      "Latency of HTTP requests handled by the hub.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		UpstreamCalls: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hub",
			Name:      "upstream_requests_total",
			Help:      "Total number of requests forwarded to the external API.",
		}, []string{"endpoint", "result"}),
		UpstreamLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "hub",
			Name:      "upstream_request_duration_seconds",
			Help:      "Latency of requests forwarded to the external API.",
			Buckets: []float64{
				0.01, 0.05, 0.1, 0.25, 0.5,
				1, 2.5, 5, 10, 30,
			},
		}, []string{"endpoint"}),
		BatchRows: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hub",
			Name:      "batch_rows_total",
			Help:      "Number of batch rows that reached a final upload state.",
		}, []string{"kind", "status"}),
	}
})

// Result buckets a status code into the label used by the counters.
func Result(status int) string {
	switch {
	case status == 0:
		return "unreachable"
	case status < 400:
		return "ok"
	case status < 500:
		return "client_error"
	}
	return "server_error"
}

func (m *Metrics) ObserveUpstream(endpoint string, status int, elapsed time.Duration) {
	m.UpstreamCalls.WithLabelValues(endpoint, Result(status)).Inc()
	m.UpstreamLatency.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveRow(kind, status string) {
	m.BatchRows.WithLabelValues(kind, status).Inc()
}

// Middleware records request counts and latency by matched route.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.HTTPRequests.WithLabelValues(route, Result(c.Writer.Status())).Inc()
		m.HTTPDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
