// ABOUTME: HTTP request metrics middleware.
// ABOUTME: Labels requests by route template, method and status.
package web

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	requestCount = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "minilok",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "How many HTTP requests processed, partitioned by status code, method and route.",
	}, []string{"code", "method", "route"})
	requestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "minilok",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "The HTTP request latencies in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"code", "method", "route"})
)

func init() {
	prometheus.MustRegister(requestCount, requestDuration)
}

// MetricsMiddleware updates the request metrics. Routes are labelled by their
// pattern so path parameters do not add series.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		requestDuration.WithLabelValues(status, c.Request.Method, route).Observe(time.Since(start).Seconds())
		requestCount.WithLabelValues(status, c.Request.Method, route).Inc()
	}
}
