// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EntriesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "labentry_entries_created_total",
		Help: "Lab entries successfully logged.",
	})

	EntryCreateFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "labentry_entry_create_failures_total",
		Help: "Rejected or failed entry creations by reason.",
	}, []string{"reason"})

	EntriesListed = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "labentry_list_result_size",
		Help:    "Number of entries returned per list call.",
		Buckets: prometheus.ExponentialBuckets(1, 4, 7),
	})

	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "labentry_http_request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

// GinMiddleware records request latency per matched route.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		RequestDuration.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
