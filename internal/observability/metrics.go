package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "transfer_pricing"

var (
	QuotesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "quotes_total", Help: "Price quotes by outcome"},
		[]string{"outcome"},
	)
	QuoteLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "quote_latency_seconds",
		Help:      "Quote computation latency including repository I/O",
		Buckets:   prometheus.DefBuckets,
	})
	RuleApplicationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "rule_applications_total", Help: "Price rules applied to quotes"},
		[]string{"rule_type", "adjustment_type"},
	)
	NegativePriceFloorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "negative_price_floors_total",
		Help:      "Quotes whose composed price fell below zero and was floored",
	})

	UsageRecordedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "usage_recorded_total", Help: "Rule usage increments persisted"},
		[]string{"backend"},
	)
	UsageFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "usage_failures_total", Help: "Rule usage increments that failed"},
		[]string{"backend"},
	)
	UsageDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "usage_dropped_total",
		Help:      "Rule usage events dropped because the queue was full",
	})

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
