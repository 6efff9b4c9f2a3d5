package httpx

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var histogramBuckets = []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10}

func (r *Router) initMetrics() {
	r.metricsOnce.Do(func() {
		r.requestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cylestio",
			Subsystem: "api",
			Name:      "http_requests_total",
			Help:      "Count of processed HTTP requests",
		}, []string{"method", "route", "status"})

		r.requestLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "cylestio",
			Subsystem: "api",
			Name:      "http_request_duration_seconds",
			Help:      "Latency distribution of HTTP handlers",
			Buckets:   histogramBuckets,
		}, []string{"method", "route", "status"})

		r.rateLimitHits = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cylestio",
			Subsystem: "api",
			Name:      "rate_limit_hits_total",
			Help:      "Number of rate-limited responses",
		}, []string{"route", "key"})

		r.eventsIngested = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cylestio",
			Subsystem: "ingest",
			Name:      "events_total",
			Help:      "Count of ingested telemetry events",
		}, []string{"event_type", "status"})

		r.extractorFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cylestio",
			Subsystem: "ingest",
			Name:      "extractor_failures_total",
			Help:      "Count of extractor failures during event processing",
		}, []string{"extractor"})

		collectors := []prometheus.Collector{
			r.requestTotal, r.requestLatency, r.rateLimitHits,
			r.eventsIngested, r.extractorFailures,
		}
		for i, collector := range collectors {
			if err := prometheus.Register(collector); err != nil {
				are, ok := err.(prometheus.AlreadyRegisteredError)
				if !ok {
					continue
				}
				switch v := are.ExistingCollector.(type) {
				case *prometheus.CounterVec:
					switch i {
					case 0:
						r.requestTotal = v
					case 2:
						r.rateLimitHits = v
					case 3:
						r.eventsIngested = v
					case 4:
						r.extractorFailures = v
					}
				case *prometheus.HistogramVec:
					r.requestLatency = v
				}
			}
		}
		r.metricsInitialized = true
	})
}

func (r *Router) recordRequestMetrics(method, route string, status int, duration time.Duration) {
	if !r.metricsInitialized {
		return
	}
	labels := prometheus.Labels{
		"method": method,
		"route":  route,
		"status": strconv.Itoa(status),
	}
	r.requestTotal.With(labels).Inc()
	r.requestLatency.With(labels).Observe(duration.Seconds())
}

func (r *Router) recordRateLimitHit(route, key string) {
	if !r.metricsInitialized {
		return
	}
	r.rateLimitHits.With(prometheus.Labels{"route": route, "key": key}).Inc()
}

func (r *Router) recordIngest(eventType string, ok bool) {
	if !r.metricsInitialized {
		return
	}
	status := "ok"
	if !ok {
		status = "error"
	}
	r.eventsIngested.With(prometheus.Labels{"event_type": eventType, "status": status}).Inc()
}

func (r *Router) recordExtractorFailure(name string) {
	if !r.metricsInitialized {
		return
	}
	r.extractorFailures.With(prometheus.Labels{"extractor": name}).Inc()
}
