package metrics

import (
	"context"

	"github.com/cylestio/cylestio-local-mini-server/internal/repository"
)

// PerformanceCalculator reports response-time statistics.
type PerformanceCalculator struct{}

func (*PerformanceCalculator) Name() string { return "performance" }

func (c *PerformanceCalculator) Calculate(ctx context.Context, store repository.MetricStore, f Filter) (*Result, error) {
	stats, err := store.DurationStats(ctx, f.Store())
	if err != nil {
		return nil, err
	}
	buckets, err := store.DurationBuckets(ctx, f.Store(), f.Interval.DateTrunc())
	if err != nil {
		return nil, err
	}

	series := make([]Sample, 0, len(buckets))
	for _, b := range buckets {
		series = append(series, Sample{
			Bucket: b.Bucket,
			Values: map[string]any{
				"count":  b.Count,
				"avg_ms": b.Avg,
				"min_ms": b.Min,
				"max_ms": b.Max,
			},
		})
	}
	return &Result{
		Type: c.Name(),
		Overall: map[string]any{
			"count":                stats.Count,
			"avg_response_time_ms": stats.Avg,
			"min_response_time_ms": stats.Min,
			"max_response_time_ms": stats.Max,
			"p95_ms":               estimatePercentile(stats.Min, stats.Max, 0.95),
			"p99_ms":               estimatePercentile(stats.Min, stats.Max, 0.99),
			// Percentiles interpolate linearly between min and max,
			// not a true quantile. Dashboards depend on this exact
			// formula.
			"percentiles_estimated": true,
		},
		TimeSeries: series,
	}, nil
}

func estimatePercentile(min, max, k float64) float64 {
	return min + (max-min)*k
}
