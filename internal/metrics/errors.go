package metrics

import (
	"context"

	"github.com/cylestio/cylestio-local-mini-server/internal/domain"
	"github.com/cylestio/cylestio-local-mini-server/internal/repository"
)

// ErrorCalculator reports error-class event volume and rate.
type ErrorCalculator struct{}

func (*ErrorCalculator) Name() string { return "errors" }

func (c *ErrorCalculator) Calculate(ctx context.Context, store repository.MetricStore, f Filter) (*Result, error) {
	total, err := store.CountEvents(ctx, f.Store())
	if err != nil {
		return nil, err
	}

	errFilter := f.Store()
	errFilter.Levels = []string{domain.LevelError, domain.LevelCritical}
	errorCount, err := store.CountEvents(ctx, errFilter)
	if err != nil {
		return nil, err
	}
	byType, err := store.EventTypeCounts(ctx, errFilter)
	if err != nil {
		return nil, err
	}
	buckets, err := store.EventBuckets(ctx, errFilter, f.Interval.DateTrunc())
	if err != nil {
		return nil, err
	}

	rate := 0.0
	if total > 0 {
		rate = float64(errorCount) / float64(total)
	}
	series := make([]Sample, 0, len(buckets))
	for _, b := range buckets {
		series = append(series, Sample{
			Bucket: b.Bucket,
			Values: map[string]any{"error_count": b.Count},
		})
	}
	return &Result{
		Type: c.Name(),
		Overall: map[string]any{
			"error_count":  errorCount,
			"total_events": total,
			"error_rate":   rate,
			"by_type":      byType,
		},
		TimeSeries: series,
	}, nil
}
