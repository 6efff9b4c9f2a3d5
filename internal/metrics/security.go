package metrics

import (
	"context"

	"github.com/cylestio/cylestio-local-mini-server/internal/repository"
)

// SecurityCalculator reports security alert volume by severity and
// type.
type SecurityCalculator struct{}

func (*SecurityCalculator) Name() string { return "security" }

func (c *SecurityCalculator) Calculate(ctx context.Context, store repository.MetricStore, f Filter) (*Result, error) {
	bySeverity, err := store.AlertSeverityCounts(ctx, f.Store())
	if err != nil {
		return nil, err
	}
	byType, err := store.AlertTypeCounts(ctx, f.Store())
	if err != nil {
		return nil, err
	}
	buckets, err := store.AlertBuckets(ctx, f.Store(), f.Interval.DateTrunc())
	if err != nil {
		return nil, err
	}

	var total int64
	for _, n := range bySeverity {
		total += n
	}
	series := make([]Sample, 0, len(buckets))
	for _, b := range buckets {
		series = append(series, Sample{
			Bucket: b.Bucket,
			Values: map[string]any{"alert_count": b.Count},
		})
	}
	return &Result{
		Type: c.Name(),
		Overall: map[string]any{
			"alert_count": total,
			"by_severity": bySeverity,
			"by_type":     byType,
		},
		TimeSeries: series,
	}, nil
}
