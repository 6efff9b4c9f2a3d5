package metrics

import (
	"context"

	"github.com/cylestio/cylestio-local-mini-server/internal/repository"
)

// UsageCalculator reports token consumption.
type UsageCalculator struct{}

func (*UsageCalculator) Name() string { return "usage" }

func (c *UsageCalculator) Calculate(ctx context.Context, store repository.MetricStore, f Filter) (*Result, error) {
	totals, err := store.TokenTotals(ctx, f.Store())
	if err != nil {
		return nil, err
	}
	buckets, err := store.TokenBuckets(ctx, f.Store(), f.Interval.DateTrunc())
	if err != nil {
		return nil, err
	}

	series := make([]Sample, 0, len(buckets))
	for _, b := range buckets {
		series = append(series, Sample{
			Bucket: b.Bucket,
			Values: map[string]any{
				"requests":     b.Count,
				"total_tokens": int64(b.Sum),
				"avg_tokens":   b.Avg,
			},
		})
	}
	return &Result{
		Type: c.Name(),
		Overall: map[string]any{
			"requests":              totals.Requests,
			"input_tokens":          totals.InputTokens,
			"output_tokens":         totals.OutputTokens,
			"total_tokens":          totals.TotalTokens,
			"cache_read_tokens":     totals.CacheRead,
			"cache_creation_tokens": totals.CacheCreation,
		},
		TimeSeries: series,
	}, nil
}
