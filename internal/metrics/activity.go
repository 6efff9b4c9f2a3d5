package metrics

import (
	"context"

	"github.com/cylestio/cylestio-local-mini-server/internal/repository"
)

// ActivityCalculator reports raw event volume sliced by type, channel
// and level.
type ActivityCalculator struct{}

func (*ActivityCalculator) Name() string { return "activity" }

func (c *ActivityCalculator) Calculate(ctx context.Context, store repository.MetricStore, f Filter) (*Result, error) {
	total, err := store.CountEvents(ctx, f.Store())
	if err != nil {
		return nil, err
	}
	sessions, err := store.CountSessions(ctx, f.Store())
	if err != nil {
		return nil, err
	}
	byType, err := store.EventTypeCounts(ctx, f.Store())
	if err != nil {
		return nil, err
	}
	byChannel, err := store.ChannelCounts(ctx, f.Store())
	if err != nil {
		return nil, err
	}
	byLevel, err := store.LevelCounts(ctx, f.Store())
	if err != nil {
		return nil, err
	}
	buckets, err := store.EventBuckets(ctx, f.Store(), f.Interval.DateTrunc())
	if err != nil {
		return nil, err
	}

	series := make([]Sample, 0, len(buckets))
	for _, b := range buckets {
		series = append(series, Sample{
			Bucket: b.Bucket,
			Values: map[string]any{"event_count": b.Count},
		})
	}
	return &Result{
		Type: c.Name(),
		Overall: map[string]any{
			"total_events":   total,
			"total_sessions": sessions,
			"by_type":        byType,
			"by_channel":     byChannel,
			"by_level":       byLevel,
		},
		TimeSeries: series,
	}, nil
}
