package postgres

import (
	"context"
	"fmt"

	"github.com/cylestio/cylestio-local-mini-server/internal/repository"
)

// Aggregate reads. Every query shares the eventFilter predicate so the
// same MetricFilter bounds raw events and the normalized tables joined
// through them. Bucket queries group on date_trunc with a calendar
// unit, so samples land on minute/hour/day boundaries rather than
// arbitrary epoch offsets.

const countEventsQuery = `
	SELECT COUNT(*) FROM events e WHERE ` + eventFilter

func (r *Repository) CountEvents(ctx context.Context, f repository.MetricFilter) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, countEventsQuery, filterArgs(f)...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}

const countSessionsQuery = `
	SELECT COUNT(DISTINCT e.session_id) FROM events e
	WHERE e.session_id IS NOT NULL AND ` + eventFilter

func (r *Repository) CountSessions(ctx context.Context, f repository.MetricFilter) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, countSessionsQuery, filterArgs(f)...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count sessions: %w", err)
	}
	return n, nil
}

const eventTypeCountsQuery = `
	SELECT e.event_type, COUNT(*) FROM events e
	WHERE ` + eventFilter + `
	GROUP BY e.event_type`

func (r *Repository) EventTypeCounts(ctx context.Context, f repository.MetricFilter) (map[string]int64, error) {
	return r.countMap(ctx, eventTypeCountsQuery, filterArgs(f)...)
}

const channelCountsQuery = `
	SELECT e.channel, COUNT(*) FROM events e
	WHERE ` + eventFilter + `
	GROUP BY e.channel`

func (r *Repository) ChannelCounts(ctx context.Context, f repository.MetricFilter) (map[string]int64, error) {
	return r.countMap(ctx, channelCountsQuery, filterArgs(f)...)
}

const levelCountsQuery = `
	SELECT e.level, COUNT(*) FROM events e
	WHERE ` + eventFilter + `
	GROUP BY e.level`

func (r *Repository) LevelCounts(ctx context.Context, f repository.MetricFilter) (map[string]int64, error) {
	return r.countMap(ctx, levelCountsQuery, filterArgs(f)...)
}

const eventBucketsQuery = `
	SELECT date_trunc($7, e.timestamp) AS bucket, COUNT(*)
	FROM events e
	WHERE ` + eventFilter + `
	GROUP BY bucket
	ORDER BY bucket`

func (r *Repository) EventBuckets(ctx context.Context, f repository.MetricFilter, interval string) ([]repository.BucketStat, error) {
	args := append(filterArgs(f), interval)
	rows, err := r.db.Query(ctx, eventBucketsQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("event buckets: %w", err)
	}
	defer rows.Close()

	var out []repository.BucketStat
	for rows.Next() {
		var b repository.BucketStat
		if err := rows.Scan(&b.Bucket, &b.Count); err != nil {
			return nil, fmt.Errorf("scan event bucket: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

const durationStatsQuery = `
	SELECT COUNT(pm.id), COALESCE(AVG(pm.duration_ms), 0),
		COALESCE(MIN(pm.duration_ms), 0), COALESCE(MAX(pm.duration_ms), 0)
	FROM performance_metrics pm
	JOIN events e ON e.id = pm.event_id
	WHERE ` + eventFilter

func (r *Repository) DurationStats(ctx context.Context, f repository.MetricFilter) (repository.DurationStats, error) {
	var s repository.DurationStats
	err := r.db.QueryRow(ctx, durationStatsQuery, filterArgs(f)...).
		Scan(&s.Count, &s.Avg, &s.Min, &s.Max)
	if err != nil {
		return repository.DurationStats{}, fmt.Errorf("duration stats: %w", err)
	}
	return s, nil
}

const durationBucketsQuery = `
	SELECT date_trunc($7, e.timestamp) AS bucket, COUNT(pm.id),
		COALESCE(SUM(pm.duration_ms), 0), COALESCE(AVG(pm.duration_ms), 0),
		COALESCE(MIN(pm.duration_ms), 0), COALESCE(MAX(pm.duration_ms), 0)
	FROM performance_metrics pm
	JOIN events e ON e.id = pm.event_id
	WHERE ` + eventFilter + `
	GROUP BY bucket
	ORDER BY bucket`

func (r *Repository) DurationBuckets(ctx context.Context, f repository.MetricFilter, interval string) ([]repository.BucketStat, error) {
	args := append(filterArgs(f), interval)
	return r.bucketStats(ctx, durationBucketsQuery, args...)
}

const tokenTotalsQuery = `
	SELECT COUNT(tu.id),
		COALESCE(SUM(tu.input_tokens), 0), COALESCE(SUM(tu.output_tokens), 0),
		COALESCE(SUM(tu.total_tokens), 0),
		COALESCE(SUM(tu.cache_read_tokens), 0),
		COALESCE(SUM(tu.cache_creation_tokens), 0)
	FROM token_usage tu
	JOIN events e ON e.id = tu.event_id
	WHERE ` + eventFilter

func (r *Repository) TokenTotals(ctx context.Context, f repository.MetricFilter) (repository.TokenStats, error) {
	var s repository.TokenStats
	err := r.db.QueryRow(ctx, tokenTotalsQuery, filterArgs(f)...).Scan(
		&s.Requests, &s.InputTokens, &s.OutputTokens, &s.TotalTokens,
		&s.CacheRead, &s.CacheCreation,
	)
	if err != nil {
		return repository.TokenStats{}, fmt.Errorf("token totals: %w", err)
	}
	return s, nil
}

const tokenBucketsQuery = `
	SELECT date_trunc($7, e.timestamp) AS bucket, COUNT(tu.id),
		COALESCE(SUM(tu.total_tokens), 0), COALESCE(AVG(tu.total_tokens), 0),
		COALESCE(MIN(tu.total_tokens), 0), COALESCE(MAX(tu.total_tokens), 0)
	FROM token_usage tu
	JOIN events e ON e.id = tu.event_id
	WHERE ` + eventFilter + `
	GROUP BY bucket
	ORDER BY bucket`

func (r *Repository) TokenBuckets(ctx context.Context, f repository.MetricFilter, interval string) ([]repository.BucketStat, error) {
	args := append(filterArgs(f), interval)
	return r.bucketStats(ctx, tokenBucketsQuery, args...)
}

const tokenTotalsByModelQuery = `
	SELECT tu.model, COUNT(tu.id),
		COALESCE(SUM(tu.input_tokens), 0), COALESCE(SUM(tu.output_tokens), 0),
		COALESCE(SUM(tu.total_tokens), 0),
		COALESCE(SUM(tu.cache_read_tokens), 0),
		COALESCE(SUM(tu.cache_creation_tokens), 0)
	FROM token_usage tu
	JOIN events e ON e.id = tu.event_id
	WHERE ` + eventFilter + `
	GROUP BY tu.model
	ORDER BY SUM(tu.total_tokens) DESC
	LIMIT $7`

func (r *Repository) TokenTotalsByModel(ctx context.Context, f repository.MetricFilter, topN int) ([]repository.ModelTokenStats, error) {
	args := append(filterArgs(f), topN)
	rows, err := r.db.Query(ctx, tokenTotalsByModelQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("token totals by model: %w", err)
	}
	defer rows.Close()

	var out []repository.ModelTokenStats
	for rows.Next() {
		var s repository.ModelTokenStats
		if err := rows.Scan(
			&s.Model, &s.Requests, &s.InputTokens, &s.OutputTokens,
			&s.TotalTokens, &s.CacheRead, &s.CacheCreation,
		); err != nil {
			return nil, fmt.Errorf("scan model tokens: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

const alertSeverityCountsQuery = `
	SELECT sa.severity, COUNT(*)
	FROM security_alerts sa
	JOIN events e ON e.id = sa.event_id
	WHERE ` + eventFilter + `
	GROUP BY sa.severity`

func (r *Repository) AlertSeverityCounts(ctx context.Context, f repository.MetricFilter) (map[string]int64, error) {
	return r.countMap(ctx, alertSeverityCountsQuery, filterArgs(f)...)
}

const alertTypeCountsQuery = `
	SELECT sa.alert_type, COUNT(*)
	FROM security_alerts sa
	JOIN events e ON e.id = sa.event_id
	WHERE ` + eventFilter + `
	GROUP BY sa.alert_type`

func (r *Repository) AlertTypeCounts(ctx context.Context, f repository.MetricFilter) (map[string]int64, error) {
	return r.countMap(ctx, alertTypeCountsQuery, filterArgs(f)...)
}

const alertBucketsQuery = `
	SELECT date_trunc($7, e.timestamp) AS bucket, COUNT(sa.id)
	FROM security_alerts sa
	JOIN events e ON e.id = sa.event_id
	WHERE ` + eventFilter + `
	GROUP BY bucket
	ORDER BY bucket`

func (r *Repository) AlertBuckets(ctx context.Context, f repository.MetricFilter, interval string) ([]repository.BucketStat, error) {
	args := append(filterArgs(f), interval)
	rows, err := r.db.Query(ctx, alertBucketsQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("alert buckets: %w", err)
	}
	defer rows.Close()

	var out []repository.BucketStat
	for rows.Next() {
		var b repository.BucketStat
		if err := rows.Scan(&b.Bucket, &b.Count); err != nil {
			return nil, fmt.Errorf("scan alert bucket: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// bucketStats runs a six-column bucket aggregation query.
func (r *Repository) bucketStats(ctx context.Context, query string, args ...any) ([]repository.BucketStat, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("bucket stats: %w", err)
	}
	defer rows.Close()

	var out []repository.BucketStat
	for rows.Next() {
		var b repository.BucketStat
		if err := rows.Scan(&b.Bucket, &b.Count, &b.Sum, &b.Avg, &b.Min, &b.Max); err != nil {
			return nil, fmt.Errorf("scan bucket: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
