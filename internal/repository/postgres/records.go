package postgres

import (
	"context"
	"fmt"

	"github.com/cylestio/cylestio-local-mini-server/internal/domain"
)

const insertTokenUsageQuery = `
	INSERT INTO token_usage (
		event_id, input_tokens, output_tokens, total_tokens,
		cache_read_tokens, cache_creation_tokens, model
	) VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING id`

func (r *Repository) InsertTokenUsage(ctx context.Context, tu *domain.TokenUsage) error {
	err := r.db.QueryRow(ctx, insertTokenUsageQuery,
		tu.EventID, tu.InputTokens, tu.OutputTokens, tu.TotalTokens,
		tu.CacheReadTokens, tu.CacheCreationTokens, tu.Model,
	).Scan(&tu.ID)
	if err != nil {
		return fmt.Errorf("insert token usage: %w", err)
	}
	return nil
}

const insertPerformanceMetricQuery = `
	INSERT INTO performance_metrics (event_id, duration_ms, timestamp)
	VALUES ($1, $2, $3)
	RETURNING id`

func (r *Repository) InsertPerformanceMetric(ctx context.Context, pm *domain.PerformanceMetric) error {
	err := r.db.QueryRow(ctx, insertPerformanceMetricQuery,
		pm.EventID, pm.DurationMS, pm.Timestamp,
	).Scan(&pm.ID)
	if err != nil {
		return fmt.Errorf("insert performance metric: %w", err)
	}
	return nil
}

const insertSecurityAlertQuery = `
	INSERT INTO security_alerts (event_id, alert_type, severity, description, timestamp)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING id`

func (r *Repository) InsertSecurityAlert(ctx context.Context, sa *domain.SecurityAlert) error {
	err := r.db.QueryRow(ctx, insertSecurityAlertQuery,
		sa.EventID, sa.AlertType, sa.Severity, sa.Description, sa.Timestamp,
	).Scan(&sa.ID)
	if err != nil {
		return fmt.Errorf("insert security alert: %w", err)
	}
	return nil
}

const insertModelDetailsQuery = `
	INSERT INTO model_details (
		event_id, model_name, model_provider, model_type, model_version,
		temperature, max_tokens
	) VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING id`

func (r *Repository) InsertModelDetails(ctx context.Context, md *domain.ModelDetails) error {
	err := r.db.QueryRow(ctx, insertModelDetailsQuery,
		md.EventID, md.ModelName, md.ModelProvider, md.ModelType,
		md.ModelVersion, md.Temperature, md.MaxTokens,
	).Scan(&md.ID)
	if err != nil {
		return fmt.Errorf("insert model details: %w", err)
	}
	return nil
}

const insertFrameworkDetailsQuery = `
	INSERT INTO framework_details (
		event_id, framework_name, framework_version, component_name,
		component_type, components, method_name
	) VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7)
	RETURNING id`

func (r *Repository) InsertFrameworkDetails(ctx context.Context, fd *domain.FrameworkDetails) error {
	components, err := marshalJSON(fd.Components)
	if err != nil {
		return err
	}
	err = r.db.QueryRow(ctx, insertFrameworkDetailsQuery,
		fd.EventID, fd.FrameworkName, fd.FrameworkVersion,
		fd.ComponentName, fd.ComponentType, components, fd.MethodName,
	).Scan(&fd.ID)
	if err != nil {
		return fmt.Errorf("insert framework details: %w", err)
	}
	return nil
}
