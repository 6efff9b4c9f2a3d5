package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/cylestio/cylestio-local-mini-server/internal/domain"
)

const upsertSessionQuery = `
	INSERT INTO sessions (
		session_id, agent_id, start_time, end_time, total_events,
		total_tokens, total_requests, total_responses, avg_latency_ms,
		metadata
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10::jsonb)
	ON CONFLICT (session_id) DO NOTHING`

func (r *Repository) UpsertSession(ctx context.Context, session *domain.Session) error {
	meta, err := marshalJSON(session.Metadata)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, upsertSessionQuery,
		session.SessionID, session.AgentID, session.StartTime,
		session.EndTime, session.TotalEvents, session.TotalTokens,
		session.TotalRequests, session.TotalResponses,
		session.AvgLatencyMS, meta,
	)
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}
	return nil
}

const recordSessionEventQuery = `
	UPDATE sessions SET
		total_events = total_events + 1,
		total_requests = total_requests + $3,
		total_responses = total_responses + $4,
		end_time = GREATEST(COALESCE(end_time, $2), $2)
	WHERE session_id = $1`

func (r *Repository) RecordSessionEvent(ctx context.Context, sessionID string, at time.Time, requests, responses int) error {
	_, err := r.db.Exec(ctx, recordSessionEventQuery, sessionID, at, requests, responses)
	if err != nil {
		return fmt.Errorf("record session event: %w", err)
	}
	return nil
}

const addSessionTokensQuery = `
	UPDATE sessions SET total_tokens = total_tokens + $2
	WHERE session_id = $1`

func (r *Repository) AddSessionTokens(ctx context.Context, sessionID string, tokens int64) error {
	_, err := r.db.Exec(ctx, addSessionTokensQuery, sessionID, tokens)
	if err != nil {
		return fmt.Errorf("add session tokens: %w", err)
	}
	return nil
}

// recordSessionLatencyQuery folds one sample into the running average.
// total_responses was already bumped for this event, so the previous
// sample count is total_responses-1.
const recordSessionLatencyQuery = `
	UPDATE sessions SET
		avg_latency_ms = ((avg_latency_ms * GREATEST(total_responses - 1, 0)) + $2)
			/ GREATEST(total_responses, 1)
	WHERE session_id = $1`

func (r *Repository) RecordSessionLatency(ctx context.Context, sessionID string, durationMS float64) error {
	_, err := r.db.Exec(ctx, recordSessionLatencyQuery, sessionID, durationMS)
	if err != nil {
		return fmt.Errorf("record session latency: %w", err)
	}
	return nil
}

const setSessionMetadataQuery = `
	UPDATE sessions SET metadata = COALESCE(metadata, '{}'::jsonb) || $2::jsonb
	WHERE session_id = $1`

func (r *Repository) SetSessionMetadata(ctx context.Context, sessionID string, metadata map[string]any) error {
	meta, err := marshalJSON(metadata)
	if err != nil {
		return err
	}
	if meta == nil {
		return nil
	}
	_, err = r.db.Exec(ctx, setSessionMetadataQuery, sessionID, meta)
	if err != nil {
		return fmt.Errorf("set session metadata: %w", err)
	}
	return nil
}

const closeSessionQuery = `
	UPDATE sessions SET end_time = GREATEST(COALESCE(end_time, $2), $2)
	WHERE session_id = $1`

func (r *Repository) CloseSession(ctx context.Context, sessionID string, end time.Time) error {
	_, err := r.db.Exec(ctx, closeSessionQuery, sessionID, end)
	if err != nil {
		return fmt.Errorf("close session: %w", err)
	}
	return nil
}
