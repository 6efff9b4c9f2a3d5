package postgres

import (
	"context"
	"fmt"

	"github.com/cylestio/cylestio-local-mini-server/internal/domain"
	"github.com/cylestio/cylestio-local-mini-server/internal/repository"
)

const insertEventQuery = `
	INSERT INTO events (
		timestamp, level, agent_id, event_type, channel, direction,
		session_id, data, duration_ms, caller_file, caller_line,
		caller_function, alert, is_processed
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8::jsonb, $9, $10, $11, $12, $13, $14)
	RETURNING id`

func (r *Repository) InsertEvent(ctx context.Context, ev *domain.Event) error {
	data, err := marshalJSON(ev.Data)
	if err != nil {
		return err
	}
	var sessionID *string
	if ev.SessionID != "" {
		sessionID = &ev.SessionID
	}
	err = r.db.QueryRow(ctx, insertEventQuery,
		ev.Timestamp, ev.Level, ev.AgentID, ev.EventType, ev.Channel,
		ev.Direction, sessionID, data, ev.DurationMS, ev.CallerFile,
		ev.CallerLine, ev.CallerFunction, ev.Alert, ev.IsProcessed,
	).Scan(&ev.ID)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

const listEventsQuery = `
	SELECT e.id, e.timestamp, e.level, e.agent_id, e.event_type,
		e.channel, e.direction, COALESCE(e.session_id, ''), e.data,
		e.duration_ms, e.caller_file, e.caller_line, e.caller_function,
		e.alert, e.is_processed
	FROM events e
	WHERE ` + eventFilter + `
	ORDER BY e.timestamp DESC, e.id DESC
	LIMIT $7 OFFSET $8`

func (r *Repository) ListEvents(ctx context.Context, f repository.MetricFilter, limit, offset int) ([]domain.Event, error) {
	args := append(filterArgs(f), limit, offset)
	rows, err := r.db.Query(ctx, listEventsQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var out []domain.Event
	for rows.Next() {
		var ev domain.Event
		var data []byte
		if err := rows.Scan(
			&ev.ID, &ev.Timestamp, &ev.Level, &ev.AgentID, &ev.EventType,
			&ev.Channel, &ev.Direction, &ev.SessionID, &data,
			&ev.DurationMS, &ev.CallerFile, &ev.CallerLine,
			&ev.CallerFunction, &ev.Alert, &ev.IsProcessed,
		); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.Data = unmarshalJSON(data)
		out = append(out, ev)
	}
	return out, rows.Err()
}
