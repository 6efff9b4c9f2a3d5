package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/cylestio/cylestio-local-mini-server/internal/domain"
	"github.com/cylestio/cylestio-local-mini-server/internal/repository"
)

// upsertAgentQuery keeps first_seen/last_seen monotonic under conflict
// and only fills descriptive fields that are still empty, so concurrent
// inserts for the same agent_id converge regardless of order.
const upsertAgentQuery = `
	INSERT INTO agents (
		agent_id, first_seen, last_seen, llm_provider, agent_type,
		description, configuration
	) VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb)
	ON CONFLICT (agent_id) DO UPDATE SET
		first_seen = LEAST(agents.first_seen, EXCLUDED.first_seen),
		last_seen = GREATEST(agents.last_seen, EXCLUDED.last_seen),
		llm_provider = COALESCE(NULLIF(agents.llm_provider, ''), EXCLUDED.llm_provider),
		agent_type = COALESCE(NULLIF(agents.agent_type, ''), EXCLUDED.agent_type),
		description = COALESCE(NULLIF(agents.description, ''), EXCLUDED.description),
		configuration = COALESCE(agents.configuration, EXCLUDED.configuration)
	RETURNING id`

func (r *Repository) UpsertAgent(ctx context.Context, agent *domain.Agent) error {
	cfg, err := marshalJSON(agent.Configuration)
	if err != nil {
		return err
	}
	err = r.db.QueryRow(ctx, upsertAgentQuery,
		agent.AgentID, agent.FirstSeen, agent.LastSeen, agent.LLMProvider,
		agent.AgentType, agent.Description, cfg,
	).Scan(&agent.ID)
	if err != nil {
		return fmt.Errorf("upsert agent: %w", err)
	}
	return nil
}

const listAgentsQuery = `
	SELECT a.id, a.agent_id, a.first_seen, a.last_seen, a.llm_provider,
		a.agent_type, a.description, a.configuration,
		COALESCE(e.n, 0)
	FROM agents a
	LEFT JOIN (
		SELECT agent_id, COUNT(*) AS n FROM events GROUP BY agent_id
	) e ON e.agent_id = a.agent_id
	ORDER BY a.last_seen DESC
	LIMIT $1 OFFSET $2`

func (r *Repository) ListAgents(ctx context.Context, limit, offset int) ([]repository.AgentInfo, error) {
	rows, err := r.db.Query(ctx, listAgentsQuery, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	defer rows.Close()

	var out []repository.AgentInfo
	for rows.Next() {
		var info repository.AgentInfo
		var cfg []byte
		if err := rows.Scan(
			&info.ID, &info.AgentID, &info.FirstSeen, &info.LastSeen,
			&info.LLMProvider, &info.AgentType, &info.Description, &cfg,
			&info.EventCount,
		); err != nil {
			return nil, fmt.Errorf("scan agent: %w", err)
		}
		info.Configuration = unmarshalJSON(cfg)
		out = append(out, info)
	}
	return out, rows.Err()
}

const getAgentQuery = `
	SELECT id, agent_id, first_seen, last_seen, llm_provider, agent_type,
		description, configuration
	FROM agents
	WHERE agent_id = $1`

func (r *Repository) GetAgent(ctx context.Context, agentID string) (*domain.Agent, error) {
	var a domain.Agent
	var cfg []byte
	err := r.db.QueryRow(ctx, getAgentQuery, agentID).Scan(
		&a.ID, &a.AgentID, &a.FirstSeen, &a.LastSeen, &a.LLMProvider,
		&a.AgentType, &a.Description, &cfg,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get agent: %w", err)
	}
	a.Configuration = unmarshalJSON(cfg)
	return &a, nil
}

const agentTypeCountsQuery = `
	SELECT event_type, COUNT(*) FROM events
	WHERE agent_id = $1 GROUP BY event_type`

const agentLevelCountsQuery = `
	SELECT level, COUNT(*) FROM events
	WHERE agent_id = $1 GROUP BY level`

const agentAvgDurationQuery = `
	SELECT COALESCE(AVG(pm.duration_ms), 0)
	FROM performance_metrics pm
	JOIN events e ON e.id = pm.event_id
	WHERE e.agent_id = $1`

func (r *Repository) GetAgentSummary(ctx context.Context, agentID string) (*repository.AgentSummary, error) {
	agent, err := r.GetAgent(ctx, agentID)
	if err != nil {
		return nil, err
	}
	summary := &repository.AgentSummary{
		AgentID:   agent.AgentID,
		FirstSeen: agent.FirstSeen,
		LastSeen:  agent.LastSeen,
	}

	summary.EventCountByType, err = r.countMap(ctx, agentTypeCountsQuery, agentID)
	if err != nil {
		return nil, fmt.Errorf("agent summary types: %w", err)
	}
	summary.EventCountByLevel, err = r.countMap(ctx, agentLevelCountsQuery, agentID)
	if err != nil {
		return nil, fmt.Errorf("agent summary levels: %w", err)
	}
	if err := r.db.QueryRow(ctx, agentAvgDurationQuery, agentID).Scan(&summary.AvgResponseTimeMS); err != nil {
		return nil, fmt.Errorf("agent summary latency: %w", err)
	}
	return summary, nil
}

// countMap runs a two-column (key, count) query into a map.
func (r *Repository) countMap(ctx context.Context, query string, args ...any) (map[string]int64, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int64)
	for rows.Next() {
		var key string
		var n int64
		if err := rows.Scan(&key, &n); err != nil {
			return nil, err
		}
		out[key] = n
	}
	return out, rows.Err()
}
