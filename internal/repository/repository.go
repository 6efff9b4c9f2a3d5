package repository

import (
	"context"
	"time"

	"github.com/cylestio/cylestio-local-mini-server/internal/domain"
)

// EventStore is the write surface extractors see while an event is
// being processed. Implementations are transaction-scoped: every call
// made through one handle commits or rolls back together.
type EventStore interface {
	// InsertEvent persists the raw event and fills ev.ID.
	InsertEvent(ctx context.Context, ev *domain.Event) error

	// UpsertAgent creates the agent on first sight. On conflict,
	// first_seen/last_seen move monotonically (LEAST/GREATEST) and
	// descriptive fields are only filled when previously empty.
	UpsertAgent(ctx context.Context, agent *domain.Agent) error

	// UpsertSession creates the session row if it does not exist yet.
	UpsertSession(ctx context.Context, session *domain.Session) error
	// RecordSessionEvent bumps per-session counters and advances
	// end_time forward.
	RecordSessionEvent(ctx context.Context, sessionID string, at time.Time, requests, responses int) error
	AddSessionTokens(ctx context.Context, sessionID string, tokens int64) error
	// RecordSessionLatency folds one duration sample into the running
	// avg_latency_ms.
	RecordSessionLatency(ctx context.Context, sessionID string, durationMS float64) error
	SetSessionMetadata(ctx context.Context, sessionID string, metadata map[string]any) error
	CloseSession(ctx context.Context, sessionID string, end time.Time) error

	InsertTokenUsage(ctx context.Context, tu *domain.TokenUsage) error
	InsertPerformanceMetric(ctx context.Context, pm *domain.PerformanceMetric) error
	InsertSecurityAlert(ctx context.Context, sa *domain.SecurityAlert) error
	InsertModelDetails(ctx context.Context, md *domain.ModelDetails) error
	InsertFrameworkDetails(ctx context.Context, fd *domain.FrameworkDetails) error
}

// TxRunner scopes a unit of work to one store transaction. fn returning
// nil commits; any error (including a failed commit) rolls back and is
// returned to the caller.
type TxRunner interface {
	InTx(ctx context.Context, fn func(EventStore) error) error
}

// Savepointer is implemented by transaction-scoped stores that can run
// part of the work under a savepoint. An error from fn rolls back only
// the writes made through the savepoint-scoped store; the surrounding
// transaction stays usable.
type Savepointer interface {
	InSavepoint(ctx context.Context, fn func(EventStore) error) error
}

// MetricFilter bounds the rows a metric calculator reads. Zero-valued
// string fields mean "no constraint".
type MetricFilter struct {
	Start      time.Time
	End        time.Time
	AgentID    string
	SessionID  string
	EventTypes []string
	Levels     []string
}

// BucketStat is one calendar-aligned time-series sample produced by a
// group-by aggregation.
type BucketStat struct {
	Bucket time.Time
	Count  int64
	Sum    float64
	Avg    float64
	Min    float64
	Max    float64
}

// DurationStats summarizes observed durations over a filter.
type DurationStats struct {
	Count int64
	Avg   float64
	Min   float64
	Max   float64
}

// TokenStats summarizes token usage over a filter.
type TokenStats struct {
	Requests      int64
	InputTokens   int64
	OutputTokens  int64
	TotalTokens   int64
	CacheRead     int64
	CacheCreation int64
}

// ModelTokenStats is TokenStats attributed to one model.
type ModelTokenStats struct {
	Model string
	TokenStats
}

// MetricStore is the read surface metric calculators see. All
// aggregates treat an empty result set as zeros, never as an error.
// The interval passed to bucket queries is a calendar unit understood
// by date_trunc ("minute", "hour", "day").
type MetricStore interface {
	CountEvents(ctx context.Context, f MetricFilter) (int64, error)
	CountSessions(ctx context.Context, f MetricFilter) (int64, error)
	EventTypeCounts(ctx context.Context, f MetricFilter) (map[string]int64, error)
	ChannelCounts(ctx context.Context, f MetricFilter) (map[string]int64, error)
	LevelCounts(ctx context.Context, f MetricFilter) (map[string]int64, error)
	EventBuckets(ctx context.Context, f MetricFilter, interval string) ([]BucketStat, error)

	DurationStats(ctx context.Context, f MetricFilter) (DurationStats, error)
	DurationBuckets(ctx context.Context, f MetricFilter, interval string) ([]BucketStat, error)

	TokenTotals(ctx context.Context, f MetricFilter) (TokenStats, error)
	TokenBuckets(ctx context.Context, f MetricFilter, interval string) ([]BucketStat, error)
	TokenTotalsByModel(ctx context.Context, f MetricFilter, topN int) ([]ModelTokenStats, error)

	AlertSeverityCounts(ctx context.Context, f MetricFilter) (map[string]int64, error)
	AlertTypeCounts(ctx context.Context, f MetricFilter) (map[string]int64, error)
	AlertBuckets(ctx context.Context, f MetricFilter, interval string) ([]BucketStat, error)
}

// AgentInfo is an agent row joined with its event count, for the query
// boundary.
type AgentInfo struct {
	domain.Agent
	EventCount int64
}

// AgentSummary aggregates per-agent activity for the summary endpoint.
type AgentSummary struct {
	AgentID           string
	EventCountByType  map[string]int64
	EventCountByLevel map[string]int64
	AvgResponseTimeMS float64
	FirstSeen         time.Time
	LastSeen          time.Time
}

// AgentStore serves agent lookups for the query boundary.
type AgentStore interface {
	ListAgents(ctx context.Context, limit, offset int) ([]AgentInfo, error)
	GetAgent(ctx context.Context, agentID string) (*domain.Agent, error)
	GetAgentSummary(ctx context.Context, agentID string) (*AgentSummary, error)
}

// EventReader serves event listings for the query boundary.
type EventReader interface {
	ListEvents(ctx context.Context, f MetricFilter, limit, offset int) ([]domain.Event, error)
}
