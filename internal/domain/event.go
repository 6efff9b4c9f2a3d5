package domain

import "time"

// Log levels accepted on ingested events.
const (
	LevelInfo     = "INFO"
	LevelWarning  = "WARNING"
	LevelError    = "ERROR"
	LevelCritical = "CRITICAL"
)

// Event directions reported by instrumented SDKs.
const (
	DirectionIncoming = "incoming"
	DirectionOutgoing = "outgoing"
)

// Event is one ingested telemetry record describing a discrete
// agent/LLM interaction. The Data payload is the raw SDK JSON and has
// no stable schema; extractors navigate it defensively.
type Event struct {
	ID             int64
	Timestamp      time.Time
	Level          string
	AgentID        string
	EventType      string
	Channel        string
	Direction      string
	SessionID      string
	Data           map[string]any
	DurationMS     *float64
	CallerFile     string
	CallerLine     int
	CallerFunction string
	Alert          string
	IsProcessed    bool
}

// IsError reports whether the event carries an error-class level.
func (e *Event) IsError() bool {
	return e.Level == LevelError || e.Level == LevelCritical
}
