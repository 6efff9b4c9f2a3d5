package domain

import "time"

// Session aggregates events that share a session_id. Counters are
// advanced incrementally as events are processed; EndTime only moves
// forward.
type Session struct {
	ID             int64
	SessionID      string
	AgentID        string
	StartTime      time.Time
	EndTime        *time.Time
	TotalEvents    int64
	TotalTokens    int64
	TotalRequests  int64
	TotalResponses int64
	AvgLatencyMS   float64
	Metadata       map[string]any
}
