package domain

import "time"

// Agent is one instrumented SDK installation, identified by the
// agent_id it self-reports. Created on the first event that references
// the id, updated monotonically thereafter.
type Agent struct {
	ID            int64
	AgentID       string
	FirstSeen     time.Time
	LastSeen      time.Time
	LLMProvider   string
	AgentType     string
	Description   string
	Configuration map[string]any
}
