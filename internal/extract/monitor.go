package extract

import (
	"context"

	"github.com/cylestio/cylestio-local-mini-server/internal/domain"
	"github.com/cylestio/cylestio-local-mini-server/internal/jsonpath"
	"github.com/cylestio/cylestio-local-mini-server/internal/repository"
)

// MonitorExtractor handles SDK lifecycle events. monitor_init opens a
// session and records the monitor configuration; monitor_shutdown
// closes it.
type MonitorExtractor struct{}

func NewMonitorExtractor() *MonitorExtractor { return &MonitorExtractor{} }

func (*MonitorExtractor) Name() string { return "monitor" }

func (*MonitorExtractor) Applicable(ev *domain.Event) bool {
	return ev.EventType == "monitor_init" || ev.EventType == "monitor_shutdown"
}

func (*MonitorExtractor) Extract(ctx context.Context, ev *domain.Event, store repository.EventStore) error {
	sessionID := ev.SessionID
	if sessionID == "" {
		// Older SDKs omit session_id on lifecycle events; derive a
		// stable one from the agent and init timestamp.
		sessionID = ev.AgentID + "-" + ev.Timestamp.UTC().Format("20060102150405")
	}

	if ev.EventType == "monitor_shutdown" {
		return store.CloseSession(ctx, sessionID, ev.Timestamp)
	}

	agent := &domain.Agent{
		AgentID:     ev.AgentID,
		FirstSeen:   ev.Timestamp,
		LastSeen:    ev.Timestamp,
		LLMProvider: jsonpath.AsString(jsonpath.Resolve(ev.Data, "llm_provider", nil), ""),
	}
	if cfg, ok := ev.Data["configuration"].(map[string]any); ok {
		agent.Configuration = cfg
	}
	if err := store.UpsertAgent(ctx, agent); err != nil {
		return err
	}

	session := &domain.Session{
		SessionID: sessionID,
		AgentID:   ev.AgentID,
		StartTime: ev.Timestamp,
	}
	if err := store.UpsertSession(ctx, session); err != nil {
		return err
	}

	meta := make(map[string]any)
	for _, key := range []string{"api_endpoint", "llm_provider", "development_mode", "test_mode", "version"} {
		if v, ok := jsonpath.Lookup(ev.Data, []string{key}); ok {
			meta[key] = v
		}
	}
	if len(meta) == 0 {
		return nil
	}
	return store.SetSessionMetadata(ctx, sessionID, meta)
}
