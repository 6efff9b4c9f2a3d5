package extract

import (
	"context"
	"strings"

	"github.com/cylestio/cylestio-local-mini-server/internal/domain"
	"github.com/cylestio/cylestio-local-mini-server/internal/jsonpath"
	"github.com/cylestio/cylestio-local-mini-server/internal/repository"
)

// CommonExtractor maintains the agent and session bookkeeping every
// event contributes to. It applies to all events and must run before
// any extractor that references agent or session rows.
type CommonExtractor struct{}

func NewCommonExtractor() *CommonExtractor { return &CommonExtractor{} }

func (*CommonExtractor) Name() string { return "common" }

func (*CommonExtractor) Applicable(*domain.Event) bool { return true }

var llmProviderPaths = []string{
	"llm_provider",
	"model.provider",
	"configuration.llm_provider",
}

func (*CommonExtractor) Extract(ctx context.Context, ev *domain.Event, store repository.EventStore) error {
	agent := &domain.Agent{
		AgentID:     ev.AgentID,
		FirstSeen:   ev.Timestamp,
		LastSeen:    ev.Timestamp,
		LLMProvider: jsonpath.AsString(jsonpath.ResolveFirst(ev.Data, llmProviderPaths, nil), ""),
	}
	if err := store.UpsertAgent(ctx, agent); err != nil {
		return err
	}

	if ev.SessionID == "" {
		return nil
	}
	session := &domain.Session{
		SessionID: ev.SessionID,
		AgentID:   ev.AgentID,
		StartTime: ev.Timestamp,
	}
	if err := store.UpsertSession(ctx, session); err != nil {
		return err
	}
	requests, responses := 0, 0
	if isRequest(ev) {
		requests = 1
	}
	if isResponse(ev) {
		responses = 1
	}
	return store.RecordSessionEvent(ctx, ev.SessionID, ev.Timestamp, requests, responses)
}

func isRequest(ev *domain.Event) bool {
	return ev.Direction == domain.DirectionOutgoing ||
		strings.HasSuffix(ev.EventType, "_start") ||
		strings.HasSuffix(ev.EventType, "_request")
}

func isResponse(ev *domain.Event) bool {
	return ev.Direction == domain.DirectionIncoming ||
		strings.HasSuffix(ev.EventType, "_finish") ||
		strings.HasSuffix(ev.EventType, "_response")
}
