// Package extract derives normalized relational rows from the variant
// JSON payloads of ingested telemetry events.
package extract

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cylestio/cylestio-local-mini-server/internal/domain"
	"github.com/cylestio/cylestio-local-mini-server/internal/repository"
)

// Extractor derives rows of one kind from an event. Applicable must be
// a pure predicate over the event's type and payload shape; Extract
// writes through the transaction-scoped store it is handed.
type Extractor interface {
	Name() string
	Applicable(ev *domain.Event) bool
	Extract(ctx context.Context, ev *domain.Event, store repository.EventStore) error
}

// SafeExtract runs one extractor inside a failure boundary. Panics and
// errors are logged and returned; they never propagate to the caller,
// so one extractor cannot abort its siblings.
func SafeExtract(ctx context.Context, log *slog.Logger, ex Extractor, ev *domain.Event, store repository.EventStore) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("extractor %s panicked: %v", ex.Name(), r)
		}
		if err != nil {
			log.Error("extractor failed",
				"extractor", ex.Name(),
				"agent_id", ev.AgentID,
				"event_type", ev.EventType,
				"error", err)
		}
	}()
	return ex.Extract(ctx, ev, store)
}

// Registry holds the known extractors in registration order. It is
// built once at startup and read-shared afterwards; registration is
// not safe concurrently with dispatch.
type Registry struct {
	ordered []Extractor
	byName  map[string]Extractor
	byType  map[string][]Extractor
}

func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]Extractor),
		byType: make(map[string][]Extractor),
	}
}

// Register appends an extractor to the ordered set. Extractors that
// create parent rows (agents, sessions) must be registered before any
// extractor whose rows reference them.
func (r *Registry) Register(ex Extractor) {
	r.ordered = append(r.ordered, ex)
	r.byName[ex.Name()] = ex
}

// RegisterForEventType additionally indexes an extractor under an
// explicit event type, so it is dispatched for that type even when its
// own predicate does not match.
func (r *Registry) RegisterForEventType(eventType string, ex Extractor) {
	if _, ok := r.byName[ex.Name()]; !ok {
		r.Register(ex)
	}
	r.byType[eventType] = append(r.byType[eventType], ex)
}

// ApplicableFor returns the extractors to run for ev, preserving
// registration order. An extractor matches when its predicate holds or
// when it was indexed under the event's type.
func (r *Registry) ApplicableFor(ev *domain.Event) []Extractor {
	indexed := make(map[string]bool)
	for _, ex := range r.byType[ev.EventType] {
		indexed[ex.Name()] = true
	}
	var out []Extractor
	for _, ex := range r.ordered {
		if indexed[ex.Name()] || ex.Applicable(ev) {
			out = append(out, ex)
		}
	}
	return out
}

func (r *Registry) ByName(name string) (Extractor, bool) {
	ex, ok := r.byName[name]
	return ex, ok
}

// Names lists registered extractor names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.ordered))
	for _, ex := range r.ordered {
		names = append(names, ex.Name())
	}
	return names
}

// DefaultRegistry builds the standard extractor set. CommonExtractor
// runs first so agent and session rows exist before any extractor
// references them.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(NewCommonExtractor())
	r.Register(NewMonitorExtractor())
	r.Register(NewTokenUsageExtractor())
	r.Register(NewPerformanceExtractor())
	r.Register(NewSecurityExtractor())
	r.Register(NewModelInfoExtractor())
	r.Register(NewFrameworkExtractor())
	return r
}
