package extract

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cylestio/cylestio-local-mini-server/internal/domain"
	"github.com/cylestio/cylestio-local-mini-server/internal/repository"
)

// ExtractorResult records one extractor attempt within an outcome.
type ExtractorResult struct {
	Name string
	OK   bool
	Err  error
}

// Outcome summarizes the processing of one event. Extractor failures
// are diagnostics; the event itself was persisted unless Process
// returned an error.
type Outcome struct {
	ProcessingID string
	EventID      int64
	Results      []ExtractorResult
}

// Failed lists the extractors that did not complete.
func (o *Outcome) Failed() []string {
	var names []string
	for _, r := range o.Results {
		if !r.OK {
			names = append(names, r.Name)
		}
	}
	return names
}

// Processor runs ingested events through the extractor pipeline, one
// transaction per event.
type Processor struct {
	registry *Registry
	tx       repository.TxRunner
	log      *slog.Logger

	now func() time.Time
}

func NewProcessor(registry *Registry, tx repository.TxRunner, log *slog.Logger) *Processor {
	return &Processor{
		registry: registry,
		tx:       tx,
		log:      log.With("component", "processor"),
		now:      time.Now,
	}
}

// Process persists ev and runs every applicable extractor against it
// inside a single transaction. Extractor failures are isolated: each
// is flagged in the outcome and the rest proceed. An error return
// means the transaction itself failed and nothing was written.
func (p *Processor) Process(ctx context.Context, ev *domain.Event) (*Outcome, error) {
	p.applyDefaults(ev)

	outcome := &Outcome{ProcessingID: uuid.NewString()}
	err := p.tx.InTx(ctx, func(store repository.EventStore) error {
		if err := store.InsertEvent(ctx, ev); err != nil {
			return err
		}
		outcome.EventID = ev.ID
		for _, ex := range p.registry.ApplicableFor(ev) {
			exErr := p.runExtractor(ctx, ex, ev, store)
			outcome.Results = append(outcome.Results, ExtractorResult{
				Name: ex.Name(),
				OK:   exErr == nil,
				Err:  exErr,
			})
		}
		return nil
	})
	if err != nil {
		p.log.Error("event processing failed",
			"processing_id", outcome.ProcessingID,
			"agent_id", ev.AgentID,
			"event_type", ev.EventType,
			"error", err)
		return nil, err
	}

	if failed := outcome.Failed(); len(failed) > 0 {
		p.log.Warn("event processed with extractor failures",
			"processing_id", outcome.ProcessingID,
			"event_id", outcome.EventID,
			"failed", failed)
	}
	return outcome, nil
}

// runExtractor runs ex under SafeExtract, inside its own savepoint when
// the store supports one. A failed statement aborts the whole Postgres
// transaction; rolling back to the savepoint keeps sibling writes and
// the event row committable.
func (p *Processor) runExtractor(ctx context.Context, ex Extractor, ev *domain.Event, store repository.EventStore) error {
	if sp, ok := store.(repository.Savepointer); ok {
		return sp.InSavepoint(ctx, func(s repository.EventStore) error {
			return SafeExtract(ctx, p.log, ex, ev, s)
		})
	}
	return SafeExtract(ctx, p.log, ex, ev, store)
}

// ProcessBatch processes events independently, one transaction each. A
// failed event yields a nil outcome at its position; the first error
// is returned alongside the full outcome slice.
func (p *Processor) ProcessBatch(ctx context.Context, evs []*domain.Event) ([]*Outcome, error) {
	outcomes := make([]*Outcome, len(evs))
	var firstErr error
	for i, ev := range evs {
		outcome, err := p.Process(ctx, ev)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		outcomes[i] = outcome
	}
	return outcomes, firstErr
}

func (p *Processor) applyDefaults(ev *domain.Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = p.now().UTC()
	}
	if ev.Level == "" {
		ev.Level = domain.LevelInfo
	} else {
		ev.Level = strings.ToUpper(ev.Level)
	}
	if ev.Channel == "" {
		ev.Channel = "UNKNOWN"
	}
	ev.IsProcessed = true
}
