package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/cylestio/cylestio-local-mini-server/internal/repository"
)

// Filter bounds the rows one calculation reads. Zero-valued string
// fields mean "no constraint".
type Filter struct {
	Start      time.Time
	End        time.Time
	AgentID    string
	SessionID  string
	Interval   Interval
	EventTypes []string
	Levels     []string
}

func (f Filter) Store() repository.MetricFilter {
	return repository.MetricFilter{
		Start:      f.Start,
		End:        f.End,
		AgentID:    f.AgentID,
		SessionID:  f.SessionID,
		EventTypes: f.EventTypes,
		Levels:     f.Levels,
	}
}

// Sample is one time-series point, tagged with its bucket start.
type Sample struct {
	Bucket time.Time      `json:"timestamp"`
	Values map[string]any `json:"values"`
}

// Result is one computed metric family. Overall is never nil; an empty
// range produces zero-valued stats and an empty time series rather
// than an absent result.
type Result struct {
	Type       string         `json:"type"`
	Overall    map[string]any `json:"overall"`
	TimeSeries []Sample       `json:"time_series"`
}

// Calculator computes one metric family over a filtered slice of the
// store.
type Calculator interface {
	Name() string
	Calculate(ctx context.Context, store repository.MetricStore, f Filter) (*Result, error)
}

// Outcome is the per-calculator result of a batch run.
type Outcome struct {
	Result *Result
	Err    error
}

// Registry holds the known calculators. Like the extractor registry it
// is immutable after startup and read-shared across requests.
type Registry struct {
	ordered []Calculator
	byName  map[string]Calculator
}

func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Calculator)}
}

func (r *Registry) Register(c Calculator) {
	r.ordered = append(r.ordered, c)
	r.byName[c.Name()] = c
}

func (r *Registry) ByName(name string) (Calculator, bool) {
	c, ok := r.byName[name]
	return c, ok
}

// Names lists registered calculator names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.ordered))
	for _, c := range r.ordered {
		names = append(names, c.Name())
	}
	return names
}

// RunAll computes every registered family. A calculator failure is
// reported under its name; it never aborts the batch.
func (r *Registry) RunAll(ctx context.Context, store repository.MetricStore, f Filter) map[string]Outcome {
	out := make(map[string]Outcome, len(r.ordered))
	for _, c := range r.ordered {
		res, err := c.Calculate(ctx, store, f)
		out[c.Name()] = Outcome{Result: res, Err: err}
	}
	return out
}

// RunSelected computes only the named families. Unknown names are
// reported as per-name failures alongside the successes.
func (r *Registry) RunSelected(ctx context.Context, store repository.MetricStore, names []string, f Filter) map[string]Outcome {
	out := make(map[string]Outcome, len(names))
	for _, name := range names {
		c, ok := r.byName[name]
		if !ok {
			out[name] = Outcome{Err: fmt.Errorf("unknown metric %q", name)}
			continue
		}
		res, err := c.Calculate(ctx, store, f)
		out[name] = Outcome{Result: res, Err: err}
	}
	return out
}

// DefaultRegistry builds the standard calculator set.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&ActivityCalculator{})
	r.Register(&UsageCalculator{})
	r.Register(&PerformanceCalculator{})
	r.Register(&ErrorCalculator{})
	r.Register(&SecurityCalculator{})
	r.Register(&ModelCalculator{TopN: 10})
	return r
}
