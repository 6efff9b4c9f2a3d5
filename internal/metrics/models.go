package metrics

import (
	"context"

	"github.com/cylestio/cylestio-local-mini-server/internal/repository"
)

// ModelCalculator reports token consumption attributed to the busiest
// models.
type ModelCalculator struct {
	TopN int
}

func (*ModelCalculator) Name() string { return "models" }

func (c *ModelCalculator) Calculate(ctx context.Context, store repository.MetricStore, f Filter) (*Result, error) {
	topN := c.TopN
	if topN <= 0 {
		topN = 10
	}
	perModel, err := store.TokenTotalsByModel(ctx, f.Store(), topN)
	if err != nil {
		return nil, err
	}

	models := make([]map[string]any, 0, len(perModel))
	for _, m := range perModel {
		name := m.Model
		if name == "" {
			name = "unknown"
		}
		models = append(models, map[string]any{
			"model":         name,
			"requests":      m.Requests,
			"input_tokens":  m.InputTokens,
			"output_tokens": m.OutputTokens,
			"total_tokens":  m.TotalTokens,
		})
	}
	return &Result{
		Type: c.Name(),
		Overall: map[string]any{
			"model_count": len(perModel),
			"models":      models,
		},
		TimeSeries: []Sample{},
	}, nil
}
