package extract

import (
	"context"

	"github.com/cylestio/cylestio-local-mini-server/internal/domain"
	"github.com/cylestio/cylestio-local-mini-server/internal/jsonpath"
	"github.com/cylestio/cylestio-local-mini-server/internal/repository"
)

var (
	modelNamePaths = []string{
		"model.name",
		"model",
		"request.model",
		"response.model",
		"llm_output.model_name",
	}
	modelProviderPaths = []string{
		"model.provider",
		"provider",
		"llm_provider",
	}
	temperaturePaths = []string{
		"model.config.temperature",
		"request.temperature",
		"config.temperature",
	}
	maxTokensPaths = []string{
		"model.config.max_tokens",
		"request.max_tokens",
		"config.max_tokens",
	}
)

// ModelInfoExtractor records which model served an event and its
// visible configuration.
type ModelInfoExtractor struct{}

func NewModelInfoExtractor() *ModelInfoExtractor { return &ModelInfoExtractor{} }

func (*ModelInfoExtractor) Name() string { return "model_info" }

func (*ModelInfoExtractor) Applicable(ev *domain.Event) bool {
	for _, p := range modelNamePaths {
		if jsonpath.Has(ev.Data, p) {
			return true
		}
	}
	return false
}

func (*ModelInfoExtractor) Extract(ctx context.Context, ev *domain.Event, store repository.EventStore) error {
	name := jsonpath.AsString(jsonpath.ResolveFirst(ev.Data, modelNamePaths, nil), "")
	if name == "" {
		return nil
	}
	md := &domain.ModelDetails{
		EventID:       ev.ID,
		ModelName:     name,
		ModelProvider: jsonpath.AsString(jsonpath.ResolveFirst(ev.Data, modelProviderPaths, nil), ""),
		ModelType:     jsonpath.AsString(jsonpath.Resolve(ev.Data, "model.type", nil), ""),
		ModelVersion:  jsonpath.AsString(jsonpath.Resolve(ev.Data, "model.version", nil), ""),
	}
	if v := jsonpath.ResolveFirst(ev.Data, temperaturePaths, nil); v != nil {
		t := jsonpath.AsFloat(v, 0)
		md.Temperature = &t
	}
	if v := jsonpath.ResolveFirst(ev.Data, maxTokensPaths, nil); v != nil {
		m := jsonpath.AsInt(v, 0)
		md.MaxTokens = &m
	}
	return store.InsertModelDetails(ctx, md)
}
