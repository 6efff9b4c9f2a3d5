package extract

import (
	"context"

	"github.com/cylestio/cylestio-local-mini-server/internal/domain"
	"github.com/cylestio/cylestio-local-mini-server/internal/jsonpath"
	"github.com/cylestio/cylestio-local-mini-server/internal/repository"
)

// Candidate payload locations for token counts. SDK versions and LLM
// frameworks disagree on where usage lives, so each field is resolved
// through an ordered path list and the first present value wins.
var (
	inputTokenPaths = []string{
		"usage.input_tokens",
		"usage.prompt_tokens",
		"response.usage.input_tokens",
		"response.usage.prompt_tokens",
		"llm_output.usage.input_tokens",
		"response.llm_output.usage.input_tokens",
		"response.message.usage_metadata.input_tokens",
	}
	outputTokenPaths = []string{
		"usage.output_tokens",
		"usage.completion_tokens",
		"response.usage.output_tokens",
		"response.usage.completion_tokens",
		"llm_output.usage.output_tokens",
		"response.llm_output.usage.output_tokens",
		"response.message.usage_metadata.output_tokens",
	}
	totalTokenPaths = []string{
		"usage.total_tokens",
		"response.usage.total_tokens",
		"response.message.usage_metadata.total_tokens",
	}
	cacheReadPaths = []string{
		"usage.cache_read_input_tokens",
		"response.usage.cache_read_input_tokens",
		"response.message.usage_metadata.input_token_details.cache_read",
	}
	cacheCreationPaths = []string{
		"usage.cache_creation_input_tokens",
		"response.usage.cache_creation_input_tokens",
	}
	usageModelPaths = []string{
		"model",
		"response.model",
		"llm_output.model_name",
		"response.llm_output.model_name",
	}
)

// TokenUsageExtractor records token accounting for completed LLM
// calls.
type TokenUsageExtractor struct{}

func NewTokenUsageExtractor() *TokenUsageExtractor { return &TokenUsageExtractor{} }

func (*TokenUsageExtractor) Name() string { return "token_usage" }

func (*TokenUsageExtractor) Applicable(ev *domain.Event) bool {
	switch ev.EventType {
	case "LLM_call_finish", "model_response", "completion":
		return true
	}
	for _, p := range inputTokenPaths {
		if jsonpath.Has(ev.Data, p) {
			return true
		}
	}
	return false
}

func (*TokenUsageExtractor) Extract(ctx context.Context, ev *domain.Event, store repository.EventStore) error {
	input := jsonpath.AsInt(jsonpath.ResolveFirst(ev.Data, inputTokenPaths, nil), 0)
	output := jsonpath.AsInt(jsonpath.ResolveFirst(ev.Data, outputTokenPaths, nil), 0)
	if input <= 0 && output <= 0 {
		return nil
	}
	total := jsonpath.AsInt(jsonpath.ResolveFirst(ev.Data, totalTokenPaths, nil), 0)
	if total <= 0 {
		total = input + output
	}

	tu := &domain.TokenUsage{
		EventID:             ev.ID,
		InputTokens:         input,
		OutputTokens:        output,
		TotalTokens:         total,
		CacheReadTokens:     jsonpath.AsInt(jsonpath.ResolveFirst(ev.Data, cacheReadPaths, nil), 0),
		CacheCreationTokens: jsonpath.AsInt(jsonpath.ResolveFirst(ev.Data, cacheCreationPaths, nil), 0),
		Model:               jsonpath.AsString(jsonpath.ResolveFirst(ev.Data, usageModelPaths, nil), ""),
	}
	if err := store.InsertTokenUsage(ctx, tu); err != nil {
		return err
	}

	if ev.SessionID == "" {
		return nil
	}
	return store.AddSessionTokens(ctx, ev.SessionID, total)
}
