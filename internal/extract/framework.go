package extract

import (
	"context"

	"github.com/cylestio/cylestio-local-mini-server/internal/domain"
	"github.com/cylestio/cylestio-local-mini-server/internal/jsonpath"
	"github.com/cylestio/cylestio-local-mini-server/internal/repository"
)

var frameworkNamePaths = []string{
	"framework.name",
	"framework",
}

// FrameworkExtractor records agent-framework integration details,
// mainly from framework_patch events emitted when an SDK instruments a
// framework component.
type FrameworkExtractor struct{}

func NewFrameworkExtractor() *FrameworkExtractor { return &FrameworkExtractor{} }

func (*FrameworkExtractor) Name() string { return "framework" }

func (*FrameworkExtractor) Applicable(ev *domain.Event) bool {
	return ev.EventType == "framework_patch" || jsonpath.Has(ev.Data, "framework")
}

func (*FrameworkExtractor) Extract(ctx context.Context, ev *domain.Event, store repository.EventStore) error {
	name := jsonpath.AsString(jsonpath.ResolveFirst(ev.Data, frameworkNamePaths, nil), "")
	if name == "" {
		return nil
	}
	fd := &domain.FrameworkDetails{
		EventID:       ev.ID,
		FrameworkName: name,
		FrameworkVersion: jsonpath.AsString(jsonpath.ResolveFirst(ev.Data,
			[]string{"framework.version", "version"}, nil), ""),
		ComponentName: jsonpath.AsString(jsonpath.ResolveFirst(ev.Data,
			[]string{"patch.component", "component"}, nil), ""),
		ComponentType: jsonpath.AsString(jsonpath.ResolveFirst(ev.Data,
			[]string{"patch.component_type", "component_type"}, nil), ""),
		MethodName: jsonpath.AsString(jsonpath.ResolveFirst(ev.Data,
			[]string{"patch.method", "method"}, nil), ""),
	}
	if components, ok := ev.Data["components"].(map[string]any); ok {
		fd.Components = components
	}
	return store.InsertFrameworkDetails(ctx, fd)
}
