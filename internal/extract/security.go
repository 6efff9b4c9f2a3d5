package extract

import (
	"context"
	"strings"

	"github.com/cylestio/cylestio-local-mini-server/internal/domain"
	"github.com/cylestio/cylestio-local-mini-server/internal/jsonpath"
	"github.com/cylestio/cylestio-local-mini-server/internal/repository"
)

// promptAlertTerms are scanned against outgoing prompt text when no
// explicit alert flag is present.
var promptAlertTerms = []string{"hack", "exploit", "bomb", "attack", "bypass"}

var promptPaths = []string{
	"prompt",
	"prompts",
	"request.prompt",
	"messages",
}

// SecurityExtractor turns alert flags and blocked calls into
// security_alerts rows.
type SecurityExtractor struct{}

func NewSecurityExtractor() *SecurityExtractor { return &SecurityExtractor{} }

func (*SecurityExtractor) Name() string { return "security" }

func (*SecurityExtractor) Applicable(ev *domain.Event) bool {
	if ev.Alert != "" || ev.EventType == "LLM_call_blocked" {
		return true
	}
	if jsonpath.Has(ev.Data, "alert") {
		return true
	}
	return ev.EventType == "LLM_call_start"
}

func (*SecurityExtractor) Extract(ctx context.Context, ev *domain.Event, store repository.EventStore) error {
	alertType, severity, description := classify(ev)
	if alertType == "" {
		return nil
	}
	sa := &domain.SecurityAlert{
		EventID:     ev.ID,
		AlertType:   alertType,
		Severity:    severity,
		Description: description,
		Timestamp:   ev.Timestamp,
	}
	return store.InsertSecurityAlert(ctx, sa)
}

// classify maps an event to (alert_type, severity, description).
// Returns an empty alert_type when the event carries nothing
// actionable.
func classify(ev *domain.Event) (string, string, string) {
	if ev.EventType == "LLM_call_blocked" {
		return "blocked", domain.SeverityHigh,
			jsonpath.AsString(jsonpath.Resolve(ev.Data, "reason", nil), "call blocked by policy")
	}

	alert := ev.Alert
	if alert == "" {
		alert = jsonpath.AsString(jsonpath.Resolve(ev.Data, "alert", nil), "")
	}
	alert = strings.ToLower(strings.TrimSpace(alert))
	switch alert {
	case "", "none":
	case "dangerous":
		return alert, domain.SeverityHigh, alertDescription(ev)
	case "suspicious":
		return alert, domain.SeverityMedium, alertDescription(ev)
	default:
		return alert, domain.SeverityLow, alertDescription(ev)
	}

	// No explicit flag. Scan outgoing prompt text for terms that
	// warrant a suspicious marker.
	if ev.EventType != "LLM_call_start" {
		return "", "", ""
	}
	prompt := strings.ToLower(promptText(ev.Data))
	for _, term := range promptAlertTerms {
		if strings.Contains(prompt, term) {
			return "suspicious", domain.SeverityMedium, "prompt contains term: " + term
		}
	}
	return "", "", ""
}

func alertDescription(ev *domain.Event) string {
	return jsonpath.AsString(jsonpath.ResolveFirst(ev.Data, []string{"alert_description", "description", "reason"}, nil), "")
}

// promptText joins whatever prompt-shaped content the payload carries
// into one searchable string.
func promptText(data map[string]any) string {
	var parts []string
	for _, p := range promptPaths {
		v := jsonpath.Resolve(data, p, nil)
		switch t := v.(type) {
		case string:
			parts = append(parts, t)
		case []any:
			for _, item := range t {
				switch m := item.(type) {
				case string:
					parts = append(parts, m)
				case map[string]any:
					parts = append(parts, jsonpath.AsString(jsonpath.Resolve(m, "content", nil), ""))
				}
			}
		}
	}
	return strings.Join(parts, "\n")
}
