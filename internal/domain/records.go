package domain

import "time"

// TokenUsage is the normalized token accounting derived from one event.
type TokenUsage struct {
	ID                  int64
	EventID             int64
	InputTokens         int64
	OutputTokens        int64
	TotalTokens         int64
	CacheReadTokens     int64
	CacheCreationTokens int64
	Model               string
}

// PerformanceMetric records one observed duration for an event.
type PerformanceMetric struct {
	ID         int64
	EventID    int64
	DurationMS float64
	Timestamp  time.Time
}

// Alert severities, lowest to highest.
const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// SecurityAlert is a security finding derived from one event.
type SecurityAlert struct {
	ID          int64
	EventID     int64
	AlertType   string
	Severity    string
	Description string
	Timestamp   time.Time
}

// ModelDetails captures which model served an event and how it was
// configured, when the payload exposes that.
type ModelDetails struct {
	ID            int64
	EventID       int64
	ModelName     string
	ModelProvider string
	ModelType     string
	ModelVersion  string
	Temperature   *float64
	MaxTokens     *int64
}

// FrameworkDetails records agent-framework integration information,
// populated mainly from framework_patch events.
type FrameworkDetails struct {
	ID               int64
	EventID          int64
	FrameworkName    string
	FrameworkVersion string
	ComponentName    string
	ComponentType    string
	Components       map[string]any
	MethodName       string
}
