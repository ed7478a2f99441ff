package plugin

import "context"

// Health states reported by HealthChecker.
const (
	HealthOK       = "ok"
	HealthDegraded = "degraded"
)

// HealthStatus is a plugin's self-reported health.
type HealthStatus struct {
	Status  string            `json:"status"`
	Details map[string]string `json:"details,omitempty"`
}

// HealthChecker is implemented by plugins that report their health status.
type HealthChecker interface {
	Health(ctx context.Context) HealthStatus
}

// Describer is implemented by plugins that provide a human-readable summary.
type Describer interface {
	Description() string
}
