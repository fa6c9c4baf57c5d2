package observability

import "context"

// HealthStatus is the state reported by a component or a whole service.
type HealthStatus string

const (
	HealthStatusUp       HealthStatus = "up"
	HealthStatusDegraded HealthStatus = "degraded"
	HealthStatusDown     HealthStatus = "down"
)

// worse reports whether s is a more severe state than o.
func (s HealthStatus) worse(o HealthStatus) bool {
	return s.rank() > o.rank()
}

func (s HealthStatus) rank() int {
	switch s {
	case HealthStatusDown:
		return 2
	case HealthStatusDegraded:
		return 1
	}
	return 0
}

// Health is the report of a single component, such as the graph or the
// event hub.
type Health struct {
	Name    string            `json:"name"`
	Status  HealthStatus      `json:"status"`
	Message string            `json:"message,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// ServiceHealth aggregates component reports. Its status is the most severe
// component status.
type ServiceHealth struct {
	Service    string       `json:"service"`
	Status     HealthStatus `json:"status"`
	Version    string       `json:"version,omitempty"`
	Components []Health     `json:"components,omitempty"`
}

// HealthChecker is implemented by components that can report their health.
type HealthChecker interface {
	CheckHealth(ctx context.Context) Health
}

// HealthCheckerFunc adapts a function to HealthChecker.
type HealthCheckerFunc func(ctx context.Context) Health

func (f HealthCheckerFunc) CheckHealth(ctx context.Context) Health { return f(ctx) }

// Check runs the checkers in order and aggregates their reports.
func Check(ctx context.Context, service, version string, checkers ...HealthChecker) *ServiceHealth {
	sh := &ServiceHealth{
		Service:    service,
		Version:    version,
		Status:     HealthStatusUp,
		Components: make([]Health, 0, len(checkers)),
	}
	for _, c := range checkers {
		h := c.CheckHealth(ctx)
		sh.Components = append(sh.Components, h)
		if h.Status.worse(sh.Status) {
			sh.Status = h.Status
		}
	}
	return sh
}
