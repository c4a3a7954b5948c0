// Package health aggregates component health for the readiness endpoint.
package health

import "context"

// StorePinger checks storage availability.
type StorePinger interface {
	Ping(ctx context.Context) error
}

// ProviderChecker checks embedding provider availability.
type ProviderChecker interface {
	HealthCheck(ctx context.Context) error
}

// Status is the aggregated service health.
type Status string

const (
	// StatusOK means every component is operational.
	StatusOK Status = "ok"
	// StatusDegraded means the embedding provider is down; reads still work.
	StatusDegraded Status = "degraded"
	// StatusError means storage is unreachable.
	StatusError Status = "error"
)

// Report is the aggregated outcome with per-component detail.
type Report struct {
	Status Status            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Service coordinates component health checks.
type Service struct {
	store    StorePinger
	provider ProviderChecker
}

// New creates a health service. provider may be nil when embedding is done
// out of process.
func New(store StorePinger, provider ProviderChecker) *Service {
	return &Service{store: store, provider: provider}
}

// Check probes each component. Storage is load-bearing for every operation,
// so its failure alone makes the service unhealthy; a failing embedding
// provider only degrades ingestion.
func (s *Service) Check(ctx context.Context) Report {
	report := Report{Status: StatusOK, Checks: make(map[string]string)}

	if err := s.store.Ping(ctx); err != nil {
		report.Status = StatusError
		report.Checks["storage"] = err.Error()
	} else {
		report.Checks["storage"] = "ok"
	}

	if s.provider != nil {
		if err := s.provider.HealthCheck(ctx); err != nil {
			if report.Status == StatusOK {
				report.Status = StatusDegraded
			}
			report.Checks["embedding_provider"] = err.Error()
		} else {
			report.Checks["embedding_provider"] = "ok"
		}
	}

	return report
}
