package rag

import "context"

// HealthChecker is anything whose reachability gates readiness.
type HealthChecker interface {
	Healthy(ctx context.Context) error
}

type ComponentStatus string

const (
	StatusOK   ComponentStatus = "ok"
	StatusFail ComponentStatus = "fail"
)

// ReadinessStatus reports per-dependency reachability. The process can be
// live while not ready, e.g. during startup before the store accepts
// connections.
type ReadinessStatus struct {
	Ready         bool
	Store         ComponentStatus
	ModelProvider ComponentStatus
}

// SystemService implements the readiness probe.
type SystemService struct {
	store    HealthChecker
	provider HealthChecker
}

func NewSystemService(store, provider HealthChecker) *SystemService {
	return &SystemService{store: store, provider: provider}
}

func (s *SystemService) CheckReadiness(ctx context.Context) ReadinessStatus {
	status := ReadinessStatus{
		Ready:         true,
		Store:         StatusOK,
		ModelProvider: StatusOK,
	}
	if err := s.store.Healthy(ctx); err != nil {
		status.Ready = false
		status.Store = StatusFail
	}
	if err := s.provider.Healthy(ctx); err != nil {
		status.Ready = false
		status.ModelProvider = StatusFail
	}
	return status
}
