package service

import (
	"context"
	"time"

	"virtual-hr-be/internal/dto"
	"virtual-hr-be/pkg/ledger"
)

// VectorCounter is the part of a vector store the health check probes.
type VectorCounter interface {
	Count(ctx context.Context) (int, error)
}

// Pinger is a model backend that can report reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

type IHealthService interface {
	Check(ctx context.Context) *dto.HealthResponse
}

type healthService struct {
	vectors       VectorCounter
	ledger        ledger.Ledger
	missingConfig []string
	backends      map[string]Pinger
	timeout       time.Duration
}

// NewHealthService probes the vector store, the ledger and any named model backends.
func NewHealthService(vectors VectorCounter, l ledger.Ledger, missingConfig []string, backends map[string]Pinger) IHealthService {
	return &healthService{
		vectors:       vectors,
		ledger:        l,
		missingConfig: missingConfig,
		backends:      backends,
		timeout:       3 * time.Second,
	}
}

func (s *healthService) Check(ctx context.Context) *dto.HealthResponse {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res := &dto.HealthResponse{
		Status:        "ok",
		Components:    map[string]string{},
		MissingConfig: s.missingConfig,
	}

	if n, err := s.vectors.Count(ctx); err != nil {
		res.Components["vector_store"] = "down: " + err.Error()
		res.Status = "degraded"
	} else {
		res.Components["vector_store"] = "ok"
		res.IndexedChunks = n
	}

	if _, err := s.ledger.ReadRows(ctx, ledger.SheetLeave, ledger.Filter{ledger.ColEmployeeID: "__health__"}); err != nil {
		res.Components["ledger"] = "down: " + err.Error()
		res.Status = "degraded"
	} else {
		res.Components["ledger"] = "ok"
	}

	for name, backend := range s.backends {
		if err := backend.Ping(ctx); err != nil {
			res.Components[name] = "down: " + err.Error()
			res.Status = "degraded"
			continue
		}
		res.Components[name] = "ok"
	}

	if len(s.missingConfig) > 0 {
		res.Status = "degraded"
	}
	return res
}
