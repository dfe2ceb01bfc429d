package service

import (
	"context"
	"errors"
	"testing"

	"virtual-hr-be/pkg/apperror"
	"virtual-hr-be/pkg/ledger"

	"github.com/stretchr/testify/assert"
)

type fakeCounter struct {
	n   int
	err error
}

func (c fakeCounter) Count(ctx context.Context) (int, error) { return c.n, c.err }

type brokenLedger struct{ ledger.Ledger }

func (brokenLedger) ReadRows(ctx context.Context, sheet string, filter ledger.Filter) ([]ledger.Row, error) {
	return nil, apperror.ErrLedgerUnavailable
}

func TestHealthService_Check(t *testing.T) {
	tests := []struct {
		name    string
		vectors VectorCounter
		ledger  ledger.Ledger
		missing []string
		status  string
	}{
		{"healthy", fakeCounter{n: 12}, ledger.NewMemory(), nil, "ok"},
		{"vector store down", fakeCounter{err: errors.New("dial tcp: refused")}, ledger.NewMemory(), nil, "degraded"},
		{"ledger down", fakeCounter{n: 1}, brokenLedger{}, nil, "degraded"},
		{"missing config", fakeCounter{n: 1}, ledger.NewMemory(), []string{"JWT_SECRET"}, "degraded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := NewHealthService(tt.vectors, tt.ledger, tt.missing, nil).Check(context.Background())
			assert.Equal(t, tt.status, res.Status)
			assert.Len(t, res.Components, 2)
		})
	}

	res := NewHealthService(fakeCounter{n: 12}, ledger.NewMemory(), nil, nil).Check(context.Background())
	assert.Equal(t, 12, res.IndexedChunks)
	assert.Equal(t, "ok", res.Components["ledger"])
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(ctx context.Context) error { return p.err }

func TestHealthService_ModelBackends(t *testing.T) {
	svc := NewHealthService(fakeCounter{n: 1}, ledger.NewMemory(), nil, map[string]Pinger{
		"embedding": fakePinger{},
		"llm":       fakePinger{err: errors.New("connection refused")},
	})

	res := svc.Check(context.Background())
	assert.Equal(t, "degraded", res.Status)
	assert.Equal(t, "ok", res.Components["embedding"])
	assert.Contains(t, res.Components["llm"], "down")
}
