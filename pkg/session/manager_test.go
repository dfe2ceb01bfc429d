package session

import (
	"context"
	"testing"
	"time"

	"virtual-hr-be/internal/pkg/logger"
	"virtual-hr-be/internal/repository/memory"
	"virtual-hr-be/pkg/apperror"
	"virtual-hr-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(now *time.Time) *Manager {
	repo := memory.NewSessionRepository(time.Hour, time.Hour)
	return NewManager(repo, 30*time.Minute, 20, logger.NewNop()).WithClock(func() time.Time { return *now })
}

func TestManager_CreatesOnFirstMessage(t *testing.T) {
	now := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	m := newTestManager(&now)

	s, err := m.LoadOrCreate(context.Background(), "EMP001", "Asha")
	require.NoError(t, err)
	assert.Equal(t, store.StateIdle, s.State)
	assert.Equal(t, "Asha", s.EmployeeName)
	assert.Zero(t, s.Version)
}

func TestManager_ResumesWithinTTL(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	m := newTestManager(&now)

	s, _ := m.LoadOrCreate(ctx, "EMP001", "Asha")
	s.State = store.StateAwaitingLeaveFields
	require.NoError(t, m.Save(ctx, s))

	now = now.Add(10 * time.Minute)
	s, err := m.LoadOrCreate(ctx, "EMP001", "")
	require.NoError(t, err)
	assert.Equal(t, store.StateAwaitingLeaveFields, s.State)
	assert.Equal(t, "Asha", s.EmployeeName)
}

func TestManager_ExpiresAfterInactivity(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	m := newTestManager(&now)

	s, _ := m.LoadOrCreate(ctx, "EMP001", "Asha")
	s.State = store.StateAwaitingFeedbackText
	s.Slots["feedback"] = "draft"
	require.NoError(t, m.Save(ctx, s))

	now = now.Add(31 * time.Minute)
	fresh, err := m.LoadOrCreate(ctx, "EMP001", "Asha")
	require.NoError(t, err)
	assert.Equal(t, store.StateIdle, fresh.State)
	assert.Empty(t, fresh.Slots)

	// the fresh session replaces the expired one without a conflict
	require.NoError(t, m.Save(ctx, fresh))
}

func TestManager_ConcurrentWriterConflicts(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	m := newTestManager(&now)

	s, _ := m.LoadOrCreate(ctx, "EMP001", "")
	require.NoError(t, m.Save(ctx, s))

	a, _ := m.LoadOrCreate(ctx, "EMP001", "")
	b, _ := m.LoadOrCreate(ctx, "EMP001", "")
	require.NoError(t, m.Save(ctx, a))
	assert.ErrorIs(t, m.Save(ctx, b), apperror.ErrStateConflict)
}

func TestManager_Reset(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	m := newTestManager(&now)

	s, _ := m.LoadOrCreate(ctx, "EMP001", "")
	s.State = store.StateAwaitingLeaveFields
	require.NoError(t, m.Save(ctx, s))
	require.NoError(t, m.Reset(ctx, "EMP001"))

	peek, err := m.Peek(ctx, "EMP001")
	require.NoError(t, err)
	assert.Nil(t, peek)
}
