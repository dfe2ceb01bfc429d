package session

import (
	"context"
	"fmt"
	"time"

	"virtual-hr-be/internal/pkg/logger"
	"virtual-hr-be/pkg/store"
)

const module = "SESSION"

// Repository persists sessions keyed by employee id. Get returns (nil, nil) when
// no session exists. Save fails with apperror.ErrStateConflict on a stale Version
// and increments Version on success.
type Repository interface {
	Get(ctx context.Context, employeeID string) (*store.Session, error)
	Save(ctx context.Context, session *store.Session) error
	Delete(ctx context.Context, employeeID string) error
}

// Manager handles session lifecycle: create on first message, expire on inactivity
type Manager struct {
	repo        Repository
	locker      *Locker
	ttl         time.Duration
	historySize int
	logger      logger.ILogger
	now         func() time.Time
}

func NewManager(repo Repository, ttl time.Duration, historySize int, log logger.ILogger) *Manager {
	return &Manager{
		repo:        repo,
		locker:      NewLocker(),
		ttl:         ttl,
		historySize: historySize,
		logger:      log,
		now:         time.Now,
	}
}

// WithClock overrides the time source. Used by tests.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

func (m *Manager) Now() time.Time { return m.now() }

func (m *Manager) HistorySize() int { return m.historySize }

// Lock serialises turns for one employee. The returned func releases the lock.
func (m *Manager) Lock(ctx context.Context, employeeID string) (func(), error) {
	return m.locker.Lock(ctx, employeeID)
}

// LoadOrCreate retrieves the employee's session, or starts a fresh one when none
// exists or the previous one has been inactive longer than the TTL.
func (m *Manager) LoadOrCreate(ctx context.Context, employeeID, employeeName string) (*store.Session, error) {
	s, err := m.repo.Get(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	now := m.now()

	if s == nil {
		return store.NewSession(employeeID, employeeName, now), nil
	}

	if m.ttl > 0 && now.Sub(s.LastActive) > m.ttl {
		m.logger.Info(module, "Session expired, starting fresh", map[string]interface{}{
			"employee_id": employeeID,
			"state":       string(s.State),
			"idle_for":    now.Sub(s.LastActive).String(),
		})
		fresh := store.NewSession(employeeID, employeeName, now)
		// carry the version so the first save of the fresh session replaces the old one
		fresh.Version = s.Version
		return fresh, nil
	}

	if employeeName != "" {
		s.EmployeeName = employeeName
	}
	return s, nil
}

// Save persists session state
func (m *Manager) Save(ctx context.Context, s *store.Session) error {
	s.LastActive = m.now()
	return m.repo.Save(ctx, s)
}

// Reset drops the session; the next message starts from IDLE.
func (m *Manager) Reset(ctx context.Context, employeeID string) error {
	return m.repo.Delete(ctx, employeeID)
}

// Peek returns the stored session without creating one.
func (m *Manager) Peek(ctx context.Context, employeeID string) (*store.Session, error) {
	return m.repo.Get(ctx, employeeID)
}
