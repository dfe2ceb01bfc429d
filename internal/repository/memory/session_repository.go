package memory

import (
	"context"
	"sync"
	"time"

	"virtual-hr-be/pkg/apperror"
	"virtual-hr-be/pkg/store"

	"github.com/patrickmn/go-cache"
)

type SessionRepository struct {
	mu    sync.Mutex
	cache *cache.Cache
}

// NewSessionRepository keeps sessions for ttl after their last save and
// purges expired items every cleanup interval.
func NewSessionRepository(ttl, cleanup time.Duration) *SessionRepository {
	return &SessionRepository{
		cache: cache.New(ttl, cleanup),
	}
}

func (r *SessionRepository) Get(ctx context.Context, employeeID string) (*store.Session, error) {
	if x, found := r.cache.Get(employeeID); found {
		return x.(*store.Session).Clone(), nil
	}
	return nil, nil
}

// Save stores a copy of session when its version matches the stored one,
// then bumps the version on both.
func (r *SessionRepository) Save(ctx context.Context, session *store.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if x, found := r.cache.Get(session.EmployeeID); found {
		if x.(*store.Session).Version != session.Version {
			return apperror.ErrStateConflict
		}
	}

	session.Version++
	r.cache.Set(session.EmployeeID, session.Clone(), cache.DefaultExpiration)
	return nil
}

func (r *SessionRepository) Delete(ctx context.Context, employeeID string) error {
	r.cache.Delete(employeeID)
	return nil
}

func (r *SessionRepository) Count() int {
	return r.cache.ItemCount()
}
