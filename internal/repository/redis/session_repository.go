package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"virtual-hr-be/pkg/apperror"
	"virtual-hr-be/pkg/store"

	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "hr:session:"

// SessionRepository keeps sessions in Redis with optimistic locking on Version,
// so replicas sharing the store cannot overwrite each other's turns.
type SessionRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionRepository(client *redis.Client, ttl time.Duration) *SessionRepository {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &SessionRepository{
		client: client,
		ttl:    ttl,
	}
}

func (r *SessionRepository) Get(ctx context.Context, employeeID string) (*store.Session, error) {
	val, err := r.client.Get(ctx, r.key(employeeID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get session: %w", err)
	}

	var s store.Session
	if err := json.Unmarshal([]byte(val), &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if s.Slots == nil {
		s.Slots = map[string]string{}
	}
	return &s, nil
}

// Save uses WATCH/MULTI/EXEC: the write only commits when the stored version
// still equals session.Version. A missing key is treated as a fresh create.
func (r *SessionRepository) Save(ctx context.Context, session *store.Session) error {
	key := r.key(session.EmployeeID)

	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		val, err := tx.Get(ctx, key).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if err == nil {
			var stored store.Session
			if err := json.Unmarshal([]byte(val), &stored); err != nil {
				return err
			}
			if stored.Version != session.Version {
				return apperror.ErrStateConflict
			}
		}

		next := session.Clone()
		next.Version++
		newVal, err := json.Marshal(next)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, newVal, r.ttl)
			return nil
		})
		return err
	}, key)

	switch {
	case err == nil:
		session.Version++
		return nil
	case errors.Is(err, redis.TxFailedErr):
		return apperror.ErrStateConflict
	default:
		return err
	}
}

func (r *SessionRepository) Delete(ctx context.Context, employeeID string) error {
	return r.client.Del(ctx, r.key(employeeID)).Err()
}

func (r *SessionRepository) key(employeeID string) string {
	return sessionKeyPrefix + employeeID
}
