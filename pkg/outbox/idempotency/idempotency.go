package idempotency

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/angelmondragon/storefront-backend/pkg/redis"
)

const defaultOwner = "1"

// Manager guards event delivery with Redis SETNX claims so an outbox row is
// handed to Pub/Sub at most once per TTL even when publishers overlap.
// Keys follow the `sf:idempotency:evt:<publisher>:<event_id>` pattern and
// hold the claiming instance id.
type Manager struct {
	store redis.IdempotencyStore
	ttl   time.Duration
	owner string
}

// Option customises a Manager.
type Option func(*Manager)

// WithOwner records id as the claim value so duplicates can be traced to
// the instance that delivered first.
func WithOwner(id string) Option {
	return func(m *Manager) {
		if id != "" {
			m.owner = id
		}
	}
}

// NewManager builds a claim guard that holds each event for ttl. A zero ttl
// keeps claims until released.
func NewManager(store redis.IdempotencyStore, ttl time.Duration, opts ...Option) (*Manager, error) {
	switch {
	case store == nil:
		return nil, errors.New("idempotency store is required")
	case ttl < 0:
		return nil, errors.New("ttl must be non-negative")
	}
	m := &Manager{store: store, ttl: ttl, owner: defaultOwner}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Claim reports whether the caller now owns eventID.
func (m *Manager) Claim(ctx context.Context, publisher string, eventID uuid.UUID) (bool, error) {
	key, err := m.key(publisher, eventID)
	if err != nil {
		return false, err
	}
	return m.store.SetNX(ctx, key, m.owner, m.ttl)
}

// Holder returns the owner recorded for eventID, or "" when unclaimed.
func (m *Manager) Holder(ctx context.Context, publisher string, eventID uuid.UUID) (string, error) {
	key, err := m.key(publisher, eventID)
	if err != nil {
		return "", err
	}
	owner, err := m.store.Get(ctx, key)
	if errors.Is(err, goredis.Nil) {
		return "", nil
	}
	return owner, err
}

// Release drops a claim so the event can be retried.
func (m *Manager) Release(ctx context.Context, publisher string, eventID uuid.UUID) error {
	key, err := m.key(publisher, eventID)
	if err != nil {
		return err
	}
	return m.store.Del(ctx, key)
}

func (m *Manager) key(publisher string, eventID uuid.UUID) (string, error) {
	switch {
	case publisher == "":
		return "", errors.New("publisher name is required")
	case eventID == uuid.Nil:
		return "", errors.New("event id is required")
	}
	return m.store.IdempotencyKey("evt:"+publisher, eventID.String()), nil
}
