// Package idempotency guards event consumers against duplicate Pub/Sub deliveries.
//
// A delivery first claims the event with a short processing lease. Once the
// handler succeeds the key is rewritten as done for the retention TTL. A crash
// mid-processing only blocks redelivery until the lease expires.
package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultLease = 5 * time.Minute

	valueProcessing = "processing"
	valueDone       = "done"
)

// State is the outcome of Claim.
type State int

const (
	// Claimed means the caller owns the event and must Complete or Release it.
	Claimed State = iota
	// InFlight means another delivery holds the lease; retry later.
	InFlight
	// Done means the event was already handled.
	Done
)

func (s State) String() string {
	switch s {
	case Claimed:
		return "claimed"
	case InFlight:
		return "in_flight"
	case Done:
		return "done"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Store is the subset of the redis client the manager needs.
type Store interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	IdempotencyKey(scope, id string) string
}

// Manager keys events as handcar:idempotency:evt:<consumer>:<event_id>.
type Manager struct {
	store Store
	ttl   time.Duration
	lease time.Duration
}

// NewManager keeps done markers for ttl (0 keeps them forever).
func NewManager(store Store, ttl time.Duration) (*Manager, error) {
	if store == nil {
		return nil, errors.New("idempotency store is required")
	}
	if ttl < 0 {
		return nil, errors.New("ttl must be non-negative")
	}
	lease := DefaultLease
	if ttl > 0 && ttl < lease {
		lease = ttl
	}
	return &Manager{store: store, ttl: ttl, lease: lease}, nil
}

func (m *Manager) Claim(ctx context.Context, consumer string, eventID uuid.UUID) (State, error) {
	key, err := m.key(consumer, eventID)
	if err != nil {
		return InFlight, err
	}
	ok, err := m.store.SetNX(ctx, key, valueProcessing, m.lease)
	if err != nil {
		return InFlight, fmt.Errorf("claim %s: %w", key, err)
	}
	if ok {
		return Claimed, nil
	}
	current, err := m.store.Get(ctx, key)
	if err != nil {
		// lease expired between the two calls, or redis failed; either way retry later
		return InFlight, nil
	}
	if current == valueDone {
		return Done, nil
	}
	return InFlight, nil
}

// Complete marks a claimed event as handled.
func (m *Manager) Complete(ctx context.Context, consumer string, eventID uuid.UUID) error {
	key, err := m.key(consumer, eventID)
	if err != nil {
		return err
	}
	return m.store.Set(ctx, key, valueDone, m.ttl)
}

// Release drops a claim so the next delivery can retry immediately.
func (m *Manager) Release(ctx context.Context, consumer string, eventID uuid.UUID) error {
	key, err := m.key(consumer, eventID)
	if err != nil {
		return err
	}
	return m.store.Del(ctx, key)
}

func (m *Manager) key(consumer string, eventID uuid.UUID) (string, error) {
	if consumer == "" {
		return "", errors.New("consumer name is required")
	}
	if eventID == uuid.Nil {
		return "", errors.New("event id is required")
	}
	return m.store.IdempotencyKey("evt:"+consumer, eventID.String()), nil
}
