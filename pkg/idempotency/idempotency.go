// Package idempotency remembers which inbound deliveries a consumer has
// already handled. Marks live in Redis under
// sf:idempotency:delivery:<consumer>:<delivery_id>.
package idempotency

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/belacosmetics/storefront-backend/pkg/redis"
)

const deliveryScope = "delivery:"

var (
	errNoConsumer = errors.New("consumer name is required")
	errNoDelivery = errors.New("delivery id is required")
)

// Manager marks deliveries with SETNX. A zero ttl keeps marks forever.
type Manager struct {
	store redis.IdempotencyStore
	ttl   time.Duration
}

func NewManager(store redis.IdempotencyStore, ttl time.Duration) (*Manager, error) {
	switch {
	case store == nil:
		return nil, errors.New("idempotency store is required")
	case ttl < 0:
		return nil, errors.New("ttl must be non-negative")
	}
	return &Manager{store: store, ttl: ttl}, nil
}

// CheckAndMark reports whether the delivery was marked before this call.
// The first caller marks it and gets false.
func (m *Manager) CheckAndMark(ctx context.Context, consumer, deliveryID string) (bool, error) {
	key, err := m.key(consumer, deliveryID)
	if err != nil {
		return false, err
	}
	fresh, err := m.store.SetNX(ctx, key, "1", m.ttl)
	if err != nil {
		return false, err
	}
	return !fresh, nil
}

// Delete drops the mark so a retried delivery is handled again.
func (m *Manager) Delete(ctx context.Context, consumer, deliveryID string) error {
	key, err := m.key(consumer, deliveryID)
	if err != nil {
		return err
	}
	return m.store.Del(ctx, key)
}

func (m *Manager) key(consumer, deliveryID string) (string, error) {
	if consumer == "" {
		return "", errNoConsumer
	}
	id := strings.TrimSpace(deliveryID)
	if id == "" {
		return "", errNoDelivery
	}
	return m.store.IdempotencyKey(deliveryScope+consumer, id), nil
}
