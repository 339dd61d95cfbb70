package mercadopagowebhook

import (
	"context"
	"testing"
	"time"

	"github.com/belacosmetics/storefront-backend/pkg/idempotency"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	keys map[string]time.Duration
}

func newMemoryStore() *memoryStore {
	return &memoryStore{keys: map[string]time.Duration{}}
}

func (m *memoryStore) Get(_ context.Context, key string) (string, error) {
	if _, ok := m.keys[key]; ok {
		return "1", nil
	}
	return "", nil
}

func (m *memoryStore) SetNX(_ context.Context, key string, _ any, ttl time.Duration) (bool, error) {
	if _, ok := m.keys[key]; ok {
		return false, nil
	}
	m.keys[key] = ttl
	return true, nil
}

func (m *memoryStore) IdempotencyKey(scope, id string) string {
	return "sf:idempotency:" + scope + ":" + id
}

func (m *memoryStore) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.keys, k)
	}
	return nil
}

func TestDeliveryGuardMarksAndReleases(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	manager, err := idempotency.NewManager(store, 24*time.Hour)
	require.NoError(t, err)
	guard, err := NewDeliveryGuard(manager)
	require.NoError(t, err)

	seen, err := guard.CheckAndMark(ctx, "req-1")
	require.NoError(t, err)
	assert.False(t, seen)
	assert.Equal(t, 24*time.Hour, store.keys["sf:idempotency:delivery:mercadopago-webhook:req-1"])

	seen, err = guard.CheckAndMark(ctx, "req-1")
	require.NoError(t, err)
	assert.True(t, seen)

	require.NoError(t, guard.Release(ctx, "req-1"))
	seen, err = guard.CheckAndMark(ctx, "req-1")
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestNewDeliveryGuardRequiresManager(t *testing.T) {
	_, err := NewDeliveryGuard(nil)
	assert.Error(t, err)
}
