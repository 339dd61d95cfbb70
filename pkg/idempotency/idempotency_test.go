package idempotency

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	marks   map[string]time.Duration
	failSet error
	deleted []string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{marks: map[string]time.Duration{}}
}

func (m *memoryStore) Get(context.Context, string) (string, error) { return "", nil }

func (m *memoryStore) SetNX(_ context.Context, key string, _ any, ttl time.Duration) (bool, error) {
	if m.failSet != nil {
		return false, m.failSet
	}
	if _, ok := m.marks[key]; ok {
		return false, nil
	}
	m.marks[key] = ttl
	return true, nil
}

func (m *memoryStore) IdempotencyKey(scope, id string) string {
	return "sf:idempotency:" + scope + ":" + id
}

func (m *memoryStore) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.marks, k)
		m.deleted = append(m.deleted, k)
	}
	return nil
}

const deliveryKey = "sf:idempotency:delivery:mercadopago:req-abc"

func TestCheckAndMarkFirstThenSeen(t *testing.T) {
	store := newMemoryStore()
	manager, err := NewManager(store, 24*time.Hour)
	require.NoError(t, err)
	ctx := context.Background()

	seen, err := manager.CheckAndMark(ctx, "mercadopago", " req-abc ")
	require.NoError(t, err)
	assert.False(t, seen)
	assert.Equal(t, 24*time.Hour, store.marks[deliveryKey])

	seen, err = manager.CheckAndMark(ctx, "mercadopago", "req-abc")
	require.NoError(t, err)
	assert.True(t, seen)
}

func TestCheckAndMarkRejectsBadInput(t *testing.T) {
	manager, err := NewManager(newMemoryStore(), time.Hour)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = manager.CheckAndMark(ctx, "mercadopago", "  ")
	assert.ErrorIs(t, err, errNoDelivery)
	_, err = manager.CheckAndMark(ctx, "", "req-abc")
	assert.ErrorIs(t, err, errNoConsumer)
}

func TestCheckAndMarkSurfacesStoreError(t *testing.T) {
	store := newMemoryStore()
	store.failSet = errors.New("redis down")
	manager, err := NewManager(store, time.Hour)
	require.NoError(t, err)

	_, err = manager.CheckAndMark(context.Background(), "mercadopago", "req-abc")
	assert.ErrorIs(t, err, store.failSet)
}

func TestDeleteReleasesMark(t *testing.T) {
	store := newMemoryStore()
	manager, err := NewManager(store, time.Hour)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = manager.CheckAndMark(ctx, "mercadopago", "req-abc")
	require.NoError(t, err)
	require.NoError(t, manager.Delete(ctx, "mercadopago", "req-abc"))
	assert.Equal(t, []string{deliveryKey}, store.deleted)

	seen, err := manager.CheckAndMark(ctx, "mercadopago", "req-abc")
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestNewManagerValidates(t *testing.T) {
	_, err := NewManager(nil, time.Hour)
	assert.Error(t, err)
	_, err = NewManager(newMemoryStore(), -time.Second)
	assert.Error(t, err)
	_, err = NewManager(newMemoryStore(), 0)
	assert.NoError(t, err)
}
