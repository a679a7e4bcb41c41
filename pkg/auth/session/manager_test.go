package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"
)

type mockStore struct {
	mu   sync.Mutex
	data map[string]string
	ttls map[string]time.Duration
}

func newMockStore() *mockStore {
	return &mockStore{data: make(map[string]string), ttls: make(map[string]time.Duration)}
}

func (m *mockStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = fmt.Sprint(value)
	m.ttls[key] = ttl
	return nil
}

func (m *mockStore) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.data[key]
	if !ok {
		return "", redislib.Nil
	}
	return val, nil
}

func (m *mockStore) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok, nil
}

func (m *mockStore) Del(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func (m *mockStore) AccessSessionKey(accessID string) string {
	return fmt.Sprintf("sess:%s", accessID)
}

func newTestManager(store *mockStore) *Manager {
	return &Manager{store: store, keyer: store, ttl: time.Hour}
}

func TestManagerGenerateLookupRevoke(t *testing.T) {
	ctx := context.Background()
	store := newMockStore()
	manager := newTestManager(store)
	userID := uuid.New()
	accessID := NewAccessID()

	if err := manager.Generate(ctx, accessID, userID); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if ttl := store.ttls["sess:"+accessID]; ttl != time.Hour {
		t.Fatalf("expected ttl 1h, got %s", ttl)
	}

	ok, err := manager.HasSession(ctx, accessID)
	if err != nil || !ok {
		t.Fatalf("expected session to exist ok=%v err=%v", ok, err)
	}
	got, err := manager.Lookup(ctx, accessID)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got != userID {
		t.Fatalf("expected %s, got %s", userID, got)
	}

	if err := manager.Revoke(ctx, accessID); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	ok, err = manager.HasSession(ctx, accessID)
	if err != nil || ok {
		t.Fatalf("expected session gone ok=%v err=%v", ok, err)
	}
	if _, err := manager.Lookup(ctx, accessID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestManagerValidation(t *testing.T) {
	ctx := context.Background()
	manager := newTestManager(newMockStore())
	if err := manager.Generate(ctx, "", uuid.New()); err == nil {
		t.Fatal("expected missing access id error")
	}
	if err := manager.Generate(ctx, "a", uuid.Nil); err == nil {
		t.Fatal("expected missing user id error")
	}
	if _, err := manager.HasSession(ctx, " "); err == nil {
		t.Fatal("expected blank access id error")
	}
	if err := manager.Revoke(ctx, ""); err == nil {
		t.Fatal("expected revoke validation error")
	}
}

func TestLookupRejectsCorruptValue(t *testing.T) {
	ctx := context.Background()
	store := newMockStore()
	manager := newTestManager(store)
	_ = store.Set(ctx, "sess:bad", "not-a-uuid", time.Minute)
	if _, err := manager.Lookup(ctx, "bad"); err == nil || errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected parse error, got %v", err)
	}
}
