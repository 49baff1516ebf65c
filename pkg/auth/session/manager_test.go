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
	mu     sync.Mutex
	data   map[string]string
	ttls   map[string]time.Duration
	getErr error
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
	if m.getErr != nil {
		return "", m.getErr
	}
	val, ok := m.data[key]
	if !ok {
		return "", redislib.Nil
	}
	return val, nil
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

func TestManagerIssueCheckRevoke(t *testing.T) {
	store := newMockStore()
	manager := &Manager{store: store, keyer: store, ttl: time.Hour}

	ctx := context.Background()
	accessID := NewAccessID()
	accountID := uuid.New()

	if err := manager.Issue(ctx, accessID, accountID); err != nil {
		t.Fatalf("issue: %v", err)
	}
	key := store.AccessSessionKey(accessID)
	if store.data[key] != accountID.String() {
		t.Fatalf("expected account id stored, got %q", store.data[key])
	}
	if store.ttls[key] != time.Hour {
		t.Fatalf("expected ttl of 1h, got %s", store.ttls[key])
	}

	ok, err := manager.HasSession(ctx, accessID)
	if err != nil || !ok {
		t.Fatalf("expected live session, ok=%v err=%v", ok, err)
	}

	if err := manager.Revoke(ctx, accessID); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	ok, err = manager.HasSession(ctx, accessID)
	if err != nil || ok {
		t.Fatalf("expected revoked session, ok=%v err=%v", ok, err)
	}
}

func TestManagerRejectsBlankAccessID(t *testing.T) {
	store := newMockStore()
	manager := &Manager{store: store, keyer: store, ttl: time.Hour}
	ctx := context.Background()

	if err := manager.Issue(ctx, " ", uuid.New()); err == nil {
		t.Fatalf("expected issue error")
	}
	if err := manager.Revoke(ctx, ""); err == nil {
		t.Fatalf("expected revoke error")
	}
	if _, err := manager.HasSession(ctx, ""); err == nil {
		t.Fatalf("expected has-session error")
	}
}

func TestManagerHasSessionSurfacesStoreErrors(t *testing.T) {
	store := newMockStore()
	store.getErr = errors.New("redis down")
	manager := &Manager{store: store, keyer: store, ttl: time.Hour}

	ok, err := manager.HasSession(context.Background(), "abc")
	if err == nil || ok {
		t.Fatalf("expected store error, ok=%v err=%v", ok, err)
	}
}
