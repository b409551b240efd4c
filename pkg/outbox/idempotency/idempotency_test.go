package idempotency

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

type fakeStore struct {
	values      map[string]string
	lastValue   any
	setNXResult bool
	setNXError  error
	lastKey     string
	lastTTL     time.Duration
	lastDeleted string
}

func (f *fakeStore) Get(_ context.Context, key string) (string, error) {
	v, ok := f.values[key]
	if !ok {
		return "", goredis.Nil
	}
	return v, nil
}

func (f *fakeStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	f.lastKey = key
	f.lastTTL = ttl
	f.lastValue = value
	return f.setNXResult, f.setNXError
}

func (f *fakeStore) IdempotencyKey(scope, id string) string {
	return "sf:idempotency:" + scope + ":" + id
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	if len(keys) > 0 {
		f.lastDeleted = keys[0]
	}
	return nil
}

func TestClaimFirstTime(t *testing.T) {
	store := &fakeStore{setNXResult: true}
	manager, err := NewManager(store, 10*time.Minute)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	eventID := uuid.New()
	claimed, err := manager.Claim(context.Background(), "outbox-publisher", eventID)
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if !claimed {
		t.Fatal("expected first claim to succeed")
	}
	if store.lastKey != "sf:idempotency:evt:outbox-publisher:"+eventID.String() {
		t.Fatalf("unexpected key: %q", store.lastKey)
	}
	if store.lastTTL != 10*time.Minute {
		t.Fatalf("unexpected ttl: %v", store.lastTTL)
	}
}

func TestClaimAlreadyHeld(t *testing.T) {
	manager, err := NewManager(&fakeStore{setNXResult: false}, time.Hour)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	claimed, err := manager.Claim(context.Background(), "outbox-publisher", uuid.New())
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if claimed {
		t.Fatal("expected claim to be refused")
	}
}

func TestClaimErrors(t *testing.T) {
	manager, err := NewManager(&fakeStore{setNXError: errors.New("boom")}, time.Hour)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	if _, err := manager.Claim(context.Background(), "outbox-publisher", uuid.New()); err == nil {
		t.Fatal("expected store error")
	}
	if _, err := manager.Claim(context.Background(), "", uuid.New()); err == nil {
		t.Fatal("expected error for empty publisher")
	}
	if _, err := manager.Claim(context.Background(), "outbox-publisher", uuid.Nil); err == nil {
		t.Fatal("expected error for nil event id")
	}
	if _, err := NewManager(nil, time.Hour); err == nil {
		t.Fatal("expected error for nil store")
	}
}

func TestRelease(t *testing.T) {
	store := &fakeStore{}
	manager, err := NewManager(store, time.Hour)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	eventID := uuid.New()
	if err := manager.Release(context.Background(), "outbox-publisher", eventID); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if store.lastDeleted != "sf:idempotency:evt:outbox-publisher:"+eventID.String() {
		t.Fatalf("unexpected deleted key %q", store.lastDeleted)
	}
}

func TestClaimRecordsOwnerAndHolder(t *testing.T) {
	store := &fakeStore{setNXResult: true, values: map[string]string{}}
	manager, err := NewManager(store, time.Hour, WithOwner("publisher-7"))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	eventID := uuid.New()
	if _, err := manager.Claim(context.Background(), "outbox-publisher", eventID); err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if store.lastValue != "publisher-7" {
		t.Fatalf("expected owner stored as claim value, got %v", store.lastValue)
	}

	holder, err := manager.Holder(context.Background(), "outbox-publisher", eventID)
	if err != nil || holder != "" {
		t.Fatalf("unclaimed key should have no holder, got %q err=%v", holder, err)
	}
	store.values[store.lastKey] = "publisher-7"
	holder, err = manager.Holder(context.Background(), "outbox-publisher", eventID)
	if err != nil || holder != "publisher-7" {
		t.Fatalf("expected holder publisher-7, got %q err=%v", holder, err)
	}
}
