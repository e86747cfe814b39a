package redis

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"3tcapital/ducactl/internal/core/session"
)

func TestNewStore_Key(t *testing.T) {
	if got := NewStore(nil, "", 0).Key(); got != "ducactl:session:default" {
		t.Errorf("unexpected default key %q", got)
	}
	if got := NewStore(nil, "aduana-gt", 0).Key(); got != "ducactl:session:aduana-gt" {
		t.Errorf("unexpected profile key %q", got)
	}
}

// TestStoreIntegration needs a reachable Redis; set DUCA_TEST_REDIS_ADDR to run it.
func TestStoreIntegration(t *testing.T) {
	addr := os.Getenv("DUCA_TEST_REDIS_ADDR")
	if addr == "" || testing.Short() {
		t.Skip("DUCA_TEST_REDIS_ADDR not set, skipping integration test")
	}

	ctx := context.Background()
	client, err := Connect(ctx, Config{Addr: addr, Timeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer client.Close()

	store := NewStore(client, "it-"+time.Now().Format("150405.000000"), time.Minute)
	defer client.Del(ctx, store.Key())

	if _, err := store.Load(ctx); !errors.Is(err, session.ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}

	want := session.Session{Token: "abc", Role: "AGENTE", Email: "agente@demo.com", CreatedAt: time.Now().UTC().Truncate(time.Millisecond)}
	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Token != want.Token || got.Role != want.Role || !got.CreatedAt.Equal(want.CreatedAt) {
		t.Errorf("expected %+v, got %+v", want, got)
	}

	ttl, err := client.TTL(ctx, store.Key()).Result()
	if err != nil || ttl <= 0 {
		t.Errorf("expected TTL on session key, got %v (%v)", ttl, err)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := store.Load(ctx); !errors.Is(err, session.ErrNoSession) {
		t.Errorf("expected ErrNoSession after clear, got %v", err)
	}
}
