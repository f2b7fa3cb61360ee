package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/campusdesk/student-portal/internal/domain"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	store := NewRedisStore(client, 30*time.Minute)
	t.Cleanup(func() { _ = store.Close() })
	return store, srv
}

func TestRedisStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, srv := newRedisStore(t)

	if _, err := store.Get(ctx, "u1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	st := &State{
		UserID:     "u1",
		Confirmed:  domain.Profile{Name: "Ann", StudentID: "S1"},
		Buffer:     domain.Profile{Name: "Ann", StudentID: "S2"},
		Editing:    true,
		Generation: 3,
	}
	st.Notify(domain.NotificationError, domain.MsgGenericFailure)
	if err := store.Save(ctx, st); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if ttl := srv.TTL(keyPrefix + "u1"); ttl != 30*time.Minute {
		t.Fatalf("ttl = %s, want 30m", ttl)
	}

	got, err := store.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Confirmed != st.Confirmed || got.Buffer != st.Buffer || !got.Editing || got.Generation != 3 {
		t.Fatalf("unexpected state %+v", got)
	}
	if len(got.Notifications) != 1 || got.Notifications[0].Text != domain.MsgGenericFailure {
		t.Fatalf("unexpected notifications %+v", got.Notifications)
	}

	if err := store.Delete(ctx, "u1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := store.Get(ctx, "u1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestRedisStoreExpires(t *testing.T) {
	ctx := context.Background()
	store, srv := newRedisStore(t)

	if err := store.Save(ctx, &State{UserID: "u1"}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	srv.FastForward(31 * time.Minute)

	if _, err := store.Get(ctx, "u1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected state to expire, got %v", err)
	}
}

func TestRedisStorePing(t *testing.T) {
	store, srv := newRedisStore(t)
	if err := store.Ping(context.Background()); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
	srv.Close()
	if err := store.Ping(context.Background()); err == nil {
		t.Fatal("expected ping to fail once redis is gone")
	}
}
