package auth

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
)

func TestRedisSessionStore(t *testing.T) {
	addr := os.Getenv("JOBBOARD_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("JOBBOARD_TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })

	store := NewRedisSessionStore(client)
	ctx := context.Background()
	userID := "redis-test-" + time.Now().Format("150405.000000")

	if err := store.Put(ctx, &SessionToken{UserID: userID, Token: "tok", ExpiresAt: time.Now().Add(time.Minute)}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	rec, err := store.Find(ctx, userID)
	if err != nil || rec.Token != "tok" {
		t.Fatalf("Find: %+v %v", rec, err)
	}
	removed, err := store.Delete(ctx, userID)
	if err != nil || !removed {
		t.Fatalf("Delete: %v %v", removed, err)
	}
	if _, err := store.Find(ctx, userID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
