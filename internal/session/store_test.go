package session

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"taxibot/internal/domain/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	if _, ok, err := s.Get(ctx, 7); err != nil || ok {
		t.Fatalf("empty store returned session: ok=%v err=%v", ok, err)
	}

	pb := models.PendingBooking{UserID: 7, TripID: 42, Direction: models.DirectionToUfa, TripDate: "2024-05-01"}
	if err := s.Put(ctx, pb); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok, err := s.Get(ctx, 7)
	if err != nil || !ok {
		t.Fatalf("Get after Put: ok=%v err=%v", ok, err)
	}
	if got.TripID != 42 || got.Direction != models.DirectionToUfa {
		t.Fatalf("unexpected session %+v", got)
	}

	pb.TripID = 43
	if err := s.Put(ctx, pb); err != nil {
		t.Fatalf("Put replace: %v", err)
	}
	if got, _, _ := s.Get(ctx, 7); got.TripID != 43 {
		t.Fatalf("second Put should replace session, got %+v", got)
	}

	if existed, err := s.Delete(ctx, 7); err != nil || !existed {
		t.Fatalf("Delete: existed=%v err=%v", existed, err)
	}
	if existed, err := s.Delete(ctx, 7); err != nil || existed {
		t.Fatalf("second Delete should report no session: existed=%v err=%v", existed, err)
	}

	if err := s.Put(ctx, pb); err != nil {
		t.Fatalf("Put before Take: %v", err)
	}
	got, ok, err = s.Take(ctx, 7)
	if err != nil || !ok || got.TripID != 43 {
		t.Fatalf("Take: got=%+v ok=%v err=%v", got, ok, err)
	}
	if _, ok, err := s.Take(ctx, 7); err != nil || ok {
		t.Fatalf("second Take should find nothing: ok=%v err=%v", ok, err)
	}
	if _, ok, _ := s.Get(ctx, 7); ok {
		t.Fatalf("Take should remove the session")
	}
}

func exerciseConcurrentTake(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	if err := s.Put(ctx, models.PendingBooking{UserID: 5, TripID: 1}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	var (
		wg   sync.WaitGroup
		wins atomic.Int32
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok, err := s.Take(ctx, 5); err == nil && ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	if wins.Load() != 1 {
		t.Fatalf("expected exactly one Take to win, got %d", wins.Load())
	}
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	exerciseStore(t, s)
	exerciseConcurrentTake(t, s)
	if s.Len() != 0 {
		t.Fatalf("expected empty store, got %d", s.Len())
	}
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	exerciseStore(t, &RedisStore{Client: client})
	exerciseConcurrentTake(t, &RedisStore{Client: client})
}

func TestRedisStoreTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	s := &RedisStore{Client: client, TTL: time.Minute}
	ctx := context.Background()
	if err := s.Put(ctx, models.PendingBooking{UserID: 9, TripID: 1}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if ttl := mr.TTL(key(9)); ttl != time.Minute {
		t.Fatalf("expected 1m ttl, got %s", ttl)
	}
	mr.FastForward(2 * time.Minute)
	if _, ok, _ := s.Get(ctx, 9); ok {
		t.Fatalf("session should expire after ttl")
	}
}
