package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"taxibot/internal/domain/models"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "taxibot:session:"

// RedisStore shares sessions between bot replicas. TTL 0 keeps a session
// until it is consumed or cancelled.
type RedisStore struct {
	Client *redis.Client
	TTL    time.Duration
}

// NewRedisStore parses url (redis://host:port/db) and pings the server.
func NewRedisStore(ctx context.Context, url string, ttl time.Duration) (*RedisStore, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &RedisStore{Client: client, TTL: ttl}, nil
}

func key(userID int64) string {
	return fmt.Sprintf("%s%d", keyPrefix, userID)
}

func (s *RedisStore) Get(ctx context.Context, userID int64) (models.PendingBooking, bool, error) {
	data, err := s.Client.Get(ctx, key(userID)).Bytes()
	return decodeSession(userID, data, err)
}

// Take uses GETDEL, so replicas racing on one session cannot both win.
func (s *RedisStore) Take(ctx context.Context, userID int64) (models.PendingBooking, bool, error) {
	data, err := s.Client.GetDel(ctx, key(userID)).Bytes()
	return decodeSession(userID, data, err)
}

func decodeSession(userID int64, data []byte, err error) (models.PendingBooking, bool, error) {
	if errors.Is(err, redis.Nil) {
		return models.PendingBooking{}, false, nil
	}
	if err != nil {
		return models.PendingBooking{}, false, err
	}
	var pb models.PendingBooking
	if err := json.Unmarshal(data, &pb); err != nil {
		return models.PendingBooking{}, false, fmt.Errorf("decode session %d: %w", userID, err)
	}
	return pb, true, nil
}

func (s *RedisStore) Put(ctx context.Context, pb models.PendingBooking) error {
	data, err := json.Marshal(pb)
	if err != nil {
		return err
	}
	return s.Client.Set(ctx, key(pb.UserID), data, s.TTL).Err()
}

func (s *RedisStore) Delete(ctx context.Context, userID int64) (bool, error) {
	n, err := s.Client.Del(ctx, key(userID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *RedisStore) Close() error {
	return s.Client.Close()
}
