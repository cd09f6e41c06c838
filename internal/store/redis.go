package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/counterpointai/counterpoint/models"
)

const sessionKeyPrefix = "debate:session:"

// RedisStore keeps each session as one JSON value, so every update is a
// single atomic SET.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to redis and verifies the connection with a ping.
func NewRedisStore(ctx context.Context, host, port, password string, db int, timeout time.Duration) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        fmt.Sprintf("%s:%s", host, port),
		DialTimeout: timeout,
		Password:    password,
		DB:          db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return &RedisStore{client: client}, nil
}

func (r *RedisStore) Create(ctx context.Context, s *models.Session) error {
	return r.set(ctx, s)
}

func (r *RedisStore) Get(ctx context.Context, id string) (*models.Session, error) {
	raw, err := r.client.Get(ctx, sessionKeyPrefix+id).Bytes()
	if err == redis.Nil {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting session: %w", err)
	}
	var s models.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decoding session: %w", err)
	}
	return &s, nil
}

func (r *RedisStore) Update(ctx context.Context, s *models.Session) error {
	exists, err := r.client.Exists(ctx, sessionKeyPrefix+s.ID).Result()
	if err != nil {
		return fmt.Errorf("checking session: %w", err)
	}
	if exists == 0 {
		return ErrSessionNotFound
	}
	return r.set(ctx, s)
}

func (r *RedisStore) set(ctx context.Context, s *models.Session) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	if err := r.client.Set(ctx, sessionKeyPrefix+s.ID, raw, 0).Err(); err != nil {
		return fmt.Errorf("storing session: %w", err)
	}
	return nil
}
