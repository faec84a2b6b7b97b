package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gomodule/redigo/redis"

	"ahadchat/server/model"
)

// RedisStore keeps the document as the value of one key.
type RedisStore struct {
	pool *redis.Pool
	key  string
}

// NewRedisPool dials rawURL lazily, testing idle connections before reuse.
func NewRedisPool(rawURL string, maxIdle int) *redis.Pool {
	return &redis.Pool{
		MaxIdle:     maxIdle,
		IdleTimeout: 60 * time.Second,
		Dial:        func() (redis.Conn, error) { return redis.DialURL(rawURL) },
		TestOnBorrow: func(c redis.Conn, t time.Time) error {
			if time.Since(t) < time.Minute {
				return nil
			}
			_, err := c.Do("PING")
			return err
		},
	}
}

func NewRedisStore(pool *redis.Pool, key string) *RedisStore {
	return &RedisStore{pool: pool, key: key}
}

func (s *RedisStore) Close() error {
	return s.pool.Close()
}

func (s *RedisStore) Load(ctx context.Context) ([]model.Message, error) {
	conn, err := s.pool.GetContext(ctx)
	if err != nil {
		return nil, unavailable("load redis", err)
	}
	defer conn.Close()

	data, err := redis.Bytes(conn.Do("GET", s.key))
	if errors.Is(err, redis.ErrNil) {
		return []model.Message{}, nil
	}
	if err != nil {
		return nil, unavailable("load redis", err)
	}

	msgs, err := Decode(data)
	if err != nil {
		return nil, unavailable("load redis", err)
	}
	return msgs, nil
}

func (s *RedisStore) Save(ctx context.Context, msgs []model.Message) error {
	data, err := Encode(msgs)
	if err != nil {
		return fmt.Errorf("encode messages: %w", err)
	}

	conn, err := s.pool.GetContext(ctx)
	if err != nil {
		return unavailable("save redis", err)
	}
	defer conn.Close()

	if _, err := conn.Do("SET", s.key, data); err != nil {
		return unavailable("save redis", err)
	}
	return nil
}
