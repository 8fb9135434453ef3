package storage

import (
	"context"

	"github.com/go-redis/redis/v8"
)

// RedisLocal is a struct representing a Redis-backed local store.
// It provides an interface to perform CRUD operations on the store instance.
type RedisLocal struct {
	client *redis.Client
}

// NewRedisLocal creates a new instance of RedisLocal.
// This function doesn't establish a connection to the Redis server.
// To connect to the server, use the Connect method of the returned RedisLocal instance.
func NewRedisLocal() *RedisLocal {
	return &RedisLocal{}
}

// Connect establishes a connection to the Redis backend.
func (r *RedisLocal) Connect(redisURL string) error {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return err
	}

	r.client = redis.NewClient(opt)

	_, err = r.client.Ping(context.Background()).Result()
	return err
}

// Disconnect closes the connection to the Redis server.
func (r *RedisLocal) Disconnect() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// Set stores a value under the given key. Values never expire; the local
// store is the device's durable copy of the entity state.
func (r *RedisLocal) Set(ctx context.Context, key string, value []byte) error {
	return r.client.Set(ctx, key, value, 0).Err()
}

// Get retrieves the value of a given key.
// If the key is not found, it returns ErrNotFound.
func (r *RedisLocal) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := r.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, err
	}
	return value, nil
}

// Delete removes the value stored under the given key, if any.
func (r *RedisLocal) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}
