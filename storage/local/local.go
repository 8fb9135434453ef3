package storage

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Get when no value is stored under the key.
var ErrNotFound = errors.New("key does not exist")

// LocalInterface defines the set of methods that need to be implemented to
// be used as the device-local persistent store. Values are opaque bytes;
// the entity stores decide the encoding.
type LocalInterface interface {
	Disconnect() error
	Set(ctx context.Context, key string, value []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// NewLocalStore creates a new LocalInterface with a Redis backend.
// It connects to the provided address, and returns the store instance or
// an error if the connection failed.
func NewLocalStore(url string) (LocalInterface, error) {
	local := NewRedisLocal()
	if err := local.Connect(url); err != nil {
		return nil, fmt.Errorf("failed to initialize local storage: %w", err)
	}
	return local, nil
}
