package cache

import (
	"context"
	"encoding/json"
	"time"
)

type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	DeletePrefix(ctx context.Context, prefix string) error
	// Incr increments the counter at key and returns the new value. The ttl
	// is applied only when the counter is created.
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

type NoopCache struct{}

func NewNoop() *NoopCache {
	return &NoopCache{}
}

func (n *NoopCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return nil, false, nil
}

func (n *NoopCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return nil
}

func (n *NoopCache) Delete(ctx context.Context, key string) error {
	return nil
}

func (n *NoopCache) DeletePrefix(ctx context.Context, prefix string) error {
	return nil
}

func (n *NoopCache) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	return 0, nil
}

// GetOrRefresh returns the JSON value cached under key, or calls load and
// caches its result for ttl. Cache failures fall through to load.
func GetOrRefresh[T any](ctx context.Context, c Cache, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	if c != nil {
		if raw, ok, err := c.Get(ctx, key); err == nil && ok {
			var cached T
			if err := json.Unmarshal(raw, &cached); err == nil {
				return cached, nil
			}
		}
	}

	value, err := load(ctx)
	if err != nil {
		return value, err
	}

	if c != nil && ttl > 0 {
		if raw, err := json.Marshal(value); err == nil {
			_ = c.Set(ctx, key, raw, ttl)
		}
	}
	return value, nil
}
