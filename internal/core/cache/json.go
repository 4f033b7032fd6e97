package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrNilValue is returned when a loader reports success without a value.
// Absence must be signalled with an error so that it is never cached.
var ErrNilValue = errors.New("cache: loader returned nil")

// GetOrLoadJSON is GetOrLoad for JSON values. An entry that no longer decodes
// into T is evicted and loaded again from the source.
func GetOrLoadJSON[T any](
	c *Cache,
	ctx context.Context,
	key string,
	ttl time.Duration,
	load func(ctx context.Context) (*T, error),
) (*T, error) {
	encode := func(ctx context.Context) ([]byte, error) {
		v, err := load(ctx)
		if err != nil {
			return nil, err
		}
		if v == nil {
			return nil, ErrNilValue
		}
		return json.Marshal(v)
	}

	b, err := c.GetOrLoad(ctx, key, ttl, encode)
	if err != nil {
		return nil, err
	}
	var out T
	if err := json.Unmarshal(b, &out); err == nil {
		return &out, nil
	}

	cacheLookups.WithLabelValues("corrupt").Inc()
	if c.Delete(ctx, key) != nil {
		b, err = encode(ctx)
	} else {
		b, err = c.GetOrLoad(ctx, key, ttl, encode)
	}
	if err != nil {
		return nil, err
	}
	out = *new(T)
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
