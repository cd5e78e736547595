// Package cache wraps the shared Redis client with the small set of atomic
// primitives the mood pipeline relies on: increment-with-expiry, conditional
// set, TTL'd set/get, pattern scan and pub/sub.
package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Message is one pub/sub delivery: the concrete channel it arrived on plus
// the raw payload.
type Message struct {
	Channel string
	Payload string
}

type Cache interface {
	// IncrWithTTLIfFirst atomically increments key and sets ttl only when the
	// incremented value is 1. Later increments never refresh the ttl, so a
	// window cannot be extended by a steady trickle of hits.
	IncrWithTTLIfFirst(ctx context.Context, key string, ttl time.Duration) (int64, error)

	// SetNX sets key only if absent; reports whether this caller won.
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)

	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Scan iterates all keys matching pattern. Partial results on a broken
	// cursor are acceptable to callers.
	Scan(ctx context.Context, pattern string) ([]string, error)

	Publish(ctx context.Context, channel, payload string) error

	// PSubscribe subscribes to a channel pattern. The returned channel closes
	// when ctx is cancelled or the connection dies; callers own reconnects.
	PSubscribe(ctx context.Context, pattern string) (<-chan Message, error)
}

// ErrNil is returned by Get when the key does not exist.
var ErrNil = redis.Nil

type redisCache struct {
	client *redis.Client
}

func New(client *redis.Client) Cache { return &redisCache{client: client} }

func (c *redisCache) IncrWithTTLIfFirst(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	n, err := c.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if n == 1 {
		if err := c.client.Expire(ctx, key, ttl).Err(); err != nil {
			return n, err
		}
	}
	return n, nil
}

func (c *redisCache) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	return c.client.SetNX(ctx, key, value, ttl).Result()
}

func (c *redisCache) Get(ctx context.Context, key string) (string, error) {
	return c.client.Get(ctx, key).Result()
}

func (c *redisCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

func (c *redisCache) Scan(ctx context.Context, pattern string) ([]string, error) {
	var (
		keys   []string
		cursor uint64
	)
	for {
		batch, next, err := c.client.Scan(ctx, cursor, pattern, 1000).Result()
		if err != nil {
			return keys, err
		}
		keys = append(keys, batch...)
		if next == 0 {
			return keys, nil
		}
		cursor = next
	}
}

func (c *redisCache) Publish(ctx context.Context, channel, payload string) error {
	return c.client.Publish(ctx, channel, payload).Err()
}

func (c *redisCache) PSubscribe(ctx context.Context, pattern string) (<-chan Message, error) {
	sub := c.client.PSubscribe(ctx, pattern)
	// force the SUBSCRIBE round-trip so connection errors surface here
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, err
	}
	out := make(chan Message, 64)
	go func() {
		defer close(out)
		defer sub.Close()
		in := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-in:
				if !ok {
					return
				}
				select {
				case out <- Message{Channel: msg.Channel, Payload: msg.Payload}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
