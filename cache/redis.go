package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var DefaultExpiration = 24 * time.Hour * 7 // 7 days

// Cache is the byte-oriented key/value cache used for HTTP responses, torrent
// metadata and tracker lists.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithExpiration(ctx context.Context, key string, value []byte, expiration time.Duration) error
	Del(ctx context.Context, key string) error
}

type Redis struct {
	client *redis.Client
}

func NewRedis(host string) *Redis {
	if host == "" {
		host = "localhost"
	}
	return &Redis{
		client: redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:6379", host),
			Password: "",
		}),
	}
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	return r.client.Get(ctx, key).Bytes()
}

func (r *Redis) Set(ctx context.Context, key string, value []byte) error {
	return r.client.Set(ctx, key, value, DefaultExpiration).Err()
}

func (r *Redis) SetWithExpiration(ctx context.Context, key string, value []byte, expiration time.Duration) error {
	return r.client.Set(ctx, key, value, expiration).Err()
}

func (r *Redis) Del(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}

// ErrMiss is returned by Nop on every read.
var ErrMiss = redis.Nil

// Nop is a Cache that never stores anything. It is used when Redis is not reachable.
type Nop struct{}

func (Nop) Get(context.Context, string) ([]byte, error) { return nil, ErrMiss }

func (Nop) Set(context.Context, string, []byte) error { return nil }

func (Nop) SetWithExpiration(context.Context, string, []byte, time.Duration) error { return nil }

func (Nop) Del(context.Context, string) error { return nil }
