// Package redis opens the optional shared Redis connection.
package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// New parses url, connects, and pings. An empty url means Redis is not
// configured and returns a nil client with no error.
func New(ctx context.Context, url string) (*redis.Client, error) {
	if url == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis.New: parse url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis.New: ping: %w", err)
	}
	return client, nil
}
