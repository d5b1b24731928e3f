package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/observ-ing/core-sub000/internal/domain"
)

// Redis key prefixes for memoised consensus labels and their generations.
const (
	consensusKeyPrefix  = "consensus:"
	generationKeyPrefix = "consensus-gen:"
)

// errStaleGeneration aborts a Set whose generation was overtaken.
var errStaleGeneration = errors.New("stale generation")

// Redis is a ConsensusCache shared by every replica of the service.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis constructs a Redis-backed cache. Labels expire after ttl even
// when no invalidation reaches them; generations live twice as long.
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

func (r *Redis) Get(ctx context.Context, key Key) (Entry, error) {
	vals, err := r.client.MGet(ctx, consensusKeyPrefix+key.String(), generationKeyPrefix+key.String()).Result()
	if err != nil {
		return Entry{}, fmt.Errorf("cache.Redis.Get: %w", err)
	}

	var entry Entry
	if s, ok := vals[1].(string); ok {
		gen, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return Entry{}, fmt.Errorf("cache.Redis.Get: generation: %w", err)
		}
		entry.Generation = gen
	}

	if s, ok := vals[0].(string); ok {
		// A corrupt entry is a miss; the next Set overwrites it.
		if err := json.Unmarshal([]byte(s), &entry.Label); err == nil {
			entry.Hit = true
		} else {
			entry.Label = domain.ConsensusLabel{}
		}
	}
	return entry, nil
}

// Set writes the label inside a WATCH on the generation key, so an
// Invalidate that lands between the check and the write aborts it.
func (r *Redis) Set(ctx context.Context, key Key, gen uint64, label domain.ConsensusLabel) (bool, error) {
	raw, err := json.Marshal(label)
	if err != nil {
		return false, fmt.Errorf("cache.Redis.Set: marshal: %w", err)
	}

	genKey := generationKeyPrefix + key.String()
	err = r.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, genKey).Uint64()
		if errors.Is(err, redis.Nil) {
			current = 0
		} else if err != nil {
			return err
		}
		if current != gen {
			return errStaleGeneration
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, consensusKeyPrefix+key.String(), raw, r.ttl)
			return nil
		})
		return err
	}, genKey)

	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, errStaleGeneration), errors.Is(err, redis.TxFailedErr):
		return false, nil
	default:
		return false, fmt.Errorf("cache.Redis.Set: %w", err)
	}
}

func (r *Redis) Invalidate(ctx context.Context, key Key) error {
	genKey := generationKeyPrefix + key.String()
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, genKey)
		pipe.Expire(ctx, genKey, r.ttl*2)
		pipe.Del(ctx, consensusKeyPrefix+key.String())
		return nil
	})
	if err != nil {
		return fmt.Errorf("cache.Redis.Invalidate: %w", err)
	}
	return nil
}

var _ ConsensusCache = (*Redis)(nil)
