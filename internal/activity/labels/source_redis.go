package labels

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const defaultLabelKey = "activity:labels"

// RedisSource reads labels from a Redis hash mapping class id -> name.
// Useful when the perception pipeline publishes its label set at startup
// instead of shipping a file alongside this service.
type RedisSource struct {
	client *redis.Client
	key    string
}

// NewRedisSource builds a Redis-backed label source. An empty key falls back
// to the default hash key.
func NewRedisSource(client *redis.Client, key string) *RedisSource {
	if key == "" {
		key = defaultLabelKey
	}
	return &RedisSource{client: client, key: key}
}

// Load fetches the full hash in one round trip.
func (s *RedisSource) Load(ctx context.Context) (map[int]string, error) {
	raw, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("read label hash %s: %w", s.key, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("label hash %s is empty", s.key)
	}

	out := make(map[int]string, len(raw))
	for k, v := range raw {
		id, err := strconv.Atoi(k)
		if err != nil {
			return nil, fmt.Errorf("label hash %s: field %q is not numeric", s.key, k)
		}
		out[id] = v
	}
	return out, nil
}
