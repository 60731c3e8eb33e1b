package cache

import (
	"context"
	"encoding/json"
	"time"

	"salmon-stats/internal/domain"
	"salmon-stats/internal/service"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const keyPrefix = "salmonstats:nickname:"

// NicknameCache is a read-through redis cache in front of another resolver.
// Redis errors degrade to the wrapped resolver.
type NicknameCache struct {
	client *redis.Client
	next   service.NicknameResolver
	ttl    time.Duration
	logger zerolog.Logger
}

func NewNicknameCache(client *redis.Client, next service.NicknameResolver, ttl time.Duration, logger zerolog.Logger) *NicknameCache {
	return &NicknameCache{
		client: client,
		next:   next,
		ttl:    ttl,
		logger: logger,
	}
}

func (c *NicknameCache) Resolve(ctx context.Context, playerIDs []string) (map[string]domain.Nickname, error) {
	if len(playerIDs) == 0 {
		return map[string]domain.Nickname{}, nil
	}

	keys := make([]string, len(playerIDs))
	for i, id := range playerIDs {
		keys[i] = keyPrefix + id
	}

	values, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		c.logger.Warn().Err(err).Msg("nickname cache unavailable")
		return c.next.Resolve(ctx, playerIDs)
	}

	out := make(map[string]domain.Nickname, len(playerIDs))
	var misses []string
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			misses = append(misses, playerIDs[i])
			continue
		}
		var n domain.Nickname
		if err := json.Unmarshal([]byte(s), &n); err != nil {
			misses = append(misses, playerIDs[i])
			continue
		}
		out[playerIDs[i]] = n
	}

	c.logger.Debug().
		Int("hits", len(out)).
		Int("misses", len(misses)).
		Msg("nickname cache lookup")

	if len(misses) == 0 {
		return out, nil
	}

	fetched, err := c.next.Resolve(ctx, misses)
	if err != nil {
		return nil, err
	}

	pipe := c.client.Pipeline()
	for id, n := range fetched {
		out[id] = n
		// A bare id means the resolver had nothing; caching it would hide a
		// later real name until the key expires.
		if n.DisplayName == "" {
			continue
		}
		data, err := json.Marshal(n)
		if err != nil {
			continue
		}
		pipe.Set(ctx, keyPrefix+id, data, c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.Warn().Err(err).Int("count", pipe.Len()).Msg("failed to store nicknames in cache")
	}

	return out, nil
}
