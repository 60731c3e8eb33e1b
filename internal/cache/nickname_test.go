package cache

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"salmon-stats/internal/domain"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubResolver struct {
	calls [][]string
	bare  bool
	err   error
}

func (s *stubResolver) Resolve(_ context.Context, ids []string) (map[string]domain.Nickname, error) {
	s.calls = append(s.calls, ids)
	if s.err != nil {
		return nil, s.err
	}
	out := make(map[string]domain.Nickname, len(ids))
	for _, id := range ids {
		n := domain.Nickname{PlayerID: id}
		if !s.bare && id != "unnamed" {
			n.DisplayName = "name-" + id
		}
		out[id] = n
	}
	return out, nil
}

// missHook answers every MGET with misses and records pipelined writes
// without touching the network.
type missHook struct {
	stored []string
}

func (h *missHook) DialHook(next redis.DialHook) redis.DialHook { return next }

func (h *missHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		if mget, ok := cmd.(*redis.SliceCmd); ok && cmd.Name() == "mget" {
			mget.SetVal(make([]interface{}, len(cmd.Args())-1))
			return nil
		}
		return next(ctx, cmd)
	}
}

func (h *missHook) ProcessPipelineHook(redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(_ context.Context, cmds []redis.Cmder) error {
		for _, cmd := range cmds {
			h.stored = append(h.stored, fmt.Sprint(cmd.Args()[1]))
		}
		return nil
	}
}

func hooked(t *testing.T) (*redis.Client, *missHook) {
	t.Helper()
	client := unreachable(t)
	hook := &missHook{}
	client.AddHook(hook)
	return client, hook
}

// unreachable points at a port nothing listens on.
func unreachable(t *testing.T) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { client.Close() })
	return client
}

func TestResolveFallsBackWhenRedisDown(t *testing.T) {
	next := &stubResolver{}
	c := NewNicknameCache(unreachable(t), next, time.Hour, zerolog.Nop())

	names, err := c.Resolve(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, "name-a", names["a"].DisplayName)
	assert.Equal(t, "name-b", names["b"].DisplayName)
	require.Len(t, next.calls, 1)
	assert.Equal(t, []string{"a", "b"}, next.calls[0])
}

func TestResolvePropagatesResolverError(t *testing.T) {
	next := &stubResolver{err: errors.New("boom")}
	c := NewNicknameCache(unreachable(t), next, time.Hour, zerolog.Nop())

	_, err := c.Resolve(context.Background(), []string{"a"})
	assert.EqualError(t, err, "boom")
}

func TestResolveEmpty(t *testing.T) {
	next := &stubResolver{}
	c := NewNicknameCache(unreachable(t), next, time.Hour, zerolog.Nop())

	names, err := c.Resolve(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, names)
	assert.Empty(t, next.calls)
}

func TestResolveStoresNamedMisses(t *testing.T) {
	client, hook := hooked(t)
	next := &stubResolver{}
	c := NewNicknameCache(client, next, time.Hour, zerolog.Nop())

	names, err := c.Resolve(context.Background(), []string{"a", "unnamed"})
	require.NoError(t, err)
	assert.Equal(t, "name-a", names["a"].DisplayName)
	assert.Equal(t, "unnamed", names["unnamed"].PlayerID)

	assert.Equal(t, []string{keyPrefix + "a"}, hook.stored, "bare ids are not cached")
}

func TestResolveSkipsCachingBareIDs(t *testing.T) {
	client, hook := hooked(t)
	next := &stubResolver{bare: true}
	c := NewNicknameCache(client, next, time.Hour, zerolog.Nop())

	names, err := c.Resolve(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Len(t, names, 2)
	assert.Empty(t, hook.stored)
}
