package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRedis struct {
	values  map[string]string
	ttls    map[string]time.Duration
	failSet error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	cmd := redis.NewStringCmd(ctx, "get", key)
	v, ok := f.values[key]
	if !ok {
		cmd.SetErr(redis.Nil)
		return cmd
	}
	cmd.SetVal(v)
	return cmd
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx, "set", key)
	if f.failSet != nil {
		cmd.SetErr(f.failSet)
		return cmd
	}
	f.values[key] = value.(string)
	f.ttls[key] = expiration
	cmd.SetVal("OK")
	return cmd
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx, "del")
	var n int64
	for _, k := range keys {
		if _, ok := f.values[k]; ok {
			delete(f.values, k)
			n++
		}
	}
	cmd.SetVal(n)
	return cmd
}

func (f *fakeRedis) Ping(ctx context.Context) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx, "ping")
	cmd.SetVal("PONG")
	return cmd
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, err := s.Get(ctx, KeyAuthToken)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(ctx, KeyAuthToken, "abc"))
	v, err := s.Get(ctx, KeyAuthToken)
	require.NoError(t, err)
	assert.Equal(t, "abc", v)

	require.NoError(t, s.Clear(ctx))
	_, err = s.Get(ctx, KeyAuthToken)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStoreNamespacesKeys(t *testing.T) {
	ctx := context.Background()
	fake := newFakeRedis()
	s := NewRedisStore(fake, "sicali:test", time.Hour)

	require.NoError(t, s.Set(ctx, KeyAuthToken, "tok"))
	assert.Equal(t, "tok", fake.values["sicali:test:authToken"])
	assert.Equal(t, time.Hour, fake.ttls["sicali:test:authToken"])

	v, err := s.Get(ctx, KeyAuthToken)
	require.NoError(t, err)
	assert.Equal(t, "tok", v)

	require.NoError(t, s.Clear(ctx))
	_, err = s.Get(ctx, KeyAuthToken)
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, s.Ping(ctx))
}

func TestRedisStoreSetError(t *testing.T) {
	fake := newFakeRedis()
	fake.failSet = errors.New("READONLY")
	s := NewRedisStore(fake, "", 0)

	err := s.Set(context.Background(), KeyCurrentUser, "{}")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "READONLY")
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	type profile struct {
		ID  int64  `json:"id"`
		Rol string `json:"rol"`
	}
	require.NoError(t, SaveJSON(ctx, s, KeyCurrentUser, profile{ID: 16, Rol: "admin"}))

	var got profile
	require.NoError(t, LoadJSON(ctx, s, KeyCurrentUser, &got))
	assert.Equal(t, profile{ID: 16, Rol: "admin"}, got)

	require.NoError(t, s.Set(ctx, KeyCurrentUser, "not-json"))
	assert.Error(t, LoadJSON(ctx, s, KeyCurrentUser, &got))
}
