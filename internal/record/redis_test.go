package record

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedisStore(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedis(client, "laxmi:"), mr
}

func TestRedisAppend_OrderedStream(t *testing.T) {
	store, mr := setupRedisStore(t)
	ctx := context.Background()

	id1, err := store.Append(ctx, "contactMessages", Fields{"name": "A", "message": "hi"})
	require.NoError(t, err)
	id2, err := store.Append(ctx, "contactMessages", Fields{"name": "B", "message": "yo"})
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2)

	assert.True(t, mr.Exists("laxmi:contactMessages"))

	got, err := store.List(ctx, "contactMessages")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, id1, got[0].ID)
	assert.Equal(t, "A", got[0].Fields["name"])
	assert.Equal(t, "yo", got[1].Fields["message"])
}

func TestRedisAppend_PathsAreIndependent(t *testing.T) {
	store, _ := setupRedisStore(t)
	ctx := context.Background()

	_, err := store.Append(ctx, "users/u1/info", Fields{"name": "A"})
	require.NoError(t, err)

	other, err := store.List(ctx, "users/u2/info")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestRedisAppend_ConnectionError(t *testing.T) {
	store, mr := setupRedisStore(t)
	mr.Close()

	_, err := store.Append(context.Background(), "contactMessages", Fields{"name": "A"})
	assert.Error(t, err)
}
