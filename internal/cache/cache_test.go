package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/eventhub/internal/model"
	"github.com/d60-Lab/eventhub/internal/testutil"
)

func TestEventListKey_Normalises(t *testing.T) {
	a := EventListKey("  Hackathon ", model.CategoryEvent, "-created_at", 8, 0)
	b := EventListKey("hackathon", model.CategoryEvent, "-created_at", 8, 0)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, EventListKey("hackathon", model.CategoryEvent, "-created_at", 8, 8))
}

func TestEventListCache_HitAfterMiss(t *testing.T) {
	client, _ := testutil.NewRedis(t)
	c := NewEventListCache(client, time.Minute)
	ctx := context.Background()

	loads := 0
	load := func(context.Context) (*EventPage, error) {
		loads++
		return &EventPage{Count: 1, Events: []model.Event{{EventID: "e1", Title: "Grant"}}}, nil
	}

	key := EventListKey("", "", "-created_at", 8, 0)
	p1, err := c.Fetch(ctx, key, load)
	require.NoError(t, err)
	p2, err := c.Fetch(ctx, key, load)
	require.NoError(t, err)

	assert.Equal(t, 1, loads)
	assert.Equal(t, p1.Events[0].EventID, p2.Events[0].EventID)
	hits, misses := c.Counters()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
}

func TestEventListCache_ExpiresByTTL(t *testing.T) {
	client, mr := testutil.NewRedis(t)
	c := NewEventListCache(client, time.Minute)
	ctx := context.Background()

	loads := 0
	load := func(context.Context) (*EventPage, error) {
		loads++
		return &EventPage{}, nil
	}
	key := EventListKey("", "", "-created_at", 8, 0)

	_, err := c.Fetch(ctx, key, load)
	require.NoError(t, err)
	mr.FastForward(2 * time.Minute)
	_, err = c.Fetch(ctx, key, load)
	require.NoError(t, err)
	assert.Equal(t, 2, loads)
}

func TestEventListCache_LoadErrorNotCached(t *testing.T) {
	client, mr := testutil.NewRedis(t)
	c := NewEventListCache(client, time.Minute)

	boom := errors.New("db down")
	_, err := c.Fetch(context.Background(), "k", func(context.Context) (*EventPage, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists("k"))
}

func TestEventListCache_RedisDownFallsBack(t *testing.T) {
	client, mr := testutil.NewRedis(t)
	c := NewEventListCache(client, time.Minute)
	mr.Close()

	page, err := c.Fetch(context.Background(), "k", func(context.Context) (*EventPage, error) {
		return &EventPage{Count: 3}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Count)
}

func TestEventListCache_NilClient(t *testing.T) {
	c := NewEventListCache(nil, time.Minute)
	page, err := c.Fetch(context.Background(), "k", func(context.Context) (*EventPage, error) {
		return &EventPage{Count: 2}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Count)
}

func TestTokenBlacklist(t *testing.T) {
	client, mr := testutil.NewRedis(t)
	bl := NewTokenBlacklist(client)
	ctx := context.Background()

	revoked, err := bl.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, bl.Revoke(ctx, "jti-1", time.Minute))
	revoked, err = bl.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	mr.FastForward(2 * time.Minute)
	revoked, err = bl.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, bl.Revoke(ctx, "jti-2", 0))
	revoked, err = bl.IsRevoked(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, revoked)
}
