package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestStore_MemoryGetSet(t *testing.T) {
	s := New(nil, "test:")
	ctx := context.Background()

	var got payload
	hit, err := s.Get(ctx, "k", &got)
	require.NoError(t, err)
	require.False(t, hit)

	require.NoError(t, s.Set(ctx, "k", payload{Name: "a", Count: 2}, time.Minute))
	hit, err = s.Get(ctx, "k", &got)
	require.NoError(t, err)
	require.True(t, hit)
	require.Equal(t, payload{Name: "a", Count: 2}, got)
}

func TestStore_RedisTTL(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()

	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	s := New(client, "test:")
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", payload{Name: "b", Count: 1}, time.Second))

	var got payload
	hit, err := s.Get(ctx, "k", &got)
	require.NoError(t, err)
	require.True(t, hit)

	m.FastForward(2 * time.Second)

	hit, err = s.Get(ctx, "k", &got)
	require.NoError(t, err)
	require.False(t, hit)
}

func TestStore_DoFillsOnceWithinTTL(t *testing.T) {
	s := New(nil, "test:")
	ctx := context.Background()

	calls := 0
	fill := func(ctx context.Context) (interface{}, error) {
		calls++
		return payload{Name: "filled", Count: calls}, nil
	}

	var first, second payload
	require.NoError(t, s.Do(ctx, "k", time.Minute, &first, fill))
	require.NoError(t, s.Do(ctx, "k", time.Minute, &second, fill))

	require.Equal(t, 1, calls, "second lookup should be served from cache")
	require.Equal(t, first, second)
}

func TestStore_DoPropagatesFillError(t *testing.T) {
	s := New(nil, "test:")
	wantErr := errors.New("upstream down")

	var got payload
	err := s.Do(context.Background(), "k", time.Minute, &got, func(ctx context.Context) (interface{}, error) {
		return nil, wantErr
	})
	require.ErrorIs(t, err, wantErr)
}
