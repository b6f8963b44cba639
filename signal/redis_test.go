package signal

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newRedisPair(t *testing.T) (*RedisSignal, *RedisSignal) {
	t.Helper()

	mr := miniredis.RunT(t)
	newClient := func() *redis.Client {
		return redis.NewClient(&redis.Options{Addr: mr.Addr()})
	}

	a, err := NewRedisSignal(newClient(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	b, err := NewRedisSignal(newClient(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() })
	return a, b
}

func TestRedisSignalFanOut(t *testing.T) {
	a, b := newRedisPair(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, err := b.Listen(ctx)
	require.NoError(t, err)

	sent := Event{Kind: KindLogout, Origin: "instance-a", IssuedAt: time.Now().UTC().Truncate(time.Second)}
	require.NoError(t, a.Announce(ctx, sent))

	select {
	case got := <-events:
		require.Equal(t, KindLogout, got.Kind)
		require.Equal(t, "instance-a", got.Origin)
	case <-time.After(10 * time.Second):
		t.Fatal("no event observed on the stream")
	}
}

func TestRedisSignalAnnouncerHearsItself(t *testing.T) {
	a, _ := newRedisPair(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, err := a.Listen(ctx)
	require.NoError(t, err)

	require.NoError(t, a.Announce(ctx, Event{Kind: KindLogout, Origin: "self"}))

	// Without consumer groups every subscriber reads the whole stream, the
	// announcer included; the broadcaster filters echoes by origin.
	select {
	case got := <-events:
		require.Equal(t, "self", got.Origin)
	case <-time.After(10 * time.Second):
		t.Fatal("no event observed on the stream")
	}
}
