package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLimiterWaitDelaysSameHost(t *testing.T) {
	t.Parallel()

	l := New(Config{DefaultRPS: 10, DefaultBurst: 1})
	ctx := context.Background()

	require.NoError(t, l.Wait(ctx, "https://www.immowelt.de/liste/muenchen"))

	start := time.Now()
	require.NoError(t, l.Wait(ctx, "https://www.immowelt.de/liste/augsburg"))
	require.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
}

func TestLimiterHostsAreIndependent(t *testing.T) {
	t.Parallel()

	l := New(Config{DefaultRPS: 1, DefaultBurst: 1})
	ctx := context.Background()

	require.NoError(t, l.Wait(ctx, "https://a.example/list"))

	start := time.Now()
	require.NoError(t, l.Wait(ctx, "https://b.example/list"))
	require.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestLimiterPerHostOverride(t *testing.T) {
	t.Parallel()

	l := New(Config{DefaultRPS: 0.1, DefaultBurst: 1, PerHost: map[string]float64{"FAST.example": 0}})
	ctx := context.Background()

	start := time.Now()
	for range 5 {
		require.NoError(t, l.Wait(ctx, "https://fast.example/list"))
	}
	require.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestLimiterContextCancel(t *testing.T) {
	t.Parallel()

	l := New(Config{DefaultRPS: 0.01, DefaultBurst: 1})
	require.NoError(t, l.Wait(context.Background(), "https://slow.example"))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	require.Error(t, l.Wait(ctx, "https://slow.example"))
}

func TestLimiterDisabled(t *testing.T) {
	t.Parallel()

	l := New(Config{})
	start := time.Now()
	for range 10 {
		require.NoError(t, l.Wait(context.Background(), "not a url"))
	}
	require.Less(t, time.Since(start), 50*time.Millisecond)
}
