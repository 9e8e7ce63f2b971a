// Package system exercises the real-time clock adapter.
package system

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestClockNowUTC ensures the clock returns UTC timestamps.
func TestClockNowUTC(t *testing.T) {
	t.Parallel()

	clk := New()
	require.NotNil(t, clk)

	before := time.Now().UTC().Add(-time.Second)
	got := clk.Now()
	after := time.Now().UTC().Add(time.Second)

	require.Equal(t, time.UTC, got.Location())
	require.False(t, got.Before(before), "expected %v after %v", got, before)
	require.False(t, got.After(after), "expected %v before %v", got, after)
}

// TestClockNowWholeSeconds checks timestamps carry no sub-second part.
func TestClockNowWholeSeconds(t *testing.T) {
	t.Parallel()

	got := New().Now()
	require.Zero(t, got.Nanosecond())
	require.Equal(t, got.Unix(), time.Unix(got.Unix(), 0).Unix())
}

// TestClockNowMonotonic checks successive timestamps are non-decreasing.
func TestClockNowMonotonic(t *testing.T) {
	t.Parallel()

	clk := New()
	first := clk.Now()
	second := clk.Now()
	require.False(t, second.Before(first), "expected second call %v to be >= first %v", second, first)
}
