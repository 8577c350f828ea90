package stats

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUptime24h(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	store := newMemStore()
	store.add(Minutely, 1,
		StatRow{Timestamp: now.Add(-25 * time.Hour).Unix(), Down: 100}, // outside the window
		StatRow{Timestamp: now.Add(-2 * time.Hour).Unix(), Up: 9, Extras: `{"maintenance":5}`},
		StatRow{Timestamp: now.Add(-time.Hour).Unix(), Up: 9, Down: 2},
	)
	calc := NewUptimeCalculator(store, fixedClock(now))

	got, err := calc.Uptime24h(context.Background(), 1)
	require.NoError(t, err)
	assert.InDelta(t, 0.9, got, 1e-9)
}

func TestUptime_NoData(t *testing.T) {
	calc := NewUptimeCalculator(newMemStore())
	got, err := calc.Uptime24h(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)
}

func TestUptime_LongerWindowsUseCoarserTables(t *testing.T) {
	store := newMemStore()
	calc := NewUptimeCalculator(store, fixedClock(time.Unix(1_700_000_000, 0)))
	for _, d := range []time.Duration{time.Hour, 7 * 24 * time.Hour, 90 * 24 * time.Hour} {
		_, err := calc.Uptime(context.Background(), 1, d)
		require.NoError(t, err)
	}
	assert.Equal(t, []Resolution{Minutely, Hourly, Daily}, store.queries)
}

func TestUptime_StoreError(t *testing.T) {
	store := newMemStore()
	store.err = errStore
	_, err := NewUptimeCalculator(store).Uptime24h(context.Background(), 1)
	assert.ErrorIs(t, err, errStore)
}
