package stats

import (
	"context"
	"fmt"
	"time"
)

// UptimeCalculator computes uptime ratios from the minutely rollups.
type UptimeCalculator struct {
	store StatReader
	now   func() time.Time
}

// NewUptimeCalculator creates a calculator reading from store.
func NewUptimeCalculator(store StatReader, opts ...Option) *UptimeCalculator {
	o := buildOptions(opts)
	return &UptimeCalculator{store: store, now: o.now}
}

// Uptime returns up/(up+down) over the trailing duration, in [0, 1].
// Maintenance and pending periods are left out. No data yields 0.
func (c *UptimeCalculator) Uptime(ctx context.Context, monitorID int64, duration time.Duration) (float64, error) {
	res := Minutely
	if duration > 24*time.Hour {
		res = ResolutionForDays(int(duration.Hours() / 24))
	}
	since := res.Align(c.now().Add(-duration).Unix())

	rows, err := c.store.StatsSince(ctx, res, monitorID, since)
	if err != nil {
		return 0, fmt.Errorf("read %s stats for monitor %d: %w", res, monitorID, err)
	}

	var up, down int64
	for _, r := range rows {
		up += r.Up
		down += r.Down
	}
	if up+down == 0 {
		return 0, nil
	}
	return float64(up) / float64(up+down), nil
}

// Uptime24h is the ratio shown next to each monitor on a status page.
func (c *UptimeCalculator) Uptime24h(ctx context.Context, monitorID int64) (float64, error) {
	return c.Uptime(ctx, monitorID, 24*time.Hour)
}
