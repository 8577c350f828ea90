package stats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Input bounds accepted by the timeline endpoint.
const (
	MaxDays        = 365
	MinMaxBeat     = 1
	MaxMaxBeat     = 1000
	DefaultMaxBeat = 120
)

// ErrUnorderedRows is returned when a rollup scan is not strictly ascending.
// Duplicate timestamps would be double counted, so they are rejected too.
var ErrUnorderedRows = errors.New("stats: rollup rows not strictly ordered by timestamp")

// ClampDays bounds a requested lookback to [0, MaxDays].
func ClampDays(days int) int {
	return max(0, min(days, MaxDays))
}

// ClampMaxBeat bounds a requested bucket count to [MinMaxBeat, MaxMaxBeat].
// Zero means "not given" and yields DefaultMaxBeat.
func ClampMaxBeat(n int) int {
	if n == 0 {
		n = DefaultMaxBeat
	}
	return max(MinMaxBeat, min(n, MaxMaxBeat))
}

// Window describes the bucket grid laid over a lookback period.
type Window struct {
	Resolution     Resolution
	Start          int64 // unix seconds, aligned to Resolution
	BucketDuration int64 // seconds, never narrower than Resolution.Period()
	Buckets        int
}

// NewWindow computes the grid for days of history ending at now, split into maxBeat buckets.
func NewWindow(now time.Time, days, maxBeat int) Window {
	days = ClampDays(days)
	maxBeat = ClampMaxBeat(maxBeat)

	res := ResolutionForDays(days)
	total := int64(days) * 86400
	ideal := (total + int64(maxBeat) - 1) / int64(maxBeat)

	return Window{
		Resolution:     res,
		Start:          res.Align(now.Unix() - total),
		BucketDuration: max(ideal, res.Period()),
		Buckets:        maxBeat,
	}
}

// BucketStart returns the inclusive start of bucket i.
func (w Window) BucketStart(i int) int64 {
	return w.Start + int64(i)*w.BucketDuration
}

// BucketEnd returns the exclusive end of bucket i.
func (w Window) BucketEnd(i int) int64 {
	return w.BucketStart(i + 1)
}

// End is the exclusive end of the last bucket.
func (w Window) End() int64 {
	return w.BucketStart(w.Buckets)
}

// Bucket is one slot of the timeline. The zero value is the empty placeholder.
type Bucket struct {
	Status Status
	Time   time.Time // bucket end
	Counts Counts
	filled bool
}

// IsEmpty reports whether no observation fell into the bucket.
func (b Bucket) IsEmpty() bool { return !b.filled }

type bucketJSON struct {
	Status Status `json:"status"`
	Time   string `json:"time"`
	Msg    string `json:"msg"`
	Ping   *int   `json:"ping"`
}

// MarshalJSON renders empty buckets as 0 and filled ones as a heartbeat-shaped object.
func (b Bucket) MarshalJSON() ([]byte, error) {
	if b.IsEmpty() {
		return []byte("0"), nil
	}
	return json.Marshal(bucketJSON{
		Status: b.Status,
		Time:   b.Time.UTC().Format(ISOLayout),
	})
}

// bucketRules is evaluated top to bottom; the first match wins.
var bucketRules = []struct {
	status  Status
	applies func(Counts) bool
}{
	{StatusMaintenance, func(c Counts) bool { return c.Maintenance > 0 }},
	{StatusDown, func(c Counts) bool { return c.Down > 0 }},
	{StatusUp, func(c Counts) bool { return c.Up > 0 }},
}

// BucketStatus derives the displayed status of a bucket.
// ok is false when the bucket is empty.
func BucketStatus(c Counts) (status Status, ok bool) {
	if c.IsZero() {
		return 0, false
	}
	for _, r := range bucketRules {
		if r.applies(c) {
			return r.status, true
		}
	}
	return 0, false
}

// MergeBuckets walks ascending rows and the window's buckets in lockstep.
// Rows before the window are dropped, rows past its end are never read.
func MergeBuckets(rows []StatRow, w Window) ([]Bucket, error) {
	buckets := make([]Bucket, w.Buckets)

	i := 0
	prev := int64(0)
	next := func() error {
		if i > 0 && rows[i].Timestamp <= prev {
			return fmt.Errorf("%w: %d after %d", ErrUnorderedRows, rows[i].Timestamp, prev)
		}
		prev = rows[i].Timestamp
		return nil
	}

	for i < len(rows) && rows[i].Timestamp < w.Start {
		if err := next(); err != nil {
			return nil, err
		}
		i++
	}

	for b := range buckets {
		end := w.BucketEnd(b)

		var c Counts
		for i < len(rows) && rows[i].Timestamp < end {
			if err := next(); err != nil {
				return nil, err
			}
			c.Add(rows[i])
			i++
		}

		if status, ok := BucketStatus(c); ok {
			buckets[b] = Bucket{
				Status: status,
				Time:   time.Unix(end, 0).UTC(),
				Counts: c,
				filled: true,
			}
		}
	}

	return buckets, nil
}

// Downsampler compresses a monitor's rollup history into a fixed-width timeline.
type Downsampler struct {
	store   StatReader
	now     func() time.Time
	metrics *Metrics
}

// Option configures a Downsampler or Evaluator.
type Option func(*options)

type options struct {
	now     func() time.Time
	metrics *Metrics
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithMetrics records computations on the given collectors.
func WithMetrics(m *Metrics) Option {
	return func(o *options) { o.metrics = m }
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// NewDownsampler creates a Downsampler reading from store.
func NewDownsampler(store StatReader, opts ...Option) *Downsampler {
	o := buildOptions(opts)
	return &Downsampler{store: store, now: o.now, metrics: o.metrics}
}

// Downsample returns exactly ClampMaxBeat(maxBeat) buckets covering the last days of history.
// Callers handle days == 0 themselves (raw heartbeat tail).
func (d *Downsampler) Downsample(ctx context.Context, monitorID int64, days, maxBeat int) ([]Bucket, error) {
	started := time.Now()
	w := NewWindow(d.now().UTC(), days, maxBeat)

	rows, err := d.store.StatsSince(ctx, w.Resolution, monitorID, w.Start)
	if err != nil {
		return nil, fmt.Errorf("read %s stats for monitor %d: %w", w.Resolution, monitorID, err)
	}

	buckets, err := MergeBuckets(rows, w)
	if err != nil {
		return nil, fmt.Errorf("monitor %d: %w", monitorID, err)
	}

	d.metrics.observeDownsample(w.Resolution, len(rows), time.Since(started))
	return buckets, nil
}
