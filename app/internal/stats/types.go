package stats

import (
	"context"
	"time"

	"github.com/tidwall/gjson"
)

// Status is the check result code shared by raw heartbeats and timeline buckets.
type Status int

const (
	StatusDown        Status = 0
	StatusUp          Status = 1
	StatusPending     Status = 2
	StatusMaintenance Status = 3
)

func (s Status) String() string {
	switch s {
	case StatusDown:
		return "down"
	case StatusUp:
		return "up"
	case StatusPending:
		return "pending"
	case StatusMaintenance:
		return "maintenance"
	default:
		return "unknown"
	}
}

// ISOLayout is the timestamp format emitted to status page clients.
const ISOLayout = "2006-01-02T15:04:05.000Z07:00"

// Heartbeat represents a single health check result
type Heartbeat struct {
	ID        int64
	MonitorID int64
	Status    Status
	Time      time.Time
	Msg       string
	Ping      *int
	Important bool // Status change events
}

// PublicHeartbeat is the subset of a heartbeat exposed on public status pages.
type PublicHeartbeat struct {
	Status Status `json:"status"`
	Time   string `json:"time"`
	Msg    string `json:"msg"`
	Ping   *int   `json:"ping"`
}

// Public strips the heartbeat down to what status page visitors may see.
func (h Heartbeat) Public() PublicHeartbeat {
	return PublicHeartbeat{
		Status: h.Status,
		Time:   h.Time.UTC().Format(ISOLayout),
		Msg:    h.Msg,
		Ping:   h.Ping,
	}
}

// StatRow is one pre-aggregated rollup period read from a resolution table.
// Timestamp is the period start in unix seconds, aligned to the table's period.
type StatRow struct {
	Timestamp int64
	Up        int64
	Down      int64
	Extras    string
}

// Maintenance returns the maintenance counter carried in the row's extras.
// Malformed or missing extras count as zero.
func (r StatRow) Maintenance() int64 {
	if r.Extras == "" || !gjson.Valid(r.Extras) {
		return 0
	}
	return gjson.Get(r.Extras, "maintenance").Int()
}

// Extras is the structured payload stored alongside each rollup row.
type Extras struct {
	Maintenance int64 `json:"maintenance"`
}

// Counts accumulates rollup counters for one timeline bucket.
type Counts struct {
	Up          int64
	Down        int64
	Maintenance int64
}

// Add folds a rollup row into the counters.
func (c *Counts) Add(r StatRow) {
	c.Up += r.Up
	c.Down += r.Down
	c.Maintenance += r.Maintenance()
}

// IsZero reports whether no observation fell into the bucket.
func (c Counts) IsZero() bool {
	return c.Up == 0 && c.Down == 0 && c.Maintenance == 0
}

// StatReader is the ordered range scan over a resolution table.
// Rows must be returned sorted ascending by Timestamp.
type StatReader interface {
	StatsSince(ctx context.Context, res Resolution, monitorID int64, since int64) ([]StatRow, error)
}

// HeartbeatReader fetches the most recent raw heartbeat of a monitor.
// It returns nil, nil when the monitor has never reported.
type HeartbeatReader interface {
	LatestHeartbeat(ctx context.Context, monitorID int64) (*Heartbeat, error)
}
