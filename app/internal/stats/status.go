package stats

import (
	"context"
	"fmt"
)

// Badge messages produced by the aggregate evaluator.
const (
	MessageNA          = "N/A"
	MessageMaintenance = "Maintenance"
	MessageUp          = "Up"
	MessageDegraded    = "Degraded"
	MessageDown        = "Down"
)

// Default badge colors.
const (
	DefaultUpColor          = "#66c20a"
	DefaultDownColor        = "#c2290a"
	DefaultPartialColor     = "#F6BE00"
	DefaultMaintenanceColor = "#808080"
	DefaultNAColor          = "#999"
	DefaultStyle            = "flat"
)

// BadgeOptions are the caller-overridable presentation settings.
// Empty fields fall back to the defaults.
type BadgeOptions struct {
	Label            string
	UpColor          string
	DownColor        string
	PartialColor     string
	MaintenanceColor string
	NAColor          string
	Style            string
}

// WithDefaults fills every empty color and style.
func (o BadgeOptions) WithDefaults() BadgeOptions {
	def := func(v, d string) string {
		if v == "" {
			return d
		}
		return v
	}
	o.UpColor = def(o.UpColor, DefaultUpColor)
	o.DownColor = def(o.DownColor, DefaultDownColor)
	o.PartialColor = def(o.PartialColor, DefaultPartialColor)
	o.MaintenanceColor = def(o.MaintenanceColor, DefaultMaintenanceColor)
	o.NAColor = def(o.NAColor, DefaultNAColor)
	o.Style = def(o.Style, DefaultStyle)
	return o
}

// AggregateStatus is the single value summarizing a group of monitors.
type AggregateStatus struct {
	Label   string `json:"label"`
	Color   string `json:"color"`
	Message string `json:"message"`
	Style   string `json:"style"`
}

// Flags records which kinds of latest status were seen across monitors.
type Flags struct {
	Up          bool
	Down        bool
	Maintenance bool
}

// Observe classifies one monitor's latest status. Pending is ignored;
// every code other than Up, Pending and Maintenance counts as down.
func (f *Flags) Observe(s Status) {
	switch s {
	case StatusMaintenance:
		f.Maintenance = true
	case StatusPending:
	case StatusUp:
		f.Up = true
	default:
		f.Down = true
	}
}

// Classify folds a set of latest statuses into flags.
func Classify(statuses ...Status) Flags {
	var f Flags
	for _, s := range statuses {
		f.Observe(s)
	}
	return f
}

// aggregateRules is evaluated top to bottom; the first match wins.
// The last rule always applies.
var aggregateRules = []struct {
	message string
	applies func(Flags) bool
	color   func(BadgeOptions) string
}{
	{
		message: MessageNA,
		applies: func(f Flags) bool { return !f.Up && !f.Down && !f.Maintenance },
		color:   func(o BadgeOptions) string { return o.NAColor },
	},
	{
		message: MessageMaintenance,
		applies: func(f Flags) bool { return f.Maintenance },
		color:   func(o BadgeOptions) string { return o.MaintenanceColor },
	},
	{
		message: MessageUp,
		applies: func(f Flags) bool { return f.Up && !f.Down },
		color:   func(o BadgeOptions) string { return o.UpColor },
	},
	{
		message: MessageDegraded,
		applies: func(f Flags) bool { return f.Up && f.Down },
		color:   func(o BadgeOptions) string { return o.PartialColor },
	},
	{
		message: MessageDown,
		applies: func(Flags) bool { return true },
		color:   func(o BadgeOptions) string { return o.DownColor },
	},
}

// Resolve reduces flags to a badge value under the fixed precedence
// N/A, Maintenance, Up, Degraded, Down.
func Resolve(f Flags, opts BadgeOptions) AggregateStatus {
	opts = opts.WithDefaults()
	for _, r := range aggregateRules {
		if r.applies(f) {
			st := AggregateStatus{
				Label:   opts.Label,
				Color:   r.color(opts),
				Message: r.message,
				Style:   opts.Style,
			}
			// N/A badges carry no label
			if r.message == MessageNA {
				st.Label = ""
			}
			return st
		}
	}
	// unreachable, the last rule always applies
	return AggregateStatus{Color: opts.NAColor, Message: MessageNA, Style: opts.Style}
}

// Evaluator reduces the live status of many monitors into one badge value.
type Evaluator struct {
	store   HeartbeatReader
	metrics *Metrics
}

// NewEvaluator creates an Evaluator reading latest heartbeats from store.
func NewEvaluator(store HeartbeatReader, opts ...Option) *Evaluator {
	o := buildOptions(opts)
	return &Evaluator{store: store, metrics: o.metrics}
}

// Evaluate looks at the latest heartbeat of each monitor. Monitors that never
// reported are skipped.
func (e *Evaluator) Evaluate(ctx context.Context, monitorIDs []int64, opts BadgeOptions) (AggregateStatus, error) {
	var f Flags
	for _, id := range monitorIDs {
		hb, err := e.store.LatestHeartbeat(ctx, id)
		if err != nil {
			return AggregateStatus{}, fmt.Errorf("latest heartbeat for monitor %d: %w", id, err)
		}
		if hb == nil {
			continue
		}
		f.Observe(hb.Status)
	}

	st := Resolve(f, opts)
	e.metrics.observeEvaluation(st.Message)
	return st, nil
}
