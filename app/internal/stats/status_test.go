package stats

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	assert.Equal(t, Flags{}, Classify())
	assert.Equal(t, Flags{}, Classify(StatusPending, StatusPending))
	assert.Equal(t, Flags{Up: true}, Classify(StatusUp, StatusPending))
	assert.Equal(t, Flags{Down: true}, Classify(StatusDown))
	assert.Equal(t, Flags{Down: true}, Classify(Status(7)), "unknown codes count as down")
	assert.Equal(t, Flags{Up: true, Down: true, Maintenance: true}, Classify(StatusMaintenance, StatusDown, StatusUp))
}

func TestResolve_Precedence(t *testing.T) {
	opts := BadgeOptions{Label: "svc"}
	cases := []struct {
		name    string
		flags   Flags
		message string
		color   string
	}{
		{"no data", Flags{}, MessageNA, DefaultNAColor},
		{"maintenance only", Flags{Maintenance: true}, MessageMaintenance, DefaultMaintenanceColor},
		{"maintenance beats down", Flags{Maintenance: true, Down: true}, MessageMaintenance, DefaultMaintenanceColor},
		{"maintenance beats mix", Flags{Maintenance: true, Down: true, Up: true}, MessageMaintenance, DefaultMaintenanceColor},
		{"pure up", Flags{Up: true}, MessageUp, DefaultUpColor},
		{"mix", Flags{Up: true, Down: true}, MessageDegraded, DefaultPartialColor},
		{"pure down", Flags{Down: true}, MessageDown, DefaultDownColor},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			st := Resolve(c.flags, opts)
			assert.Equal(t, c.message, st.Message)
			assert.Equal(t, c.color, st.Color)
			assert.Equal(t, DefaultStyle, st.Style)
			if c.message == MessageNA {
				assert.Empty(t, st.Label)
			} else {
				assert.Equal(t, "svc", st.Label)
			}
		})
	}
}

func TestResolve_CustomColors(t *testing.T) {
	opts := BadgeOptions{UpColor: "green", DownColor: "red", PartialColor: "orange", MaintenanceColor: "blue", Style: "flat-square"}
	assert.Equal(t, "green", Resolve(Flags{Up: true}, opts).Color)
	assert.Equal(t, "red", Resolve(Flags{Down: true}, opts).Color)
	assert.Equal(t, "orange", Resolve(Flags{Up: true, Down: true}, opts).Color)
	assert.Equal(t, "blue", Resolve(Flags{Maintenance: true}, opts).Color)
	assert.Equal(t, "flat-square", Resolve(Flags{}, opts).Style)
}

func TestEvaluate(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.setLatest(1, StatusUp)
	store.setLatest(2, StatusDown)
	store.setLatest(3, StatusPending)
	store.setLatest(4, StatusMaintenance)

	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	e := NewEvaluator(store, WithMetrics(metrics))

	cases := []struct {
		ids  []int64
		want string
	}{
		{nil, MessageNA},
		{[]int64{99}, MessageNA},
		{[]int64{3}, MessageNA},
		{[]int64{3, 99}, MessageNA},
		{[]int64{1, 3}, MessageUp},
		{[]int64{1, 2}, MessageDegraded},
		{[]int64{2, 1}, MessageDegraded},
		{[]int64{2, 3}, MessageDown},
		{[]int64{1, 2, 4}, MessageMaintenance},
	}
	for _, c := range cases {
		st, err := e.Evaluate(ctx, c.ids, BadgeOptions{})
		require.NoError(t, err)
		assert.Equal(t, c.want, st.Message, "ids %v", c.ids)
	}

	assert.Equal(t, 4.0, testutil.ToFloat64(metrics.evaluations.WithLabelValues(MessageNA)))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.evaluations.WithLabelValues(MessageDegraded)))
}

func TestEvaluate_StoreError(t *testing.T) {
	store := newMemStore()
	store.err = errStore
	_, err := NewEvaluator(store).Evaluate(context.Background(), []int64{5}, BadgeOptions{})
	assert.ErrorIs(t, err, errStore)
}
