package stats

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

// memStore is an in-memory StatReader and HeartbeatReader.
type memStore struct {
	mu      sync.Mutex
	rows    map[Resolution]map[int64][]StatRow
	latest  map[int64]*Heartbeat
	err     error
	queries []Resolution
}

func newMemStore() *memStore {
	return &memStore{
		rows:   map[Resolution]map[int64][]StatRow{},
		latest: map[int64]*Heartbeat{},
	}
}

func (m *memStore) add(res Resolution, monitorID int64, rows ...StatRow) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rows[res] == nil {
		m.rows[res] = map[int64][]StatRow{}
	}
	m.rows[res][monitorID] = append(m.rows[res][monitorID], rows...)
	sort.Slice(m.rows[res][monitorID], func(i, j int) bool {
		return m.rows[res][monitorID][i].Timestamp < m.rows[res][monitorID][j].Timestamp
	})
}

func (m *memStore) setLatest(monitorID int64, s Status) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latest[monitorID] = &Heartbeat{MonitorID: monitorID, Status: s, Time: time.Now()}
}

func (m *memStore) StatsSince(_ context.Context, res Resolution, monitorID int64, since int64) ([]StatRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append(m.queries, res)
	if m.err != nil {
		return nil, m.err
	}
	var out []StatRow
	for _, r := range m.rows[res][monitorID] {
		if r.Timestamp >= since {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) LatestHeartbeat(_ context.Context, monitorID int64) (*Heartbeat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.latest[monitorID], nil
}

// unsortedStore returns rows exactly as given.
type unsortedStore []StatRow

func (u unsortedStore) StatsSince(context.Context, Resolution, int64, int64) ([]StatRow, error) {
	return u, nil
}

var errStore = errors.New("store unavailable")

func fixedClock(t time.Time) Option {
	return WithClock(func() time.Time { return t })
}
