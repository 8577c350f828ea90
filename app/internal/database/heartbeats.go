package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"statuspage/app/internal/stats"
)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanHeartbeat(r rowScanner) (*stats.Heartbeat, error) {
	var (
		hb        stats.Heartbeat
		status    int
		at        string
		ping      sql.NullInt64
		important int
	)
	if err := r.Scan(&hb.ID, &hb.MonitorID, &status, &at, &hb.Msg, &ping, &important); err != nil {
		return nil, err
	}
	t, err := time.Parse(timeLayout, at)
	if err != nil {
		return nil, fmt.Errorf("heartbeat %d time %q: %w", hb.ID, at, err)
	}
	hb.Status = stats.Status(status)
	hb.Time = t
	hb.Important = important != 0
	if ping.Valid {
		p := int(ping.Int64)
		hb.Ping = &p
	}
	return &hb, nil
}

const heartbeatColumns = `id, monitor_id, status, time, COALESCE(msg, ''), ping, important`

// LatestHeartbeat returns the newest heartbeat of a monitor, or nil if it never reported
func (s *Store) LatestHeartbeat(ctx context.Context, monitorID int64) (*stats.Heartbeat, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+heartbeatColumns+` FROM heartbeat
		WHERE monitor_id = ? ORDER BY time DESC, id DESC LIMIT 1`, monitorID)
	hb, err := scanHeartbeat(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return hb, err
}

// RecentHeartbeats returns up to limit of the newest heartbeats, oldest first
func (s *Store) RecentHeartbeats(ctx context.Context, monitorID int64, limit int) ([]stats.Heartbeat, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+heartbeatColumns+` FROM heartbeat
		WHERE monitor_id = ? ORDER BY time DESC, id DESC LIMIT ?`, monitorID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []stats.Heartbeat
	for rows.Next() {
		hb, err := scanHeartbeat(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *hb)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i, j := 0, len(list)-1; i < j; i, j = i+1, j-1 {
		list[i], list[j] = list[j], list[i]
	}
	return list, nil
}

// RecordHeartbeat stores a heartbeat and folds it into the current minutely,
// hourly and daily rows. Important is set when the status differs from the previous heartbeat.
func (s *Store) RecordHeartbeat(ctx context.Context, hb *stats.Heartbeat) error {
	if hb.Time.IsZero() {
		hb.Time = time.Now()
	}
	hb.Time = hb.Time.UTC().Truncate(time.Millisecond)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var prev int
	err = tx.QueryRowContext(ctx, `SELECT status FROM heartbeat WHERE monitor_id = ?
		ORDER BY time DESC, id DESC LIMIT 1`, hb.MonitorID).Scan(&prev)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		hb.Important = true
	case err != nil:
		return fmt.Errorf("previous heartbeat: %w", err)
	default:
		hb.Important = stats.Status(prev) != hb.Status
	}

	var ping any
	if hb.Ping != nil {
		ping = *hb.Ping
	}
	res, err := tx.ExecContext(ctx, `INSERT INTO heartbeat (monitor_id, status, time, msg, ping, important)
		VALUES (?, ?, ?, ?, ?, ?)`,
		hb.MonitorID, int(hb.Status), hb.Time.Format(timeLayout), hb.Msg, ping, boolInt(hb.Important))
	if err != nil {
		return fmt.Errorf("insert heartbeat: %w", err)
	}
	if hb.ID, err = res.LastInsertId(); err != nil {
		return err
	}

	var up, down, maintenance int
	switch hb.Status {
	case stats.StatusUp:
		up = 1
	case stats.StatusDown:
		down = 1
	case stats.StatusMaintenance:
		maintenance = 1
	case stats.StatusPending:
		// touch the period rows without counting or averaging
		ping = nil
	}
	for _, res := range stats.Resolutions() {
		ts := res.Align(hb.Time.Unix())
		if _, err := tx.ExecContext(ctx, upsertStatQueries[res], hb.MonitorID, ts, up, down, ping, ping, ping, maintenance); err != nil {
			return fmt.Errorf("update %s stat: %w", res, err)
		}
	}

	return tx.Commit()
}

// upsertStatQueries adds one heartbeat to the current period of every
// resolution, so coarse timelines include the period in progress.
var upsertStatQueries = func() map[stats.Resolution]string {
	m := make(map[stats.Resolution]string)
	for _, res := range stats.Resolutions() {
		m[res] = upsertStatSQL(res.Table())
	}
	return m
}()

// upsertStatSQL adds counters; ping keeps a running average over counted beats.
func upsertStatSQL(table string) string {
	// #nosec G201 -- table name comes from the fixed resolution table
	return fmt.Sprintf(`
INSERT INTO %[1]s (monitor_id, timestamp, up, down, ping, ping_min, ping_max, extras)
VALUES (?, ?, ?, ?, ?, ?, ?, json_object('maintenance', ?))
ON CONFLICT(monitor_id, timestamp) DO UPDATE SET
  ping = CASE WHEN excluded.ping IS NULL THEN %[1]s.ping
    ELSE COALESCE((%[1]s.ping * (%[1]s.up + %[1]s.down) + excluded.ping)
      / (%[1]s.up + %[1]s.down + 1), excluded.ping) END,
  ping_min = CASE WHEN excluded.ping IS NULL THEN %[1]s.ping_min
    ELSE COALESCE(MIN(%[1]s.ping_min, excluded.ping_min), excluded.ping_min) END,
  ping_max = CASE WHEN excluded.ping IS NULL THEN %[1]s.ping_max
    ELSE COALESCE(MAX(%[1]s.ping_max, excluded.ping_max), excluded.ping_max) END,
  up = %[1]s.up + excluded.up,
  down = %[1]s.down + excluded.down,
  extras = json_object('maintenance', %[2]s
    + CAST(json_extract(excluded.extras, '$.maintenance') AS INTEGER))`,
		table, maintenanceExpr(table+".extras"))
}

// maintenanceExpr reads the maintenance counter of an extras column, treating malformed JSON as zero.
func maintenanceExpr(col string) string {
	return `(CASE WHEN json_valid(` + col + `) THEN COALESCE(CAST(json_extract(` + col +
		`, '$.maintenance') AS INTEGER), 0) ELSE 0 END)`
}

// CleanupHeartbeats deletes raw heartbeats past retention. Important ones are kept longer.
func (s *Store) CleanupHeartbeats(ctx context.Context, now time.Time) (int64, error) {
	now = now.UTC()
	res, err := s.db.ExecContext(ctx, `DELETE FROM heartbeat
		WHERE (important = 0 AND time < ?) OR time < ?`,
		now.Add(-stats.HeartbeatRetention).Format(timeLayout),
		now.Add(-stats.ImportantHeartbeatRetention).Format(timeLayout))
	if err != nil {
		return 0, fmt.Errorf("cleanup heartbeats: %w", err)
	}
	return res.RowsAffected()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
