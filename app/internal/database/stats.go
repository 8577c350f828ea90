package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"statuspage/app/internal/stats"
)

// StatsSince returns the rollup rows of a monitor at or after since, ascending
func (s *Store) StatsSince(ctx context.Context, res stats.Resolution, monitorID int64, since int64) ([]stats.StatRow, error) {
	// #nosec G201 -- table name comes from the fixed resolution table
	q := fmt.Sprintf(`SELECT timestamp, up, down, COALESCE(extras, '') FROM %s
		WHERE monitor_id = ? AND timestamp >= ? ORDER BY timestamp ASC`, res.Table())
	rows, err := s.db.QueryContext(ctx, q, monitorID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []stats.StatRow
	for rows.Next() {
		var r stats.StatRow
		if err := rows.Scan(&r.Timestamp, &r.Up, &r.Down, &r.Extras); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// InsertStat writes a rollup row as is, replacing any row for the same period.
// Used for imports and seeding.
func (s *Store) InsertStat(ctx context.Context, res stats.Resolution, monitorID int64, row stats.StatRow) error {
	var extras any
	if row.Extras != "" {
		extras = row.Extras
	}
	// #nosec G201
	q := fmt.Sprintf(`INSERT INTO %s (monitor_id, timestamp, up, down, extras) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(monitor_id, timestamp) DO UPDATE SET
		up = excluded.up, down = excluded.down, extras = excluded.extras`, res.Table())
	_, err := s.db.ExecContext(ctx, q, monitorID, row.Timestamp, row.Up, row.Down, extras)
	return err
}

// AggregateHourly folds completed hours of minutely rows into stat_hourly and
// prunes minutely rows past retention.
func (s *Store) AggregateHourly(ctx context.Context, now time.Time) (int, error) {
	now = now.UTC()
	return s.rollup(ctx, stats.Minutely, stats.Hourly,
		stats.Hourly.Align(now.Unix()),
		stats.Hourly.Align(now.Add(-stats.MinutelyRetention).Unix()))
}

// AggregateDaily folds completed days of hourly rows into stat_daily, prunes
// hourly rows past retention and drops daily rows older than a year.
func (s *Store) AggregateDaily(ctx context.Context, now time.Time) (int, error) {
	now = now.UTC()
	n, err := s.rollup(ctx, stats.Hourly, stats.Daily,
		stats.Daily.Align(now.Unix()),
		stats.Daily.Align(now.Add(-stats.HourlyRetention).Unix()))
	if err != nil {
		return n, err
	}
	// #nosec G201
	q := fmt.Sprintf(`DELETE FROM %s WHERE timestamp < ?`, stats.Daily.Table())
	if _, err := s.db.ExecContext(ctx, q, now.Add(-stats.DailyRetention).Unix()); err != nil {
		return n, fmt.Errorf("prune %s: %w", stats.Daily.Table(), err)
	}
	return n, nil
}

type rollupRow struct {
	monitorID   int64
	ts          int64
	up, down    int64
	ping        *float64
	pingMin     *int64
	pingMax     *int64
	maintenance int64
}

// rollup sums every complete target period before cutoff and replaces the
// target rows, then deletes source rows before pruneBefore. RecordHeartbeat
// already keeps target rows current, so the replace only reconciles them. Both bounds are
// aligned to the target period so a pruned period never half survives.
func (s *Store) rollup(ctx context.Context, from, to stats.Resolution, cutoff, pruneBefore int64) (int, error) {
	// #nosec G201 -- table names come from the fixed resolution table
	q := fmt.Sprintf(`SELECT monitor_id, (timestamp / %[2]d) * %[2]d AS ts,
		SUM(up), SUM(down), AVG(ping), MIN(ping_min), MAX(ping_max), SUM(%[3]s)
		FROM %[1]s WHERE timestamp < ? GROUP BY monitor_id, ts ORDER BY monitor_id, ts`,
		from.Table(), to.Period(), maintenanceExpr("extras"))

	rows, err := s.db.QueryContext(ctx, q, cutoff)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", from.Table(), err)
	}
	// collect before writing, the pool has one connection
	var pending []rollupRow
	for rows.Next() {
		var r rollupRow
		if err := rows.Scan(&r.monitorID, &r.ts, &r.up, &r.down, &r.ping, &r.pingMin, &r.pingMax, &r.maintenance); err != nil {
			rows.Close()
			return 0, err
		}
		pending = append(pending, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	// #nosec G201
	upsert := fmt.Sprintf(`INSERT INTO %s (monitor_id, timestamp, up, down, ping, ping_min, ping_max, extras)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(monitor_id, timestamp) DO UPDATE SET
		up = excluded.up, down = excluded.down, ping = excluded.ping,
		ping_min = excluded.ping_min, ping_max = excluded.ping_max, extras = excluded.extras`, to.Table())
	stmt, err := tx.PrepareContext(ctx, upsert)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for _, r := range pending {
		extras, err := json.Marshal(stats.Extras{Maintenance: r.maintenance})
		if err != nil {
			return 0, err
		}
		if _, err := stmt.ExecContext(ctx, r.monitorID, r.ts, r.up, r.down, r.ping, r.pingMin, r.pingMax, string(extras)); err != nil {
			return 0, fmt.Errorf("write %s: %w", to.Table(), err)
		}
	}

	// #nosec G201
	prune := fmt.Sprintf(`DELETE FROM %s WHERE timestamp < ?`, from.Table())
	if _, err := tx.ExecContext(ctx, prune, pruneBefore); err != nil {
		return 0, fmt.Errorf("prune %s: %w", from.Table(), err)
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(pending), nil
}
