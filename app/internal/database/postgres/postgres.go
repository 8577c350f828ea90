// Package postgres serves the read side of the status page from PostgreSQL.
// Heartbeats and rollups are written by the collector that owns the database.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"statuspage/app/internal/models"
	"statuspage/app/internal/stats"
)

var (
	_ stats.StatReader      = (*Store)(nil)
	_ stats.HeartbeatReader = (*Store)(nil)
)

// Store reads status pages, heartbeats and rollups through a pgx pool.
type Store struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

// New connects to dsn and pings the server before returning.
func New(ctx context.Context, dsn string, log *zap.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctxPing); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &Store{pool: pool, log: log}, nil
}

// Close releases the pool.
func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// ---- rollups ----

// StatsSince returns the rollup rows of a monitor at or after since, ascending.
func (s *Store) StatsSince(ctx context.Context, res stats.Resolution, monitorID int64, since int64) ([]stats.StatRow, error) {
	// #nosec G201 -- table name comes from the fixed resolution table
	q := fmt.Sprintf(`SELECT timestamp, up, down, COALESCE(extras, '')
		   FROM %s
		  WHERE monitor_id = $1 AND timestamp >= $2
		  ORDER BY timestamp ASC`, res.Table())
	rows, err := s.pool.Query(ctx, q, monitorID, since)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", res.Table(), err)
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

// ---- heartbeats ----

const heartbeatColumns = `id, monitor_id, status, time, COALESCE(msg, ''), ping, important`

func scanHeartbeat(row pgx.Row) (*stats.Heartbeat, error) {
	var (
		hb     stats.Heartbeat
		status int16
		ping   *int32
	)
	if err := row.Scan(&hb.ID, &hb.MonitorID, &status, &hb.Time, &hb.Msg, &ping, &hb.Important); err != nil {
		return nil, err
	}
	hb.Status = stats.Status(status)
	hb.Time = hb.Time.UTC()
	if ping != nil {
		p := int(*ping)
		hb.Ping = &p
	}
	return &hb, nil
}

// LatestHeartbeat returns the newest heartbeat of a monitor, or nil if it never reported.
func (s *Store) LatestHeartbeat(ctx context.Context, monitorID int64) (*stats.Heartbeat, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+heartbeatColumns+`
		   FROM heartbeat
		  WHERE monitor_id = $1
		  ORDER BY time DESC, id DESC
		  LIMIT 1`, monitorID)
	hb, err := scanHeartbeat(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return hb, err
}

// RecentHeartbeats returns up to limit of the newest heartbeats, oldest first.
func (s *Store) RecentHeartbeats(ctx context.Context, monitorID int64, limit int) ([]stats.Heartbeat, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT * FROM (
		   SELECT `+heartbeatColumns+`
		     FROM heartbeat
		    WHERE monitor_id = $1
		    ORDER BY time DESC, id DESC
		    LIMIT $2
		 ) recent ORDER BY time ASC, id ASC`, monitorID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent heartbeats: %w", err)
	}
	defer rows.Close()

	var out []stats.Heartbeat
	for rows.Next() {
		hb, err := scanHeartbeat(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *hb)
	}
	return out, rows.Err()
}

// ---- status pages ----

// StatusPageBySlug looks a page up by its lower-cased slug. A missing page is nil, nil.
func (s *Store) StatusPageBySlug(ctx context.Context, slug string) (*models.StatusPage, error) {
	var p models.StatusPage
	err := s.pool.QueryRow(ctx,
		`SELECT id, slug, title, COALESCE(description, ''), COALESCE(icon, ''), heartbeat_bar_days, published
		   FROM status_page
		  WHERE slug = $1`, strings.ToLower(slug)).
		Scan(&p.ID, &p.Slug, &p.Title, &p.Description, &p.Icon, &p.HeartbeatBarDays, &p.Published)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// PublicGroups lists the public groups of a page by weight, each with its monitors.
func (s *Store) PublicGroups(ctx context.Context, pageID int64) ([]models.PublicGroup, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT g.id, g.name, g.weight, m.id, m.name
		   FROM "group" g
		   LEFT JOIN monitor_group mg ON mg.group_id = g.id
		   LEFT JOIN monitor m ON m.id = mg.monitor_id
		  WHERE g.status_page_id = $1 AND g.public
		  ORDER BY g.weight ASC, g.id ASC, mg.weight ASC, mg.id ASC`, pageID)
	if err != nil {
		return nil, fmt.Errorf("public groups: %w", err)
	}
	defer rows.Close()

	groups := []models.PublicGroup{}
	for rows.Next() {
		var (
			g       models.PublicGroup
			monID   *int64
			monName *string
		)
		if err := rows.Scan(&g.ID, &g.Name, &g.Weight, &monID, &monName); err != nil {
			return nil, err
		}
		if n := len(groups); n == 0 || groups[n-1].ID != g.ID {
			g.MonitorList = []models.PublicMonitor{}
			groups = append(groups, g)
		}
		if monID != nil {
			last := &groups[len(groups)-1]
			m := models.PublicMonitor{ID: *monID}
			if monName != nil {
				m.Name = *monName
			}
			last.MonitorList = append(last.MonitorList, m)
		}
	}
	return groups, rows.Err()
}

// PublicMonitorIDs returns the distinct monitors shown in any public group of a page.
func (s *Store) PublicMonitorIDs(ctx context.Context, pageID int64) ([]int64, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT DISTINCT mg.monitor_id
		   FROM monitor_group mg
		   JOIN "group" g ON g.id = mg.group_id
		  WHERE g.status_page_id = $1 AND g.public
		  ORDER BY mg.monitor_id`, pageID)
	if err != nil {
		return nil, fmt.Errorf("public monitors: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
