package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"statuspage/app/internal/models"
)

// StatusPageBySlug loads a status page. Slugs are matched lowercased.
// Returns nil, nil when no page exists.
func (s *Store) StatusPageBySlug(ctx context.Context, slug string) (*models.StatusPage, error) {
	var (
		p         models.StatusPage
		published int
	)
	err := s.db.QueryRowContext(ctx, `SELECT id, slug, title, COALESCE(description, ''), COALESCE(icon, ''),
		heartbeat_bar_days, published FROM status_page WHERE slug = ?`, strings.ToLower(slug)).
		Scan(&p.ID, &p.Slug, &p.Title, &p.Description, &p.Icon, &p.HeartbeatBarDays, &published)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p.Published = published != 0
	return &p, nil
}

// PublicGroups returns the public groups of a page with their monitors, both ordered by weight
func (s *Store) PublicGroups(ctx context.Context, pageID int64) ([]models.PublicGroup, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT g.id, g.name, g.weight, m.id, m.name
		FROM "group" g
		LEFT JOIN monitor_group mg ON mg.group_id = g.id
		LEFT JOIN monitor m ON m.id = mg.monitor_id
		WHERE g.status_page_id = ? AND g.public = 1
		ORDER BY g.weight ASC, g.id ASC, mg.weight ASC, mg.id ASC`, pageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	groups := []models.PublicGroup{}
	for rows.Next() {
		var (
			g       models.PublicGroup
			monID   sql.NullInt64
			monName sql.NullString
		)
		if err := rows.Scan(&g.ID, &g.Name, &g.Weight, &monID, &monName); err != nil {
			return nil, err
		}
		if n := len(groups); n == 0 || groups[n-1].ID != g.ID {
			g.MonitorList = []models.PublicMonitor{}
			groups = append(groups, g)
		}
		if monID.Valid {
			last := &groups[len(groups)-1]
			last.MonitorList = append(last.MonitorList, models.PublicMonitor{ID: monID.Int64, Name: monName.String})
		}
	}
	return groups, rows.Err()
}

// PublicMonitorIDs returns the distinct monitors shown on a page
func (s *Store) PublicMonitorIDs(ctx context.Context, pageID int64) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT mg.monitor_id
		FROM monitor_group mg
		JOIN "group" g ON g.id = mg.group_id
		WHERE g.status_page_id = ? AND g.public = 1
		ORDER BY mg.monitor_id`, pageID)
	if err != nil {
		return nil, err
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

// MonitorByPushToken finds the monitor owning a push token. Returns nil, nil when unknown.
func (s *Store) MonitorByPushToken(ctx context.Context, token string) (*models.Monitor, error) {
	var (
		m      models.Monitor
		active int
	)
	err := s.db.QueryRowContext(ctx, `SELECT id, name, active, push_token FROM monitor WHERE push_token = ?`, token).
		Scan(&m.ID, &m.Name, &active, &m.PushToken)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	m.Active = active != 0
	return &m, nil
}

// CreateStatusPage inserts a page and sets its ID
func (s *Store) CreateStatusPage(ctx context.Context, p *models.StatusPage) error {
	p.Slug = strings.ToLower(p.Slug)
	res, err := s.db.ExecContext(ctx, `INSERT INTO status_page (slug, title, description, icon, heartbeat_bar_days, published)
		VALUES (?, ?, ?, ?, ?, ?)`,
		p.Slug, p.Title, p.Description, p.Icon, p.HeartbeatBarDays, boolInt(p.Published))
	if err != nil {
		return fmt.Errorf("create status page %q: %w", p.Slug, err)
	}
	p.ID, err = res.LastInsertId()
	return err
}

// CreateMonitor inserts a monitor and sets its ID
func (s *Store) CreateMonitor(ctx context.Context, m *models.Monitor) error {
	var token any
	if m.PushToken != "" {
		token = m.PushToken
	}
	res, err := s.db.ExecContext(ctx, `INSERT INTO monitor (name, active, push_token) VALUES (?, ?, ?)`,
		m.Name, boolInt(m.Active), token)
	if err != nil {
		return fmt.Errorf("create monitor %q: %w", m.Name, err)
	}
	m.ID, err = res.LastInsertId()
	return err
}

// CreateGroup adds a group to a status page and returns its ID
func (s *Store) CreateGroup(ctx context.Context, pageID int64, name string, public bool, weight int) (int64, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO "group" (status_page_id, name, public, weight) VALUES (?, ?, ?, ?)`,
		pageID, name, boolInt(public), weight)
	if err != nil {
		return 0, fmt.Errorf("create group %q: %w", name, err)
	}
	return res.LastInsertId()
}

// AddMonitorToGroup places a monitor in a group
func (s *Store) AddMonitorToGroup(ctx context.Context, groupID, monitorID int64, weight int) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO monitor_group (group_id, monitor_id, weight) VALUES (?, ?, ?)`,
		groupID, monitorID, weight)
	return err
}

// SetMonitorActive pauses or resumes a monitor
func (s *Store) SetMonitorActive(ctx context.Context, monitorID int64, active bool) error {
	res, err := s.db.ExecContext(ctx, `UPDATE monitor SET active = ? WHERE id = ?`, boolInt(active), monitorID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
