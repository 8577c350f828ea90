package database

import (
	"database/sql"
	"fmt"

	"statuspage/app/internal/stats"
)

const baseSchema = `
CREATE TABLE IF NOT EXISTS status_page (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  slug TEXT NOT NULL UNIQUE,
  title TEXT NOT NULL,
  description TEXT,
  icon TEXT,
  heartbeat_bar_days INTEGER NOT NULL DEFAULT 0,
  published INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS monitor (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL,
  active INTEGER NOT NULL DEFAULT 1,
  push_token TEXT UNIQUE
);

CREATE TABLE IF NOT EXISTS "group" (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  status_page_id INTEGER NOT NULL REFERENCES status_page(id) ON DELETE CASCADE,
  name TEXT NOT NULL,
  public INTEGER NOT NULL DEFAULT 1,
  weight INTEGER NOT NULL DEFAULT 1000
);
CREATE INDEX IF NOT EXISTS idx_group_status_page ON "group"(status_page_id);

CREATE TABLE IF NOT EXISTS monitor_group (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  monitor_id INTEGER NOT NULL REFERENCES monitor(id) ON DELETE CASCADE,
  group_id INTEGER NOT NULL REFERENCES "group"(id) ON DELETE CASCADE,
  weight INTEGER NOT NULL DEFAULT 1000
);
CREATE INDEX IF NOT EXISTS idx_monitor_group_group ON monitor_group(group_id);

-- Raw heartbeats, pruned after a day (important ones after a week)
CREATE TABLE IF NOT EXISTS heartbeat (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  monitor_id INTEGER NOT NULL,
  status INTEGER NOT NULL,
  time TEXT NOT NULL,
  msg TEXT,
  ping INTEGER,
  important INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_heartbeat_monitor_time ON heartbeat(monitor_id, time);
CREATE INDEX IF NOT EXISTS idx_heartbeat_time ON heartbeat(time);
`

// One table per rollup resolution. extras holds {"maintenance": n}.
const statTableSchema = `
CREATE TABLE IF NOT EXISTS %[1]s (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  monitor_id INTEGER NOT NULL,
  timestamp INTEGER NOT NULL,
  up INTEGER NOT NULL DEFAULT 0,
  down INTEGER NOT NULL DEFAULT 0,
  ping REAL,
  ping_min INTEGER,
  ping_max INTEGER,
  extras TEXT,
  UNIQUE(monitor_id, timestamp)
);
CREATE INDEX IF NOT EXISTS idx_%[1]s_ts ON %[1]s(timestamp);
`

// EnsureSchema creates all necessary database tables
func EnsureSchema(db *sql.DB) error {
	if _, err := db.Exec(baseSchema); err != nil {
		return err
	}
	for _, res := range stats.Resolutions() {
		if _, err := db.Exec(fmt.Sprintf(statTableSchema, res.Table())); err != nil {
			return fmt.Errorf("create %s: %w", res.Table(), err)
		}
	}
	return nil
}
