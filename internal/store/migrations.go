package store

import "database/sql"

// migrate runs all database migrations
func migrate(db *sql.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			max_hr REAL,
			ftp REAL,
			created_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,

		// One uploaded activity file and, once processed, its analysis
		`CREATE TABLE IF NOT EXISTS workouts (
			id INTEGER PRIMARY KEY,
			user_id INTEGER NOT NULL,
			job_id TEXT NOT NULL UNIQUE,
			file_name TEXT NOT NULL,
			sport TEXT,
			mode TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			workout_date TEXT,
			duration_seconds REAL,
			distance REAL,
			avg_hr REAL,
			avg_speed REAL,
			avg_power REAL,
			efficiency_factor REAL,
			decoupling REAL,
			tss INTEGER,
			metric_used TEXT,
			zone_json TEXT,
			rolling_json TEXT,
			error TEXT,
			created_at TEXT DEFAULT CURRENT_TIMESTAMP,
			processed_at TEXT,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		)`,

		`CREATE INDEX IF NOT EXISTS idx_workouts_user_date ON workouts(user_id, workout_date)`,
		`CREATE INDEX IF NOT EXISTS idx_workouts_status ON workouts(status)`,

		// Zone boundaries, one table per metric, keyed by (user, sport)
		zoneTableDDL("hr_zones"),
		zoneTableDDL("power_zones"),
		zoneTableDDL("speed_zones"),

		`CREATE INDEX IF NOT EXISTS idx_hr_zones_key ON hr_zones(user_id, sport)`,
		`CREATE INDEX IF NOT EXISTS idx_power_zones_key ON power_zones(user_id, sport)`,
		`CREATE INDEX IF NOT EXISTS idx_speed_zones_key ON speed_zones(user_id, sport)`,

		// Daily Fitness Trends
		`CREATE TABLE IF NOT EXISTS fitness_trends (
			user_id INTEGER NOT NULL,
			date TEXT NOT NULL,
			ctl REAL,
			atl REAL,
			tsb REAL,
			computed_at TEXT DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (user_id, date),
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		)`,

		// Sync State (key-value store for background job bookkeeping)
		`CREATE TABLE IF NOT EXISTS sync_state (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return err
		}
	}

	return nil
}

func zoneTableDDL(table string) string {
	return `CREATE TABLE IF NOT EXISTS ` + table + ` (
			id INTEGER PRIMARY KEY,
			user_id INTEGER NOT NULL,
			sport TEXT NOT NULL,
			zone INTEGER NOT NULL,
			min REAL NOT NULL,
			max REAL NOT NULL,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		)`
}
