package repositories

import (
	"database/sql"
	"fmt"
)

// CreateSchema bootstraps the SQLite schema. Safe to run on every start.
func CreateSchema(db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS complaints (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			complaint_id TEXT UNIQUE NOT NULL,
			name TEXT NOT NULL,
			mobile TEXT NOT NULL,
			complaint_details TEXT NOT NULL,
			category TEXT DEFAULT 'Other',
			status TEXT DEFAULT 'Registered',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS status_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			complaint_id TEXT NOT NULL,
			old_status TEXT,
			new_status TEXT NOT NULL,
			notes TEXT,
			changed_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (complaint_id) REFERENCES complaints (complaint_id)
		)`,
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			phone TEXT,
			email TEXT UNIQUE NOT NULL,
			password TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'user',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS sessions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			refresh_token TEXT UNIQUE NOT NULL,
			role TEXT NOT NULL,
			expires_at TIMESTAMP NOT NULL,
			FOREIGN KEY (user_id) REFERENCES users (id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_complaint_id ON complaints(complaint_id)`,
		`CREATE INDEX IF NOT EXISTS idx_mobile ON complaints(mobile)`,
		`CREATE INDEX IF NOT EXISTS idx_status ON complaints(status)`,
		`CREATE INDEX IF NOT EXISTS idx_history_complaint ON status_history(complaint_id)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}
