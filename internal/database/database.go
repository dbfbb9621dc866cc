package database

import (
	"database/sql"

	_ "modernc.org/sqlite" // SQLite driver
)

// New creates a new database connection pool.
func New(dataSourceName string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dataSourceName+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, err
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate runs the SQL statements to set up the database schema.
func Migrate(db *sql.DB) error {
	const sqlStmt = `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT NOT NULL PRIMARY KEY,
		full_name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		bio TEXT NOT NULL DEFAULT '',
		profile_pic TEXT NOT NULL DEFAULT '',
		native_language TEXT NOT NULL DEFAULT '',
		learning_language TEXT NOT NULL DEFAULT '',
		location TEXT NOT NULL DEFAULT '',
		is_onboarded INTEGER NOT NULL DEFAULT 0,
		reset_token_hash TEXT,
		reset_token_expires DATETIME,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS friend_requests (
		id TEXT NOT NULL PRIMARY KEY,
		sender_id TEXT NOT NULL REFERENCES users(id),
		recipient_id TEXT NOT NULL REFERENCES users(id),
		status TEXT NOT NULL DEFAULT 'pending',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_friend_requests_pair
		ON friend_requests(sender_id, recipient_id);
	CREATE INDEX IF NOT EXISTS idx_friend_requests_recipient
		ON friend_requests(recipient_id, status);
	-- Backstop for the engine's precondition check: at most one pending
	-- request per unordered pair, whichever direction it was sent in.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_friend_requests_pending_pair
		ON friend_requests(MIN(sender_id, recipient_id), MAX(sender_id, recipient_id))
		WHERE status = 'pending';

	-- One row per direction; both rows are written in the same transaction
	-- so the relation stays symmetric.
	CREATE TABLE IF NOT EXISTS friendships (
		user_id TEXT NOT NULL REFERENCES users(id),
		friend_id TEXT NOT NULL REFERENCES users(id),
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (user_id, friend_id)
	);

	-- Directional: blocker_id blocking blocked_id says nothing about the
	-- reverse direction.
	CREATE TABLE IF NOT EXISTS blocks (
		blocker_id TEXT NOT NULL REFERENCES users(id),
		blocked_id TEXT NOT NULL REFERENCES users(id),
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (blocker_id, blocked_id)
	);

	CREATE TABLE IF NOT EXISTS events (
		id TEXT NOT NULL PRIMARY KEY,
		type TEXT NOT NULL,
		message TEXT NOT NULL,
		actor_id TEXT NOT NULL,
		subject_id TEXT NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_events_subject ON events(subject_id, created_at);
	`
	_, err := db.Exec(sqlStmt)
	return err
}
