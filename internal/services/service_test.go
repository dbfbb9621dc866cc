package services

import (
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/meeterup/meeterup-be/internal/database"
)

// newTestDB opens an isolated in-memory database with the full schema.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.New(":memory:")
	require.NoError(t, err)
	// A single connection keeps every query on the same in-memory database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

// insertUser seeds an onboarded account directly, bypassing bcrypt to keep
// tests fast. Returns the new id.
func insertUser(t *testing.T, db *sql.DB, name string) string {
	t.Helper()

	id := uuid.New().String()
	_, err := db.Exec(
		"INSERT INTO users (id, full_name, email, password_hash, is_onboarded) VALUES (?, ?, ?, 'x', 1)",
		id, name, name+"@example.com",
	)
	require.NoError(t, err)
	return id
}

func countRows(t *testing.T, db *sql.DB, query string, args ...any) int {
	t.Helper()

	var n int
	require.NoError(t, db.QueryRow(query, args...).Scan(&n))
	return n
}

func areFriendsDB(t *testing.T, db *sql.DB, a, b string) bool {
	t.Helper()

	forward := countRows(t, db, "SELECT COUNT(*) FROM friendships WHERE user_id = ? AND friend_id = ?", a, b)
	backward := countRows(t, db, "SELECT COUNT(*) FROM friendships WHERE user_id = ? AND friend_id = ?", b, a)
	// The relation is symmetric by invariant; a one-sided row is a bug.
	require.Equal(t, forward, backward, "friendship rows are not symmetric")
	return forward == 1
}
