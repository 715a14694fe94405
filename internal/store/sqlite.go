package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/GildaBit/replog/internal/models"
)

// SQLiteArchive archives messages in a local SQLite file. Useful for
// single-machine clusters where running PostgreSQL is overkill.
type SQLiteArchive struct {
	db *sql.DB
}

// NewSQLiteArchive opens (or creates) the database file and ensures the
// schema exists. If dbPath is empty, defaults to "./data/replog.db".
func NewSQLiteArchive(ctx context.Context, dbPath string) (*SQLiteArchive, error) {
	if dbPath == "" {
		dbPath = "./data/replog.db"
	}

	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	a := &SQLiteArchive{db: db}
	if err := a.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return a, nil
}

// initSchema creates the messages table if it doesn't exist.
func (a *SQLiteArchive) initSchema(ctx context.Context) error {
	_, err := a.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS messages (
			id          TEXT PRIMARY KEY,
			text        TEXT NOT NULL,
			user_name   TEXT NOT NULL DEFAULT '',
			origin_node TEXT NOT NULL,
			version     INTEGER NOT NULL,
			accepted_at DATETIME NOT NULL,
			archived_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_messages_archived_at ON messages(archived_at);
	`)
	return err
}

// Close closes the database connection.
func (a *SQLiteArchive) Close() {
	a.db.Close()
}

// Ping checks the database connection.
func (a *SQLiteArchive) Ping(ctx context.Context) error {
	return a.db.PingContext(ctx)
}

// SaveMessage records a message; duplicate IDs are ignored.
func (a *SQLiteArchive) SaveMessage(ctx context.Context, msg models.Message) error {
	_, err := a.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO messages (id, text, user_name, origin_node, version, accepted_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, msg.ID, msg.Text, msg.User, msg.Origin, int64(msg.Version), msg.AcceptedAt)
	return err
}

// CountMessages returns the number of archived messages.
func (a *SQLiteArchive) CountMessages(ctx context.Context) (int64, error) {
	var count int64
	err := a.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM messages`).Scan(&count)
	return count, err
}

// RecentMessages returns the most recently archived messages, newest first.
func (a *SQLiteArchive) RecentMessages(ctx context.Context, limit int) ([]models.Message, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT id, text, user_name, origin_node, version, accepted_at
		FROM messages
		ORDER BY archived_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []models.Message
	for rows.Next() {
		var msg models.Message
		var version int64
		if err := rows.Scan(&msg.ID, &msg.Text, &msg.User, &msg.Origin, &version, &msg.AcceptedAt); err != nil {
			return nil, err
		}
		msg.Version = uint64(version)
		msgs = append(msgs, msg)
	}
	return msgs, rows.Err()
}
