package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/GildaBit/replog/internal/models"
)

// PostgresArchive archives messages in PostgreSQL.
type PostgresArchive struct {
	pool *pgxpool.Pool
}

// NewPostgresArchive creates a PostgreSQL archive with a connection pool
// and ensures the schema exists.
func NewPostgresArchive(ctx context.Context, databaseURL string) (*PostgresArchive, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	a := &PostgresArchive{pool: pool}
	if err := a.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return a, nil
}

// initSchema creates the messages table if it doesn't exist.
func (a *PostgresArchive) initSchema(ctx context.Context) error {
	_, err := a.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS messages (
			id          TEXT PRIMARY KEY,
			text        TEXT NOT NULL,
			user_name   TEXT NOT NULL DEFAULT '',
			origin_node TEXT NOT NULL,
			version     BIGINT NOT NULL,
			accepted_at TIMESTAMPTZ NOT NULL,
			archived_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE INDEX IF NOT EXISTS idx_messages_archived_at ON messages(archived_at);
	`)
	return err
}

// Close closes the connection pool.
func (a *PostgresArchive) Close() {
	a.pool.Close()
}

// Ping checks the database connection.
func (a *PostgresArchive) Ping(ctx context.Context) error {
	return a.pool.Ping(ctx)
}

// SaveMessage records a message; duplicate IDs are ignored.
func (a *PostgresArchive) SaveMessage(ctx context.Context, msg models.Message) error {
	_, err := a.pool.Exec(ctx, `
		INSERT INTO messages (id, text, user_name, origin_node, version, accepted_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING
	`, msg.ID, msg.Text, msg.User, msg.Origin, int64(msg.Version), msg.AcceptedAt)
	return err
}

// CountMessages returns the number of archived messages.
func (a *PostgresArchive) CountMessages(ctx context.Context) (int64, error) {
	var count int64
	err := a.pool.QueryRow(ctx, `SELECT COUNT(*) FROM messages`).Scan(&count)
	return count, err
}

// RecentMessages returns the most recently archived messages, newest first.
func (a *PostgresArchive) RecentMessages(ctx context.Context, limit int) ([]models.Message, error) {
	rows, err := a.pool.Query(ctx, `
		SELECT id, text, user_name, origin_node, version, accepted_at
		FROM messages
		ORDER BY archived_at DESC
		LIMIT $1
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
