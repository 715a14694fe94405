package store

import (
	"context"
	"strings"
	"time"

	"github.com/GildaBit/replog/internal/models"
)

// Archive is an optional write-behind history of every message this node
// accepts. It exists for inspection across restarts and for the stats
// endpoint; the replication protocols only ever read the in-memory
// MessageLog, and archive failures never fail a write.
//
// Both PostgresArchive and SQLiteArchive implement this interface.
type Archive interface {
	// Connection management
	Close()
	Ping(ctx context.Context) error

	// SaveMessage records a message. Saving the same ID twice is a no-op.
	SaveMessage(ctx context.Context, msg models.Message) error
	// CountMessages returns the number of archived messages.
	CountMessages(ctx context.Context) (int64, error)
	// RecentMessages returns the most recently archived messages, newest first.
	RecentMessages(ctx context.Context, limit int) ([]models.Message, error)
}

// OpenArchive selects an archive backend from the URL: postgres:// and
// postgresql:// open a PostgreSQL pool, anything else is treated as a
// SQLite file path. An empty URL returns nil (archiving disabled).
func OpenArchive(ctx context.Context, url string) (Archive, error) {
	if url == "" {
		return nil, nil
	}
	if strings.HasPrefix(url, "postgres://") || strings.HasPrefix(url, "postgresql://") {
		return NewPostgresArchive(ctx, url)
	}
	return NewSQLiteArchive(ctx, url)
}

// saveTimeout bounds each background archive write.
const saveTimeout = 3 * time.Second

// AsyncSaver adapts Archive to the MessageLog OnAppend hook: every accepted
// message is saved in its own goroutine with a bounded context, and errors
// are reported to onErr rather than the write path.
func AsyncSaver(a Archive, onErr func(error)) func(models.Message) {
	return func(msg models.Message) {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
			defer cancel()
			if err := a.SaveMessage(ctx, msg); err != nil && onErr != nil {
				onErr(err)
			}
		}()
	}
}
