//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"remarks/domain"
	"remarks/errors"
)

// The feed is one relation. AUTOINCREMENT guarantees ids grow monotonically
// and are never reused, even across a clear-all.
const schema = `
CREATE TABLE IF NOT EXISTS messages (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	content TEXT NOT NULL,
	timestamp DATETIME DEFAULT CURRENT_TIMESTAMP
);
`

type IMessageRepository interface {
	Append(ctx context.Context, content string) (int64, error)
	List(ctx context.Context) ([]domain.Message, error)
	ClearAll(ctx context.Context) error
	SizeExceeded(limitMb int) (bool, error)
}

// MessageRepository persists the append-only feed in a single SQLite file.
// Appends and clears are serialized through writeMu (single writer at a
// time); reads go through the pool and observe the latest committed state.
type MessageRepository struct {
	pool    *sqlitex.Pool
	path    string
	limitMb int
	log     *slog.Logger
	writeMu sync.Mutex
}

// NewMessageRepository opens or creates the database file and applies the
// schema. A failure here is fatal for the caller: the feed must exist before
// any request is served.
func NewMessageRepository(path string, limitMb int, log *slog.Logger) (*MessageRepository, error) {
	// No WAL: with the rollback journal the database file itself stays the
	// authoritative on-disk size the guard measures.
	pool, err := sqlitex.NewPool(path, sqlitex.PoolOptions{
		Flags: sqlite.OpenReadWrite | sqlite.OpenCreate,
		PrepareConn: func(conn *sqlite.Conn) error {
			return sqlitex.ExecuteScript(conn, schema, nil)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrStoreUnavailable, err)
	}

	// Pull one connection through PrepareConn now, so the file and schema
	// exist before the first request instead of on first use.
	conn, err := pool.Take(context.Background())
	if err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("%w: %v", errors.ErrStoreUnavailable, err)
	}
	pool.Put(conn)

	return &MessageRepository{pool: pool, path: path, limitMb: limitMb, log: log}, nil
}

func (r *MessageRepository) Close() error {
	return r.pool.Close()
}

// Append inserts one message and returns its id. The size guard runs before
// the write, outside the insert transaction: the ceiling is a soft fuse
// against unbounded growth, not an exact quota, so the checked file size may
// lag the one insert currently in flight.
func (r *MessageRepository) Append(ctx context.Context, content string) (int64, error) {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	exceeded, err := r.SizeExceeded(r.limitMb)
	if err != nil {
		return 0, err
	}
	if exceeded {
		r.log.Warn("Feed size limit reached, dropping message", "limit_mb", r.limitMb)
		return 0, errors.ErrStoreFull
	}

	conn, err := r.pool.Take(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", errors.ErrStoreUnavailable, err)
	}
	defer r.pool.Put(conn)

	err = sqlitex.Execute(conn, `INSERT INTO messages (content) VALUES (?);`, &sqlitex.ExecOptions{
		Args: []any{content},
	})
	if err != nil {
		return 0, fmt.Errorf("inserting message: %w", err)
	}
	return conn.LastInsertRowID(), nil
}

// List returns the whole feed in insertion order (ascending id). There is no
// pagination: the board renders the full log on every refresh.
func (r *MessageRepository) List(ctx context.Context) ([]domain.Message, error) {
	conn, err := r.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrStoreUnavailable, err)
	}
	defer r.pool.Put(conn)

	var messages []domain.Message
	err = sqlitex.Execute(conn, `SELECT id, content, timestamp FROM messages ORDER BY id;`, &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			messages = append(messages, domain.Message{
				ID:        stmt.ColumnInt64(0),
				Content:   stmt.ColumnText(1),
				CreatedAt: r.parseTimestamp(stmt.ColumnText(2)),
			})
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	return messages, nil
}

// ClearAll deletes every message in one statement, which SQLite runs as a
// single transaction. Irreversible; there is no soft delete.
func (r *MessageRepository) ClearAll(ctx context.Context) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	conn, err := r.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrStoreUnavailable, err)
	}
	defer r.pool.Put(conn)

	if err := sqlitex.Execute(conn, `DELETE FROM messages;`, nil); err != nil {
		return fmt.Errorf("clearing messages: %w", err)
	}
	r.log.Info("All messages cleared")
	return nil
}

// SizeExceeded reports whether the database file has grown past limitMb.
// A file that does not exist yet means an empty feed, not an error.
func (r *MessageRepository) SizeExceeded(limitMb int) (bool, error) {
	info, err := os.Stat(r.path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: %v", errors.ErrStoreUnavailable, err)
	}
	return info.Size() > int64(limitMb)*1024*1024, nil
}

// SQLite's CURRENT_TIMESTAMP default stores UTC "YYYY-MM-DD HH:MM:SS".
// A row that does not match is served with a zero time rather than dropped,
// and the corrupt value is logged so it can be traced back to whatever
// wrote it.
func (r *MessageRepository) parseTimestamp(raw string) time.Time {
	ts, err := time.ParseInLocation("2006-01-02 15:04:05", raw, time.UTC)
	if err != nil {
		r.log.Warn("Malformed timestamp in message row", "value", raw, "error", err)
		return time.Time{}
	}
	return ts
}
