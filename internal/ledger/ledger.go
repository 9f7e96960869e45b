package ledger

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"media-picker/internal/logging"
	"media-picker/internal/metrics"
)

// Ledger records every thumbnail file written to the cache directory
// so sessions can be swept when they end, and files orphaned by a
// crashed process can be reclaimed later.
//
// The ledger deliberately stores no media reference: nothing on disk
// links a thumbnail file back to its source. The in-memory cache is
// the only such index, and it dies with the session.
type Ledger struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
}

const schema = `
CREATE TABLE IF NOT EXISTS thumbnails (
	path       TEXT PRIMARY KEY,
	session    TEXT NOT NULL,
	bytes      INTEGER NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_thumbnails_session ON thumbnails(session);
CREATE INDEX IF NOT EXISTS idx_thumbnails_created ON thumbnails(created_at);
`

// Open opens (or creates) the ledger database inside dir.
// The directory must already exist and be writable.
func Open(dir string) (*Ledger, error) {
	dbPath := filepath.Join(dir, "thumbs.db")
	logging.Debug("Thumbnail ledger path: %s", dbPath)

	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000", dbPath)
	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close ledger after schema error: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to initialize ledger schema: %w", err)
	}

	// Single writer; the decode pool funnels through one connection.
	db.SetMaxOpenConns(1)

	return &Ledger{db: db, path: dbPath}, nil
}

// Close closes the underlying database.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// Record registers a written thumbnail file under the given session.
func (l *Ledger) Record(session, path string, bytes int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, err := l.db.Exec(
		`INSERT OR REPLACE INTO thumbnails (path, session, bytes, created_at) VALUES (?, ?, ?, ?)`,
		path, session, bytes, time.Now().Unix(),
	)
	if err != nil {
		metrics.LedgerOperations.WithLabelValues("record", "error").Inc()
		return fmt.Errorf("failed to record thumbnail %s: %w", path, err)
	}
	metrics.LedgerOperations.WithLabelValues("record", "success").Inc()
	return nil
}

// SweepSession removes every file recorded under the session and
// forgets them. Already-missing files are not an error.
func (l *Ledger) SweepSession(session string) (int, error) {
	return l.sweep("sweep_session",
		`SELECT path FROM thumbnails WHERE session = ?`,
		`DELETE FROM thumbnails WHERE session = ?`,
		session)
}

// SweepOrphans removes files recorded before the cutoff, regardless of
// session. Intended for startup cleanup of leftovers from crashed
// processes.
func (l *Ledger) SweepOrphans(before time.Time) (int, error) {
	return l.sweep("sweep_orphans",
		`SELECT path FROM thumbnails WHERE created_at < ?`,
		`DELETE FROM thumbnails WHERE created_at < ?`,
		before.Unix())
}

func (l *Ledger) sweep(op, selectQuery, deleteQuery string, arg interface{}) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rows, err := l.db.Query(selectQuery, arg)
	if err != nil {
		metrics.LedgerOperations.WithLabelValues(op, "error").Inc()
		return 0, fmt.Errorf("ledger select failed: %w", err)
	}

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			rows.Close()
			metrics.LedgerOperations.WithLabelValues(op, "error").Inc()
			return 0, fmt.Errorf("ledger scan failed: %w", err)
		}
		paths = append(paths, p)
	}
	if err := rows.Close(); err != nil {
		logging.Warn("ledger rows close: %v", err)
	}

	removed := 0
	for _, p := range paths {
		if err := os.Remove(p); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			logging.Warn("sweep: failed to remove %s: %v", p, err)
			metrics.SweepErrors.Inc()
			continue
		}
		removed++
		metrics.SweepFilesRemoved.Inc()
	}

	if _, err := l.db.Exec(deleteQuery, arg); err != nil {
		metrics.LedgerOperations.WithLabelValues(op, "error").Inc()
		return removed, fmt.Errorf("ledger delete failed: %w", err)
	}

	metrics.LedgerOperations.WithLabelValues(op, "success").Inc()
	logging.Debug("Ledger %s: removed %d of %d recorded files", op, removed, len(paths))
	return removed, nil
}

// Count returns the number of files recorded for a session.
func (l *Ledger) Count(session string) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var n int
	err := l.db.QueryRow(`SELECT COUNT(*) FROM thumbnails WHERE session = ?`, session).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("ledger count failed: %w", err)
	}
	return n, nil
}
