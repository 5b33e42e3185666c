// Package alertlog tracks which high-severity alerts have already been
// mirrored to the notifier, so a recurring alert in successive poll
// rounds is forwarded exactly once.
package alertlog

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Store is a tiny append-only log over SQLite.
type Store struct {
	mu sync.Mutex
	db *sql.DB
}

// Open creates or opens the log database.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("alert log path cannot be empty")
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path))
	if err != nil {
		return nil, err
	}
	schema := `CREATE TABLE IF NOT EXISTS notified_alerts (
		alert_id INTEGER PRIMARY KEY,
		severity TEXT NOT NULL,
		title TEXT NOT NULL,
		notified_at INTEGER NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// MarkNotified records an alert id and reports whether it was new.
// false means the alert was already forwarded earlier.
func (s *Store) MarkNotified(alertID int, severity, title string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.Exec(
		`INSERT OR IGNORE INTO notified_alerts (alert_id, severity, title, notified_at) VALUES (?, ?, ?, ?)`,
		alertID, severity, title, time.Now().UTC().Unix(),
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Seen reports whether an alert id was already recorded.
func (s *Store) Seen(alertID int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var one int
	err := s.db.QueryRow(`SELECT 1 FROM notified_alerts WHERE alert_id = ?`, alertID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
