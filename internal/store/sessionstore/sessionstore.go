// Package sessionstore is the client-durable key-value storage for the
// authentication session. The token and username live under two fixed
// keys and survive process restarts until explicit logout.
package sessionstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Fixed storage keys. Changing these orphans previously persisted
// sessions.
const (
	KeyAuthToken    = "auth_token"
	KeyAuthUsername = "auth_username"
)

type kvModel struct {
	Key       string `gorm:"primaryKey;size:64"`
	Value     string
	UpdatedAt time.Time
}

func (kvModel) TableName() string { return "client_kv" }

type snapshotModel struct {
	ID        int `gorm:"primaryKey"`
	Payload   datatypes.JSON
	SavedAt   time.Time
	Portfolio int
}

func (snapshotModel) TableName() string { return "last_snapshot" }

// Store wraps a small SQLite database via Gorm.
type Store struct {
	db *gorm.DB
}

// Open creates or opens the store file, migrating tables as needed.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("session store path cannot be empty")
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&kvModel{}, &snapshotModel{}); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Get returns the value under key, or "" when absent.
func (s *Store) Get(key string) (string, error) {
	var rec kvModel
	err := s.db.First(&rec, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return rec.Value, nil
}

// Put upserts a key.
func (s *Store) Put(key, value string) error {
	rec := kvModel{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	return s.db.Save(&rec).Error
}

// Delete removes a key; missing keys are not an error.
func (s *Store) Delete(key string) error {
	return s.db.Delete(&kvModel{}, "key = ?", key).Error
}

// SaveLastSnapshot keeps the latest portfolio snapshot JSON so a
// restarted process has something to show before the first poll round
// lands.
func (s *Store) SaveLastSnapshot(portfolioID int, payload []byte) error {
	rec := snapshotModel{
		ID:        1,
		Payload:   datatypes.JSON(payload),
		SavedAt:   time.Now().UTC(),
		Portfolio: portfolioID,
	}
	return s.db.Save(&rec).Error
}

// LastSnapshot returns the persisted snapshot JSON, nil when none was
// ever saved.
func (s *Store) LastSnapshot() ([]byte, error) {
	var rec snapshotModel
	err := s.db.First(&rec, "id = ?", 1).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return []byte(rec.Payload), nil
}

// ClearLastSnapshot drops the cached snapshot, used on logout.
func (s *Store) ClearLastSnapshot() error {
	return s.db.Delete(&snapshotModel{}, "id = ?", 1).Error
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
