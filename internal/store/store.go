// Package store provides unified access to SQLite (relational records) and
// BadgerDB (key-value cache).
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/dgraph-io/badger/v4"
	_ "github.com/glebarez/go-sqlite" // Pure Go SQLite driver
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/meditrack/meditrack/internal/config"
	"github.com/meditrack/meditrack/internal/reminder"
)

const reminderSnapshotKey = "kv:reminder_snapshot"

// Store provides unified access to SQLite and BadgerDB
type Store struct {
	db     *gorm.DB
	badger *badger.DB
	config *config.StorageConfig
}

// New creates a new Store instance
func New(cfg *config.Config) (*Store, error) {
	sqlitePath := cfg.Storage.SQLitePath
	if sqlitePath == "" {
		sqlitePath = filepath.Join(cfg.Storage.DataDir, "meditrack.db")
	}

	// Open SQLite with optimizations
	sqliteDB, err := sql.Open("sqlite", sqlitePath+"?_journal=WAL&_synchronous=NORMAL&_busy_timeout=5000&_cache_size=-64000")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	sqliteDB.SetMaxOpenConns(10)
	sqliteDB.SetMaxIdleConns(5)
	sqliteDB.SetConnMaxLifetime(time.Hour)

	db, err := gorm.Open(sqlite.Dialector{Conn: sqliteDB}, &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	if err := db.AutoMigrate(
		&Medication{},
		&IntakeLog{},
		&Event{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	badgerPath := cfg.Storage.BadgerPath
	if badgerPath == "" {
		badgerPath = filepath.Join(cfg.Storage.DataDir, "badger")
	}

	badgerOpts := badger.DefaultOptions(badgerPath).
		WithLogger(nil).
		WithNumVersionsToKeep(1).
		WithCompactL0OnClose(true).
		WithValueLogFileSize(16 << 20).
		WithMemTableSize(16 << 20)

	badgerDB, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}

	return &Store{
		db:     db,
		badger: badgerDB,
		config: &cfg.Storage,
	}, nil
}

// Close closes all database connections
func (s *Store) Close() error {
	return s.badger.Close()
}

// DB returns the GORM database instance
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Badger returns the BadgerDB instance
func (s *Store) Badger() *badger.DB {
	return s.badger
}

// ==================== Reminder Snapshot (BadgerDB) ====================

// SaveReminderSnapshot caches the last hydrated reminder collection so the
// app can start while the backend is down. The cache is advisory; the backend
// stays the source of truth.
func (s *Store) SaveReminderSnapshot(items []reminder.Reminder) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to encode reminder snapshot: %w", err)
	}
	return s.badger.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(reminderSnapshotKey), data)
	})
}

// LoadReminderSnapshot returns the cached reminder collection, or badger's
// ErrKeyNotFound when no snapshot has been saved yet.
func (s *Store) LoadReminderSnapshot() ([]reminder.Reminder, error) {
	var data []byte
	err := s.badger.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(reminderSnapshotKey))
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			data = append([]byte{}, v...)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	var items []reminder.Reminder
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to decode reminder snapshot: %w", err)
	}
	return items, nil
}

// ==================== KV Methods (BadgerDB) ====================

// SetKV stores a key-value pair
func (s *Store) SetKV(key string, value []byte) error {
	return s.badger.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte("kv:"+key), value)
	})
}

// GetKV retrieves a value by key
func (s *Store) GetKV(key string) ([]byte, error) {
	var val []byte
	err := s.badger.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte("kv:" + key))
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			val = append([]byte{}, v...)
			return nil
		})
	})
	return val, err
}
