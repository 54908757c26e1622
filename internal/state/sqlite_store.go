package state

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/TheMichaelB/triplog/internal/events"
)

// SQLiteStore keeps records in a single SQLite table.
type SQLiteStore struct {
	db     *sqlx.DB
	logger *events.Logger
	now    func() time.Time
}

// kvRow maps a row of the kv table.
type kvRow struct {
	Key           string    `db:"key"`
	Value         []byte    `db:"value"`
	Checksum      string    `db:"checksum"`
	SchemaVersion int       `db:"schema_version"`
	UpdatedAt     time.Time `db:"updated_at"`
}

// NewSQLiteStore opens (or creates) the database at dbPath and applies any
// pending schema migrations.
func NewSQLiteStore(dbPath string, logger *events.Logger) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite3", dbPath+"?_journal=WAL&_timeout=5000")
	if err != nil {
		return nil, unavailable("open database", dbPath, err)
	}

	store := &SQLiteStore{
		db:     db,
		logger: logger.WithField("component", "sqlite_store"),
		now:    time.Now,
	}

	if err := store.runMigrations(); err != nil {
		db.Close()
		return nil, unavailable("initialize database", dbPath, err)
	}

	return store, nil
}

// runMigrations applies outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := s.db.Get(&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'")
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableCount > 0 {
		if err := s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version"); err != nil {
			return fmt.Errorf("read schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		s.logger.WithField("version", m.version).Debug("Applying migration")
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("apply migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// SchemaVersion reports the applied migration version.
func (s *SQLiteStore) SchemaVersion() (int, error) {
	var version int
	if err := s.db.Get(&version, "SELECT COALESCE(MAX(version), 0) FROM schema_version"); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return version, nil
}

// Get reads the value stored under key.
func (s *SQLiteStore) Get(key string) ([]byte, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}

	s.logger.WithField("key", key).Debug("Reading key")

	var row kvRow
	err := s.db.Get(&row,
		"SELECT key, value, checksum, schema_version, updated_at FROM kv WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, unavailable("read", key, err)
	}

	if row.Checksum != "" && checksum(row.Value) != row.Checksum {
		s.logger.WithField("key", key).Error("Checksum mismatch")
		return nil, fmt.Errorf("%w: checksum mismatch for %s", ErrCorrupt, key)
	}

	return row.Value, nil
}

// Set upserts value under key.
func (s *SQLiteStore) Set(key string, value []byte) error {
	if err := validateKey(key); err != nil {
		return err
	}

	s.logger.WithFields(map[string]interface{}{
		"key":   key,
		"bytes": len(value),
	}).Debug("Writing key")

	if compact, ok := compactJSON(value); ok {
		value = compact
	}
	if value == nil {
		value = []byte{}
	}

	row := kvRow{
		Key:           key,
		Value:         value,
		Checksum:      checksum(value),
		SchemaVersion: CurrentSchemaVersion,
		UpdatedAt:     s.now().UTC(),
	}

	_, err := s.db.NamedExec(`
        INSERT INTO kv (key, value, checksum, schema_version, updated_at)
        VALUES (:key, :value, :checksum, :schema_version, :updated_at)
        ON CONFLICT(key) DO UPDATE SET
            value = excluded.value,
            checksum = excluded.checksum,
            schema_version = excluded.schema_version,
            updated_at = excluded.updated_at
    `, row)
	if err != nil {
		return unavailable("write", key, err)
	}

	return nil
}

// Remove deletes key.
func (s *SQLiteStore) Remove(key string) error {
	if err := validateKey(key); err != nil {
		return err
	}

	s.logger.WithField("key", key).Info("Removing key")

	if _, err := s.db.Exec("DELETE FROM kv WHERE key = ?", key); err != nil {
		return unavailable("remove", key, err)
	}

	return nil
}

// Keys returns all stored keys.
func (s *SQLiteStore) Keys() ([]string, error) {
	var keys []string
	if err := s.db.Select(&keys, "SELECT key FROM kv ORDER BY key"); err != nil {
		return nil, unavailable("list", "kv", err)
	}
	return keys, nil
}

// Migrate copies every readable key into target.
func (s *SQLiteStore) Migrate(target Store) error {
	return migrateKeys(s, target, s.logger)
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
