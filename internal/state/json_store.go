package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/TheMichaelB/triplog/internal/events"
)

// JSONStore keeps one checksummed JSON file per key.
type JSONStore struct {
	baseDir string
	logger  *events.Logger
	now     func() time.Time

	mu sync.RWMutex
}

// NewJSONStore creates a file-backed store rooted at baseDir.
func NewJSONStore(baseDir string, logger *events.Logger) (*JSONStore, error) {
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, unavailable("create state directory", baseDir, err)
	}

	return &JSONStore{
		baseDir: baseDir,
		logger:  logger.WithField("component", "json_store"),
		now:     time.Now,
	}, nil
}

// Get reads the value stored under key. A corrupt file falls back to the
// previous version kept in the .backup file.
func (s *JSONStore) Get(key string) ([]byte, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	path := s.keyPath(key)

	s.logger.WithFields(map[string]interface{}{
		"key":  key,
		"path": path,
	}).Debug("Reading key")

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, unavailable("read", key, err)
	}

	rec, err := decodeRecord(data)
	if err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("Stored record is corrupt")

		if backup, berr := s.loadBackup(key); berr == nil {
			s.logger.WithField("key", key).Warn("Loaded value from backup")
			return backup.Bytes(), nil
		}
		return nil, fmt.Errorf("%w: %s", ErrCorrupt, key)
	}

	if rec.SchemaVersion > CurrentSchemaVersion {
		s.logger.WithField("version", rec.SchemaVersion).Warn("Record written by a newer schema")
	}

	return rec.Bytes(), nil
}

// Set writes value atomically, keeping the previous file as .backup.
func (s *JSONStore) Set(key string, value []byte) error {
	if err := validateKey(key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.keyPath(key)

	rec := newRecord(key, value, s.now())
	jsonData, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"key":   key,
		"bytes": len(value),
	}).Debug("Writing key")

	if _, err := os.Stat(path); err == nil {
		if err := copyFile(path, path+".backup"); err != nil {
			s.logger.WithError(err).Warn("Failed to create backup")
		}
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, jsonData, 0600); err != nil {
		return unavailable("write", key, err)
	}

	if file, err := os.Open(tmpPath); err == nil {
		_ = file.Sync()
		file.Close()
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return unavailable("rename", key, err)
	}

	return nil
}

// Remove deletes key and its backup.
func (s *JSONStore) Remove(key string) error {
	if err := validateKey(key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.WithField("key", key).Info("Removing key")

	path := s.keyPath(key)
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return unavailable("remove", key, err)
	}
	_ = os.Remove(path + ".backup")

	return nil
}

// Keys returns all stored keys.
func (s *JSONStore) Keys() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, unavailable("list", s.baseDir, err)
	}

	var keys []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if filepath.Ext(name) == ".json" {
			keys = append(keys, strings.TrimSuffix(name, ".json"))
		}
	}
	sort.Strings(keys)

	return keys, nil
}

// Migrate copies every readable key into target. Unreadable keys are
// logged and skipped.
func (s *JSONStore) Migrate(target Store) error {
	return migrateKeys(s, target, s.logger)
}

// Close releases resources.
func (s *JSONStore) Close() error {
	return nil
}

func (s *JSONStore) keyPath(key string) string {
	return filepath.Join(s.baseDir, key+".json")
}

func (s *JSONStore) loadBackup(key string) (Record, error) {
	data, err := os.ReadFile(s.keyPath(key) + ".backup")
	if err != nil {
		return Record{}, err
	}
	return decodeRecord(data)
}

func decodeRecord(data []byte) (Record, error) {
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if err := rec.Verify(); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// migrateKeys is shared by the store implementations.
func migrateKeys(source, target Store, logger *events.Logger) error {
	keys, err := source.Keys()
	if err != nil {
		return fmt.Errorf("list keys: %w", err)
	}

	logger.WithField("count", len(keys)).Info("Migrating keys")

	for _, key := range keys {
		value, err := source.Get(key)
		if err != nil {
			logger.WithError(err).WithField("key", key).Error("Failed to read key")
			continue
		}

		if err := target.Set(key, value); err != nil {
			return fmt.Errorf("write key %s: %w", key, err)
		}

		logger.WithField("key", key).Debug("Migrated key")
	}

	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}
