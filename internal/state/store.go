package state

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Store is a small key-value medium for persisted documents.
type Store interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(key string) ([]byte, error)

	// Set stores value under key, replacing any previous value.
	Set(key string, value []byte) error

	// Remove deletes key. Removing a missing key is not an error.
	Remove(key string) error

	// Keys returns all stored keys in sorted order.
	Keys() ([]string, error)

	// Migrate copies every key into target.
	Migrate(target Store) error

	// Close releases resources.
	Close() error
}

// Errors
var (
	ErrNotFound    = errors.New("key not found")
	ErrCorrupt     = errors.New("stored value is corrupt")
	ErrUnavailable = errors.New("storage unavailable")
	ErrInvalidKey  = errors.New("invalid key")
)

// UnavailableError reports a failed read or write against the medium.
type UnavailableError struct {
	Op  string
	Key string
	Err error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Key, e.Err)
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrUnavailable) match.
func (e *UnavailableError) Is(target error) bool {
	return target == ErrUnavailable
}

func unavailable(op, key string, err error) error {
	return &UnavailableError{Op: op, Key: key, Err: err}
}

// CurrentSchemaVersion of the record envelope.
const CurrentSchemaVersion = 1

// Record wraps a stored value with store metadata. JSON values are kept
// inline; anything else is stored as text.
type Record struct {
	Key           string          `json:"key"`
	Value         json.RawMessage `json:"value,omitempty"`
	Text          string          `json:"text,omitempty"`
	SchemaVersion int             `json:"schema_version"`
	UpdatedAt     time.Time       `json:"updated_at"`
	Checksum      string          `json:"checksum,omitempty"`
}

// newRecord builds a checksummed record for value.
func newRecord(key string, value []byte, now time.Time) Record {
	rec := Record{
		Key:           key,
		SchemaVersion: CurrentSchemaVersion,
		UpdatedAt:     now.UTC(),
	}
	if compact, ok := compactJSON(value); ok {
		rec.Value = compact
	} else {
		rec.Text = string(value)
	}
	rec.Checksum = checksum(rec.Bytes())
	return rec
}

// Bytes returns the stored value.
func (r Record) Bytes() []byte {
	if len(r.Value) > 0 {
		if compact, ok := compactJSON(r.Value); ok {
			return compact
		}
		return []byte(r.Value)
	}
	return []byte(r.Text)
}

// Verify checks the record checksum when one is present.
func (r Record) Verify() error {
	if r.Checksum == "" {
		return nil
	}
	if calculated := checksum(r.Bytes()); calculated != r.Checksum {
		return fmt.Errorf("%w: checksum mismatch for %s", ErrCorrupt, r.Key)
	}
	return nil
}

func checksum(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

func compactJSON(data []byte) ([]byte, bool) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, data); err != nil {
		return nil, false
	}
	return buf.Bytes(), true
}

// validateKey rejects keys that cannot be used as file names.
func validateKey(key string) error {
	if strings.TrimSpace(key) == "" || key != strings.TrimSpace(key) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	if strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}
