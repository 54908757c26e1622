// Package storage writes export artifacts (backups, reports and composed
// mail) into the export directory.
package storage

import (
	"errors"
	"io"
	"time"
)

// Errors returned by file stores.
var (
	ErrFileNotFound = errors.New("file not found")
	ErrFileExists   = errors.New("file already exists")
	ErrInvalidPath  = errors.New("invalid path")
	ErrTooLarge     = errors.New("file too large")
)

// FileStore manages export files addressed by relative name.
type FileStore interface {
	// Write saves data and returns the name actually written, which differs
	// from name when the rename conflict strategy applies.
	Write(name string, data []byte) (string, error)

	// WriteStream saves data from a reader.
	WriteStream(name string, r io.Reader) (string, error)

	// Read retrieves file contents.
	Read(name string) ([]byte, error)

	// Delete removes a file. Missing files are not an error.
	Delete(name string) error

	// List returns the stored files, newest first.
	List() ([]FileInfo, error)

	// Path returns the location of name for display.
	Path(name string) string
}

// FileInfo describes a stored file.
type FileInfo struct {
	Name    string
	Size    int64
	ModTime time.Time
}

// ConflictStrategy defines how to handle an existing file of the same name.
type ConflictStrategy int

const (
	// ConflictOverwrite replaces existing files.
	ConflictOverwrite ConflictStrategy = iota

	// ConflictRename writes next to the existing file with a suffix.
	ConflictRename

	// ConflictError returns ErrFileExists.
	ConflictError
)
