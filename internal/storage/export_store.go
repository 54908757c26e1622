package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/TheMichaelB/triplog/internal/events"
)

// ExportStore keeps export files in one directory on disk.
type ExportStore struct {
	baseDir          string
	conflictStrategy ConflictStrategy
	logger           *events.Logger
	maxFileSize      int64
}

var (
	_ FileStore = (*ExportStore)(nil)
	_ FileStore = (*MemoryStore)(nil)
)

// NewExportStore creates the export directory if needed.
func NewExportStore(baseDir string, logger *events.Logger) (*ExportStore, error) {
	absPath, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("resolve export directory: %w", err)
	}
	if err := os.MkdirAll(absPath, 0755); err != nil {
		return nil, fmt.Errorf("create export directory: %w", err)
	}

	return &ExportStore{
		baseDir:          absPath,
		conflictStrategy: ConflictRename,
		logger:           logger.WithField("component", "export_store"),
		maxFileSize:      50 * 1024 * 1024,
	}, nil
}

// SetConflictStrategy sets how existing files are treated.
func (s *ExportStore) SetConflictStrategy(strategy ConflictStrategy) {
	s.conflictStrategy = strategy
}

// SetMaxFileSize sets the size limit for a single file.
func (s *ExportStore) SetMaxFileSize(size int64) {
	s.maxFileSize = size
}

// Dir returns the export directory.
func (s *ExportStore) Dir() string {
	return s.baseDir
}

// Path returns the absolute location of name.
func (s *ExportStore) Path(name string) string {
	return filepath.Join(s.baseDir, filepath.FromSlash(name))
}

// Write saves data atomically.
func (s *ExportStore) Write(name string, data []byte) (string, error) {
	if int64(len(data)) > s.maxFileSize {
		return "", fmt.Errorf("%w: %d bytes (max: %d)", ErrTooLarge, len(data), s.maxFileSize)
	}
	return s.WriteStream(name, strings.NewReader(string(data)))
}

// WriteStream saves data from a reader through a temp file and rename.
func (s *ExportStore) WriteStream(name string, r io.Reader) (string, error) {
	target, err := s.resolve(name)
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(target); err == nil {
		switch s.conflictStrategy {
		case ConflictError:
			return "", fmt.Errorf("%w: %s", ErrFileExists, name)
		case ConflictRename:
			target = s.conflictPath(target)
		}
	}

	tempPath := fmt.Sprintf("%s.tmp.%d", target, time.Now().UnixNano())
	tempFile, err := os.OpenFile(tempPath, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0644)
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}

	success := false
	defer func() {
		tempFile.Close()
		if !success {
			os.Remove(tempPath)
		}
	}()

	hasher := sha256.New()
	limited := &io.LimitedReader{R: r, N: s.maxFileSize + 1}
	written, err := io.Copy(io.MultiWriter(tempFile, hasher), limited)
	if err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if limited.N <= 0 {
		return "", fmt.Errorf("%w: exceeds %d bytes", ErrTooLarge, s.maxFileSize)
	}

	if err := tempFile.Sync(); err != nil {
		return "", fmt.Errorf("sync file: %w", err)
	}
	tempFile.Close()

	if err := os.Rename(tempPath, target); err != nil {
		return "", fmt.Errorf("rename temp file: %w", err)
	}
	success = true

	writtenName, _ := filepath.Rel(s.baseDir, target)
	writtenName = filepath.ToSlash(writtenName)

	s.logger.WithFields(map[string]interface{}{
		"file": writtenName,
		"size": written,
		"hash": hex.EncodeToString(hasher.Sum(nil)),
	}).Debug("Export written")

	return writtenName, nil
}

// Read retrieves file contents.
func (s *ExportStore) Read(name string) ([]byte, error) {
	path, err := s.resolve(name)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, name)
		}
		return nil, fmt.Errorf("read file: %w", err)
	}
	return data, nil
}

// Delete removes a file.
func (s *ExportStore) Delete(name string) error {
	path, err := s.resolve(name)
	if err != nil {
		return err
	}

	s.logger.WithField("file", name).Debug("Deleting export")

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete file: %w", err)
	}
	return nil
}

// List returns the files in the export directory, newest first.
func (s *ExportStore) List() ([]FileInfo, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("read export directory: %w", err)
	}

	files := []FileInfo{}
	for _, entry := range entries {
		if entry.IsDir() || strings.Contains(entry.Name(), ".tmp.") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Name:    entry.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.SliceStable(files, func(i, j int) bool {
		if !files[i].ModTime.Equal(files[j].ModTime) {
			return files[i].ModTime.After(files[j].ModTime)
		}
		return files[i].Name > files[j].Name
	})
	return files, nil
}

// Prune keeps the newest keep files whose name starts with prefix and
// deletes the rest. It returns the number removed.
func (s *ExportStore) Prune(prefix string, keep int) (int, error) {
	files, err := s.List()
	if err != nil {
		return 0, err
	}

	removed := 0
	kept := 0
	for _, f := range files {
		if !strings.HasPrefix(f.Name, prefix) {
			continue
		}
		if kept < keep {
			kept++
			continue
		}
		if err := s.Delete(f.Name); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

// resolve validates name and returns its absolute path.
func (s *ExportStore) resolve(name string) (string, error) {
	if name == "" || strings.ContainsRune(name, 0) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, name)
	}

	cleaned := filepath.Clean(filepath.FromSlash(name))
	if cleaned == "." || strings.Contains(cleaned, "..") || filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, name)
	}

	fullPath := filepath.Join(s.baseDir, cleaned)
	if !strings.HasPrefix(fullPath, s.baseDir+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q escapes export directory", ErrInvalidPath, name)
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", fmt.Errorf("create parent directory: %w", err)
	}
	return fullPath, nil
}

// conflictPath finds a free "name-N.ext" next to path.
func (s *ExportStore) conflictPath(path string) string {
	dir := filepath.Dir(path)
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(filepath.Base(path), ext)

	for i := 1; ; i++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s-%d%s", stem, i, ext))
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}
