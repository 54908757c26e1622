package testutil

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheMichaelB/triplog/internal/config"
)

// LogEntry represents a captured log entry for testing
type LogEntry struct {
	Level     string `json:"level"`
	Message   string `json:"msg"`
	Component string `json:"component"`
	Error     string `json:"error"`
}

// GeocodeServer is a Nominatim-compatible reverse geocoding stub.
type GeocodeServer struct {
	*httptest.Server
	mu       sync.RWMutex
	places   map[string]map[string]interface{}
	failures int
	requests int
}

// NewGeocodeServer starts the stub.
func NewGeocodeServer() *GeocodeServer {
	gs := &GeocodeServer{places: make(map[string]map[string]interface{})}

	mux := http.NewServeMux()
	mux.HandleFunc("/reverse", gs.handleReverse)
	gs.Server = httptest.NewServer(mux)
	return gs
}

// AddPlace registers the answer for lat, lon.
func (gs *GeocodeServer) AddPlace(lat, lon float64, road, city string) {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	gs.places[coordKey(lat, lon)] = map[string]interface{}{
		"display_name": road + ", " + city,
		"address": map[string]string{
			"road": road,
			"city": city,
		},
	}
}

// FailNext makes the next n requests answer 503.
func (gs *GeocodeServer) FailNext(n int) {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	gs.failures = n
}

// Requests returns the number of requests served.
func (gs *GeocodeServer) Requests() int {
	gs.mu.RLock()
	defer gs.mu.RUnlock()
	return gs.requests
}

func (gs *GeocodeServer) handleReverse(w http.ResponseWriter, r *http.Request) {
	gs.mu.Lock()
	gs.requests++
	if gs.failures > 0 {
		gs.failures--
		gs.mu.Unlock()
		http.Error(w, "busy", http.StatusServiceUnavailable)
		return
	}
	gs.mu.Unlock()

	q := r.URL.Query()
	if q.Get("format") != "jsonv2" {
		http.Error(w, "format required", http.StatusBadRequest)
		return
	}

	gs.mu.RLock()
	place, ok := gs.places[q.Get("lat")+","+q.Get("lon")]
	gs.mu.RUnlock()
	if !ok {
		writeJSON(w, map[string]string{"error": "Unable to geocode"})
		return
	}
	writeJSON(w, place)
}

func coordKey(lat, lon float64) string {
	return strconv.FormatFloat(lat, 'f', 6, 64) + "," + strconv.FormatFloat(lon, 'f', 6, 64)
}

// TestHelpers provides common test utilities.
type TestHelpers struct {
	t       *testing.T
	tempDir string
	cleanup []func()
}

// NewTestHelpers creates test helpers.
func NewTestHelpers(t *testing.T) *TestHelpers {
	return &TestHelpers{
		t:       t,
		tempDir: t.TempDir(),
	}
}

// TempDir returns the temporary directory for this test.
func (h *TestHelpers) TempDir() string {
	return h.tempDir
}

// CreateTempFile creates a temporary file with content.
func (h *TestHelpers) CreateTempFile(name, content string) string {
	path := filepath.Join(h.tempDir, name)

	err := os.MkdirAll(filepath.Dir(path), 0755)
	require.NoError(h.t, err)

	err = os.WriteFile(path, []byte(content), 0644)
	require.NoError(h.t, err)

	return path
}

// AssertFileExists checks that a file exists.
func (h *TestHelpers) AssertFileExists(path string) {
	_, err := os.Stat(path)
	assert.NoError(h.t, err, "File should exist: %s", path)
}

// AssertFileNotExists checks that a file does not exist.
func (h *TestHelpers) AssertFileNotExists(path string) {
	_, err := os.Stat(path)
	assert.True(h.t, os.IsNotExist(err), "File should not exist: %s", path)
}

// AddCleanup adds a cleanup function to be called at test end.
func (h *TestHelpers) AddCleanup(fn func()) {
	h.cleanup = append(h.cleanup, fn)
}

// Cleanup runs all cleanup functions.
func (h *TestHelpers) Cleanup() {
	for i := len(h.cleanup) - 1; i >= 0; i-- {
		h.cleanup[i]()
	}
}

// TestContext creates a test context with reasonable timeout.
func TestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

// TestConfigWithDir creates a configuration rooted at dataDir.
func TestConfigWithDir(dataDir, backend string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Storage = config.StorageConfig{
		Backend:    backend,
		DataDir:    dataDir,
		StateKey:   "triplog.v2",
		LegacyKey:  "triplog",
		ProfileKey: "vehicle-suite.profile",
	}
	cfg.ResolvePaths()
	cfg.Log = config.LogConfig{Level: "debug", Format: "json"}
	cfg.Draft.Debounce = 0
	cfg.Geocode.MaxRetries = 2
	cfg.Mail.To = "office@example.com"
	return cfg
}

// WaitForCondition waits for a condition to be true with timeout.
func WaitForCondition(t *testing.T, condition func() bool, timeout time.Duration, message string) {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case <-timer.C:
			t.Fatalf("Timeout waiting for condition: %s", message)
		case <-ticker.C:
			if condition() {
				return
			}
		}
	}
}

// LogOutput captures JSON log lines for assertions.
type LogOutput struct {
	mu      sync.RWMutex
	entries []LogEntry
}

// NewLogOutput creates a new log output capturer.
func NewLogOutput() *LogOutput {
	return &LogOutput{}
}

// Write implements io.Writer. Each call carries one JSON line.
func (lo *LogOutput) Write(p []byte) (int, error) {
	var entry LogEntry
	if err := json.Unmarshal(p, &entry); err == nil {
		lo.mu.Lock()
		lo.entries = append(lo.entries, entry)
		lo.mu.Unlock()
	}
	return len(p), nil
}

// Entries returns captured log entries.
func (lo *LogOutput) Entries() []LogEntry {
	lo.mu.RLock()
	defer lo.mu.RUnlock()

	entries := make([]LogEntry, len(lo.entries))
	copy(entries, lo.entries)
	return entries
}

// HasMessage checks if any log entry contains the message.
func (lo *LogOutput) HasMessage(message string) bool {
	lo.mu.RLock()
	defer lo.mu.RUnlock()

	for _, entry := range lo.entries {
		if strings.Contains(entry.Message, message) {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// SkipIfShort skips test if testing.Short() is true.
func SkipIfShort(t *testing.T, reason string) {
	if testing.Short() {
		t.Skipf("Skipping test in short mode: %s", reason)
	}
}
