package state_test

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheMichaelB/triplog/internal/events"
	"github.com/TheMichaelB/triplog/internal/state"
)

func testLogger() *events.Logger {
	var buf bytes.Buffer
	return events.NewTestLogger(events.DebugLevel, "json", &buf)
}

func TestJSONStore(t *testing.T) {
	store, err := state.NewJSONStore(t.TempDir(), testLogger())
	require.NoError(t, err)
	defer store.Close()

	testStoreOperations(t, store)
}

func TestSQLiteStore(t *testing.T) {
	store, err := state.NewSQLiteStore(filepath.Join(t.TempDir(), "state.db"), testLogger())
	require.NoError(t, err)
	defer store.Close()

	testStoreOperations(t, store)
}

func TestMockStore(t *testing.T) {
	testStoreOperations(t, state.NewMockStore())
}

func testStoreOperations(t *testing.T, store state.Store) {
	key := "triplog.v2"

	t.Run("get missing", func(t *testing.T) {
		_, err := store.Get(key)
		assert.ErrorIs(t, err, state.ErrNotFound)
	})

	t.Run("set and get", func(t *testing.T) {
		doc := []byte(`{"vehicles":[{"id":"v1","name":"Golf"}],"ui":{"month":"2024-03"}}`)

		require.NoError(t, store.Set(key, doc))

		loaded, err := store.Get(key)
		require.NoError(t, err)
		assert.JSONEq(t, string(doc), string(loaded))
	})

	t.Run("overwrite", func(t *testing.T) {
		require.NoError(t, store.Set(key, []byte(`{"v":1}`)))
		require.NoError(t, store.Set(key, []byte(`{"v":2}`)))

		loaded, err := store.Get(key)
		require.NoError(t, err)
		assert.JSONEq(t, `{"v":2}`, string(loaded))
	})

	t.Run("non-json value", func(t *testing.T) {
		require.NoError(t, store.Set("plain", []byte("not json at all")))

		loaded, err := store.Get("plain")
		require.NoError(t, err)
		assert.Equal(t, "not json at all", string(loaded))
	})

	t.Run("list keys", func(t *testing.T) {
		require.NoError(t, store.Set("vehicle-suite.profile", []byte(`{"org":"ACME"}`)))

		keys, err := store.Keys()
		require.NoError(t, err)

		assert.Contains(t, keys, key)
		assert.Contains(t, keys, "vehicle-suite.profile")
		assert.IsIncreasing(t, keys)
	})

	t.Run("remove", func(t *testing.T) {
		require.NoError(t, store.Remove(key))

		_, err := store.Get(key)
		assert.ErrorIs(t, err, state.ErrNotFound)

		_, err = store.Get("vehicle-suite.profile")
		assert.NoError(t, err)

		assert.NoError(t, store.Remove("never-existed"))
	})

	t.Run("invalid keys", func(t *testing.T) {
		for _, bad := range []string{"", " padded", "a/b", `a\b`, ".."} {
			assert.ErrorIs(t, store.Set(bad, []byte("{}")), state.ErrInvalidKey, "key %q", bad)
		}
	})
}

func TestJSONStoreCorruption(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := state.NewJSONStore(tmpDir, testLogger())
	require.NoError(t, err)

	require.NoError(t, store.Set("doc", []byte(`{"a":1}`)))

	err = os.WriteFile(filepath.Join(tmpDir, "doc.json"), []byte("invalid json"), 0600)
	require.NoError(t, err)

	_, err = store.Get("doc")
	assert.ErrorIs(t, err, state.ErrCorrupt)
}

func TestJSONStoreChecksumMismatch(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := state.NewJSONStore(tmpDir, testLogger())
	require.NoError(t, err)

	require.NoError(t, store.Set("doc", []byte(`{"a":1}`)))

	path := filepath.Join(tmpDir, "doc.json")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	tampered := bytes.Replace(data, []byte(`"a": 1`), []byte(`"a": 2`), 1)
	require.NotEqual(t, data, tampered)
	require.NoError(t, os.WriteFile(path, tampered, 0600))

	_, err = store.Get("doc")
	assert.ErrorIs(t, err, state.ErrCorrupt)
}

func TestJSONStoreBackupRecovery(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := state.NewJSONStore(tmpDir, testLogger())
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Set("doc", []byte(`{"version":5}`)))
	require.NoError(t, store.Set("doc", []byte(`{"version":10}`)))

	loaded, err := store.Get("doc")
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":10}`, string(loaded))

	err = os.WriteFile(filepath.Join(tmpDir, "doc.json"), []byte("corrupted"), 0600)
	require.NoError(t, err)

	recovered, err := store.Get("doc")
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":5}`, string(recovered), "backup holds the previous value")

	keys, err := store.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{"doc"}, keys, "backup and temp files are not keys")
}

func TestJSONStoreUnavailable(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := state.NewJSONStore(tmpDir, testLogger())
	require.NoError(t, err)

	// A directory where the temp file should go makes the write fail.
	require.NoError(t, os.Mkdir(filepath.Join(tmpDir, "doc.json.tmp"), 0700))

	err = store.Set("doc", []byte(`{}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, state.ErrUnavailable)

	var uerr *state.UnavailableError
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, "doc", uerr.Key)
}

func TestSQLiteStoreReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "state.db")

	store, err := state.NewSQLiteStore(dbPath, testLogger())
	require.NoError(t, err)
	require.NoError(t, store.Set("doc", []byte(`{"kept":true}`)))
	require.NoError(t, store.Close())

	reopened, err := state.NewSQLiteStore(dbPath, testLogger())
	require.NoError(t, err)
	defer reopened.Close()

	version, err := reopened.SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, 2, version)

	loaded, err := reopened.Get("doc")
	require.NoError(t, err)
	assert.JSONEq(t, `{"kept":true}`, string(loaded))
}

func TestMigration(t *testing.T) {
	tmpDir := t.TempDir()
	logger := testLogger()

	jsonStore, err := state.NewJSONStore(filepath.Join(tmpDir, "json"), logger)
	require.NoError(t, err)
	defer jsonStore.Close()

	keys := []string{"triplog", "triplog.v2", "vehicle-suite.profile"}
	for i, key := range keys {
		require.NoError(t, jsonStore.Set(key, []byte(fmt.Sprintf(`{"n":%d}`, i))))
	}

	sqliteStore, err := state.NewSQLiteStore(filepath.Join(tmpDir, "state.db"), logger)
	require.NoError(t, err)
	defer sqliteStore.Close()

	require.NoError(t, jsonStore.Migrate(sqliteStore))

	migrated, err := sqliteStore.Keys()
	require.NoError(t, err)
	assert.Equal(t, keys, migrated)

	for i, key := range keys {
		value, err := sqliteStore.Get(key)
		require.NoError(t, err)
		assert.JSONEq(t, fmt.Sprintf(`{"n":%d}`, i), string(value))
	}

	// And back again.
	back := state.NewMockStore()
	require.NoError(t, sqliteStore.Migrate(back))
	backKeys, _ := back.Keys()
	assert.Equal(t, keys, backKeys)
}

func TestMockStoreFailureInjection(t *testing.T) {
	store := state.NewMockStore()
	require.NoError(t, store.Set("a", []byte(`1`)))
	assert.Equal(t, 1, store.Writes())

	store.FailWrites(state.ErrInjected)
	err := store.Set("a", []byte(`2`))
	assert.ErrorIs(t, err, state.ErrUnavailable)
	assert.ErrorIs(t, err, state.ErrInjected)
	assert.Equal(t, 1, store.Writes())

	store.FailWrites(nil)
	store.FailReads(state.ErrInjected)
	_, err = store.Get("a")
	assert.ErrorIs(t, err, state.ErrUnavailable)

	store.FailReads(nil)
	value, err := store.Get("a")
	require.NoError(t, err)
	assert.Equal(t, "1", string(value))
}
