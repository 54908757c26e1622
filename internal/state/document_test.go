package state_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheMichaelB/triplog/internal/models"
	"github.com/TheMichaelB/triplog/internal/normalize"
	"github.com/TheMichaelB/triplog/internal/state"
)

func TestRepositoryLoadEmpty(t *testing.T) {
	repo := state.NewRepository(state.NewMockStore(), state.DefaultKeys, testLogger())

	loaded, err := repo.Load()
	require.NoError(t, err)

	assert.Equal(t, normalize.VariantEmpty, loaded.Variant)
	assert.Empty(t, loaded.Key)
	assert.Empty(t, loaded.State.Vehicles)
	assert.NotEmpty(t, loaded.State.UI.Month)
}

func TestRepositorySaveLoad(t *testing.T) {
	store := state.NewMockStore()
	repo := state.NewRepository(store, state.DefaultKeys, testLogger())

	s := models.NewAppState("2024-03")
	s.Vehicles = append(s.Vehicles, models.Vehicle{ID: "v1", Name: "Golf"})
	s.ActiveVehicleID = "v1"
	s.TripsByVehicle["v1"] = []models.Trip{}
	s.FuelByVehicle["v1"] = []models.FuelEntry{}
	s.WashByVehicle["v1"] = []models.WashEntry{}
	s.ActiveTripByVehicle["v1"] = nil

	require.NoError(t, repo.Save(s))

	loaded, err := repo.Load()
	require.NoError(t, err)
	assert.Equal(t, normalize.VariantCurrent, loaded.Variant)
	assert.Equal(t, "triplog.v2", loaded.Key)
	assert.False(t, loaded.Migrated)
	assert.Equal(t, s, loaded.State)
}

func TestRepositoryMigratesLegacyKey(t *testing.T) {
	store := state.NewMockStore()
	store.Put("triplog", []byte(`{"trips":[{"date":"2024-01-05","from":"A","to":"B","odometerStart":100,"odometerEnd":140}]}`))

	repo := state.NewRepository(store, state.DefaultKeys, testLogger())

	loaded, err := repo.Load()
	require.NoError(t, err)

	assert.True(t, loaded.Migrated)
	assert.Equal(t, "triplog", loaded.Key)
	assert.Equal(t, normalize.VariantLegacyTrips, loaded.Variant)
	require.Len(t, loaded.State.Vehicles, 1)

	_, err = store.Get("triplog")
	assert.ErrorIs(t, err, state.ErrNotFound, "legacy key removed")

	data, err := store.Get("triplog.v2")
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Contains(t, raw, "tripsByVehicle")

	again, err := repo.Load()
	require.NoError(t, err)
	assert.Equal(t, normalize.VariantCurrent, again.Variant)
	assert.Equal(t, loaded.State, again.State)
}

func TestRepositoryPrefersVersionedKey(t *testing.T) {
	store := state.NewMockStore()
	store.Put("triplog", []byte(`{"trips":[{"date":"2024-01-05"}]}`))
	store.Put("triplog.v2", []byte(`{"vehicles":[{"id":"v","name":"Current"}]}`))

	repo := state.NewRepository(store, state.DefaultKeys, testLogger())
	loaded, err := repo.Load()
	require.NoError(t, err)

	require.Len(t, loaded.State.Vehicles, 1)
	assert.Equal(t, "Current", loaded.State.Vehicles[0].Name)

	_, err = store.Get("triplog")
	assert.NoError(t, err, "legacy key untouched when versioned key exists")
}

func TestRepositoryLegacyWriteFailure(t *testing.T) {
	store := state.NewMockStore()
	store.Put("triplog", []byte(`{"trips":[{"date":"2024-01-05"}]}`))
	store.FailWrites(state.ErrInjected)

	repo := state.NewRepository(store, state.DefaultKeys, testLogger())
	loaded, err := repo.Load()

	assert.ErrorIs(t, err, state.ErrUnavailable)
	assert.False(t, loaded.Migrated)
	assert.Len(t, loaded.State.Vehicles, 1, "migrated state still usable in memory")

	store.FailWrites(nil)
	_, err = store.Get("triplog")
	assert.NoError(t, err, "legacy key kept until the rewrite succeeds")
}

func TestRepositoryUnreadable(t *testing.T) {
	store := state.NewMockStore()
	store.FailReads(state.ErrInjected)

	repo := state.NewRepository(store, state.DefaultKeys, testLogger())
	loaded, err := repo.Load()

	assert.ErrorIs(t, err, state.ErrUnavailable)
	assert.Equal(t, normalize.VariantEmpty, loaded.Variant)
	assert.NotNil(t, loaded.State.Vehicles)
}

func TestRepositoryGarbageDocument(t *testing.T) {
	store := state.NewMockStore()
	store.Put("triplog.v2", []byte(`{{{`))

	repo := state.NewRepository(store, state.DefaultKeys, testLogger())
	loaded, err := repo.Load()

	require.NoError(t, err)
	assert.Equal(t, normalize.VariantEmpty, loaded.Variant)
	assert.Empty(t, loaded.State.Vehicles)
}

func TestRepositoryProfile(t *testing.T) {
	store := state.NewMockStore()
	repo := state.NewRepository(store, state.DefaultKeys, testLogger())

	p, err := repo.LoadProfile()
	require.NoError(t, err)
	assert.Equal(t, models.Profile{}, p)

	want := models.Profile{Org: "ACME", User: "Dana", Language: "de", Logo: "data:image/png;base64,AAAA"}
	require.NoError(t, repo.SaveProfile(want))

	got, err := repo.LoadProfile()
	require.NoError(t, err)
	assert.Equal(t, want, got)

	store.Put("vehicle-suite.profile", []byte(`[]`))
	got, err = repo.LoadProfile()
	require.NoError(t, err)
	assert.Equal(t, models.Profile{}, got)
}
