//go:build integration
// +build integration

package integration_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheMichaelB/triplog/internal/client"
	"github.com/TheMichaelB/triplog/internal/config"
	"github.com/TheMichaelB/triplog/internal/events"
	"github.com/TheMichaelB/triplog/internal/geocode"
	"github.com/TheMichaelB/triplog/internal/models"
	"github.com/TheMichaelB/triplog/internal/normalize"
	"github.com/TheMichaelB/triplog/internal/state"
	"github.com/TheMichaelB/triplog/internal/workflow"
	"github.com/TheMichaelB/triplog/test/testutil"
)

func openClient(t *testing.T, cfg *config.Config, logs *testutil.LogOutput) *client.Client {
	t.Helper()
	require.NoError(t, cfg.EnsureDirectories())

	logger := testutil.NewTestLogger()
	if logs != nil {
		logger = events.NewTestLogger(events.DebugLevel, "json", logs)
	}

	c, err := client.New(cfg, logger, client.WithClock(func() time.Time { return testutil.Now }))
	require.NoError(t, err)
	return c
}

func TestTripLifecycleSurvivesRestart(t *testing.T) {
	testutil.SkipIfShort(t, "uses sqlite on disk")

	helpers := testutil.NewTestHelpers(t)
	cfg := testutil.TestConfigWithDir(helpers.TempDir(), config.BackendSQLite)

	c := openClient(t, cfg, nil)
	_, err := c.Session.SaveVehicle(models.Vehicle{Name: "Golf", Plate: "B-XY 12"})
	require.NoError(t, err)
	require.NoError(t, c.Session.StartTrip(workflow.TripInput{Title: "Client Visit", StartDate: "2024-03-01"}))
	require.NoError(t, c.Session.CommitLeg(models.LegForm{StartPlace: "Home", EndPlace: "Office", OdoStart: "1000", OdoEnd: "1050"}))

	// The next leg continues where the last one ended.
	form := c.Session.PrepareLegForm()
	assert.Equal(t, "Office", form.StartPlace)
	assert.Equal(t, "1050", form.OdoStart)

	form.EndPlace = "Customer"
	form.OdoEnd = "1040"
	err = c.Session.CommitLeg(form)
	assert.ErrorIs(t, err, models.ErrInvalidRange)

	form.OdoEnd = "1080"
	c.Session.ScheduleDraft(form)
	require.NoError(t, c.Close())

	// A draft flushed on close comes back after restart.
	c = openClient(t, cfg, nil)
	trip := c.Session.State().ActiveTrip()
	require.NotNil(t, trip)
	require.NotNil(t, trip.Draft)
	assert.Equal(t, "1080", trip.Draft.OdoEnd)

	require.NoError(t, c.Session.CommitLeg(c.Session.PrepareLegForm()))
	require.NoError(t, c.Session.EndTrip())
	require.NoError(t, c.Close())

	c = openClient(t, cfg, nil)
	defer c.Close()

	summary, _, err := c.MonthSummary("2024-03")
	require.NoError(t, err)
	assert.Equal(t, 80.0, summary.Distance)
	assert.Equal(t, 1, summary.TripCount)
	assert.Equal(t, 2, summary.LegCount)
	assert.Nil(t, c.Session.State().ActiveTrip())
}

func TestReportsAndBackupAcrossBackends(t *testing.T) {
	testutil.SkipIfShort(t, "writes export files")

	helpers := testutil.NewTestHelpers(t)
	src := openClient(t, testutil.TestConfigWithDir(filepath.Join(helpers.TempDir(), "src"), config.BackendSQLite), nil)
	defer src.Close()

	src.Session.Replace(testutil.SampleState())

	r, vehicle, err := src.RangeReport("2024-03-01", "2024-03-31")
	require.NoError(t, err)
	assert.Len(t, r.Trips, 2)

	for _, format := range []string{client.FormatCSV, client.FormatJSON, client.FormatMail} {
		name, err := src.WriteReport(r, vehicle, format)
		require.NoError(t, err, format)
		helpers.AssertFileExists(src.Exports.Path(name))
	}

	csv, err := os.ReadFile(src.Exports.Path("trips_2024-03-01_2024-03-31.csv"))
	require.NoError(t, err)
	assert.Equal(t, 4, strings.Count(string(csv), "\r\n"), "header and three legs")

	eml, err := os.ReadFile(src.Exports.Path("trips_2024-03-01_2024-03-31.eml"))
	require.NoError(t, err)
	assert.Contains(t, string(eml), "office@example.com")

	name, err := src.ExportBackup()
	require.NoError(t, err)
	data, err := src.Exports.Read(name)
	require.NoError(t, err)

	dst := openClient(t, testutil.TestConfigWithDir(filepath.Join(helpers.TempDir(), "dst"), config.BackendJSON), nil)
	defer dst.Close()

	imported, err := dst.ImportBackup(data)
	require.NoError(t, err)
	assert.Equal(t, normalize.VariantCurrent, imported.Variant)
	want, got := src.Session.State(), dst.Session.State()
	assert.Equal(t, want.Vehicles, got.Vehicles)
	assert.Equal(t, want.ActiveVehicleID, got.ActiveVehicleID)
	vid := want.ActiveVehicleID
	require.Len(t, got.TripsByVehicle.Get(vid), 2)
	assert.Equal(t, "t2", got.TripsByVehicle.Get(vid)[0].ID)
	assert.Equal(t, want.FuelByVehicle.Get(vid), got.FuelByVehicle.Get(vid))
}

func TestLegacyDocumentMigratedOnStartup(t *testing.T) {
	helpers := testutil.NewTestHelpers(t)
	cfg := testutil.TestConfigWithDir(helpers.TempDir(), config.BackendJSON)
	require.NoError(t, cfg.EnsureDirectories())

	store, err := state.NewJSONStore(cfg.Storage.StateDir, testutil.NewTestLogger())
	require.NoError(t, err)
	require.NoError(t, store.Set(cfg.Storage.LegacyKey, []byte(testutil.LegacyTripsDocument)))
	require.NoError(t, store.Close())

	logs := testutil.NewLogOutput()
	c := openClient(t, cfg, logs)
	defer c.Close()

	assert.True(t, c.Loaded().Migrated)
	assert.Equal(t, normalize.VariantLegacyTrips, c.Loaded().Variant)
	assert.True(t, logs.HasMessage("Migrating legacy document"))

	st := c.Session.State()
	require.Len(t, st.Vehicles, 1)
	trips := st.TripsByVehicle.Get(st.ActiveVehicleID)
	require.Len(t, trips, 2)

	keys, err := c.Repo.Store().Keys()
	require.NoError(t, err)
	assert.NotContains(t, keys, cfg.Storage.LegacyKey)
	assert.Contains(t, keys, cfg.Storage.StateKey)
}

func TestStorageMigrationToSQLite(t *testing.T) {
	helpers := testutil.NewTestHelpers(t)
	cfg := testutil.TestConfigWithDir(helpers.TempDir(), config.BackendJSON)

	c := openClient(t, cfg, nil)
	c.Session.Replace(testutil.SampleState())
	require.NoError(t, c.Repo.SaveProfile(models.Profile{Org: "ACME"}))

	target := cfg.Storage
	target.Backend = config.BackendSQLite
	count, err := c.MigrateStorage(target)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	require.NoError(t, c.Close())

	next := *cfg
	next.Storage = target
	reopened := openClient(t, &next, nil)
	defer reopened.Close()

	assert.Equal(t, testutil.SampleState().Vehicles, reopened.Session.State().Vehicles)
	profile, err := reopened.Repo.LoadProfile()
	require.NoError(t, err)
	assert.Equal(t, "ACME", profile.Org)
}

func TestReverseGeocodeRetries(t *testing.T) {
	server := testutil.NewGeocodeServer()
	defer server.Close()
	server.AddPlace(48.1374, 11.5755, "Marienplatz", "München")
	server.FailNext(1)

	cfg := testutil.TestConfigWithDir(t.TempDir(), config.BackendMemory)
	cfg.Geocode.Enabled = true
	cfg.Geocode.BaseURL = server.URL

	var buf bytes.Buffer
	gc := geocode.NewClient(&cfg.Geocode, events.NewTestLogger(events.DebugLevel, "json", &buf))

	ctx, cancel := testutil.TestContext()
	defer cancel()

	place, err := gc.Reverse(ctx, 48.1374, 11.5755)
	require.NoError(t, err)
	assert.Equal(t, "Marienplatz, München", place.Label())
	assert.Equal(t, 2, server.Requests())

	_, err = gc.Reverse(ctx, 10, 10)
	assert.ErrorIs(t, err, geocode.ErrNoResult)
}
