package backup_test

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheMichaelB/triplog/internal/backup"
	"github.com/TheMichaelB/triplog/internal/models"
	"github.com/TheMichaelB/triplog/internal/normalize"
)

var now = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

func sampleState() models.AppState {
	s := models.NewAppState("2024-03")
	s.Vehicles = []models.Vehicle{{ID: "v1", Name: "Golf"}}
	s.ActiveVehicleID = "v1"
	s.ActiveTripByVehicle["v1"] = nil
	s.TripsByVehicle["v1"] = []models.Trip{{
		ID: "t1", VehicleID: "v1", Title: "Client Visit", StartDate: "2024-03-01",
		StartedAt: time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC), Status: models.TripStatusFinished,
		Tags: []string{}, Legs: []models.Leg{{
			ID: "l1", OdoStart: models.Float(1000), OdoEnd: models.Float(1050), KM: 50,
			CreatedAt: time.Date(2024, 3, 1, 8, 45, 0, 0, time.UTC),
		}},
	}}
	s.FuelByVehicle["v1"] = []models.FuelEntry{}
	s.WashByVehicle["v1"] = []models.WashEntry{}
	return s
}

func TestExportImportEnvelope(t *testing.T) {
	profile := models.Profile{Org: "ACME", User: "Sam", Language: "de"}
	env := backup.Export(sampleState(), profile, backup.Meta{AppID: "triplog", StorageKey: "triplog.v2"}, now)
	assert.Equal(t, backup.FormatVersion, env.Meta.Version)

	var buf bytes.Buffer
	require.NoError(t, env.Write(&buf))

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &raw))
	assert.Contains(t, raw, "exportedAt")
	assert.Contains(t, raw, "profile")
	assert.Contains(t, raw, "data")
	assert.Contains(t, raw, "meta")

	imported, err := backup.ReadFrom(&buf, now)
	require.NoError(t, err)
	assert.Equal(t, normalize.VariantCurrent, imported.Variant)
	require.NotNil(t, imported.Profile)
	assert.Equal(t, profile, *imported.Profile)
	require.NotNil(t, imported.Meta)
	assert.Equal(t, "triplog.v2", imported.Meta.StorageKey)

	trips := imported.State.TripsByVehicle.Get("v1")
	require.Len(t, trips, 1)
	assert.Equal(t, "Client Visit", trips[0].Title)
	assert.Equal(t, 50.0, trips[0].Distance())
}

func TestImportRawState(t *testing.T) {
	data, err := json.Marshal(sampleState())
	require.NoError(t, err)

	imported, err := backup.Import(data, now)
	require.NoError(t, err)
	assert.Nil(t, imported.Profile)
	assert.Equal(t, "v1", imported.State.ActiveVehicleID)
}

func TestImportLegacyFlatLog(t *testing.T) {
	data := []byte(`{"trips":[{"date":"2024-01-05","from":"A","to":"B","odometerStart":10,"odometerEnd":25}]}`)

	imported, err := backup.Import(data, now)
	require.NoError(t, err)
	assert.Equal(t, normalize.VariantLegacyTrips, imported.Variant)
	require.Len(t, imported.State.Vehicles, 1)
	assert.Equal(t, normalize.ImportedVehicleName, imported.State.Vehicles[0].Name)
}

func TestImportRejectsInvalidFiles(t *testing.T) {
	for _, input := range []string{"", "not json", "[1,2]", `"text"`, "42"} {
		_, err := backup.Import([]byte(input), now)
		assert.ErrorIs(t, err, backup.ErrInvalidFile, "input %q", input)
	}
}

func TestImportNormalizesGarbageFields(t *testing.T) {
	imported, err := backup.Import([]byte(`{"data":{"vehicles":"nope","ui":{"month":7}},"profile":[]}`), now)
	require.NoError(t, err)
	assert.Empty(t, imported.State.Vehicles)
	assert.Equal(t, "2024-03", imported.State.UI.Month)
	assert.Nil(t, imported.Profile)
}
