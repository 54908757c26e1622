package models_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheMichaelB/triplog/internal/models"
)

func sampleState() models.AppState {
	s := models.NewAppState("2024-03")
	s.Vehicles = []models.Vehicle{{ID: "v1", Name: "Golf"}, {ID: "v2", Plate: "B-XY 12"}}
	s.ActiveVehicleID = "v1"
	s.ActiveTripByVehicle["v1"] = &models.Trip{
		ID:     "t-active",
		Status: models.TripStatusActive,
		Legs:   []models.Leg{{ID: "l1", OdoStart: models.Float(10), OdoEnd: models.Float(20), KM: 10}},
		Draft:  &models.LegForm{StartPlace: "Home"},
	}
	s.ActiveTripByVehicle["v2"] = nil
	s.TripsByVehicle["v1"] = []models.Trip{{ID: "t1", Tags: []string{"work"}, Legs: []models.Leg{}}}
	s.FuelByVehicle["v1"] = []models.FuelEntry{{ID: "f1", Date: "2024-03-02", Odometer: models.Float(1000)}}
	s.WashByVehicle["v1"] = []models.WashEntry{{ID: "w1", Date: "2024-03-03"}}
	s.Templates = []models.Template{{ID: "tpl", Type: models.TemplateTypeLeg, Name: "Office", Data: map[string]string{"endPlace": "Office"}}}
	return s
}

func TestByVehicleGet(t *testing.T) {
	m := models.ByVehicle[models.Trip]{"v1": {{ID: "t1"}}, "v2": nil}

	assert.Len(t, m.Get("v1"), 1)
	assert.NotNil(t, m.Get("v2"))
	assert.Empty(t, m.Get("v2"))
	assert.NotNil(t, m.Get("missing"))
	assert.Empty(t, m.Get("missing"))

	var nilMap models.ByVehicle[models.FuelEntry]
	assert.Empty(t, nilMap.Get("v1"))
}

func TestActiveTripLookup(t *testing.T) {
	s := sampleState()

	require.NotNil(t, s.ActiveTrip())
	assert.Equal(t, "t-active", s.ActiveTrip().ID)
	assert.Nil(t, s.ActiveTripByVehicle.Get("v2"))
	assert.Nil(t, s.ActiveTripByVehicle.Get("unknown"))

	s.ActiveVehicleID = ""
	assert.Nil(t, s.ActiveTrip())
}

func TestVehicleLookup(t *testing.T) {
	s := sampleState()

	v, ok := s.ActiveVehicle()
	require.True(t, ok)
	assert.Equal(t, "Golf", v.DisplayName())

	v2, ok := s.Vehicle("v2")
	require.True(t, ok)
	assert.Equal(t, "B-XY 12", v2.DisplayName())

	assert.False(t, s.HasVehicle(""))
	assert.False(t, s.HasVehicle("nope"))
	assert.Equal(t, "Vehicle", models.Vehicle{}.DisplayName())
}

func TestCloneIsDeep(t *testing.T) {
	s := sampleState()
	clone := s.Clone()
	require.Equal(t, s, clone)

	clone.Vehicles[0].Name = "Changed"
	clone.ActiveTripByVehicle["v1"].Legs[0].KM = 99
	*clone.ActiveTripByVehicle["v1"].Legs[0].OdoEnd = 500
	clone.ActiveTripByVehicle["v1"].Draft.StartPlace = "Elsewhere"
	clone.TripsByVehicle["v1"][0].Tags[0] = "private"
	*clone.FuelByVehicle["v1"][0].Odometer = 1
	clone.WashByVehicle["v1"][0].Date = "2000-01-01"
	clone.Templates[0].Data["endPlace"] = "Gym"

	assert.Equal(t, "Golf", s.Vehicles[0].Name)
	assert.Equal(t, 10.0, s.ActiveTripByVehicle["v1"].Legs[0].KM)
	assert.Equal(t, 20.0, *s.ActiveTripByVehicle["v1"].Legs[0].OdoEnd)
	assert.Equal(t, "Home", s.ActiveTripByVehicle["v1"].Draft.StartPlace)
	assert.Equal(t, "work", s.TripsByVehicle["v1"][0].Tags[0])
	assert.Equal(t, 1000.0, *s.FuelByVehicle["v1"][0].Odometer)
	assert.Equal(t, "2024-03-03", s.WashByVehicle["v1"][0].Date)
	assert.Equal(t, "Office", s.Templates[0].Data["endPlace"])
	assert.Contains(t, clone.ActiveTripByVehicle, "v2")
}

func TestAppStateJSONShape(t *testing.T) {
	s := sampleState()
	data, err := json.Marshal(s)
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))

	for _, key := range []string{"vehicles", "activeVehicleId", "activeTripByVehicle",
		"tripsByVehicle", "fuelByVehicle", "washByVehicle", "ui", "templates"} {
		assert.Contains(t, raw, key)
	}
	assert.Equal(t, "2024-03", raw["ui"].(map[string]interface{})["month"])
}

func TestTripHelpers(t *testing.T) {
	finished := time.Date(2024, 3, 1, 18, 0, 0, 0, time.UTC)
	trip := models.Trip{
		Legs: []models.Leg{
			{ID: "a", KM: 12.5},
			{ID: "b", KM: 7.5},
		},
		FinishedAt: &finished,
	}

	assert.Equal(t, 20.0, trip.Distance())
	last, ok := trip.LastLeg()
	require.True(t, ok)
	assert.Equal(t, "b", last.ID)
	assert.Equal(t, 1, trip.FindLeg("b"))
	assert.Equal(t, -1, trip.FindLeg("zzz"))

	_, ok = models.Trip{}.LastLeg()
	assert.False(t, ok)

	clone := trip.Clone()
	*clone.FinishedAt = finished.Add(time.Hour)
	assert.Equal(t, finished, *trip.FinishedAt)
}

func TestComputeKM(t *testing.T) {
	assert.Equal(t, 50.0, models.ComputeKM(1000, 1050))
	assert.Equal(t, 0.0, models.ComputeKM(500, 400))
	assert.Equal(t, 0.0, models.ComputeKM(10, 10))
}

func TestSortFuelStable(t *testing.T) {
	entries := []models.FuelEntry{
		{ID: "a", Date: "2024-01-01"},
		{ID: "b", Date: "2024-03-01"},
		{ID: "c", Date: "2024-01-01"},
		{ID: "d", Date: "2024-02-01"},
	}
	models.SortFuel(entries)

	var ids []string
	for _, e := range entries {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []string{"b", "d", "a", "c"}, ids)
	assert.Equal(t, 2.0, models.FuelEntry{Liters: 20, TotalCost: 40}.PricePerLiter())
	assert.Zero(t, models.FuelEntry{TotalCost: 40}.PricePerLiter())
}

func TestDerivedID(t *testing.T) {
	assert.Equal(t, models.DerivedID("imported-vehicle"), models.DerivedID("imported-vehicle"))
	assert.NotEqual(t, models.DerivedID("a"), models.DerivedID("b"))
	assert.NotEqual(t, models.NewID(), models.NewID())
}
