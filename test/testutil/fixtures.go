package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/TheMichaelB/triplog/internal/events"
	"github.com/TheMichaelB/triplog/internal/models"
)

// Now is the fixed clock used by fixtures.
var Now = time.Date(2024, 3, 20, 18, 0, 0, 0, time.UTC)

// NewTestLogger creates a logger for testing.
func NewTestLogger() *events.Logger {
	var buf bytes.Buffer
	return events.NewTestLogger(events.DebugLevel, "json", &buf)
}

// Legacy documents as written by earlier builds.
const (
	// LegacyTripsDocument is the flat trip log without vehicles.
	LegacyTripsDocument = `{
  "trips": [
    {"date": "2024-01-05", "from": "Home", "to": "Office", "odometerStart": 1000, "odometerEnd": 1042, "purpose": "work"},
    {"date": "2024-01-06", "from": "Office", "to": "Home", "distance": 42}
  ]
}`

	// LegacyLegsDocument keeps per-vehicle leg lists without trips.
	LegacyLegsDocument = `{
  "vehicles": [{"id": "v1", "name": "Golf", "plate": "B-XY 12"}],
  "activeVehicleId": "v1",
  "legsByVehicle": {"v1": [
    {"date": "2024-02-01", "startTime": "08:00", "startPlace": "Home", "endPlace": "Office", "odoStart": 100, "odoEnd": 120},
    {"date": "2024-02-01", "startTime": "17:00", "startPlace": "Office", "endPlace": "Home", "odoStart": 120, "odoEnd": 140}
  ]},
  "tripsByVehicle": {"v1": []}
}`
)

// SampleVehicle returns a vehicle with a fixed id.
func SampleVehicle() models.Vehicle {
	return models.Vehicle{
		ID:    "vehicle-golf",
		Name:  "Golf",
		Make:  "VW",
		Model: "Golf",
		Plate: "B-XY 12",
	}
}

// SampleLeg returns a finished leg between two odometer readings.
func SampleLeg(id string, start, end float64) models.Leg {
	return models.Leg{
		ID:         id,
		StartPlace: "Home",
		StartTime:  "08:00",
		OdoStart:   models.Float(start),
		EndPlace:   "Office",
		EndTime:    "08:30",
		OdoEnd:     models.Float(end),
		KM:         models.ComputeKM(start, end),
		CreatedAt:  Now,
	}
}

// SampleTrip returns a finished trip on date with one leg per pair of
// odometer readings.
func SampleTrip(id, date string, odometers ...float64) models.Trip {
	started, _ := time.Parse("2006-01-02", date)
	finished := started.Add(10 * time.Hour)

	trip := models.Trip{
		ID:         id,
		VehicleID:  SampleVehicle().ID,
		Title:      "Trip " + id,
		Tags:       []string{},
		StartedAt:  started,
		StartDate:  date,
		Status:     models.TripStatusFinished,
		Legs:       []models.Leg{},
		FinishedAt: &finished,
	}
	for i := 0; i+1 < len(odometers); i += 2 {
		trip.Legs = append(trip.Legs, SampleLeg(fmt.Sprintf("%s-leg-%d", id, i/2), odometers[i], odometers[i+1]))
	}
	return trip
}

// SampleState returns a state with one vehicle, two finished trips, fuel and
// a wash entry.
func SampleState() models.AppState {
	s := models.NewAppState("2024-03")
	v := SampleVehicle()
	s.Vehicles = []models.Vehicle{v}
	s.ActiveVehicleID = v.ID
	s.ActiveTripByVehicle[v.ID] = nil
	s.TripsByVehicle[v.ID] = []models.Trip{
		SampleTrip("t2", "2024-03-12", 1100, 1150, 1150, 1200),
		SampleTrip("t1", "2024-03-02", 1000, 1100),
	}
	s.FuelByVehicle[v.ID] = []models.FuelEntry{
		{ID: "f1", Date: "2024-03-10", Odometer: models.Float(1150), Liters: 40, TotalCost: 70, Currency: "EUR", FullTank: true},
	}
	s.WashByVehicle[v.ID] = []models.WashEntry{
		{ID: "w1", Date: "2024-03-11", Type: "Basic", Cost: 9.5, CreatedAt: Now},
	}
	return s
}

// MustJSON marshals v or panics.
func MustJSON(v interface{}) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Errorf("marshal fixture: %w", err))
	}
	return data
}
