package normalize

import (
	"fmt"
	"sort"
	"time"

	"github.com/TheMichaelB/triplog/internal/coerce"
	"github.com/TheMichaelB/triplog/internal/dates"
	"github.com/TheMichaelB/triplog/internal/models"
)

// ImportedVehicleName names the vehicle synthesized for flat legacy logs.
const ImportedVehicleName = "Imported vehicle"

// ImportedVehicleID is the id of that vehicle. It is derived from the name
// so repeated imports of the same log agree.
var ImportedVehicleID = models.DerivedID(ImportedVehicleName)

// IsFlatLegacy reports whether raw is the oldest schema: a flat "trips"
// array and none of the per-vehicle keys.
func IsFlatLegacy(raw interface{}) bool {
	m := coerce.Map(raw)
	if m == nil {
		return false
	}
	for _, key := range []string{"vehicles", "legsByVehicle", "tripsByVehicle"} {
		if _, ok := m[key]; ok {
			return false
		}
	}
	_, isList := m["trips"].([]interface{})
	return isList
}

// IsLegacyLegs reports whether raw carries the per-vehicle leg lists that
// predate trips.
func IsLegacyLegs(raw interface{}) bool {
	m := coerce.Map(raw)
	if m == nil || coerce.Map(m["legsByVehicle"]) == nil {
		return false
	}
	return tripMapEmpty(coerce.Map(m["tripsByVehicle"]))
}

// MigrateLegacy rewrites a flat legacy log into the per-vehicle leg shape
// that NormalizeAt consumes. Any other input is returned unchanged, so
// calling it on every load is safe.
func MigrateLegacy(raw interface{}) interface{} {
	if !IsFlatLegacy(raw) {
		return raw
	}
	m := coerce.Map(raw)

	legs := []interface{}{}
	for _, item := range coerce.Slice(m["trips"]) {
		rec := coerce.Map(item)
		if rec == nil {
			continue
		}
		legs = append(legs, legacyLeg(rec))
	}

	out := map[string]interface{}{
		"vehicles": []interface{}{
			map[string]interface{}{
				"id":   ImportedVehicleID,
				"name": ImportedVehicleName,
			},
		},
		"activeVehicleId": ImportedVehicleID,
		"legsByVehicle": map[string]interface{}{
			ImportedVehicleID: legs,
		},
	}
	for _, key := range []string{"ui", "templates", "fuelByVehicle", "washByVehicle"} {
		if v, ok := m[key]; ok {
			out[key] = v
		}
	}

	return out
}

// legacyLeg converts one flat trip record into a leg-shaped record.
func legacyLeg(rec map[string]interface{}) map[string]interface{} {
	start := coerce.OptionalNumber(coerce.First(rec, "odoStart", "odometerStart"))
	end := coerce.OptionalNumber(coerce.First(rec, "odoEnd", "odometerEnd"))

	note := coerce.String(coerce.First(rec, "note", "notes", "purpose", "title"))

	leg := map[string]interface{}{
		"date":       normalizeDate(coerce.First(rec, "date", "startDate")),
		"startPlace": coerce.String(coerce.First(rec, "startPlace", "from")),
		"endPlace":   coerce.String(coerce.First(rec, "endPlace", "to")),
		"startTime":  coerce.String(coerce.First(rec, "startTime", "timeStart")),
		"endTime":    coerce.String(coerce.First(rec, "endTime", "timeEnd")),
		"km":         legKM(start, end, coerce.First(rec, "km", "distance")),
		"note":       note,
	}
	if start != nil {
		leg["odoStart"] = *start
	}
	if end != nil {
		leg["odoEnd"] = *end
	}
	if id := coerce.String(rec["id"]); id != "" {
		leg["id"] = id
	}
	if created, ok := rec["createdAt"]; ok {
		leg["createdAt"] = created
	}
	return leg
}

// tripsFromLegs groups a vehicle's legacy legs into one finished trip per
// recorded date. Ids are derived from the vehicle and date so that
// migrating the same document twice yields the same trips.
func tripsFromLegs(vehicleID string, v interface{}, now time.Time) []models.Trip {
	byDate := map[string][]models.Leg{}
	var order []string

	for i, item := range coerce.Slice(v) {
		m := coerce.Map(item)
		if m == nil {
			continue
		}

		date := normalizeDate(coerce.First(m, "date", "startDate"))
		if date == "" {
			if created, ok := dates.ParseTimestamp(m["createdAt"]); ok {
				date = created.Format(dates.DateLayout)
			} else {
				date = dates.Today(now)
			}
		}

		fallback, _ := dates.Combine(date, coerce.String(m["startTime"]))
		leg := normalizeLeg(m, fallback)
		if coerce.String(m["id"]) == "" {
			leg.ID = models.DerivedID(fmt.Sprintf("%s/leg/%s/%d", vehicleID, date, i))
		}

		if _, ok := byDate[date]; !ok {
			order = append(order, date)
		}
		byDate[date] = append(byDate[date], leg)
	}

	trips := make([]models.Trip, 0, len(order))
	for _, date := range order {
		legs := byDate[date]
		sort.SliceStable(legs, func(i, j int) bool {
			return legs[i].StartTime < legs[j].StartTime
		})

		startedAt, _ := dates.Combine(date, legs[0].StartTime)
		trip := models.Trip{
			ID:        models.DerivedID(vehicleID + "/trip/" + date),
			VehicleID: vehicleID,
			Title:     "Trip on " + date,
			Tags:      []string{},
			StartedAt: startedAt,
			StartDate: date,
			Status:    models.TripStatusFinished,
			Legs:      legs,
		}
		if finished, ok := dates.Combine(date, legs[len(legs)-1].EndTime); ok {
			trip.FinishedAt = &finished
		}
		trips = append(trips, trip)
	}

	sortTripsNewestFirst(trips)
	return trips
}
