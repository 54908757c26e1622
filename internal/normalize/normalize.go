// Package normalize turns untrusted decoded documents into a self-consistent
// models.AppState. Nothing in this package returns an error or panics on
// malformed input; bad fields fall back to defaults one at a time.
package normalize

import (
	"sort"
	"strings"
	"time"

	"github.com/TheMichaelB/triplog/internal/coerce"
	"github.com/TheMichaelB/triplog/internal/dates"
	"github.com/TheMichaelB/triplog/internal/models"
)

// Normalize coerces raw into a valid AppState using the current time for
// defaults.
func Normalize(raw interface{}) models.AppState {
	return NormalizeAt(raw, time.Now())
}

// NormalizeAt is Normalize with an explicit clock.
func NormalizeAt(raw interface{}, now time.Time) models.AppState {
	out := models.NewAppState(dates.CurrentMonth(now))

	m := coerce.Map(raw)
	if m == nil {
		return out
	}

	out.Vehicles = normalizeVehicles(m["vehicles"])

	tripsRaw := coerce.Map(m["tripsByVehicle"])
	legsRaw := coerce.Map(m["legsByVehicle"])
	synthesize := legsRaw != nil && tripMapEmpty(tripsRaw)

	activeRaw := coerce.Map(m["activeTripByVehicle"])
	fuelRaw := coerce.Map(m["fuelByVehicle"])
	washRaw := coerce.Map(m["washByVehicle"])

	for _, v := range out.Vehicles {
		var trips []models.Trip
		if synthesize {
			trips = tripsFromLegs(v.ID, legsRaw[v.ID], now)
		} else {
			trips = normalizeTrips(v.ID, tripsRaw[v.ID], now)
		}
		out.TripsByVehicle[v.ID] = trips
		out.ActiveTripByVehicle[v.ID] = normalizeActiveTrip(v.ID, activeRaw[v.ID], now)
		out.FuelByVehicle[v.ID] = normalizeFuel(fuelRaw[v.ID])
		out.WashByVehicle[v.ID] = normalizeWash(washRaw[v.ID])
	}

	out.ActiveVehicleID = coerce.String(m["activeVehicleId"])
	if !out.HasVehicle(out.ActiveVehicleID) {
		out.ActiveVehicleID = ""
		if len(out.Vehicles) > 0 {
			out.ActiveVehicleID = out.Vehicles[0].ID
		}
	}

	if month := coerce.String(coerce.Map(m["ui"])["month"]); dates.IsMonth(month) {
		out.UI.Month = month
	}

	out.Templates = normalizeTemplates(m["templates"])

	return out
}

func normalizeVehicles(v interface{}) []models.Vehicle {
	vehicles := []models.Vehicle{}
	seen := map[string]bool{}

	for _, item := range coerce.Slice(v) {
		m := coerce.Map(item)
		if m == nil {
			continue
		}

		vehicle := models.Vehicle{
			ID:    coerce.String(m["id"]),
			Name:  coerce.String(m["name"]),
			Make:  coerce.String(m["make"]),
			Model: coerce.String(m["model"]),
			Plate: coerce.String(m["plate"]),
			VIN:   coerce.String(m["vin"]),
			Notes: coerce.String(m["notes"]),
		}
		if vehicle.ID == "" {
			vehicle.ID = models.NewID()
		}
		if seen[vehicle.ID] {
			continue
		}
		seen[vehicle.ID] = true

		vehicles = append(vehicles, vehicle)
	}

	return vehicles
}

// tripMapEmpty reports whether no vehicle has any stored trip.
func tripMapEmpty(m map[string]interface{}) bool {
	for _, list := range m {
		if len(coerce.Slice(list)) > 0 {
			return false
		}
	}
	return true
}

func normalizeTrips(vehicleID string, v interface{}, now time.Time) []models.Trip {
	trips := []models.Trip{}
	for _, item := range coerce.Slice(v) {
		m := coerce.Map(item)
		if m == nil {
			continue
		}
		trip := normalizeTrip(vehicleID, m, now)
		trip.Status = models.TripStatusFinished
		trip.Draft = nil
		trips = append(trips, trip)
	}
	return trips
}

func normalizeActiveTrip(vehicleID string, v interface{}, now time.Time) *models.Trip {
	m := coerce.Map(v)
	if m == nil {
		return nil
	}

	trip := normalizeTrip(vehicleID, m, now)
	trip.Status = models.TripStatusActive
	trip.FinishedAt = nil
	if draft := coerce.Map(m["draft"]); draft != nil {
		form := normalizeLegForm(draft)
		trip.Draft = &form
	}
	return &trip
}

func normalizeTrip(vehicleID string, m map[string]interface{}, now time.Time) models.Trip {
	trip := models.Trip{
		ID:         coerce.String(m["id"]),
		VehicleID:  vehicleID,
		Title:      coerce.String(m["title"]),
		Purpose:    coerce.String(m["purpose"]),
		Tags:       coerce.Strings(m["tags"]),
		TitleTag:   coerce.String(m["titleTag"]),
		PurposeTag: coerce.String(m["purposeTag"]),
		Notes:      coerce.String(coerce.First(m, "notes", "note")),
	}
	if trip.ID == "" {
		trip.ID = models.NewID()
	}

	startedAt, hasStart := dates.ParseTimestamp(m["startedAt"])
	trip.StartDate = normalizeDate(m["startDate"])
	switch {
	case trip.StartDate == "" && hasStart:
		trip.StartDate = startedAt.Format(dates.DateLayout)
	case trip.StartDate == "":
		trip.StartDate = dates.Today(now)
	}
	if !hasStart {
		startedAt, _ = dates.Combine(trip.StartDate, "")
	}
	trip.StartedAt = startedAt

	if finished, ok := dates.ParseTimestamp(m["finishedAt"]); ok {
		trip.FinishedAt = &finished
	}

	trip.Legs = []models.Leg{}
	for _, item := range coerce.Slice(m["legs"]) {
		if lm := coerce.Map(item); lm != nil {
			trip.Legs = append(trip.Legs, normalizeLeg(lm, trip.StartedAt))
		}
	}

	return trip
}

// normalizeLeg accepts both the current field names and the aliases used by
// older documents.
func normalizeLeg(m map[string]interface{}, fallback time.Time) models.Leg {
	leg := models.Leg{
		ID:         coerce.String(m["id"]),
		StartPlace: coerce.String(coerce.First(m, "startPlace", "from")),
		StartTag:   coerce.String(m["startTag"]),
		StartTime:  normalizeClock(coerce.First(m, "startTime", "timeStart")),
		OdoStart:   coerce.OptionalNumber(coerce.First(m, "odoStart", "odometerStart")),
		EndPlace:   coerce.String(coerce.First(m, "endPlace", "to")),
		EndTag:     coerce.String(m["endTag"]),
		EndTime:    normalizeClock(coerce.First(m, "endTime", "timeEnd")),
		OdoEnd:     coerce.OptionalNumber(coerce.First(m, "odoEnd", "odometerEnd")),
		Note:       coerce.String(coerce.First(m, "note", "notes")),
	}
	if leg.ID == "" {
		leg.ID = models.NewID()
	}

	leg.KM = legKM(leg.OdoStart, leg.OdoEnd, coerce.First(m, "km", "distance"))

	if created, ok := dates.ParseTimestamp(m["createdAt"]); ok {
		leg.CreatedAt = created
	} else {
		leg.CreatedAt = fallback
	}

	return leg
}

// legKM derives the distance from both odometer readings, else from an
// explicit value, else zero.
func legKM(start, end *float64, explicit interface{}) float64 {
	if start != nil && end != nil {
		return models.ComputeKM(*start, *end)
	}
	if km, ok := coerce.Number(explicit); ok && km > 0 {
		return km
	}
	return 0
}

func normalizeLegForm(m map[string]interface{}) models.LegForm {
	return models.LegForm{
		StartPlace: coerce.String(m["startPlace"]),
		StartTag:   coerce.String(m["startTag"]),
		StartTime:  coerce.String(m["startTime"]),
		OdoStart:   coerce.String(m["odoStart"]),
		EndPlace:   coerce.String(m["endPlace"]),
		EndTag:     coerce.String(m["endTag"]),
		EndTime:    coerce.String(m["endTime"]),
		OdoEnd:     coerce.String(m["odoEnd"]),
		Note:       coerce.String(m["note"]),
	}
}

func normalizeFuel(v interface{}) []models.FuelEntry {
	entries := []models.FuelEntry{}
	for _, item := range coerce.Slice(v) {
		m := coerce.Map(item)
		if m == nil {
			continue
		}

		entry := models.FuelEntry{
			ID:        coerce.String(m["id"]),
			Date:      normalizeDate(m["date"]),
			Odometer:  coerce.OptionalNumber(m["odometer"]),
			Liters:    nonNegative(coerce.NumberOr(m["liters"], 0)),
			TotalCost: nonNegative(coerce.NumberOr(coerce.First(m, "totalCost", "cost"), 0)),
			Currency:  strings.ToUpper(coerce.String(m["currency"])),
			FullTank:  coerce.Bool(m["fullTank"]),
			Station:   coerce.String(m["station"]),
			Notes:     coerce.String(coerce.First(m, "notes", "note")),
		}
		if entry.ID == "" {
			entry.ID = models.NewID()
		}
		if entry.Currency == "" {
			entry.Currency = models.DefaultCurrency
		}

		entries = append(entries, entry)
	}
	models.SortFuel(entries)
	return entries
}

func normalizeWash(v interface{}) []models.WashEntry {
	entries := []models.WashEntry{}
	for _, item := range coerce.Slice(v) {
		m := coerce.Map(item)
		if m == nil {
			continue
		}

		entry := models.WashEntry{
			ID:       coerce.String(m["id"]),
			Date:     normalizeDate(m["date"]),
			Type:     coerce.String(m["type"]),
			Location: coerce.String(m["location"]),
			Cost:     nonNegative(coerce.NumberOr(m["cost"], 0)),
			Note:     coerce.String(coerce.First(m, "note", "notes")),
		}
		if entry.ID == "" {
			entry.ID = models.NewID()
		}
		if created, ok := dates.ParseTimestamp(m["createdAt"]); ok {
			entry.CreatedAt = created
		} else {
			entry.CreatedAt, _ = dates.Combine(entry.Date, "")
		}

		entries = append(entries, entry)
	}
	models.SortWash(entries)
	return entries
}

func normalizeTemplates(v interface{}) []models.Template {
	templates := []models.Template{}
	for _, item := range coerce.Slice(v) {
		m := coerce.Map(item)
		if m == nil {
			continue
		}

		tpl := models.Template{
			ID:   coerce.String(m["id"]),
			Type: strings.ToLower(coerce.String(m["type"])),
			Name: coerce.String(m["name"]),
			Data: coerce.StringMap(m["data"]),
		}
		if !models.ValidTemplateType(tpl.Type) {
			continue
		}
		if tpl.ID == "" {
			tpl.ID = models.NewID()
		}

		templates = append(templates, tpl)
	}
	return templates
}

// normalizeDate returns a "YYYY-MM-DD" date or "".
func normalizeDate(v interface{}) string {
	s := coerce.String(v)
	if dates.IsDate(s) {
		return s
	}
	if len(s) > len(dates.DateLayout) && dates.IsDate(s[:len(dates.DateLayout)]) {
		return s[:len(dates.DateLayout)]
	}
	if t, ok := dates.ParseTimestamp(v); ok {
		return t.Format(dates.DateLayout)
	}
	return ""
}

// normalizeClock keeps "HH:MM" values and trims seconds from "HH:MM:SS".
func normalizeClock(v interface{}) string {
	s := coerce.String(v)
	if len(s) > 5 && dates.IsClock(s[:5]) {
		return s[:5]
	}
	return s
}

func nonNegative(f float64) float64 {
	if f < 0 {
		return 0
	}
	return f
}

// sortTripsNewestFirst orders by start date, then start instant, descending.
func sortTripsNewestFirst(trips []models.Trip) {
	sort.SliceStable(trips, func(i, j int) bool {
		if trips[i].StartDate != trips[j].StartDate {
			return trips[i].StartDate > trips[j].StartDate
		}
		return trips[i].StartedAt.After(trips[j].StartedAt)
	})
}
