// Package aggregate computes the monthly summary and the date-range report
// for one vehicle. All date comparisons are lexicographic on "YYYY-MM-DD".
package aggregate

import (
	"sort"
	"strings"

	"github.com/TheMichaelB/triplog/internal/dates"
	"github.com/TheMichaelB/triplog/internal/models"
)

// Totals are the sums shared by the month and range views.
type Totals struct {
	Distance    float64 `json:"distance"`
	TripCount   int     `json:"tripCount"`
	LegCount    int     `json:"legCount"`
	Liters      float64 `json:"liters"`
	Spend       float64 `json:"spend"`
	AvgPerLiter float64 `json:"avgPerLiter"`
	Currency    string  `json:"currency"`
	WashCount   int     `json:"washCount"`
	WashSpend   float64 `json:"washSpend"`
}

// MonthSummary covers the finished trips and logbook entries of one month.
type MonthSummary struct {
	Totals
	VehicleID string             `json:"vehicleId"`
	Month     string             `json:"month"`
	Trips     []models.Trip      `json:"trips"`
	Fuel      []models.FuelEntry `json:"fuel"`
	Wash      []models.WashEntry `json:"wash"`
}

// RangeReport covers an inclusive date range.
type RangeReport struct {
	Totals
	VehicleID string             `json:"vehicleId"`
	Start     string             `json:"start"`
	End       string             `json:"end"`
	Trips     []models.Trip      `json:"trips"`
	Fuel      []models.FuelEntry `json:"fuel"`
	Wash      []models.WashEntry `json:"wash"`
}

// Month summarizes a vehicle for a "YYYY-MM" month. Trips are ordered by
// start date, newest first.
func Month(s models.AppState, vehicleID, month, baseCurrency string) MonthSummary {
	inMonth := func(date string) bool {
		return date != "" && dates.MonthOf(date) == month
	}

	trips := filterTrips(s.TripsByVehicle.Get(vehicleID), inMonth)
	sort.SliceStable(trips, func(i, j int) bool {
		return trips[i].StartDate > trips[j].StartDate
	})
	fuel := filterFuel(s.FuelByVehicle.Get(vehicleID), inMonth)
	wash := filterWash(s.WashByVehicle.Get(vehicleID), inMonth)

	return MonthSummary{
		Totals:    totals(trips, fuel, wash, baseCurrency),
		VehicleID: vehicleID,
		Month:     month,
		Trips:     trips,
		Fuel:      fuel,
		Wash:      wash,
	}
}

// Range summarizes a vehicle between start and end, both inclusive. Trips
// and fuel entries are ordered oldest first.
func Range(s models.AppState, vehicleID, start, end, baseCurrency string) RangeReport {
	inRange := func(date string) bool {
		return dates.InRange(date, start, end)
	}

	trips := filterTrips(s.TripsByVehicle.Get(vehicleID), inRange)
	sort.SliceStable(trips, func(i, j int) bool {
		if trips[i].StartDate != trips[j].StartDate {
			return trips[i].StartDate < trips[j].StartDate
		}
		return trips[i].StartedAt.Before(trips[j].StartedAt)
	})
	fuel := filterFuel(s.FuelByVehicle.Get(vehicleID), inRange)
	sort.SliceStable(fuel, func(i, j int) bool {
		return fuel[i].Date < fuel[j].Date
	})
	wash := filterWash(s.WashByVehicle.Get(vehicleID), inRange)
	sort.SliceStable(wash, func(i, j int) bool {
		return wash[i].Date < wash[j].Date
	})

	return RangeReport{
		Totals:    totals(trips, fuel, wash, baseCurrency),
		VehicleID: vehicleID,
		Start:     start,
		End:       end,
		Trips:     trips,
		Fuel:      fuel,
		Wash:      wash,
	}
}

func totals(trips []models.Trip, fuel []models.FuelEntry, wash []models.WashEntry, baseCurrency string) Totals {
	var t Totals

	t.TripCount = len(trips)
	for _, trip := range trips {
		t.Distance += trip.Distance()
		t.LegCount += len(trip.Legs)
	}

	for _, f := range fuel {
		t.Liters += f.Liters
		t.Spend += f.TotalCost
	}
	if t.Liters > 0 {
		t.AvgPerLiter = t.Spend / t.Liters
	}

	t.Currency = strings.ToUpper(strings.TrimSpace(baseCurrency))
	if c := latestCurrency(fuel); c != "" {
		t.Currency = c
	}
	if t.Currency == "" {
		t.Currency = models.DefaultCurrency
	}

	t.WashCount = len(wash)
	for _, w := range wash {
		t.WashSpend += w.Cost
	}

	return t
}

func filterTrips(trips []models.Trip, keep func(string) bool) []models.Trip {
	out := []models.Trip{}
	for _, trip := range trips {
		if keep(trip.StartDate) {
			out = append(out, trip)
		}
	}
	return out
}

func filterFuel(entries []models.FuelEntry, keep func(string) bool) []models.FuelEntry {
	out := []models.FuelEntry{}
	for _, e := range entries {
		if keep(e.Date) {
			out = append(out, e)
		}
	}
	return out
}

func filterWash(entries []models.WashEntry, keep func(string) bool) []models.WashEntry {
	out := []models.WashEntry{}
	for _, e := range entries {
		if keep(e.Date) {
			out = append(out, e)
		}
	}
	return out
}

// latestCurrency returns the currency of the most recent entry. Among
// entries on the same date the earliest in fuel wins.
func latestCurrency(fuel []models.FuelEntry) string {
	if len(fuel) == 0 {
		return ""
	}
	latest := fuel[0]
	for _, f := range fuel[1:] {
		if f.Date > latest.Date {
			latest = f
		}
	}
	return latest.Currency
}
