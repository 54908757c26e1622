package models

import (
	"sort"
	"time"
)

// DefaultCurrency is used when no fuel entry names one.
const DefaultCurrency = "EUR"

// FuelEntry is one refuelling.
type FuelEntry struct {
	ID        string   `json:"id"`
	Date      string   `json:"date"`
	Odometer  *float64 `json:"odometer"`
	Liters    float64  `json:"liters"`
	TotalCost float64  `json:"totalCost"`
	Currency  string   `json:"currency"`
	FullTank  bool     `json:"fullTank"`
	Station   string   `json:"station"`
	Notes     string   `json:"notes"`
}

// PricePerLiter returns the unit price, or 0 without liters.
func (f FuelEntry) PricePerLiter() float64 {
	if f.Liters == 0 {
		return 0
	}
	return f.TotalCost / f.Liters
}

// WashEntry is one car wash.
type WashEntry struct {
	ID        string    `json:"id"`
	Date      string    `json:"date"`
	Type      string    `json:"type"`
	Location  string    `json:"location"`
	Cost      float64   `json:"cost"`
	Note      string    `json:"note"`
	CreatedAt time.Time `json:"createdAt"`
}

// SortFuel orders entries newest date first, keeping insertion order on ties.
func SortFuel(entries []FuelEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Date > entries[j].Date
	})
}

// SortWash orders entries newest date first, keeping insertion order on ties.
func SortWash(entries []WashEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Date > entries[j].Date
	})
}
