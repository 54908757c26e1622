package workflow

import (
	"strings"
	"time"

	"github.com/TheMichaelB/triplog/internal/dates"
	"github.com/TheMichaelB/triplog/internal/models"
)

type amount struct {
	field string
	value float64
}

func checkEntry(date string, now time.Time, amounts ...amount) (string, error) {
	date = strings.TrimSpace(date)
	if date == "" {
		date = dates.Today(now)
	} else if !dates.IsDate(date) {
		return "", models.NewValidationError(models.ErrCodeInvalid, "date", models.ErrInvalidDate)
	}
	for _, a := range amounts {
		if a.value < 0 {
			return "", models.NewValidationError(models.ErrCodeInvalid, a.field, models.ErrNegative)
		}
	}
	return date, nil
}

func cleanFuel(e models.FuelEntry, now time.Time) (models.FuelEntry, error) {
	amounts := []amount{{"liters", e.Liters}, {"totalCost", e.TotalCost}}
	if e.Odometer != nil {
		amounts = append(amounts, amount{"odometer", *e.Odometer})
	}
	date, err := checkEntry(e.Date, now, amounts...)
	if err != nil {
		return e, err
	}
	e.Date = date
	e.Currency = strings.ToUpper(strings.TrimSpace(e.Currency))
	if e.Currency == "" {
		e.Currency = models.DefaultCurrency
	}
	e.Station = strings.TrimSpace(e.Station)
	e.Notes = strings.TrimSpace(e.Notes)
	if e.Odometer != nil {
		e.Odometer = models.Float(*e.Odometer)
	}
	return e, nil
}

// AddFuel records a refuelling for the selected vehicle.
func AddFuel(s models.AppState, now time.Time, e models.FuelEntry) (models.AppState, models.FuelEntry, error) {
	if _, ok := s.ActiveVehicle(); !ok {
		return s, models.FuelEntry{}, noVehicle()
	}
	e, err := cleanFuel(e, now)
	if err != nil {
		return s, models.FuelEntry{}, err
	}
	e.ID = models.NewID()

	next := s.Clone()
	id := next.ActiveVehicleID
	list := append(next.FuelByVehicle.Get(id), e)
	models.SortFuel(list)
	next.FuelByVehicle[id] = list

	return next, e, nil
}

// UpdateFuel replaces the fuel entry with e.ID.
func UpdateFuel(s models.AppState, now time.Time, e models.FuelEntry) (models.AppState, error) {
	if _, ok := s.ActiveVehicle(); !ok {
		return s, noVehicle()
	}
	idx := findFuel(s.FuelByVehicle.Get(s.ActiveVehicleID), e.ID)
	if idx < 0 {
		return s, &models.NotFoundError{Kind: "fuel entry", ID: e.ID}
	}
	e, err := cleanFuel(e, now)
	if err != nil {
		return s, err
	}

	next := s.Clone()
	list := next.FuelByVehicle[next.ActiveVehicleID]
	list[idx] = e
	models.SortFuel(list)

	return next, nil
}

// DeleteFuel removes a fuel entry.
func DeleteFuel(s models.AppState, id string) (models.AppState, error) {
	if _, ok := s.ActiveVehicle(); !ok {
		return s, noVehicle()
	}
	list := s.FuelByVehicle.Get(s.ActiveVehicleID)
	idx := findFuel(list, id)
	if idx < 0 {
		return s, &models.NotFoundError{Kind: "fuel entry", ID: id}
	}

	next := s.Clone()
	list = next.FuelByVehicle[next.ActiveVehicleID]
	next.FuelByVehicle[next.ActiveVehicleID] = append(list[:idx:idx], list[idx+1:]...)
	return next, nil
}

func cleanWash(e models.WashEntry, now time.Time) (models.WashEntry, error) {
	date, err := checkEntry(e.Date, now, amount{"cost", e.Cost})
	if err != nil {
		return e, err
	}
	e.Date = date
	e.Type = strings.TrimSpace(e.Type)
	e.Location = strings.TrimSpace(e.Location)
	e.Note = strings.TrimSpace(e.Note)
	return e, nil
}

// AddWash records a car wash for the selected vehicle.
func AddWash(s models.AppState, now time.Time, e models.WashEntry) (models.AppState, models.WashEntry, error) {
	if _, ok := s.ActiveVehicle(); !ok {
		return s, models.WashEntry{}, noVehicle()
	}
	e, err := cleanWash(e, now)
	if err != nil {
		return s, models.WashEntry{}, err
	}
	e.ID = models.NewID()
	e.CreatedAt = stamp(now)

	next := s.Clone()
	id := next.ActiveVehicleID
	list := append(next.WashByVehicle.Get(id), e)
	models.SortWash(list)
	next.WashByVehicle[id] = list

	return next, e, nil
}

// UpdateWash replaces the wash entry with e.ID, keeping its creation time.
func UpdateWash(s models.AppState, now time.Time, e models.WashEntry) (models.AppState, error) {
	if _, ok := s.ActiveVehicle(); !ok {
		return s, noVehicle()
	}
	idx := findWash(s.WashByVehicle.Get(s.ActiveVehicleID), e.ID)
	if idx < 0 {
		return s, &models.NotFoundError{Kind: "wash entry", ID: e.ID}
	}
	e, err := cleanWash(e, now)
	if err != nil {
		return s, err
	}

	next := s.Clone()
	list := next.WashByVehicle[next.ActiveVehicleID]
	e.CreatedAt = list[idx].CreatedAt
	list[idx] = e
	models.SortWash(list)

	return next, nil
}

// DeleteWash removes a wash entry.
func DeleteWash(s models.AppState, id string) (models.AppState, error) {
	if _, ok := s.ActiveVehicle(); !ok {
		return s, noVehicle()
	}
	list := s.WashByVehicle.Get(s.ActiveVehicleID)
	idx := findWash(list, id)
	if idx < 0 {
		return s, &models.NotFoundError{Kind: "wash entry", ID: id}
	}

	next := s.Clone()
	list = next.WashByVehicle[next.ActiveVehicleID]
	next.WashByVehicle[next.ActiveVehicleID] = append(list[:idx:idx], list[idx+1:]...)
	return next, nil
}

func findFuel(list []models.FuelEntry, id string) int {
	for i, e := range list {
		if e.ID == id {
			return i
		}
	}
	return -1
}

func findWash(list []models.WashEntry, id string) int {
	for i, e := range list {
		if e.ID == id {
			return i
		}
	}
	return -1
}
