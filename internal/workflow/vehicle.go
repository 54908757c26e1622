package workflow

import (
	"strings"

	"github.com/TheMichaelB/triplog/internal/dates"
	"github.com/TheMichaelB/triplog/internal/models"
)

// SaveVehicle creates a vehicle when v has no id, or replaces the vehicle
// with the same id. A new vehicle is selected when none is active.
func SaveVehicle(s models.AppState, v models.Vehicle) (models.AppState, models.Vehicle, error) {
	v.Name = strings.TrimSpace(v.Name)
	v.Make = strings.TrimSpace(v.Make)
	v.Model = strings.TrimSpace(v.Model)
	v.Plate = strings.TrimSpace(v.Plate)
	v.VIN = strings.TrimSpace(v.VIN)
	v.Notes = strings.TrimSpace(v.Notes)

	if v.Name == "" && v.Make == "" && v.Model == "" && v.Plate == "" {
		return s, models.Vehicle{}, models.NewValidationError(models.ErrCodeRequired, "name", models.ErrNameRequired)
	}

	if v.ID != "" {
		idx := findVehicle(s.Vehicles, v.ID)
		if idx < 0 {
			return s, models.Vehicle{}, &models.NotFoundError{Kind: "vehicle", ID: v.ID}
		}
		next := s.Clone()
		next.Vehicles[idx] = v
		return next, v, nil
	}

	v.ID = models.NewID()

	next := s.Clone()
	next.Vehicles = append(next.Vehicles, v)
	ensureSlots(&next, v.ID)
	if _, ok := next.ActiveVehicle(); !ok {
		next.ActiveVehicleID = v.ID
	}

	return next, v, nil
}

// DeleteVehicle removes a vehicle with all of its trips, fuel and wash
// entries. When it was selected the first remaining vehicle takes over.
func DeleteVehicle(s models.AppState, id string) (models.AppState, error) {
	idx := findVehicle(s.Vehicles, id)
	if idx < 0 {
		return s, &models.NotFoundError{Kind: "vehicle", ID: id}
	}

	next := s.Clone()
	next.Vehicles = append(next.Vehicles[:idx:idx], next.Vehicles[idx+1:]...)
	delete(next.ActiveTripByVehicle, id)
	delete(next.TripsByVehicle, id)
	delete(next.FuelByVehicle, id)
	delete(next.WashByVehicle, id)

	if next.ActiveVehicleID == id {
		next.ActiveVehicleID = ""
		if len(next.Vehicles) > 0 {
			next.ActiveVehicleID = next.Vehicles[0].ID
		}
	}

	return next, nil
}

// SelectVehicle makes id the active vehicle.
func SelectVehicle(s models.AppState, id string) (models.AppState, error) {
	if !s.HasVehicle(id) {
		return s, &models.NotFoundError{Kind: "vehicle", ID: id}
	}
	if s.ActiveVehicleID == id {
		return s, nil
	}

	next := s.Clone()
	next.ActiveVehicleID = id
	ensureSlots(&next, id)
	return next, nil
}

// SetMonth changes the month shown by the summary view.
func SetMonth(s models.AppState, month string) (models.AppState, error) {
	month = strings.TrimSpace(month)
	if !dates.IsMonth(month) {
		return s, models.NewValidationError(models.ErrCodeInvalid, "month", models.ErrInvalidMonth)
	}

	next := s.Clone()
	next.UI.Month = month
	return next, nil
}

func ensureSlots(s *models.AppState, id string) {
	if s.ActiveTripByVehicle == nil {
		s.ActiveTripByVehicle = models.ActiveTrips{}
	}
	if _, ok := s.ActiveTripByVehicle[id]; !ok {
		s.ActiveTripByVehicle[id] = nil
	}
	if s.TripsByVehicle == nil {
		s.TripsByVehicle = models.ByVehicle[models.Trip]{}
	}
	if s.TripsByVehicle[id] == nil {
		s.TripsByVehicle[id] = []models.Trip{}
	}
	if s.FuelByVehicle == nil {
		s.FuelByVehicle = models.ByVehicle[models.FuelEntry]{}
	}
	if s.FuelByVehicle[id] == nil {
		s.FuelByVehicle[id] = []models.FuelEntry{}
	}
	if s.WashByVehicle == nil {
		s.WashByVehicle = models.ByVehicle[models.WashEntry]{}
	}
	if s.WashByVehicle[id] == nil {
		s.WashByVehicle[id] = []models.WashEntry{}
	}
}

func findVehicle(vehicles []models.Vehicle, id string) int {
	for i, v := range vehicles {
		if v.ID == id {
			return i
		}
	}
	return -1
}
