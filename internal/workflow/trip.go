// Package workflow holds the state transitions of the trip log. Every
// transition is a pure function: it takes an AppState, works on a clone and
// returns the next state, or an error and no change. Session serializes
// transitions and persists after each one.
package workflow

import (
	"strings"
	"time"

	"github.com/TheMichaelB/triplog/internal/coerce"
	"github.com/TheMichaelB/triplog/internal/dates"
	"github.com/TheMichaelB/triplog/internal/models"
)

// TripInput carries the editable trip header fields.
type TripInput struct {
	Title      string   `json:"title"`
	Purpose    string   `json:"purpose"`
	StartDate  string   `json:"startDate"`
	Tags       []string `json:"tags"`
	TitleTag   string   `json:"titleTag"`
	PurposeTag string   `json:"purposeTag"`
	Notes      string   `json:"notes"`
}

// stamp strips the monotonic reading and zone so stored instants survive a
// JSON round trip unchanged.
func stamp(now time.Time) time.Time {
	return now.UTC().Round(0)
}

func noActiveTrip() error {
	return models.NewValidationError(models.ErrCodeNoActiveTrip, "", models.ErrNoActiveTrip)
}

func noVehicle() error {
	return models.NewValidationError(models.ErrCodeNoVehicle, "", models.ErrNoVehicle)
}

// validateHeader checks the trip header and returns the start date to use.
func validateHeader(in TripInput, now time.Time) (string, error) {
	if strings.TrimSpace(in.Title) == "" {
		return "", models.NewValidationError(models.ErrCodeRequired, "title", models.ErrTitleRequired)
	}
	date := strings.TrimSpace(in.StartDate)
	if date == "" {
		return dates.Today(now), nil
	}
	if !dates.IsDate(date) {
		return "", models.NewValidationError(models.ErrCodeInvalid, "startDate", models.ErrInvalidDate)
	}
	return date, nil
}

// StartTrip opens a new active trip for the selected vehicle. A vehicle has
// at most one active trip; starting another is rejected.
func StartTrip(s models.AppState, now time.Time, in TripInput) (models.AppState, error) {
	vehicle, ok := s.ActiveVehicle()
	if !ok {
		return s, noVehicle()
	}
	date, err := validateHeader(in, now)
	if err != nil {
		return s, err
	}
	if s.ActiveTripByVehicle.Get(vehicle.ID) != nil {
		return s, models.NewValidationError(models.ErrCodeTripActive, "", models.ErrTripActive)
	}

	next := s.Clone()
	trip := models.Trip{
		ID:         models.NewID(),
		VehicleID:  vehicle.ID,
		Title:      strings.TrimSpace(in.Title),
		Purpose:    strings.TrimSpace(in.Purpose),
		Tags:       coerce.Strings(in.Tags),
		TitleTag:   strings.TrimSpace(in.TitleTag),
		PurposeTag: strings.TrimSpace(in.PurposeTag),
		StartedAt:  stamp(now),
		StartDate:  date,
		Status:     models.TripStatusActive,
		Legs:       []models.Leg{},
		Notes:      strings.TrimSpace(in.Notes),
	}
	next.ActiveTripByVehicle[vehicle.ID] = &trip

	return next, nil
}

// UpdateActiveTrip edits the header of the active trip.
func UpdateActiveTrip(s models.AppState, now time.Time, in TripInput) (models.AppState, error) {
	if s.ActiveTrip() == nil {
		return s, noActiveTrip()
	}
	date, err := validateHeader(in, now)
	if err != nil {
		return s, err
	}

	next := s.Clone()
	applyHeader(next.ActiveTrip(), in, date)
	return next, nil
}

// UpdateHistoryTrip edits the header of a finished trip.
func UpdateHistoryTrip(s models.AppState, now time.Time, tripID string, in TripInput) (models.AppState, error) {
	if _, ok := s.ActiveVehicle(); !ok {
		return s, noVehicle()
	}
	if findTrip(s.TripsByVehicle.Get(s.ActiveVehicleID), tripID) < 0 {
		return s, &models.NotFoundError{Kind: "trip", ID: tripID}
	}
	date, err := validateHeader(in, now)
	if err != nil {
		return s, err
	}

	next := s.Clone()
	trips := next.TripsByVehicle[next.ActiveVehicleID]
	applyHeader(&trips[findTrip(trips, tripID)], in, date)
	return next, nil
}

func applyHeader(trip *models.Trip, in TripInput, date string) {
	trip.Title = strings.TrimSpace(in.Title)
	trip.Purpose = strings.TrimSpace(in.Purpose)
	trip.Tags = coerce.Strings(in.Tags)
	trip.TitleTag = strings.TrimSpace(in.TitleTag)
	trip.PurposeTag = strings.TrimSpace(in.PurposeTag)
	trip.Notes = strings.TrimSpace(in.Notes)
	trip.StartDate = date
}

// CommitLeg validates form and appends it as a new leg of the active trip.
// The saved draft is cleared.
func CommitLeg(s models.AppState, now time.Time, form models.LegForm) (models.AppState, error) {
	if s.ActiveTrip() == nil {
		return s, noActiveTrip()
	}
	leg, err := LegFromForm(form)
	if err != nil {
		return s, err
	}

	leg.ID = models.NewID()
	leg.CreatedAt = stamp(now)

	next := s.Clone()
	trip := next.ActiveTrip()
	trip.Legs = append(trip.Legs, leg)
	trip.Draft = nil

	return next, nil
}

// UpdateLeg replaces a leg of the active trip, keeping its id and creation
// time.
func UpdateLeg(s models.AppState, legID string, form models.LegForm) (models.AppState, error) {
	trip := s.ActiveTrip()
	if trip == nil {
		return s, noActiveTrip()
	}
	idx := trip.FindLeg(legID)
	if idx < 0 {
		return s, &models.NotFoundError{Kind: "leg", ID: legID}
	}
	leg, err := LegFromForm(form)
	if err != nil {
		return s, err
	}

	next := s.Clone()
	legs := next.ActiveTrip().Legs
	leg.ID = legs[idx].ID
	leg.CreatedAt = legs[idx].CreatedAt
	legs[idx] = leg

	return next, nil
}

// RemoveLeg drops a leg from the active trip. Unknown ids are ignored.
func RemoveLeg(s models.AppState, legID string) (models.AppState, error) {
	trip := s.ActiveTrip()
	if trip == nil {
		return s, noActiveTrip()
	}
	if trip.FindLeg(legID) < 0 {
		return s, nil
	}

	next := s.Clone()
	active := next.ActiveTrip()
	active.Legs = removeLeg(active.Legs, legID)
	return next, nil
}

// CancelTrip discards the active trip. Finished trips are untouched.
func CancelTrip(s models.AppState) (models.AppState, error) {
	if s.ActiveTrip() == nil {
		return s, noActiveTrip()
	}

	next := s.Clone()
	next.ActiveTripByVehicle[next.ActiveVehicleID] = nil
	return next, nil
}

// EndTrip finishes the active trip and puts it at the head of the history.
func EndTrip(s models.AppState, now time.Time) (models.AppState, error) {
	if s.ActiveTrip() == nil {
		return s, noActiveTrip()
	}

	next := s.Clone()
	vehicleID := next.ActiveVehicleID

	trip := *next.ActiveTrip()
	finished := stamp(now)
	trip.Status = models.TripStatusFinished
	trip.FinishedAt = &finished
	trip.Draft = nil
	if trip.Legs == nil {
		trip.Legs = []models.Leg{}
	}

	history := next.TripsByVehicle.Get(vehicleID)
	next.TripsByVehicle[vehicleID] = append([]models.Trip{trip}, history...)
	next.ActiveTripByVehicle[vehicleID] = nil

	return next, nil
}

// UpdateHistoryLeg edits a leg inside a finished trip with the same
// validation as live editing.
func UpdateHistoryLeg(s models.AppState, tripID, legID string, form models.LegForm) (models.AppState, error) {
	if _, ok := s.ActiveVehicle(); !ok {
		return s, noVehicle()
	}
	trips := s.TripsByVehicle.Get(s.ActiveVehicleID)
	ti := findTrip(trips, tripID)
	if ti < 0 {
		return s, &models.NotFoundError{Kind: "trip", ID: tripID}
	}
	li := trips[ti].FindLeg(legID)
	if li < 0 {
		return s, &models.NotFoundError{Kind: "leg", ID: legID}
	}
	leg, err := LegFromForm(form)
	if err != nil {
		return s, err
	}

	next := s.Clone()
	legs := next.TripsByVehicle[next.ActiveVehicleID][ti].Legs
	leg.ID = legs[li].ID
	leg.CreatedAt = legs[li].CreatedAt
	legs[li] = leg

	return next, nil
}

// DeleteHistoryLeg removes a leg from a finished trip.
func DeleteHistoryLeg(s models.AppState, tripID, legID string) (models.AppState, error) {
	if _, ok := s.ActiveVehicle(); !ok {
		return s, noVehicle()
	}
	ti := findTrip(s.TripsByVehicle.Get(s.ActiveVehicleID), tripID)
	if ti < 0 {
		return s, &models.NotFoundError{Kind: "trip", ID: tripID}
	}

	next := s.Clone()
	trip := &next.TripsByVehicle[next.ActiveVehicleID][ti]
	trip.Legs = removeLeg(trip.Legs, legID)
	return next, nil
}

// DeleteHistoryTrip removes a finished trip.
func DeleteHistoryTrip(s models.AppState, tripID string) (models.AppState, error) {
	if _, ok := s.ActiveVehicle(); !ok {
		return s, noVehicle()
	}
	trips := s.TripsByVehicle.Get(s.ActiveVehicleID)
	ti := findTrip(trips, tripID)
	if ti < 0 {
		return s, &models.NotFoundError{Kind: "trip", ID: tripID}
	}

	next := s.Clone()
	list := next.TripsByVehicle[next.ActiveVehicleID]
	next.TripsByVehicle[next.ActiveVehicleID] = append(list[:ti:ti], list[ti+1:]...)
	return next, nil
}

// SaveDraft stores the in-progress leg form on the active trip.
func SaveDraft(s models.AppState, form models.LegForm) (models.AppState, error) {
	if s.ActiveTrip() == nil {
		return s, noActiveTrip()
	}

	next := s.Clone()
	draft := form
	next.ActiveTrip().Draft = &draft
	return next, nil
}

// ClearDraft drops the saved leg form.
func ClearDraft(s models.AppState) (models.AppState, error) {
	trip := s.ActiveTrip()
	if trip == nil || trip.Draft == nil {
		return s, nil
	}

	next := s.Clone()
	next.ActiveTrip().Draft = nil
	return next, nil
}

// FindTrip returns a finished trip of the active vehicle.
func FindTrip(s models.AppState, tripID string) (models.Trip, bool) {
	trips := s.TripsByVehicle.Get(s.ActiveVehicleID)
	if i := findTrip(trips, tripID); i >= 0 {
		return trips[i], true
	}
	return models.Trip{}, false
}

func findTrip(trips []models.Trip, id string) int {
	for i, t := range trips {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func removeLeg(legs []models.Leg, id string) []models.Leg {
	out := make([]models.Leg, 0, len(legs))
	for _, leg := range legs {
		if leg.ID != id {
			out = append(out, leg)
		}
	}
	return out
}
