package workflow

import (
	"strconv"
	"strings"
	"time"

	"github.com/TheMichaelB/triplog/internal/coerce"
	"github.com/TheMichaelB/triplog/internal/dates"
	"github.com/TheMichaelB/triplog/internal/models"
)

// LegFromForm validates a leg form and converts it into a leg without id or
// creation time.
func LegFromForm(form models.LegForm) (models.Leg, error) {
	odoStart, err := odometer("odoStart", form.OdoStart)
	if err != nil {
		return models.Leg{}, err
	}
	odoEnd, err := odometer("odoEnd", form.OdoEnd)
	if err != nil {
		return models.Leg{}, err
	}
	if odoEnd < odoStart {
		return models.Leg{}, models.NewValidationError(models.ErrCodeInvalidRange, "odoEnd", models.ErrInvalidRange)
	}

	startTime := strings.TrimSpace(form.StartTime)
	if startTime != "" && !dates.IsClock(startTime) {
		return models.Leg{}, models.NewValidationError(models.ErrCodeInvalid, "startTime", models.ErrInvalidTime)
	}
	endTime := strings.TrimSpace(form.EndTime)
	if endTime != "" && !dates.IsClock(endTime) {
		return models.Leg{}, models.NewValidationError(models.ErrCodeInvalid, "endTime", models.ErrInvalidTime)
	}

	return models.Leg{
		StartPlace: strings.TrimSpace(form.StartPlace),
		StartTag:   strings.TrimSpace(form.StartTag),
		StartTime:  startTime,
		OdoStart:   models.Float(odoStart),
		EndPlace:   strings.TrimSpace(form.EndPlace),
		EndTag:     strings.TrimSpace(form.EndTag),
		EndTime:    endTime,
		OdoEnd:     models.Float(odoEnd),
		KM:         models.ComputeKM(odoStart, odoEnd),
		Note:       strings.TrimSpace(form.Note),
	}, nil
}

func odometer(field, raw string) (float64, error) {
	if strings.TrimSpace(raw) == "" {
		return 0, models.NewValidationError(models.ErrCodeRequired, field, models.ErrOdometerRequired)
	}
	v, ok := coerce.Number(raw)
	if !ok {
		return 0, models.NewValidationError(models.ErrCodeInvalid, field, models.ErrInvalidNumber)
	}
	return v, nil
}

// FormFromLeg turns a stored leg back into an editable form.
func FormFromLeg(leg models.Leg) models.LegForm {
	return models.LegForm{
		StartPlace: leg.StartPlace,
		StartTag:   leg.StartTag,
		StartTime:  leg.StartTime,
		OdoStart:   formatOdometer(leg.OdoStart),
		EndPlace:   leg.EndPlace,
		EndTag:     leg.EndTag,
		EndTime:    leg.EndTime,
		OdoEnd:     formatOdometer(leg.OdoEnd),
		Note:       leg.Note,
	}
}

func formatOdometer(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// PreviousLeg returns the leg a new entry continues from: the last leg of the
// active trip, or else the last leg of the most recently started finished
// trip of the selected vehicle. A most recent trip without legs yields none;
// older trips are not consulted.
func PreviousLeg(s models.AppState) (models.Leg, bool) {
	if trip := s.ActiveTrip(); trip != nil {
		if leg, ok := trip.LastLeg(); ok {
			return leg, true
		}
	}

	var latest *models.Trip
	trips := s.TripsByVehicle.Get(s.ActiveVehicleID)
	for i := range trips {
		if latest == nil || trips[i].StartedAt.After(latest.StartedAt) {
			latest = &trips[i]
		}
	}
	if latest == nil {
		return models.Leg{}, false
	}
	return latest.LastLeg()
}

// PrepareLegForm returns the form shown when a new leg is entered. A saved
// draft wins; otherwise the start side continues from the previous leg's end.
func PrepareLegForm(s models.AppState, now time.Time) models.LegForm {
	if trip := s.ActiveTrip(); trip != nil && trip.Draft != nil {
		return *trip.Draft
	}

	form := models.LegForm{StartTime: dates.Clock(dates.RoundToFive(now))}
	if prev, ok := PreviousLeg(s); ok {
		form.StartPlace = prev.EndPlace
		form.StartTag = prev.EndTag
		form.OdoStart = formatOdometer(prev.OdoEnd)
	}
	return form
}

// DuplicateLast fills form with the places, tags and note of prev. The start
// time becomes now rounded to five minutes, the end time is cleared and the
// odometers are left as entered.
func DuplicateLast(form models.LegForm, prev models.Leg, now time.Time) models.LegForm {
	form.StartPlace = prev.StartPlace
	form.StartTag = prev.StartTag
	form.EndPlace = prev.EndPlace
	form.EndTag = prev.EndTag
	form.Note = prev.Note
	form.StartTime = dates.Clock(dates.RoundToFive(now))
	form.EndTime = ""
	return form
}

// SwapPlaces exchanges the start and end place and tag.
func SwapPlaces(form models.LegForm) models.LegForm {
	form.StartPlace, form.EndPlace = form.EndPlace, form.StartPlace
	form.StartTag, form.EndTag = form.EndTag, form.StartTag
	return form
}
