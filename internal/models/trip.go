package models

import (
	"math"
	"time"
)

// Trip status constants.
const (
	TripStatusActive   = "active"
	TripStatusFinished = "finished"
)

// Trip is a titled sequence of legs driven with one vehicle.
type Trip struct {
	ID         string     `json:"id"`
	VehicleID  string     `json:"vehicleId"`
	Title      string     `json:"title"`
	Purpose    string     `json:"purpose"`
	Tags       []string   `json:"tags"`
	TitleTag   string     `json:"titleTag"`
	PurposeTag string     `json:"purposeTag"`
	StartedAt  time.Time  `json:"startedAt"`
	StartDate  string     `json:"startDate"`
	Status     string     `json:"status"`
	Legs       []Leg      `json:"legs"`
	Notes      string     `json:"notes"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`

	// Draft is the unsaved leg form of an active trip, kept for recovery.
	Draft *LegForm `json:"draft,omitempty"`
}

// Leg is one point-to-point movement bounded by odometer readings.
type Leg struct {
	ID         string    `json:"id"`
	StartPlace string    `json:"startPlace"`
	StartTag   string    `json:"startTag"`
	StartTime  string    `json:"startTime"`
	OdoStart   *float64  `json:"odoStart"`
	EndPlace   string    `json:"endPlace"`
	EndTag     string    `json:"endTag"`
	EndTime    string    `json:"endTime"`
	OdoEnd     *float64  `json:"odoEnd"`
	KM         float64   `json:"km"`
	Note       string    `json:"note"`
	CreatedAt  time.Time `json:"createdAt"`
}

// LegForm is the raw leg-entry form. Odometer fields hold user input and are
// validated only when the leg is committed.
type LegForm struct {
	StartPlace string `json:"startPlace"`
	StartTag   string `json:"startTag"`
	StartTime  string `json:"startTime"`
	OdoStart   string `json:"odoStart"`
	EndPlace   string `json:"endPlace"`
	EndTag     string `json:"endTag"`
	EndTime    string `json:"endTime"`
	OdoEnd     string `json:"odoEnd"`
	Note       string `json:"note"`
}

// ComputeKM returns the driven distance for two odometer readings.
func ComputeKM(odoStart, odoEnd float64) float64 {
	return math.Max(0, odoEnd-odoStart)
}

// Distance sums km over all legs.
func (t Trip) Distance() float64 {
	var total float64
	for _, leg := range t.Legs {
		total += leg.KM
	}
	return total
}

// LastLeg returns the most recently appended leg.
func (t Trip) LastLeg() (Leg, bool) {
	if len(t.Legs) == 0 {
		return Leg{}, false
	}
	return t.Legs[len(t.Legs)-1], true
}

// FindLeg returns the index of the leg with the given id, or -1.
func (t Trip) FindLeg(id string) int {
	for i, leg := range t.Legs {
		if leg.ID == id {
			return i
		}
	}
	return -1
}

// Clone creates a deep copy of the trip.
func (t Trip) Clone() Trip {
	clone := t
	if t.Tags != nil {
		clone.Tags = append([]string{}, t.Tags...)
	}
	if t.Legs != nil {
		clone.Legs = make([]Leg, len(t.Legs))
		for i, leg := range t.Legs {
			clone.Legs[i] = leg.Clone()
		}
	}
	if t.FinishedAt != nil {
		finished := *t.FinishedAt
		clone.FinishedAt = &finished
	}
	if t.Draft != nil {
		draft := *t.Draft
		clone.Draft = &draft
	}
	return clone
}

// Clone creates a deep copy of the leg.
func (l Leg) Clone() Leg {
	clone := l
	clone.OdoStart = copyFloat(l.OdoStart)
	clone.OdoEnd = copyFloat(l.OdoEnd)
	return clone
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	return Float(*v)
}
