package models

// ByVehicle holds a per-vehicle list. Reads for unknown vehicles return an
// empty list.
type ByVehicle[T any] map[string][]T

// Get returns the list for a vehicle, never nil.
func (m ByVehicle[T]) Get(vehicleID string) []T {
	if list, ok := m[vehicleID]; ok && list != nil {
		return list
	}
	return []T{}
}

// ActiveTrips holds the in-progress trip of each vehicle.
type ActiveTrips map[string]*Trip

// Get returns the active trip of a vehicle, or nil.
func (m ActiveTrips) Get(vehicleID string) *Trip {
	return m[vehicleID]
}

// UIState is the persisted view selection.
type UIState struct {
	Month string `json:"month"`
}

// AppState is the whole persisted document.
type AppState struct {
	Vehicles            []Vehicle            `json:"vehicles"`
	ActiveVehicleID     string               `json:"activeVehicleId"`
	ActiveTripByVehicle ActiveTrips          `json:"activeTripByVehicle"`
	TripsByVehicle      ByVehicle[Trip]      `json:"tripsByVehicle"`
	FuelByVehicle       ByVehicle[FuelEntry] `json:"fuelByVehicle"`
	WashByVehicle       ByVehicle[WashEntry] `json:"washByVehicle"`
	UI                  UIState              `json:"ui"`
	Templates           []Template           `json:"templates"`
}

// NewAppState returns an empty state showing the given month.
func NewAppState(month string) AppState {
	return AppState{
		Vehicles:            []Vehicle{},
		ActiveTripByVehicle: ActiveTrips{},
		TripsByVehicle:      ByVehicle[Trip]{},
		FuelByVehicle:       ByVehicle[FuelEntry]{},
		WashByVehicle:       ByVehicle[WashEntry]{},
		UI:                  UIState{Month: month},
		Templates:           []Template{},
	}
}

// HasVehicle reports whether a vehicle with the id exists.
func (s AppState) HasVehicle(id string) bool {
	_, ok := s.Vehicle(id)
	return ok
}

// Vehicle looks up a vehicle by id.
func (s AppState) Vehicle(id string) (Vehicle, bool) {
	if id == "" {
		return Vehicle{}, false
	}
	for _, v := range s.Vehicles {
		if v.ID == id {
			return v, true
		}
	}
	return Vehicle{}, false
}

// ActiveVehicle returns the selected vehicle.
func (s AppState) ActiveVehicle() (Vehicle, bool) {
	return s.Vehicle(s.ActiveVehicleID)
}

// ActiveTrip returns the in-progress trip of the selected vehicle, or nil.
func (s AppState) ActiveTrip() *Trip {
	if s.ActiveVehicleID == "" {
		return nil
	}
	return s.ActiveTripByVehicle.Get(s.ActiveVehicleID)
}

// Clone creates a deep copy of the state.
func (s AppState) Clone() AppState {
	clone := AppState{
		Vehicles:            append([]Vehicle{}, s.Vehicles...),
		ActiveVehicleID:     s.ActiveVehicleID,
		ActiveTripByVehicle: make(ActiveTrips, len(s.ActiveTripByVehicle)),
		TripsByVehicle:      make(ByVehicle[Trip], len(s.TripsByVehicle)),
		FuelByVehicle:       make(ByVehicle[FuelEntry], len(s.FuelByVehicle)),
		WashByVehicle:       make(ByVehicle[WashEntry], len(s.WashByVehicle)),
		UI:                  s.UI,
		Templates:           make([]Template, len(s.Templates)),
	}

	for id, trip := range s.ActiveTripByVehicle {
		if trip == nil {
			clone.ActiveTripByVehicle[id] = nil
			continue
		}
		t := trip.Clone()
		clone.ActiveTripByVehicle[id] = &t
	}

	for id, trips := range s.TripsByVehicle {
		list := make([]Trip, len(trips))
		for i, trip := range trips {
			list[i] = trip.Clone()
		}
		clone.TripsByVehicle[id] = list
	}

	for id, fuel := range s.FuelByVehicle {
		list := make([]FuelEntry, len(fuel))
		for i, f := range fuel {
			f.Odometer = copyFloat(f.Odometer)
			list[i] = f
		}
		clone.FuelByVehicle[id] = list
	}

	for id, wash := range s.WashByVehicle {
		clone.WashByVehicle[id] = append([]WashEntry{}, wash...)
	}

	for i, tpl := range s.Templates {
		clone.Templates[i] = tpl.Clone()
	}

	return clone
}
