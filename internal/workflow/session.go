package workflow

import (
	"errors"
	"sync"
	"time"

	"github.com/TheMichaelB/triplog/internal/draft"
	"github.com/TheMichaelB/triplog/internal/events"
	"github.com/TheMichaelB/triplog/internal/models"
)

// PersistFunc saves the state after a successful transition.
type PersistFunc func(models.AppState) error

// Transition computes the next state. It must not mutate its input.
type Transition func(s models.AppState, now time.Time) (models.AppState, error)

// Session owns the application state. Transitions run one at a time; each
// replaces the state in a single step and is then persisted. A failed write
// keeps the new state in memory and is reported through StorageErr.
type Session struct {
	mu      sync.Mutex
	state   models.AppState
	persist PersistFunc
	now     func() time.Time
	logger  *events.Logger

	storageErr error
	editingLeg string

	drafts     *draft.Debouncer
	draftDelay time.Duration
	draftGen   uint64
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(logger *events.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		s.now = now
	}
}

// WithDraftDelay sets how long the leg form must be idle before the draft is
// saved.
func WithDraftDelay(d time.Duration) Option {
	return func(s *Session) {
		s.draftDelay = d
	}
}

// NewSession creates a session over initial. persist may be nil for a
// purely in-memory session.
func NewSession(initial models.AppState, persist PersistFunc, opts ...Option) *Session {
	s := &Session{
		state:      initial.Clone(),
		persist:    persist,
		now:        time.Now,
		logger:     events.Discard(),
		draftDelay: 400 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithField("component", "session")
	s.drafts = draft.New(s.draftDelay)
	return s
}

// State returns a copy of the current state.
func (s *Session) State() models.AppState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// StorageErr returns the last persistence failure, or nil once a write
// succeeds again.
func (s *Session) StorageErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.storageErr
}

// Now returns the session clock reading.
func (s *Session) Now() time.Time {
	return s.now()
}

// Apply runs fn against the current state. On error the state is unchanged.
func (s *Session) Apply(op string, fn Transition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applyLocked(op, fn)
}

func (s *Session) applyLocked(op string, fn Transition) error {
	next, err := fn(s.state, s.now())
	if err != nil {
		s.logger.WithField("op", op).WithError(err).Debug("Transition rejected")
		return err
	}
	s.state = next
	s.persistLocked(op)
	return nil
}

func (s *Session) persistLocked(op string) {
	if s.persist == nil {
		return
	}
	if err := s.persist(s.state); err != nil {
		if s.storageErr == nil {
			s.logger.WithField("op", op).WithError(err).Warn("Storage unavailable, keeping changes in memory")
		}
		s.storageErr = err
		return
	}
	if s.storageErr != nil {
		s.logger.WithField("op", op).Info("Storage available again")
	}
	s.storageErr = nil
}

// Replace swaps in a whole new state, as done by an import.
func (s *Session) Replace(next models.AppState) {
	s.dropDraft()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.draftGen++
	s.editingLeg = ""
	s.state = next.Clone()
	s.persistLocked("replace")
}

// Close cancels any pending draft write.
func (s *Session) Close() {
	s.drafts.Stop()
}

// BeginEdit marks a leg of the active trip as being edited.
func (s *Session) BeginEdit(legID string) (models.LegForm, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	trip := s.state.ActiveTrip()
	if trip == nil {
		return models.LegForm{}, noActiveTrip()
	}
	idx := trip.FindLeg(legID)
	if idx < 0 {
		return models.LegForm{}, &models.NotFoundError{Kind: "leg", ID: legID}
	}
	s.editingLeg = legID
	return FormFromLeg(trip.Legs[idx]), nil
}

// Editing returns the id of the leg being edited, or "".
func (s *Session) Editing() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editingLeg
}

// ScheduleDraft saves form as the active trip's draft once the form has
// been idle for the draft delay.
func (s *Session) ScheduleDraft(form models.LegForm) {
	s.mu.Lock()
	gen := s.draftGen
	s.mu.Unlock()

	s.drafts.Schedule(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		// The leg was committed or the trip closed in the meantime.
		if gen != s.draftGen {
			return
		}
		err := s.applyLocked("save_draft", func(st models.AppState, _ time.Time) (models.AppState, error) {
			return SaveDraft(st, form)
		})
		if err != nil && !errors.Is(err, models.ErrNoActiveTrip) {
			s.logger.WithError(err).Warn("Failed to save draft")
		}
	})
}

// FlushDraft writes a pending draft immediately.
func (s *Session) FlushDraft() bool {
	return s.drafts.Flush()
}

// DraftPending reports whether a draft write is scheduled.
func (s *Session) DraftPending() bool {
	return s.drafts.Pending()
}

// DiscardDraft drops both the pending and the saved draft.
func (s *Session) DiscardDraft() error {
	return s.closeLeg("clear_draft", func(st models.AppState, _ time.Time) (models.AppState, error) {
		return ClearDraft(st)
	})
}

func (s *Session) dropDraft() {
	s.drafts.Cancel()
}

// closeLeg applies a transition that ends the current leg entry. Pending
// drafts are dropped so they cannot resurrect the committed form.
func (s *Session) closeLeg(op string, fn Transition) error {
	s.dropDraft()

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.applyLocked(op, fn); err != nil {
		return err
	}
	s.draftGen++
	s.editingLeg = ""
	return nil
}

// PrepareLegForm returns the form for the next leg entry.
func (s *Session) PrepareLegForm() models.LegForm {
	s.mu.Lock()
	defer s.mu.Unlock()
	return PrepareLegForm(s.state, s.now())
}

// StartTrip opens a trip for the selected vehicle.
func (s *Session) StartTrip(in TripInput) error {
	return s.Apply("start_trip", func(st models.AppState, now time.Time) (models.AppState, error) {
		return StartTrip(st, now, in)
	})
}

// UpdateActiveTrip edits the header of the active trip.
func (s *Session) UpdateActiveTrip(in TripInput) error {
	return s.Apply("update_trip", func(st models.AppState, now time.Time) (models.AppState, error) {
		return UpdateActiveTrip(st, now, in)
	})
}

// CommitLeg appends a leg to the active trip.
func (s *Session) CommitLeg(form models.LegForm) error {
	return s.closeLeg("commit_leg", func(st models.AppState, now time.Time) (models.AppState, error) {
		return CommitLeg(st, now, form)
	})
}

// UpdateLeg replaces a leg of the active trip.
func (s *Session) UpdateLeg(legID string, form models.LegForm) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.applyLocked("update_leg", func(st models.AppState, _ time.Time) (models.AppState, error) {
		return UpdateLeg(st, legID, form)
	})
	if err == nil && s.editingLeg == legID {
		s.editingLeg = ""
	}
	return err
}

// RemoveLeg drops a leg of the active trip.
func (s *Session) RemoveLeg(legID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.applyLocked("remove_leg", func(st models.AppState, _ time.Time) (models.AppState, error) {
		return RemoveLeg(st, legID)
	})
	if err == nil && s.editingLeg == legID {
		s.editingLeg = ""
	}
	return err
}

// CancelTrip discards the active trip.
func (s *Session) CancelTrip() error {
	return s.closeLeg("cancel_trip", func(st models.AppState, _ time.Time) (models.AppState, error) {
		return CancelTrip(st)
	})
}

// EndTrip finishes the active trip.
func (s *Session) EndTrip() error {
	return s.closeLeg("end_trip", func(st models.AppState, now time.Time) (models.AppState, error) {
		return EndTrip(st, now)
	})
}

// UpdateHistoryTrip edits the header of a finished trip.
func (s *Session) UpdateHistoryTrip(tripID string, in TripInput) error {
	return s.Apply("update_history_trip", func(st models.AppState, now time.Time) (models.AppState, error) {
		return UpdateHistoryTrip(st, now, tripID, in)
	})
}

// UpdateHistoryLeg edits a leg of a finished trip.
func (s *Session) UpdateHistoryLeg(tripID, legID string, form models.LegForm) error {
	return s.Apply("update_history_leg", func(st models.AppState, _ time.Time) (models.AppState, error) {
		return UpdateHistoryLeg(st, tripID, legID, form)
	})
}

// DeleteHistoryLeg removes a leg of a finished trip.
func (s *Session) DeleteHistoryLeg(tripID, legID string) error {
	return s.Apply("delete_history_leg", func(st models.AppState, _ time.Time) (models.AppState, error) {
		return DeleteHistoryLeg(st, tripID, legID)
	})
}

// DeleteHistoryTrip removes a finished trip.
func (s *Session) DeleteHistoryTrip(tripID string) error {
	return s.Apply("delete_history_trip", func(st models.AppState, _ time.Time) (models.AppState, error) {
		return DeleteHistoryTrip(st, tripID)
	})
}

// SaveVehicle creates or updates a vehicle.
func (s *Session) SaveVehicle(v models.Vehicle) (models.Vehicle, error) {
	var saved models.Vehicle
	err := s.Apply("save_vehicle", func(st models.AppState, _ time.Time) (models.AppState, error) {
		next, out, err := SaveVehicle(st, v)
		saved = out
		return next, err
	})
	return saved, err
}

// DeleteVehicle removes a vehicle and everything logged for it.
func (s *Session) DeleteVehicle(id string) error {
	return s.closeLeg("delete_vehicle", func(st models.AppState, _ time.Time) (models.AppState, error) {
		return DeleteVehicle(st, id)
	})
}

// SelectVehicle switches the active vehicle.
func (s *Session) SelectVehicle(id string) error {
	return s.closeLeg("select_vehicle", func(st models.AppState, _ time.Time) (models.AppState, error) {
		return SelectVehicle(st, id)
	})
}

// SetMonth changes the summary month.
func (s *Session) SetMonth(month string) error {
	return s.Apply("set_month", func(st models.AppState, _ time.Time) (models.AppState, error) {
		return SetMonth(st, month)
	})
}

// AddFuel records a refuelling.
func (s *Session) AddFuel(e models.FuelEntry) (models.FuelEntry, error) {
	var saved models.FuelEntry
	err := s.Apply("add_fuel", func(st models.AppState, now time.Time) (models.AppState, error) {
		next, out, err := AddFuel(st, now, e)
		saved = out
		return next, err
	})
	return saved, err
}

// UpdateFuel replaces a fuel entry.
func (s *Session) UpdateFuel(e models.FuelEntry) error {
	return s.Apply("update_fuel", func(st models.AppState, now time.Time) (models.AppState, error) {
		return UpdateFuel(st, now, e)
	})
}

// DeleteFuel removes a fuel entry.
func (s *Session) DeleteFuel(id string) error {
	return s.Apply("delete_fuel", func(st models.AppState, _ time.Time) (models.AppState, error) {
		return DeleteFuel(st, id)
	})
}

// AddWash records a car wash.
func (s *Session) AddWash(e models.WashEntry) (models.WashEntry, error) {
	var saved models.WashEntry
	err := s.Apply("add_wash", func(st models.AppState, now time.Time) (models.AppState, error) {
		next, out, err := AddWash(st, now, e)
		saved = out
		return next, err
	})
	return saved, err
}

// UpdateWash replaces a wash entry.
func (s *Session) UpdateWash(e models.WashEntry) error {
	return s.Apply("update_wash", func(st models.AppState, now time.Time) (models.AppState, error) {
		return UpdateWash(st, now, e)
	})
}

// DeleteWash removes a wash entry.
func (s *Session) DeleteWash(id string) error {
	return s.Apply("delete_wash", func(st models.AppState, _ time.Time) (models.AppState, error) {
		return DeleteWash(st, id)
	})
}

// SaveTemplate stores a template.
func (s *Session) SaveTemplate(tpl models.Template) (models.Template, error) {
	var saved models.Template
	err := s.Apply("save_template", func(st models.AppState, _ time.Time) (models.AppState, error) {
		next, out, err := SaveTemplate(st, tpl)
		saved = out
		return next, err
	})
	return saved, err
}

// DeleteTemplate removes a template.
func (s *Session) DeleteTemplate(id string) error {
	return s.Apply("delete_template", func(st models.AppState, _ time.Time) (models.AppState, error) {
		return DeleteTemplate(st, id)
	})
}
