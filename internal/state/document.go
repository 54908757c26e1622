package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/TheMichaelB/triplog/internal/events"
	"github.com/TheMichaelB/triplog/internal/models"
	"github.com/TheMichaelB/triplog/internal/normalize"
)

// Keys names the documents a Repository reads and writes.
type Keys struct {
	State   string
	Legacy  string
	Profile string
}

// DefaultKeys are the keys used by earlier builds.
var DefaultKeys = Keys{
	State:   "triplog.v2",
	Legacy:  "triplog",
	Profile: "vehicle-suite.profile",
}

// Loaded describes the outcome of Repository.Load.
type Loaded struct {
	State    models.AppState
	Variant  normalize.Variant
	Key      string // key the document was read from, empty when none
	Migrated bool   // legacy key was rewritten under the versioned key
}

// Repository persists the application document and the profile.
type Repository struct {
	store  Store
	keys   Keys
	logger *events.Logger
	now    func() time.Time
}

// NewRepository creates a repository over store.
func NewRepository(store Store, keys Keys, logger *events.Logger) *Repository {
	if keys.State == "" {
		keys.State = DefaultKeys.State
	}
	if keys.Profile == "" {
		keys.Profile = DefaultKeys.Profile
	}
	return &Repository{
		store:  store,
		keys:   keys,
		logger: logger.WithField("component", "repository"),
		now:    time.Now,
	}
}

// Keys returns the configured document keys.
func (r *Repository) Keys() Keys {
	return r.keys
}

// Store returns the underlying medium.
func (r *Repository) Store() Store {
	return r.store
}

// Load reads the application document. It always returns a usable state:
// a missing document yields the empty default, and an unreadable or corrupt
// one yields the default together with an error the caller reports as an
// advisory. The legacy key is read only when the versioned key is absent;
// it is rewritten under the versioned key and then removed.
func (r *Repository) Load() (Loaded, error) {
	now := r.now()

	data, err := r.store.Get(r.keys.State)
	switch {
	case err == nil:
		st, variant := normalize.DecodeAt(data, now)
		r.logger.WithFields(map[string]interface{}{
			"key":      r.keys.State,
			"variant":  variant.String(),
			"vehicles": len(st.Vehicles),
		}).Debug("Loaded document")
		return Loaded{State: st, Variant: variant, Key: r.keys.State}, nil

	case !errors.Is(err, ErrNotFound):
		r.logger.WithError(err).Warn("Document unreadable, starting empty")
		return Loaded{State: normalize.NormalizeAt(nil, now), Variant: normalize.VariantEmpty},
			fmt.Errorf("load %s: %w", r.keys.State, err)
	}

	if r.keys.Legacy == "" {
		return Loaded{State: normalize.NormalizeAt(nil, now), Variant: normalize.VariantEmpty}, nil
	}

	data, err = r.store.Get(r.keys.Legacy)
	if errors.Is(err, ErrNotFound) {
		return Loaded{State: normalize.NormalizeAt(nil, now), Variant: normalize.VariantEmpty}, nil
	}
	if err != nil {
		r.logger.WithError(err).Warn("Legacy document unreadable, starting empty")
		return Loaded{State: normalize.NormalizeAt(nil, now), Variant: normalize.VariantEmpty},
			fmt.Errorf("load %s: %w", r.keys.Legacy, err)
	}

	st, variant := normalize.DecodeAt(data, now)
	loaded := Loaded{State: st, Variant: variant, Key: r.keys.Legacy}

	r.logger.WithFields(map[string]interface{}{
		"from":    r.keys.Legacy,
		"to":      r.keys.State,
		"variant": variant.String(),
	}).Info("Migrating legacy document")

	if err := r.Save(st); err != nil {
		return loaded, fmt.Errorf("migrate legacy document: %w", err)
	}
	if err := r.store.Remove(r.keys.Legacy); err != nil {
		r.logger.WithError(err).Warn("Failed to remove legacy key")
	}
	loaded.Migrated = true

	return loaded, nil
}

// Save writes the document under the versioned key.
func (r *Repository) Save(st models.AppState) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	if err := r.store.Set(r.keys.State, data); err != nil {
		return fmt.Errorf("save %s: %w", r.keys.State, err)
	}
	return nil
}

// LoadProfile reads the profile document. Missing or malformed profiles
// yield the zero profile.
func (r *Repository) LoadProfile() (models.Profile, error) {
	data, err := r.store.Get(r.keys.Profile)
	if errors.Is(err, ErrNotFound) {
		return models.Profile{}, nil
	}
	if err != nil {
		return models.Profile{}, fmt.Errorf("load %s: %w", r.keys.Profile, err)
	}

	var p models.Profile
	if err := json.Unmarshal(data, &p); err != nil {
		r.logger.WithError(err).Warn("Ignoring malformed profile")
		return models.Profile{}, nil
	}
	return p, nil
}

// SaveProfile writes the profile document.
func (r *Repository) SaveProfile(p models.Profile) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}
	if err := r.store.Set(r.keys.Profile, data); err != nil {
		return fmt.Errorf("save %s: %w", r.keys.Profile, err)
	}
	return nil
}
