package normalize

import (
	"encoding/json"
	"time"

	"github.com/TheMichaelB/triplog/internal/models"
)

// Variant tags which schema a stored document was decoded as.
type Variant int

const (
	// VariantEmpty: nothing usable; the default state was produced.
	VariantEmpty Variant = iota
	// VariantLegacyTrips: the flat trip log without vehicles.
	VariantLegacyTrips
	// VariantLegacyLegs: per-vehicle leg lists without trips.
	VariantLegacyLegs
	// VariantCurrent: the current per-vehicle trip schema.
	VariantCurrent
)

func (v Variant) String() string {
	switch v {
	case VariantEmpty:
		return "empty"
	case VariantLegacyTrips:
		return "legacy-trips"
	case VariantLegacyLegs:
		return "legacy-legs"
	case VariantCurrent:
		return "current"
	default:
		return "unknown"
	}
}

// Legacy reports whether the document needs rewriting in the current shape.
func (v Variant) Legacy() bool {
	return v == VariantLegacyTrips || v == VariantLegacyLegs
}

// Decode parses stored bytes and normalizes them.
func Decode(data []byte) (models.AppState, Variant) {
	return DecodeAt(data, time.Now())
}

// DecodeAt is Decode with an explicit clock.
func DecodeAt(data []byte, now time.Time) (models.AppState, Variant) {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return NormalizeAt(nil, now), VariantEmpty
	}
	return DecodeValue(raw, now)
}

// DecodeValue classifies an already decoded JSON value and normalizes it.
func DecodeValue(raw interface{}, now time.Time) (models.AppState, Variant) {
	if _, ok := raw.(map[string]interface{}); !ok {
		return NormalizeAt(nil, now), VariantEmpty
	}

	switch {
	case IsFlatLegacy(raw):
		return NormalizeAt(MigrateLegacy(raw), now), VariantLegacyTrips
	case IsLegacyLegs(raw):
		return NormalizeAt(raw, now), VariantLegacyLegs
	default:
		return NormalizeAt(raw, now), VariantCurrent
	}
}
