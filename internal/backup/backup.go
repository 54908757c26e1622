// Package backup writes and reads the full export document: the
// application state together with the owner profile.
package backup

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/TheMichaelB/triplog/internal/models"
	"github.com/TheMichaelB/triplog/internal/normalize"
)

// FormatVersion is written into every export.
const FormatVersion = 2

// ErrInvalidFile is returned when an import is not a JSON object.
var ErrInvalidFile = errors.New("invalid backup file")

// Meta identifies the producer of an export.
type Meta struct {
	AppID      string `json:"appId"`
	Version    int    `json:"version"`
	StorageKey string `json:"storageKey"`
}

// Envelope is the export document.
type Envelope struct {
	ExportedAt time.Time       `json:"exportedAt"`
	Profile    models.Profile  `json:"profile"`
	Data       models.AppState `json:"data"`
	Meta       Meta            `json:"meta"`
}

// Export builds the envelope for the current state.
func Export(s models.AppState, profile models.Profile, meta Meta, now time.Time) Envelope {
	if meta.Version == 0 {
		meta.Version = FormatVersion
	}
	return Envelope{
		ExportedAt: now.UTC().Round(0),
		Profile:    profile,
		Data:       s.Clone(),
		Meta:       meta,
	}
}

// Write encodes the envelope as indented JSON.
func (e Envelope) Write(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(e); err != nil {
		return fmt.Errorf("encode backup: %w", err)
	}
	return nil
}

// Imported is the result of reading a backup.
type Imported struct {
	State   models.AppState
	Variant normalize.Variant
	// Profile is set only when the file was an envelope carrying one.
	Profile *models.Profile
	Meta    *Meta
}

// Import reads an export envelope or a bare state document. Either way the
// data passes through migration and normalization, so any JSON object yields
// a valid state. Input that is not a JSON object fails with ErrInvalidFile.
func Import(data []byte, now time.Time) (Imported, error) {
	var raw interface{}
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&raw); err != nil {
		return Imported{}, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}
	doc, ok := raw.(map[string]interface{})
	if !ok {
		return Imported{}, fmt.Errorf("%w: top level is not an object", ErrInvalidFile)
	}

	var out Imported
	payload := interface{}(doc)
	if inner, isEnvelope := doc["data"].(map[string]interface{}); isEnvelope {
		payload = inner
		out.Profile = decodeProfile(doc["profile"])
		out.Meta = decodeMeta(doc["meta"])
	}

	out.State, out.Variant = normalize.DecodeValue(payload, now)
	return out, nil
}

// ReadFrom imports from a reader.
func ReadFrom(r io.Reader, now time.Time) (Imported, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Imported{}, fmt.Errorf("read backup: %w", err)
	}
	return Import(data, now)
}

func decodeProfile(v interface{}) *models.Profile {
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil
	}
	var p models.Profile
	if !remarshal(m, &p) {
		return nil
	}
	return &p
}

func decodeMeta(v interface{}) *Meta {
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil
	}
	var meta Meta
	if !remarshal(m, &meta) {
		return nil
	}
	return &meta
}

func remarshal(src map[string]interface{}, dst interface{}) bool {
	data, err := json.Marshal(src)
	if err != nil {
		return false
	}
	return json.Unmarshal(data, dst) == nil
}
