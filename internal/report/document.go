package report

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/TheMichaelB/triplog/internal/aggregate"
	"github.com/TheMichaelB/triplog/internal/models"
)

// Span is the inclusive date range of a report.
type Span struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// VehicleRef identifies the vehicle in an exported report.
type VehicleRef struct {
	Name  string `json:"name"`
	Plate string `json:"plate"`
}

// Document is the JSON form of a range report.
type Document struct {
	Range      Span               `json:"range"`
	ExportedAt time.Time          `json:"exportedAt"`
	Vehicle    VehicleRef         `json:"vehicle"`
	Trips      []models.Trip      `json:"trips"`
	Fuel       []models.FuelEntry `json:"fuel"`
}

// NewDocument builds the export document for r.
func NewDocument(r aggregate.RangeReport, vehicle models.Vehicle, now time.Time) Document {
	return Document{
		Range:      Span{Start: r.Start, End: r.End},
		ExportedAt: now.UTC().Round(0),
		Vehicle:    VehicleRef{Name: vehicle.DisplayName(), Plate: vehicle.Plate},
		Trips:      r.Trips,
		Fuel:       r.Fuel,
	}
}

// WriteJSON writes the document with indentation.
func (d Document) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}

// FileBase returns the file name stem used for exported reports.
func FileBase(r aggregate.RangeReport) string {
	return fmt.Sprintf("trips_%s_%s", r.Start, r.End)
}
