// Package report renders range reports as CSV, JSON, plain text and a
// composed mail message.
package report

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/TheMichaelB/triplog/internal/aggregate"
)

// CSVHeader is the column row of the leg export.
var CSVHeader = []string{
	"Date", "Trip Title", "Start Place", "End Place", "Start Time",
	"End Time", "Distance (km)", "Odo Start", "Odo End", "Notes",
}

// WriteCSV writes one row per leg of the report's trips. Every field is
// quoted so that spreadsheet tools never guess a type.
func WriteCSV(w io.Writer, r aggregate.RangeReport) error {
	if err := writeRow(w, CSVHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, trip := range r.Trips {
		for _, leg := range trip.Legs {
			row := []string{
				trip.StartDate,
				trip.Title,
				leg.StartPlace,
				leg.EndPlace,
				leg.StartTime,
				leg.EndTime,
				formatFloat(&leg.KM),
				formatFloat(leg.OdoStart),
				formatFloat(leg.OdoEnd),
				leg.Note,
			}
			if err := writeRow(w, row); err != nil {
				return fmt.Errorf("write csv row for leg %s: %w", leg.ID, err)
			}
		}
	}
	return nil
}

// CSV returns the leg export as bytes.
func CSV(r aggregate.RangeReport) []byte {
	var buf bytes.Buffer
	// Writes to a bytes.Buffer cannot fail.
	_ = WriteCSV(&buf, r)
	return buf.Bytes()
}

func writeRow(w io.Writer, fields []string) error {
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
	}
	_, err := io.WriteString(w, strings.Join(quoted, ",")+"\r\n")
	return err
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
