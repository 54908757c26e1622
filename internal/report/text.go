package report

import (
	"fmt"
	"strings"

	"github.com/TheMichaelB/triplog/internal/aggregate"
	"github.com/TheMichaelB/triplog/internal/models"
	"github.com/TheMichaelB/triplog/internal/money"
)

// Summary renders the range totals as plain text, used as mail body and
// clipboard content.
func Summary(r aggregate.RangeReport, vehicle models.Vehicle, f *money.Formatter) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s", vehicle.DisplayName())
	if vehicle.Plate != "" && vehicle.Plate != vehicle.DisplayName() {
		fmt.Fprintf(&b, " (%s)", vehicle.Plate)
	}
	fmt.Fprintf(&b, "\n%s to %s\n\n", r.Start, r.End)

	writeTotals(&b, r.Totals, f)

	if len(r.Trips) > 0 {
		b.WriteString("\nTrips\n")
		for _, trip := range r.Trips {
			fmt.Fprintf(&b, "  %s  %s  %s, %d legs\n",
				trip.StartDate, trip.Title, f.Distance(trip.Distance()), len(trip.Legs))
		}
	}

	return b.String()
}

// MonthText renders a month summary as plain text.
func MonthText(m aggregate.MonthSummary, vehicle models.Vehicle, f *money.Formatter) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s, %s\n\n", vehicle.DisplayName(), m.Month)
	writeTotals(&b, m.Totals, f)

	for _, trip := range m.Trips {
		fmt.Fprintf(&b, "\n%s  %s  %s\n", trip.StartDate, trip.Title, f.Distance(trip.Distance()))
		for _, leg := range trip.Legs {
			fmt.Fprintf(&b, "    %s %s -> %s %s  %s\n",
				leg.StartTime, leg.StartPlace, leg.EndTime, leg.EndPlace, f.Distance(leg.KM))
		}
	}

	return b.String()
}

func writeTotals(b *strings.Builder, t aggregate.Totals, f *money.Formatter) {
	fmt.Fprintf(b, "Distance:   %s\n", f.Distance(t.Distance))
	fmt.Fprintf(b, "Trips:      %d (%d legs)\n", t.TripCount, t.LegCount)
	fmt.Fprintf(b, "Fuel:       %s, %s\n", f.Liters(t.Liters), f.Money(t.Spend, t.Currency))
	fmt.Fprintf(b, "Per liter:  %s\n", f.Money(t.AvgPerLiter, t.Currency))
	fmt.Fprintf(b, "Washes:     %d, %s\n", t.WashCount, f.Money(t.WashSpend, t.Currency))
}
