package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/TheMichaelB/triplog/internal/models"
	"github.com/TheMichaelB/triplog/internal/money"
	"github.com/TheMichaelB/triplog/internal/workflow"
)

var tripCmd = &cobra.Command{
	Use:   "trip",
	Short: "Start, edit and finish trips of the selected vehicle",
}

var tripStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start a trip",
	Example: `  triplog trip start --title "Client visit" --purpose business --tags work,munich
  triplog trip start --template commute`,
	RunE: runTripStart,
}

var tripShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the active trip",
	RunE:  runTripShow,
}

var tripEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit the header of the active trip",
	RunE:  runTripEdit,
}

var tripEndCmd = &cobra.Command{
	Use:   "end",
	Short: "Finish the active trip and move it to the history",
	RunE:  runTripEnd,
}

var tripCancelCmd = &cobra.Command{
	Use:   "cancel",
	Short: "Discard the active trip",
	RunE:  runTripCancel,
}

var tripHistoryCmd = &cobra.Command{
	Use:     "history",
	Aliases: []string{"list"},
	Short:   "List finished trips",
	RunE:    runTripHistory,
}

var tripHistoryShowCmd = &cobra.Command{
	Use:   "show <trip-id>",
	Short: "Show a finished trip",
	Args:  cobra.ExactArgs(1),
	RunE:  runTripHistoryShow,
}

var tripHistoryEditCmd = &cobra.Command{
	Use:   "edit <trip-id>",
	Short: "Edit the header of a finished trip",
	Args:  cobra.ExactArgs(1),
	RunE:  runTripHistoryEdit,
}

var tripHistoryDeleteCmd = &cobra.Command{
	Use:   "delete <trip-id>",
	Short: "Delete a finished trip",
	Args:  cobra.ExactArgs(1),
	RunE:  runTripHistoryDelete,
}

var (
	tripTitle      string
	tripPurpose    string
	tripDate       string
	tripTags       string
	tripTitleTag   string
	tripPurposeTag string
	tripNotes      string
	tripTemplate   string
	tripYes        bool
)

func init() {
	rootCmd.AddCommand(tripCmd)
	tripCmd.AddCommand(tripStartCmd, tripShowCmd, tripEditCmd, tripEndCmd, tripCancelCmd, tripHistoryCmd)
	tripHistoryCmd.AddCommand(tripHistoryShowCmd, tripHistoryEditCmd, tripHistoryDeleteCmd)

	for _, cmd := range []*cobra.Command{tripStartCmd, tripEditCmd, tripHistoryEditCmd} {
		cmd.Flags().StringVarP(&tripTitle, "title", "t", "", "Trip title")
		cmd.Flags().StringVar(&tripPurpose, "purpose", "", "Purpose of the trip")
		cmd.Flags().StringVar(&tripDate, "date", "", "Start date YYYY-MM-DD (default today)")
		cmd.Flags().StringVar(&tripTags, "tags", "", "Comma separated tags")
		cmd.Flags().StringVar(&tripTitleTag, "title-tag", "", "Tag describing the title")
		cmd.Flags().StringVar(&tripPurposeTag, "purpose-tag", "", "Tag describing the purpose")
		cmd.Flags().StringVar(&tripNotes, "notes", "", "Free text notes")
	}
	tripStartCmd.Flags().StringVar(&tripTemplate, "template", "", "Prefill from a trip template (id or name)")
	tripCancelCmd.Flags().BoolVarP(&tripYes, "yes", "y", false, "Do not ask for confirmation")
	tripHistoryDeleteCmd.Flags().BoolVarP(&tripYes, "yes", "y", false, "Do not ask for confirmation")
}

// tripInputFrom overlays the changed header flags on base.
func tripInputFrom(cmd *cobra.Command, base workflow.TripInput) workflow.TripInput {
	flags := cmd.Flags()
	if flags.Changed("title") {
		base.Title = tripTitle
	}
	if flags.Changed("purpose") {
		base.Purpose = tripPurpose
	}
	if flags.Changed("date") {
		base.StartDate = tripDate
	}
	if flags.Changed("tags") {
		base.Tags = splitTags(tripTags)
	}
	if flags.Changed("title-tag") {
		base.TitleTag = tripTitleTag
	}
	if flags.Changed("purpose-tag") {
		base.PurposeTag = tripPurposeTag
	}
	if flags.Changed("notes") {
		base.Notes = tripNotes
	}
	return base
}

func inputFromTrip(t models.Trip) workflow.TripInput {
	return workflow.TripInput{
		Title:      t.Title,
		Purpose:    t.Purpose,
		StartDate:  t.StartDate,
		Tags:       t.Tags,
		TitleTag:   t.TitleTag,
		PurposeTag: t.PurposeTag,
		Notes:      t.Notes,
	}
}

func runTripStart(cmd *cobra.Command, args []string) error {
	var in workflow.TripInput
	if tripTemplate != "" {
		tpl, ok := workflow.FindTemplate(appClient.Session.State(), tripTemplate)
		if !ok {
			return &models.NotFoundError{Kind: "template", ID: tripTemplate}
		}
		var err error
		if in, err = workflow.ApplyTripTemplate(in, tpl); err != nil {
			return err
		}
	}
	in = tripInputFrom(cmd, in)

	if err := appClient.Session.StartTrip(in); err != nil {
		return err
	}

	trip := appClient.Session.State().ActiveTrip()
	if jsonOutput {
		printJSON(map[string]interface{}{"success": true, "trip": trip})
		return nil
	}
	printSuccess("Started %q on %s", trip.Title, trip.StartDate)
	return nil
}

func runTripShow(cmd *cobra.Command, args []string) error {
	st := appClient.Session.State()
	trip := st.ActiveTrip()

	if jsonOutput {
		printJSON(map[string]interface{}{"trip": trip})
		return nil
	}
	if _, ok := st.ActiveVehicle(); !ok {
		return models.NewValidationError(models.ErrCodeNoVehicle, "", models.ErrNoVehicle)
	}
	if trip == nil {
		printInfo("No active trip. Start one with: triplog trip start --title <title>")
		return nil
	}

	printTrip(*trip, appClient.Formatter())
	if trip.Draft != nil {
		printWarning("Unsaved leg draft: %s -> %s (save with: triplog leg add)",
			dash(trip.Draft.StartPlace), dash(trip.Draft.EndPlace))
	}
	return nil
}

func runTripEdit(cmd *cobra.Command, args []string) error {
	trip := appClient.Session.State().ActiveTrip()
	if trip == nil {
		return models.NewValidationError(models.ErrCodeNoActiveTrip, "", models.ErrNoActiveTrip)
	}

	in := tripInputFrom(cmd, inputFromTrip(*trip))
	if err := appClient.Session.UpdateActiveTrip(in); err != nil {
		return err
	}
	return reportOK("Trip updated")
}

func runTripEnd(cmd *cobra.Command, args []string) error {
	trip := appClient.Session.State().ActiveTrip()
	if trip == nil {
		return models.NewValidationError(models.ErrCodeNoActiveTrip, "", models.ErrNoActiveTrip)
	}
	finished := *trip

	if err := appClient.Session.EndTrip(); err != nil {
		return err
	}

	if jsonOutput {
		printJSON(map[string]interface{}{"success": true, "tripId": finished.ID})
		return nil
	}
	f := appClient.Formatter()
	printSuccess("Finished %q: %d legs, %s", finished.Title, len(finished.Legs), f.Distance(finished.Distance()))
	return nil
}

func runTripCancel(cmd *cobra.Command, args []string) error {
	trip := appClient.Session.State().ActiveTrip()
	if trip == nil {
		return models.NewValidationError(models.ErrCodeNoActiveTrip, "", models.ErrNoActiveTrip)
	}

	ok, err := confirm(fmt.Sprintf("Discard %q with %d legs?", trip.Title, len(trip.Legs)), tripYes)
	if err != nil {
		return err
	}
	if !ok {
		printInfo("Trip kept")
		return nil
	}

	if err := appClient.Session.CancelTrip(); err != nil {
		return err
	}
	return reportOK("Trip discarded")
}

func runTripHistory(cmd *cobra.Command, args []string) error {
	st := appClient.Session.State()
	if _, ok := st.ActiveVehicle(); !ok {
		return models.NewValidationError(models.ErrCodeNoVehicle, "", models.ErrNoVehicle)
	}
	trips := st.TripsByVehicle.Get(st.ActiveVehicleID)

	if jsonOutput {
		printJSON(map[string]interface{}{"trips": trips})
		return nil
	}
	if len(trips) == 0 {
		printInfo("No finished trips")
		return nil
	}

	f := appClient.Formatter()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATE\tTITLE\tPURPOSE\tLEGS\tDISTANCE")
	for _, t := range trips {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
			shortID(t.ID), t.StartDate, t.Title, dash(t.Purpose), len(t.Legs), f.Distance(t.Distance()))
	}
	return w.Flush()
}

// historyTrip resolves a finished trip of the selected vehicle.
func historyTrip(ref string) (models.Trip, error) {
	st := appClient.Session.State()
	if _, ok := st.ActiveVehicle(); !ok {
		return models.Trip{}, models.NewValidationError(models.ErrCodeNoVehicle, "", models.ErrNoVehicle)
	}
	id, err := resolveID("trip", ref, tripIDs(st.TripsByVehicle.Get(st.ActiveVehicleID)))
	if err != nil {
		return models.Trip{}, err
	}
	trip, _ := workflow.FindTrip(st, id)
	return trip, nil
}

func runTripHistoryShow(cmd *cobra.Command, args []string) error {
	trip, err := historyTrip(args[0])
	if err != nil {
		return err
	}
	if jsonOutput {
		printJSON(map[string]interface{}{"trip": trip})
		return nil
	}
	printTrip(trip, appClient.Formatter())
	return nil
}

func runTripHistoryEdit(cmd *cobra.Command, args []string) error {
	trip, err := historyTrip(args[0])
	if err != nil {
		return err
	}
	in := tripInputFrom(cmd, inputFromTrip(trip))
	if err := appClient.Session.UpdateHistoryTrip(trip.ID, in); err != nil {
		return err
	}
	return reportOK("Trip updated")
}

func runTripHistoryDelete(cmd *cobra.Command, args []string) error {
	trip, err := historyTrip(args[0])
	if err != nil {
		return err
	}
	ok, err := confirm(fmt.Sprintf("Delete %q from %s?", trip.Title, trip.StartDate), tripYes)
	if err != nil {
		return err
	}
	if !ok {
		printInfo("Trip kept")
		return nil
	}
	if err := appClient.Session.DeleteHistoryTrip(trip.ID); err != nil {
		return err
	}
	return reportOK("Trip deleted")
}

func printTrip(t models.Trip, f *money.Formatter) {
	printHeader("%s  %s", t.StartDate, t.Title)
	if t.Purpose != "" {
		fmt.Printf("Purpose:  %s\n", t.Purpose)
	}
	if len(t.Tags) > 0 {
		fmt.Printf("Tags:     %s\n", strings.Join(t.Tags, ", "))
	}
	if t.Notes != "" {
		fmt.Printf("Notes:    %s\n", t.Notes)
	}
	fmt.Printf("Distance: %s in %d legs\n\n", f.Distance(t.Distance()), len(t.Legs))

	if len(t.Legs) == 0 {
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tFROM\tTO\tODOMETER\tKM\tNOTE")
	for _, leg := range t.Legs {
		fmt.Fprintf(w, "%s\t%s %s\t%s %s\t%s-%s\t%s\t%s\n",
			shortID(leg.ID),
			dash(leg.StartTime), dash(leg.StartPlace),
			dash(leg.EndTime), dash(leg.EndPlace),
			odometerText(leg.OdoStart), odometerText(leg.OdoEnd),
			f.Number(leg.KM, 1), dash(leg.Note))
	}
	w.Flush()
}

func odometerText(v *float64) string {
	if v == nil {
		return "?"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// reportOK prints a plain confirmation or the JSON success marker.
func reportOK(msg string) error {
	if jsonOutput {
		printJSON(map[string]interface{}{"success": true, "message": msg})
		return nil
	}
	printSuccess("%s", msg)
	return nil
}
