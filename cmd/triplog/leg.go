package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/TheMichaelB/triplog/internal/geocode"
	"github.com/TheMichaelB/triplog/internal/models"
	"github.com/TheMichaelB/triplog/internal/workflow"
)

var legCmd = &cobra.Command{
	Use:   "leg",
	Short: "Record and edit legs",
	Long: `A leg is one point-to-point movement bounded by odometer readings.
New legs continue from the end of the previous leg unless a draft is saved.`,
}

var legAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a leg to the active trip",
	Example: `  triplog leg add --to "Customer HQ" --odo-end 12480
  triplog leg add --duplicate --swap --odo-end 12530
  triplog leg add --template office --odo-end 12600`,
	RunE: runLegAdd,
}

var legNextCmd = &cobra.Command{
	Use:   "next",
	Short: "Show the prefilled form for the next leg",
	RunE:  runLegNext,
}

var legDraftCmd = &cobra.Command{
	Use:   "draft",
	Short: "Save the leg form as a draft without committing it",
	RunE:  runLegDraft,
}

var legEditCmd = &cobra.Command{
	Use:   "edit <leg-id>",
	Short: "Edit a leg of the active trip, or of a finished trip with --trip",
	Args:  cobra.ExactArgs(1),
	RunE:  runLegEdit,
}

var legRemoveCmd = &cobra.Command{
	Use:     "remove <leg-id>",
	Aliases: []string{"rm", "delete"},
	Short:   "Remove a leg of the active trip, or of a finished trip with --trip",
	Args:    cobra.ExactArgs(1),
	RunE:    runLegRemove,
}

var (
	legFrom       string
	legFromTag    string
	legStartTime  string
	legOdoStart   string
	legTo         string
	legToTag      string
	legEndTime    string
	legOdoEnd     string
	legNote       string
	legFromCoords string
	legToCoords   string

	legDuplicate    bool
	legSwap         bool
	legTemplate     string
	legSaveTemplate string
	legTrip         string
	legDiscard      bool
)

func init() {
	rootCmd.AddCommand(legCmd)
	legCmd.AddCommand(legAddCmd, legNextCmd, legDraftCmd, legEditCmd, legRemoveCmd)

	for _, cmd := range []*cobra.Command{legAddCmd, legDraftCmd, legEditCmd} {
		cmd.Flags().StringVar(&legFrom, "from", "", "Start place")
		cmd.Flags().StringVar(&legFromTag, "from-tag", "", "Start place tag")
		cmd.Flags().StringVar(&legStartTime, "start-time", "", "Start time HH:MM")
		cmd.Flags().StringVar(&legOdoStart, "odo-start", "", "Odometer at start")
		cmd.Flags().StringVar(&legTo, "to", "", "End place")
		cmd.Flags().StringVar(&legToTag, "to-tag", "", "End place tag")
		cmd.Flags().StringVar(&legEndTime, "end-time", "", "End time HH:MM")
		cmd.Flags().StringVar(&legOdoEnd, "odo-end", "", "Odometer at end")
		cmd.Flags().StringVar(&legNote, "note", "", "Note")
		cmd.Flags().StringVar(&legFromCoords, "from-coords", "", "Fill the start place from lat,lon")
		cmd.Flags().StringVar(&legToCoords, "to-coords", "", "Fill the end place from lat,lon")
	}
	for _, cmd := range []*cobra.Command{legAddCmd, legDraftCmd} {
		cmd.Flags().BoolVar(&legDuplicate, "duplicate", false, "Copy places and note of the previous leg")
		cmd.Flags().BoolVar(&legSwap, "swap", false, "Swap start and end place")
		cmd.Flags().StringVar(&legTemplate, "template", "", "Prefill from a leg template (id or name)")
	}
	legAddCmd.Flags().StringVar(&legSaveTemplate, "save-template", "", "Also save the places as a leg template with this name")
	legDraftCmd.Flags().BoolVar(&legDiscard, "discard", false, "Drop the saved draft")
	legEditCmd.Flags().StringVar(&legTrip, "trip", "", "Finished trip id")
	legRemoveCmd.Flags().StringVar(&legTrip, "trip", "", "Finished trip id")
}

// applyLegFlags overlays the changed form flags on form.
func applyLegFlags(cmd *cobra.Command, form models.LegForm) models.LegForm {
	flags := cmd.Flags()
	set := func(name string, dst *string, v string) {
		if flags.Changed(name) {
			*dst = v
		}
	}
	set("from", &form.StartPlace, legFrom)
	set("from-tag", &form.StartTag, legFromTag)
	set("start-time", &form.StartTime, legStartTime)
	set("odo-start", &form.OdoStart, legOdoStart)
	set("to", &form.EndPlace, legTo)
	set("to-tag", &form.EndTag, legToTag)
	set("end-time", &form.EndTime, legEndTime)
	set("odo-end", &form.OdoEnd, legOdoEnd)
	set("note", &form.Note, legNote)
	return form
}

// composeLegForm builds the form for a new leg: prefill, then duplicate,
// template, swap and finally the explicit flags.
func composeLegForm(cmd *cobra.Command) (models.LegForm, error) {
	session := appClient.Session
	st := session.State()
	if st.ActiveTrip() == nil {
		return models.LegForm{}, models.NewValidationError(models.ErrCodeNoActiveTrip, "", models.ErrNoActiveTrip)
	}

	form := session.PrepareLegForm()
	if legDuplicate {
		if prev, ok := workflow.PreviousLeg(st); ok {
			form = workflow.DuplicateLast(form, prev, session.Now())
		}
	}
	if legTemplate != "" {
		tpl, ok := workflow.FindTemplate(st, legTemplate)
		if !ok {
			return form, &models.NotFoundError{Kind: "template", ID: legTemplate}
		}
		var err error
		if form, err = workflow.ApplyLegTemplate(form, tpl); err != nil {
			return form, err
		}
	}
	if legSwap {
		form = workflow.SwapPlaces(form)
	}

	form = applyLegFlags(cmd, form)
	fillPlaces(cmd.Context(), &form)
	return form, nil
}

// fillPlaces resolves --from-coords and --to-coords. Lookup failures leave
// the place as it is.
func fillPlaces(ctx context.Context, form *models.LegForm) {
	if ctx == nil {
		ctx = context.Background()
	}
	lookup := func(coords string, dst *string) {
		if coords == "" {
			return
		}
		label, err := reverseLabel(ctx, coords)
		if err != nil {
			logger.WithError(err).WithField("coords", coords).Debug("Place lookup failed")
			if !jsonOutput {
				printWarning("Could not resolve %s: %v", coords, err)
			}
			return
		}
		*dst = label
	}
	lookup(legFromCoords, &form.StartPlace)
	lookup(legToCoords, &form.EndPlace)
}

func reverseLabel(ctx context.Context, coords string) (string, error) {
	lat, lon, err := geocode.ParseCoordinates(coords)
	if err != nil {
		return "", err
	}
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	place, err := appClient.Geocoder.Reverse(ctx, lat, lon)
	if err != nil {
		return "", err
	}
	return place.Label(), nil
}

func runLegAdd(cmd *cobra.Command, args []string) error {
	form, err := composeLegForm(cmd)
	if err != nil {
		return err
	}

	if err := appClient.Session.CommitLeg(form); err != nil {
		return err
	}

	if legSaveTemplate != "" {
		if _, err := appClient.Session.SaveTemplate(workflow.LegTemplate(legSaveTemplate, form)); err != nil {
			return fmt.Errorf("save template: %w", err)
		}
	}

	trip := appClient.Session.State().ActiveTrip()
	leg, _ := trip.LastLeg()
	if jsonOutput {
		printJSON(map[string]interface{}{"success": true, "leg": leg})
		return nil
	}
	f := appClient.Formatter()
	printSuccess("Added %s -> %s, %s (trip total %s)",
		dash(leg.StartPlace), dash(leg.EndPlace), f.Distance(leg.KM), f.Distance(trip.Distance()))
	return nil
}

func runLegNext(cmd *cobra.Command, args []string) error {
	if appClient.Session.State().ActiveTrip() == nil {
		return models.NewValidationError(models.ErrCodeNoActiveTrip, "", models.ErrNoActiveTrip)
	}
	form := appClient.Session.PrepareLegForm()

	if jsonOutput {
		printJSON(map[string]interface{}{"form": form})
		return nil
	}
	printForm(form)
	return nil
}

func runLegDraft(cmd *cobra.Command, args []string) error {
	if legDiscard {
		if err := appClient.Session.DiscardDraft(); err != nil {
			return err
		}
		return reportOK("Draft discarded")
	}

	form, err := composeLegForm(cmd)
	if err != nil {
		return err
	}
	appClient.Session.ScheduleDraft(form)
	appClient.Session.FlushDraft()

	if jsonOutput {
		printJSON(map[string]interface{}{"success": true, "draft": form})
		return nil
	}
	printSuccess("Draft saved")
	printForm(form)
	return nil
}

func runLegEdit(cmd *cobra.Command, args []string) error {
	if legTrip != "" {
		trip, err := historyTrip(legTrip)
		if err != nil {
			return err
		}
		legID, err := resolveID("leg", args[0], legIDs(&trip))
		if err != nil {
			return err
		}
		form := workflow.FormFromLeg(trip.Legs[trip.FindLeg(legID)])
		form = applyLegFlags(cmd, form)
		fillPlaces(cmd.Context(), &form)
		if err := appClient.Session.UpdateHistoryLeg(trip.ID, legID, form); err != nil {
			return err
		}
		return reportOK("Leg updated")
	}

	legID, err := resolveID("leg", args[0], legIDs(appClient.Session.State().ActiveTrip()))
	if err != nil {
		return err
	}
	form, err := appClient.Session.BeginEdit(legID)
	if err != nil {
		return err
	}
	form = applyLegFlags(cmd, form)
	fillPlaces(cmd.Context(), &form)
	if err := appClient.Session.UpdateLeg(legID, form); err != nil {
		return err
	}
	return reportOK("Leg updated")
}

func runLegRemove(cmd *cobra.Command, args []string) error {
	if legTrip != "" {
		trip, err := historyTrip(legTrip)
		if err != nil {
			return err
		}
		legID, err := resolveID("leg", args[0], legIDs(&trip))
		if err != nil {
			return err
		}
		if err := appClient.Session.DeleteHistoryLeg(trip.ID, legID); err != nil {
			return err
		}
		return reportOK("Leg removed")
	}

	trip := appClient.Session.State().ActiveTrip()
	if trip == nil {
		return models.NewValidationError(models.ErrCodeNoActiveTrip, "", models.ErrNoActiveTrip)
	}
	legID, err := resolveID("leg", args[0], legIDs(trip))
	if err != nil {
		return err
	}
	if err := appClient.Session.RemoveLeg(legID); err != nil {
		return err
	}
	return reportOK("Leg removed")
}

func printForm(form models.LegForm) {
	fmt.Printf("From:  %s %s %s\n", dash(form.StartTime), dash(form.StartPlace), tagText(form.StartTag))
	fmt.Printf("To:    %s %s %s\n", dash(form.EndTime), dash(form.EndPlace), tagText(form.EndTag))
	fmt.Printf("Odo:   %s -> %s\n", dash(form.OdoStart), dash(form.OdoEnd))
	if form.Note != "" {
		fmt.Printf("Note:  %s\n", form.Note)
	}
}

func tagText(tag string) string {
	if tag == "" {
		return ""
	}
	return "[" + tag + "]"
}
