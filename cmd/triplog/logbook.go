package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/TheMichaelB/triplog/internal/coerce"
	"github.com/TheMichaelB/triplog/internal/models"
)

var fuelCmd = &cobra.Command{
	Use:   "fuel",
	Short: "Record refuellings of the selected vehicle",
}

var fuelListCmd = &cobra.Command{
	Use:   "list",
	Short: "List fuel entries",
	RunE:  runFuelList,
}

var fuelAddCmd = &cobra.Command{
	Use:     "add",
	Short:   "Add a fuel entry",
	Example: `  triplog fuel add --liters 42.5 --cost 71.30 --odometer 12480 --full --station Aral`,
	RunE:    runFuelSave,
}

var fuelEditCmd = &cobra.Command{
	Use:   "edit <entry-id>",
	Short: "Edit a fuel entry",
	Args:  cobra.ExactArgs(1),
	RunE:  runFuelSave,
}

var fuelDeleteCmd = &cobra.Command{
	Use:     "delete <entry-id>",
	Aliases: []string{"rm"},
	Short:   "Delete a fuel entry",
	Args:    cobra.ExactArgs(1),
	RunE:    runFuelDelete,
}

var washCmd = &cobra.Command{
	Use:   "wash",
	Short: "Record car washes of the selected vehicle",
}

var washListCmd = &cobra.Command{
	Use:   "list",
	Short: "List wash entries",
	RunE:  runWashList,
}

var washAddCmd = &cobra.Command{
	Use:     "add",
	Short:   "Add a wash entry",
	Example: `  triplog wash add --type "Premium" --location "Car wash Nord" --cost 14.90`,
	RunE:    runWashSave,
}

var washEditCmd = &cobra.Command{
	Use:   "edit <entry-id>",
	Short: "Edit a wash entry",
	Args:  cobra.ExactArgs(1),
	RunE:  runWashSave,
}

var washDeleteCmd = &cobra.Command{
	Use:     "delete <entry-id>",
	Aliases: []string{"rm"},
	Short:   "Delete a wash entry",
	Args:    cobra.ExactArgs(1),
	RunE:    runWashDelete,
}

var (
	entryDate string
	entryNote string

	fuelOdometer string
	fuelLiters   float64
	fuelCost     float64
	fuelCurrency string
	fuelFull     bool
	fuelStation  string

	washType     string
	washLocation string
	washCost     float64
)

func init() {
	rootCmd.AddCommand(fuelCmd, washCmd)
	fuelCmd.AddCommand(fuelListCmd, fuelAddCmd, fuelEditCmd, fuelDeleteCmd)
	washCmd.AddCommand(washListCmd, washAddCmd, washEditCmd, washDeleteCmd)

	for _, cmd := range []*cobra.Command{fuelAddCmd, fuelEditCmd} {
		cmd.Flags().StringVar(&entryDate, "date", "", "Date YYYY-MM-DD (default today)")
		cmd.Flags().StringVar(&fuelOdometer, "odometer", "", "Odometer reading")
		cmd.Flags().Float64Var(&fuelLiters, "liters", 0, "Liters filled")
		cmd.Flags().Float64Var(&fuelCost, "cost", 0, "Total cost")
		cmd.Flags().StringVar(&fuelCurrency, "currency", "", "ISO currency code (default from config)")
		cmd.Flags().BoolVar(&fuelFull, "full", false, "Tank filled completely")
		cmd.Flags().StringVar(&fuelStation, "station", "", "Fuel station")
		cmd.Flags().StringVar(&entryNote, "notes", "", "Notes")
	}
	for _, cmd := range []*cobra.Command{washAddCmd, washEditCmd} {
		cmd.Flags().StringVar(&entryDate, "date", "", "Date YYYY-MM-DD (default today)")
		cmd.Flags().StringVar(&washType, "type", "", "Wash programme")
		cmd.Flags().StringVar(&washLocation, "location", "", "Location")
		cmd.Flags().Float64Var(&washCost, "cost", 0, "Cost")
		cmd.Flags().StringVar(&entryNote, "note", "", "Note")
	}
}

func requireVehicle() (models.AppState, error) {
	st := appClient.Session.State()
	if _, ok := st.ActiveVehicle(); !ok {
		return st, models.NewValidationError(models.ErrCodeNoVehicle, "", models.ErrNoVehicle)
	}
	return st, nil
}

func fuelIDs(list []models.FuelEntry) []string {
	ids := make([]string, 0, len(list))
	for _, e := range list {
		ids = append(ids, e.ID)
	}
	return ids
}

func washIDs(list []models.WashEntry) []string {
	ids := make([]string, 0, len(list))
	for _, e := range list {
		ids = append(ids, e.ID)
	}
	return ids
}

func runFuelList(cmd *cobra.Command, args []string) error {
	st, err := requireVehicle()
	if err != nil {
		return err
	}
	list := st.FuelByVehicle.Get(st.ActiveVehicleID)

	if jsonOutput {
		printJSON(map[string]interface{}{"fuel": list})
		return nil
	}
	if len(list) == 0 {
		printInfo("No fuel entries")
		return nil
	}

	f := appClient.Formatter()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATE\tLITERS\tCOST\tPER LITER\tODOMETER\tFULL\tSTATION")
	for _, e := range list {
		full := ""
		if e.FullTank {
			full = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			shortID(e.ID), e.Date, f.Liters(e.Liters),
			f.Money(e.TotalCost, e.Currency), f.Money(e.PricePerLiter(), e.Currency),
			odometerText(e.Odometer), dash(full), dash(e.Station))
	}
	return w.Flush()
}

func runFuelSave(cmd *cobra.Command, args []string) error {
	st, err := requireVehicle()
	if err != nil {
		return err
	}

	e := models.FuelEntry{Currency: cfg.Report.BaseCurrency}
	if len(args) == 1 {
		list := st.FuelByVehicle.Get(st.ActiveVehicleID)
		id, err := resolveID("fuel entry", args[0], fuelIDs(list))
		if err != nil {
			return err
		}
		for _, existing := range list {
			if existing.ID == id {
				e = existing
			}
		}
	}

	flags := cmd.Flags()
	if flags.Changed("date") {
		e.Date = entryDate
	}
	if flags.Changed("odometer") {
		e.Odometer = coerce.OptionalNumber(fuelOdometer)
		if e.Odometer == nil && fuelOdometer != "" {
			return models.NewValidationError(models.ErrCodeInvalid, "odometer", models.ErrInvalidNumber)
		}
	}
	if flags.Changed("liters") {
		e.Liters = fuelLiters
	}
	if flags.Changed("cost") {
		e.TotalCost = fuelCost
	}
	if flags.Changed("currency") {
		e.Currency = fuelCurrency
	}
	if flags.Changed("full") {
		e.FullTank = fuelFull
	}
	if flags.Changed("station") {
		e.Station = fuelStation
	}
	if flags.Changed("notes") {
		e.Notes = entryNote
	}

	if e.ID != "" {
		if err := appClient.Session.UpdateFuel(e); err != nil {
			return err
		}
		return reportOK("Fuel entry updated")
	}

	saved, err := appClient.Session.AddFuel(e)
	if err != nil {
		return err
	}
	if jsonOutput {
		printJSON(map[string]interface{}{"success": true, "fuel": saved})
		return nil
	}
	f := appClient.Formatter()
	printSuccess("Added %s for %s on %s", f.Liters(saved.Liters), f.Money(saved.TotalCost, saved.Currency), saved.Date)
	return nil
}

func runFuelDelete(cmd *cobra.Command, args []string) error {
	st, err := requireVehicle()
	if err != nil {
		return err
	}
	id, err := resolveID("fuel entry", args[0], fuelIDs(st.FuelByVehicle.Get(st.ActiveVehicleID)))
	if err != nil {
		return err
	}
	if err := appClient.Session.DeleteFuel(id); err != nil {
		return err
	}
	return reportOK("Fuel entry deleted")
}

func runWashList(cmd *cobra.Command, args []string) error {
	st, err := requireVehicle()
	if err != nil {
		return err
	}
	list := st.WashByVehicle.Get(st.ActiveVehicleID)

	if jsonOutput {
		printJSON(map[string]interface{}{"wash": list})
		return nil
	}
	if len(list) == 0 {
		printInfo("No wash entries")
		return nil
	}

	f := appClient.Formatter()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATE\tTYPE\tLOCATION\tCOST")
	for _, e := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			shortID(e.ID), e.Date, dash(e.Type), dash(e.Location),
			f.Money(e.Cost, cfg.Report.BaseCurrency))
	}
	return w.Flush()
}

func runWashSave(cmd *cobra.Command, args []string) error {
	st, err := requireVehicle()
	if err != nil {
		return err
	}

	var e models.WashEntry
	if len(args) == 1 {
		list := st.WashByVehicle.Get(st.ActiveVehicleID)
		id, err := resolveID("wash entry", args[0], washIDs(list))
		if err != nil {
			return err
		}
		for _, existing := range list {
			if existing.ID == id {
				e = existing
			}
		}
	}

	flags := cmd.Flags()
	if flags.Changed("date") {
		e.Date = entryDate
	}
	if flags.Changed("type") {
		e.Type = washType
	}
	if flags.Changed("location") {
		e.Location = washLocation
	}
	if flags.Changed("cost") {
		e.Cost = washCost
	}
	if flags.Changed("note") {
		e.Note = entryNote
	}

	if e.ID != "" {
		if err := appClient.Session.UpdateWash(e); err != nil {
			return err
		}
		return reportOK("Wash entry updated")
	}

	saved, err := appClient.Session.AddWash(e)
	if err != nil {
		return err
	}
	if jsonOutput {
		printJSON(map[string]interface{}{"success": true, "wash": saved})
		return nil
	}
	printSuccess("Added wash on %s", saved.Date)
	return nil
}

func runWashDelete(cmd *cobra.Command, args []string) error {
	st, err := requireVehicle()
	if err != nil {
		return err
	}
	id, err := resolveID("wash entry", args[0], washIDs(st.WashByVehicle.Get(st.ActiveVehicleID)))
	if err != nil {
		return err
	}
	if err := appClient.Session.DeleteWash(id); err != nil {
		return err
	}
	return reportOK("Wash entry deleted")
}
