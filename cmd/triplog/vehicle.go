package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/TheMichaelB/triplog/internal/models"
)

var vehicleCmd = &cobra.Command{
	Use:     "vehicle",
	Aliases: []string{"vehicles", "v"},
	Short:   "Manage vehicles",
}

var vehicleListCmd = &cobra.Command{
	Use:   "list",
	Short: "List vehicles",
	RunE:  runVehicleList,
}

var vehicleAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a vehicle",
	Example: `  triplog vehicle add --name "Family car" --make Skoda --model Octavia --plate B-XY-123`,
	RunE: runVehicleSave,
}

var vehicleEditCmd = &cobra.Command{
	Use:   "edit <vehicle-id>",
	Short: "Edit a vehicle",
	Args:  cobra.ExactArgs(1),
	RunE:  runVehicleSave,
}

var vehicleSelectCmd = &cobra.Command{
	Use:   "select <vehicle-id>",
	Short: "Select the vehicle other commands work on",
	Args:  cobra.ExactArgs(1),
	RunE:  runVehicleSelect,
}

var vehicleDeleteCmd = &cobra.Command{
	Use:   "delete <vehicle-id>",
	Short: "Delete a vehicle with its trips, fuel and wash entries",
	Args:  cobra.ExactArgs(1),
	RunE:  runVehicleDelete,
}

var (
	vehicleName  string
	vehicleMake  string
	vehicleModel string
	vehiclePlate string
	vehicleVIN   string
	vehicleNotes string
	vehicleYes   bool
)

func init() {
	rootCmd.AddCommand(vehicleCmd)
	vehicleCmd.AddCommand(vehicleListCmd, vehicleAddCmd, vehicleEditCmd, vehicleSelectCmd, vehicleDeleteCmd)

	for _, cmd := range []*cobra.Command{vehicleAddCmd, vehicleEditCmd} {
		cmd.Flags().StringVar(&vehicleName, "name", "", "Display name")
		cmd.Flags().StringVar(&vehicleMake, "make", "", "Manufacturer")
		cmd.Flags().StringVar(&vehicleModel, "model", "", "Model")
		cmd.Flags().StringVar(&vehiclePlate, "plate", "", "License plate")
		cmd.Flags().StringVar(&vehicleVIN, "vin", "", "Vehicle identification number")
		cmd.Flags().StringVar(&vehicleNotes, "notes", "", "Free text notes")
	}
	vehicleDeleteCmd.Flags().BoolVarP(&vehicleYes, "yes", "y", false, "Do not ask for confirmation")
}

func runVehicleList(cmd *cobra.Command, args []string) error {
	st := appClient.Session.State()

	if jsonOutput {
		printJSON(map[string]interface{}{
			"vehicles":        st.Vehicles,
			"activeVehicleId": st.ActiveVehicleID,
		})
		return nil
	}

	if len(st.Vehicles) == 0 {
		printInfo("No vehicles yet. Add one with: triplog vehicle add --name <name>")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "\tID\tNAME\tMAKE/MODEL\tPLATE\tTRIPS")
	for _, v := range st.Vehicles {
		marker := ""
		if v.ID == st.ActiveVehicleID {
			marker = "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\n",
			marker, shortID(v.ID), v.DisplayName(),
			dash(v.Make+" "+v.Model), dash(v.Plate),
			len(st.TripsByVehicle.Get(v.ID)))
	}
	return w.Flush()
}

func runVehicleSave(cmd *cobra.Command, args []string) error {
	var v models.Vehicle
	if len(args) == 1 {
		st := appClient.Session.State()
		id, err := resolveID("vehicle", args[0], vehicleIDs(st))
		if err != nil {
			return err
		}
		v, _ = st.Vehicle(id)
	}

	flags := cmd.Flags()
	if flags.Changed("name") {
		v.Name = vehicleName
	}
	if flags.Changed("make") {
		v.Make = vehicleMake
	}
	if flags.Changed("model") {
		v.Model = vehicleModel
	}
	if flags.Changed("plate") {
		v.Plate = vehiclePlate
	}
	if flags.Changed("vin") {
		v.VIN = vehicleVIN
	}
	if flags.Changed("notes") {
		v.Notes = vehicleNotes
	}

	saved, err := appClient.Session.SaveVehicle(v)
	if err != nil {
		return err
	}

	if jsonOutput {
		printJSON(map[string]interface{}{"success": true, "vehicle": saved})
		return nil
	}
	printSuccess("Saved %s (%s)", saved.DisplayName(), shortID(saved.ID))
	return nil
}

func runVehicleSelect(cmd *cobra.Command, args []string) error {
	id, err := resolveID("vehicle", args[0], vehicleIDs(appClient.Session.State()))
	if err != nil {
		return err
	}
	if err := appClient.Session.SelectVehicle(id); err != nil {
		return err
	}

	v, _ := appClient.Session.State().Vehicle(id)
	if jsonOutput {
		printJSON(map[string]interface{}{"success": true, "activeVehicleId": id})
		return nil
	}
	printSuccess("Selected %s", v.DisplayName())
	return nil
}

func runVehicleDelete(cmd *cobra.Command, args []string) error {
	st := appClient.Session.State()
	id, err := resolveID("vehicle", args[0], vehicleIDs(st))
	if err != nil {
		return err
	}
	v, _ := st.Vehicle(id)

	question := fmt.Sprintf("Delete %s with %d trips, %d fuel and %d wash entries?",
		v.DisplayName(),
		len(st.TripsByVehicle.Get(id)),
		len(st.FuelByVehicle.Get(id)),
		len(st.WashByVehicle.Get(id)))
	ok, err := confirm(question, vehicleYes)
	if err != nil {
		return err
	}
	if !ok {
		printInfo("Kept %s", v.DisplayName())
		return nil
	}

	if err := appClient.Session.DeleteVehicle(id); err != nil {
		return err
	}
	if jsonOutput {
		printJSON(map[string]interface{}{"success": true, "deleted": id})
		return nil
	}
	printSuccess("Deleted %s", v.DisplayName())
	return nil
}
