package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/TheMichaelB/triplog/internal/config"
	"github.com/TheMichaelB/triplog/internal/geocode"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Create or inspect the configuration",
}

var configInitCmd = &cobra.Command{
	Use:         "init [path]",
	Short:       "Write an example config file",
	Args:        cobra.MaximumNArgs(1),
	Annotations: map[string]string{skipClient: "true"},
	RunE:        runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:         "show",
	Short:       "Print the effective configuration",
	Annotations: map[string]string{skipClient: "true"},
	RunE:        runConfigShow,
}

var geocodeCmd = &cobra.Command{
	Use:   "geocode <lat,lon>",
	Short: "Resolve coordinates into a place name",
	Long: `Geocode asks the configured reverse geocoding service for the place at the
given coordinates. It needs geocode.enabled: true in the config.`,
	Example:     `  triplog geocode 48.1374,11.5755`,
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{skipClient: "true"},
	RunE:        runGeocode,
}

func init() {
	rootCmd.AddCommand(configCmd, geocodeCmd)
	configCmd.AddCommand(configInitCmd, configShowCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := "triplog.yaml"
	if len(args) == 1 {
		path = args[0]
	}
	if err := config.SaveExample(path); err != nil {
		return err
	}
	return reportOK("Wrote " + path)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	if jsonOutput {
		printJSON(cfg)
		return nil
	}
	fmt.Printf("Storage:  %s (%s)\n", cfg.Storage.Backend, cfg.Storage.DataDir)
	fmt.Printf("Exports:  %s\n", cfg.Storage.ExportDir)
	fmt.Printf("Log:      %s, %s\n", cfg.Log.Level, cfg.Log.Format)
	fmt.Printf("Currency: %s\n", cfg.Report.BaseCurrency)
	fmt.Printf("Language: %s\n", cfg.Report.Language)
	fmt.Printf("Draft:    %s\n", cfg.Draft.Debounce)
	fmt.Printf("Geocode:  %v (%s)\n", cfg.Geocode.Enabled, cfg.Geocode.BaseURL)
	return nil
}

func runGeocode(cmd *cobra.Command, args []string) error {
	lat, lon, err := geocode.ParseCoordinates(args[0])
	if err != nil {
		return err
	}

	gc := geocode.NewClient(&cfg.Geocode, logger)
	gc.SetLanguage(cfg.Report.Language)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	place, err := gc.Reverse(ctx, lat, lon)
	if err != nil {
		return fmt.Errorf("reverse lookup: %w", err)
	}

	if jsonOutput {
		printJSON(map[string]interface{}{"label": place.Label(), "place": place})
		return nil
	}
	fmt.Println(place.Label())
	if place.DisplayName != "" && place.DisplayName != place.Label() {
		printInfo("%s", place.DisplayName)
	}
	return nil
}
