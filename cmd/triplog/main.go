package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/TheMichaelB/triplog/internal/client"
	"github.com/TheMichaelB/triplog/internal/config"
	"github.com/TheMichaelB/triplog/internal/events"
	"github.com/TheMichaelB/triplog/internal/models"
)

// skipClient marks commands that run without opening the store.
const skipClient = "skip-client"

var (
	cfgFile    string
	jsonOutput bool
	logLevel   string

	cfg       *config.Config
	logger    *events.Logger
	appClient *client.Client
)

var rootCmd = &cobra.Command{
	Use:   "triplog",
	Short: "Offline trip, fuel and wash log for your vehicles",
	Long: `Triplog records trips as sequences of odometer-bounded legs, together with
fuel and car wash entries, per vehicle. Everything is stored locally.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		teardown()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"Config file (default ./triplog.yaml or ~/.config/triplog/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false,
		"Print machine readable JSON")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Log level (debug, info, warn, error)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		teardown()
		if jsonOutput {
			printJSON(errorResult(err))
		} else {
			printError("%v", describeError(err))
		}
		os.Exit(1)
	}
}

func setup(cmd *cobra.Command, args []string) error {
	loaded, err := config.NewLoader(cfgFile).Load()
	if err != nil {
		return err
	}
	cfg = loaded
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}

	logger, err = events.NewLogger(&cfg.Log)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}

	if cmd.Annotations[skipClient] == "true" {
		return nil
	}

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	appClient, err = client.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	if loadErr := appClient.LoadErr(); loadErr != nil && !jsonOutput {
		printWarning("Stored log could not be read, changes will not be saved: %v", loadErr)
	}
	if appClient.Loaded().Migrated && !jsonOutput {
		printInfo("Migrated log from %s", appClient.Loaded().Key)
	}
	return nil
}

func teardown() {
	if appClient == nil {
		return
	}
	if err := appClient.Session.StorageErr(); err != nil && !jsonOutput {
		printWarning("Changes kept in memory only: %v", err)
	}
	if err := appClient.Close(); err != nil {
		logger.WithError(err).Warn("Failed to close store")
	}
	appClient = nil
}

// describeError turns validation failures into a single readable line.
func describeError(err error) string {
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		msg := verr.Err.Error()
		if verr.Field != "" {
			msg = verr.Field + ": " + msg
		}
		return msg
	}
	return err.Error()
}

func errorResult(err error) map[string]interface{} {
	result := map[string]interface{}{
		"success": false,
		"error":   describeError(err),
	}
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		result["code"] = verr.Code
		if verr.Field != "" {
			result["field"] = verr.Field
		}
	}
	return result
}

// Output helpers

func printJSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func printSuccess(format string, args ...interface{}) {
	color.New(color.FgGreen).Fprintf(os.Stdout, format+"\n", args...)
}

func printError(format string, args ...interface{}) {
	color.New(color.FgRed).Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}

func printWarning(format string, args ...interface{}) {
	color.New(color.FgYellow).Fprintf(os.Stderr, format+"\n", args...)
}

func printInfo(format string, args ...interface{}) {
	color.New(color.FgCyan).Fprintf(os.Stdout, format+"\n", args...)
}

func printHeader(format string, args ...interface{}) {
	color.New(color.Bold).Fprintf(os.Stdout, format+"\n", args...)
}

// dash renders empty strings as a placeholder in tables.
func dash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

// shortID keeps listings narrow; any unique prefix is accepted as input.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
