package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write a full backup to the export directory",
	Long: `Export writes every vehicle, trip, fuel and wash entry together with the
profile into a JSON backup file that import can read back.`,
	RunE: runExport,
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace the log with the contents of a backup",
	Long: `Import reads a backup written by export, or a bare state document from
any earlier version. The current log is replaced; pass - to read stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

var (
	exportKeep int
	importYes  bool
)

func init() {
	rootCmd.AddCommand(exportCmd, importCmd)

	exportCmd.Flags().IntVar(&exportKeep, "keep", 0, "Keep only the newest N backups (0 keeps all)")
	importCmd.Flags().BoolVarP(&importYes, "yes", "y", false, "Do not ask for confirmation")
}

func runExport(cmd *cobra.Command, args []string) error {
	name, err := appClient.ExportBackup()
	if err != nil {
		return err
	}

	pruned := 0
	if exportKeep > 0 {
		if pruned, err = appClient.PruneBackups(exportKeep); err != nil {
			printWarning("Failed to prune old backups: %v", err)
		}
	}

	path := appClient.Exports.Path(name)
	if jsonOutput {
		printJSON(map[string]interface{}{"success": true, "file": path, "pruned": pruned})
		return nil
	}
	printSuccess("Backup written to %s", path)
	if pruned > 0 {
		printInfo("Removed %d old backups", pruned)
	}
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	var (
		data []byte
		err  error
	)
	if args[0] == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return fmt.Errorf("read backup: %w", err)
	}

	if len(appClient.Session.State().Vehicles) > 0 {
		if args[0] == "-" && !importYes {
			return fmt.Errorf("reading from stdin replaces the current log, pass --yes")
		}
		ok, err := confirm("Replace the current log with "+args[0]+"?", importYes)
		if err != nil {
			return err
		}
		if !ok {
			printInfo("Import cancelled")
			return nil
		}
	}

	imported, err := appClient.ImportBackup(data)
	if err != nil {
		return err
	}

	if jsonOutput {
		printJSON(map[string]interface{}{
			"success":  true,
			"variant":  imported.Variant.String(),
			"vehicles": len(imported.State.Vehicles),
			"profile":  imported.Profile != nil,
		})
		return nil
	}
	printSuccess("Imported %d vehicles (%s)", len(imported.State.Vehicles), imported.Variant)
	if imported.Variant.Legacy() {
		printInfo("The file used an older format and was converted")
	}
	return nil
}
