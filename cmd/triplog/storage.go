package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/TheMichaelB/triplog/internal/config"
)

var storageCmd = &cobra.Command{
	Use:   "storage",
	Short: "Inspect and migrate local storage",
}

var storageInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show where the log is stored",
	RunE:  runStorageInfo,
}

var storageMigrateCmd = &cobra.Command{
	Use:   "migrate <json|sqlite>",
	Short: "Copy every stored document into another backend",
	Long: `Migrate copies the log and the profile into the given backend. Switch to
it afterwards by setting storage.backend in the config file.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{config.BackendJSON, config.BackendSQLite},
	RunE:      runStorageMigrate,
}

var storageExportsCmd = &cobra.Command{
	Use:   "exports",
	Short: "List files in the export directory",
	RunE:  runStorageExports,
}

func init() {
	rootCmd.AddCommand(storageCmd)
	storageCmd.AddCommand(storageInfoCmd, storageMigrateCmd, storageExportsCmd)
}

func runStorageInfo(cmd *cobra.Command, args []string) error {
	st := cfg.Storage
	loaded := appClient.Loaded()

	location := st.StateDir
	if st.Backend == config.BackendSQLite {
		location = st.DBPath
	}

	if jsonOutput {
		printJSON(map[string]interface{}{
			"backend":  st.Backend,
			"location": location,
			"exports":  st.ExportDir,
			"key":      appClient.Repo.Keys().State,
			"variant":  loaded.Variant.String(),
			"migrated": loaded.Migrated,
		})
		return nil
	}

	fmt.Printf("Backend:   %s\n", st.Backend)
	fmt.Printf("Location:  %s\n", location)
	fmt.Printf("Exports:   %s\n", st.ExportDir)
	fmt.Printf("Key:       %s\n", appClient.Repo.Keys().State)
	fmt.Printf("Format:    %s\n", loaded.Variant)
	if err := appClient.LoadErr(); err != nil {
		printWarning("Last read failed: %v", err)
	}
	return nil
}

func runStorageMigrate(cmd *cobra.Command, args []string) error {
	target := cfg.Storage
	target.Backend = args[0]
	if target.Backend != config.BackendJSON && target.Backend != config.BackendSQLite {
		return fmt.Errorf("unsupported target backend: %s", target.Backend)
	}

	targetCfg := *cfg
	targetCfg.Storage = target
	if err := targetCfg.EnsureDirectories(); err != nil {
		return err
	}

	count, err := appClient.MigrateStorage(target)
	if err != nil {
		return err
	}

	if jsonOutput {
		printJSON(map[string]interface{}{"success": true, "backend": target.Backend, "keys": count})
		return nil
	}
	printSuccess("Copied %d documents to %s", count, target.Backend)
	printInfo("Set storage.backend: %s in your config to use it", target.Backend)
	return nil
}

func runStorageExports(cmd *cobra.Command, args []string) error {
	files, err := appClient.Exports.List()
	if err != nil {
		return err
	}

	if jsonOutput {
		printJSON(map[string]interface{}{"files": files})
		return nil
	}
	if len(files) == 0 {
		printInfo("No exports yet")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSIZE\tWRITTEN")
	for _, f := range files {
		fmt.Fprintf(w, "%s\t%s\t%s\n", f.Name, formatBytes(f.Size), f.ModTime.Local().Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
