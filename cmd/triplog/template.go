package main

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/TheMichaelB/triplog/internal/models"
	"github.com/TheMichaelB/triplog/internal/workflow"
)

var templateCmd = &cobra.Command{
	Use:     "template",
	Aliases: []string{"templates"},
	Short:   "Manage trip and leg templates",
}

var templateListCmd = &cobra.Command{
	Use:   "list",
	Short: "List templates",
	RunE:  runTemplateList,
}

var templateAddCmd = &cobra.Command{
	Use:   "add <trip|leg> <name>",
	Short: "Save a template",
	Long: `Add saves a named preset for the trip start or the leg form. Values are
given as key=value pairs. Trip keys: title, purpose, tags, titleTag,
purposeTag, notes. Leg keys: startPlace, startTag, endPlace, endTag, note.`,
	Example: `  triplog template add leg office --set startPlace=Home --set endPlace=Office
  triplog template add trip commute --set title=Commute --set purpose=work`,
	Args: cobra.ExactArgs(2),
	RunE: runTemplateAdd,
}

var templateDeleteCmd = &cobra.Command{
	Use:     "delete <template>",
	Aliases: []string{"rm"},
	Short:   "Delete a template by id or name",
	Args:    cobra.ExactArgs(1),
	RunE:    runTemplateDelete,
}

var (
	templateType string
	templateSet  []string
)

func init() {
	rootCmd.AddCommand(templateCmd)
	templateCmd.AddCommand(templateListCmd, templateAddCmd, templateDeleteCmd)

	templateListCmd.Flags().StringVar(&templateType, "type", "", "Only trip or leg templates")
	templateAddCmd.Flags().StringArrayVar(&templateSet, "set", nil, "Field value as key=value (repeatable)")
}

// parseAssignments reads key=value pairs.
func parseAssignments(pairs []string) (map[string]string, error) {
	data := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid assignment %q, want key=value", pair)
		}
		data[key] = strings.TrimSpace(value)
	}
	return data, nil
}

func runTemplateList(cmd *cobra.Command, args []string) error {
	st := appClient.Session.State()
	list := st.Templates
	if templateType != "" {
		list = workflow.TemplatesOf(st, templateType)
	}

	if jsonOutput {
		printJSON(map[string]interface{}{"templates": list})
		return nil
	}
	if len(list) == 0 {
		printInfo("No templates")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTYPE\tNAME\tVALUES")
	for _, tpl := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", shortID(tpl.ID), tpl.Type, tpl.Name, formatData(tpl.Data))
	}
	return w.Flush()
}

func formatData(data map[string]string) string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+data[k])
	}
	return dash(strings.Join(parts, " "))
}

func runTemplateAdd(cmd *cobra.Command, args []string) error {
	data, err := parseAssignments(templateSet)
	if err != nil {
		return err
	}

	tpl := models.Template{Type: args[0], Name: args[1], Data: data}
	if existing, ok := workflow.FindTemplate(appClient.Session.State(), args[1]); ok && existing.Type == strings.ToLower(args[0]) {
		tpl.ID = existing.ID
	}

	saved, err := appClient.Session.SaveTemplate(tpl)
	if err != nil {
		return err
	}
	if jsonOutput {
		printJSON(map[string]interface{}{"success": true, "template": saved})
		return nil
	}
	printSuccess("Saved %s template %q", saved.Type, saved.Name)
	return nil
}

func runTemplateDelete(cmd *cobra.Command, args []string) error {
	tpl, ok := workflow.FindTemplate(appClient.Session.State(), args[0])
	if !ok {
		return &models.NotFoundError{Kind: "template", ID: args[0]}
	}
	if err := appClient.Session.DeleteTemplate(tpl.ID); err != nil {
		return err
	}
	return reportOK(fmt.Sprintf("Deleted template %q", tpl.Name))
}
