// Package cmd - registry command
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"vacuum-landscape/core/landscape"
	"vacuum-landscape/core/registry"
	"vacuum-landscape/internal/config"
)

var (
	registryPath     string
	registryPlanName string
	registryCommit   string
	registryReport   string
	registryLimit    int
)

// registryCmd groups the result registry operations
var registryCmd = &cobra.Command{
	Use:   "registry",
	Short: "Record and inspect landscape results",
	Long: `Append landscape run reports to a result registry and query or
summarize the accumulated rows. The registry path extension selects the
backend: .sqlite or .db for SQLite, anything else for CSV.

Examples:
  vacuum-landscape registry append --report sweeps/base --plan-name base
  vacuum-landscape registry query --plan-name base --limit 20
  vacuum-landscape registry summarize`,
}

// registryAppendCmd appends a landscape report to the registry
var registryAppendCmd = &cobra.Command{
	Use:   "append",
	Short: "Append a landscape run to the registry",
	RunE:  runRegistryAppend,
}

// registryQueryCmd prints registry rows
var registryQueryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query registry rows",
	RunE:  runRegistryQuery,
}

// registrySummarizeCmd prints per-plan aggregates
var registrySummarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Summarize registry contents per plan",
	RunE:  runRegistrySummarize,
}

func init() {
	registryCmd.PersistentFlags().StringVar(&registryPath, "registry", "", "registry path (default from app config)")

	registryAppendCmd.Flags().StringVar(&registryReport, "report", "", "landscape run directory to record")
	registryAppendCmd.Flags().StringVar(&registryPlanName, "plan-name", "", "plan label for the appended rows")
	registryAppendCmd.Flags().StringVar(&registryCommit, "commit", "", "commit identifier recorded with the rows")
	registryAppendCmd.MarkFlagRequired("report")

	registryQueryCmd.Flags().StringVar(&registryPlanName, "plan-name", "", "restrict rows to one plan")
	registryQueryCmd.Flags().IntVar(&registryLimit, "limit", 0, "maximum number of rows to print")

	registrySummarizeCmd.Flags().StringVar(&registryPlanName, "plan-name", "", "restrict the summary to one plan")

	registryCmd.AddCommand(registryAppendCmd)
	registryCmd.AddCommand(registryQueryCmd)
	registryCmd.AddCommand(registrySummarizeCmd)
}

func openRegistry() *registry.Registry {
	path := registryPath
	if path == "" {
		path = config.Get().Registry.Path
	}
	return registry.Open(path)
}

func runRegistryAppend(cmd *cobra.Command, args []string) error {
	var report landscape.LandscapeReport
	reportPath := filepath.Join(registryReport, "landscape_report.json")
	if err := readJSON(reportPath, &report); err != nil {
		return err
	}

	planName := registryPlanName
	if planName == "" {
		planName = config.Get().Registry.PlanName
	}
	record := registry.RecordFromLandscape(planName, &report)
	if registryCommit != "" {
		record.Commit = registryCommit
	}

	reg := openRegistry()
	if err := reg.Append(record); err != nil {
		return err
	}

	fmt.Printf("Appended %d jobs to %s registry at %s\n",
		len(record.Jobs), reg.Kind(), reg.Path())
	return nil
}

func runRegistryQuery(cmd *cobra.Command, args []string) error {
	reg := openRegistry()
	table, err := reg.QueryTable(registry.Query{
		PlanName: registryPlanName,
		Limit:    registryLimit,
	})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(table.Columns, "\t"))
	for _, row := range table.Rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\n%d rows\n", len(table.Rows))
	return nil
}

func runRegistrySummarize(cmd *cobra.Command, args []string) error {
	reg := openRegistry()
	table, err := reg.QueryTable(registry.Query{PlanName: registryPlanName})
	if err != nil {
		return err
	}

	summary, err := registry.Summarize(table)
	if err != nil {
		return err
	}
	if len(summary.Plans) == 0 {
		fmt.Println("Registry is empty.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "plan\trows\tpasses\tpass_rate")
	for _, plan := range summary.Plans {
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\n",
			plan.PlanName, plan.Rows, plan.Passes, plan.PassRate)
	}
	return w.Flush()
}
