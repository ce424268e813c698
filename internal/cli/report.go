// report.go implements the "mesa report" command for showing run summaries.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/berth-dev/mesa/internal/config"
	"github.com/berth-dev/mesa/internal/report"
)

var reportCmd = &cobra.Command{
	Use:   "report [run]",
	Short: "Show a run's results",
	Long: `Display the report of the most recent run, or of the run named by its
timestamp directory under .mesa/runs/. The report is generated from the
run's event log if it has not been written yet.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReport,
}

var regenerateFlag bool

func init() {
	reportCmd.Flags().BoolVar(&regenerateFlag, "regenerate", false, "Rebuild report.md from the event log")
}

func runReport(cmd *cobra.Command, args []string) error {
	root, err := projectRoot()
	if err != nil {
		return err
	}
	runsDir := filepath.Join(config.Dir(root), "runs")

	var runDir string
	if len(args) > 0 {
		runDir = filepath.Join(runsDir, args[0])
		if info, statErr := os.Stat(runDir); statErr != nil || !info.IsDir() {
			return fmt.Errorf("run %q not found in %s", args[0], runsDir)
		}
	} else {
		latest, latestErr := report.LatestRun(runsDir)
		if latestErr != nil {
			return latestErr
		}
		if latest == "" {
			return fmt.Errorf("No runs found. Start one with: mesa dine")
		}
		runDir = filepath.Join(runsDir, latest)
	}

	// Try to read existing report file.
	if !regenerateFlag {
		if data, readErr := os.ReadFile(filepath.Join(runDir, "report.md")); readErr == nil {
			fmt.Fprint(cmd.OutOrStdout(), string(data))
			return nil
		}
	}

	r, err := report.GenerateReport(runDir)
	if err != nil {
		return fmt.Errorf("failed to generate report: %w", err)
	}
	fmt.Fprint(cmd.OutOrStdout(), report.FormatReport(r))
	return nil
}
