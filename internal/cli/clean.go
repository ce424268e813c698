// clean.go implements the "mesa clean" command for manual run directory cleanup.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/berth-dev/mesa/internal/cleanup"
	"github.com/berth-dev/mesa/internal/config"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove old run directories",
	Long: `Remove old run directories from .mesa/runs/.

By default, removes runs older than the configured max_age_days (default 30).
Use --keep to keep only the N most recent runs instead.
Use --dry-run to preview what would be removed.`,
	Args: cobra.NoArgs,
	RunE: runClean,
}

var (
	keepFlag       int
	maxAgeDaysFlag int
	dryRunFlag     bool
)

func init() {
	cleanCmd.Flags().IntVar(&keepFlag, "keep", 0, "Keep only the last N runs (0 = use age-based cleanup)")
	cleanCmd.Flags().IntVar(&maxAgeDaysFlag, "max-age-days", 0, "Remove runs older than this many days (default from config)")
	cleanCmd.Flags().BoolVar(&dryRunFlag, "dry-run", false, "Preview what would be removed without deleting")
}

func runClean(cmd *cobra.Command, args []string) error {
	root, err := projectRoot()
	if err != nil {
		return err
	}
	if _, statErr := os.Stat(config.Dir(root)); os.IsNotExist(statErr) {
		return fmt.Errorf(".mesa/ not found. Run 'mesa init' first")
	}

	policy := cleanup.Policy{Keep: keepFlag, DryRun: dryRunFlag}
	if keepFlag <= 0 {
		policy.MaxAgeDays = maxAgeDaysFlag
		if policy.MaxAgeDays <= 0 {
			cfg, cfgErr := config.Load(root)
			if cfgErr != nil {
				return fmt.Errorf("reading config: %w", cfgErr)
			}
			policy.MaxAgeDays = cfg.Cleanup.MaxAgeDays
		}
		if policy.MaxAgeDays <= 0 {
			policy.MaxAgeDays = 30
		}
	}

	pruned, err := cleanup.Prune(filepath.Join(config.Dir(root), "runs"), policy)
	if err != nil {
		return fmt.Errorf("cleanup failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(pruned) == 0 {
		fmt.Fprintln(out, "No runs to clean up.")
		return nil
	}

	verb := "Removed"
	if dryRunFlag {
		verb = "Would remove"
	}
	for _, name := range pruned {
		fmt.Fprintf(out, "  %s %s\n", verb, name)
	}
	fmt.Fprintf(out, "%s %d run(s).\n", verb, len(pruned))
	return nil
}
