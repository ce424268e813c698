// init.go implements the "mesa init" command.
package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/berth-dev/mesa/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize mesa in the current project",
	Long: `Create the .mesa/ directory with a default config.yaml and an empty
runs/ directory, and keep run logs out of git.`,
	RunE: runInit,
}

var forceFlag bool

func init() {
	initCmd.Flags().BoolVar(&forceFlag, "force", false, "Overwrite an existing config without asking")
}

func runInit(cmd *cobra.Command, args []string) error {
	dir, err := projectRoot()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if config.Exists(dir) && !forceFlag {
		fmt.Fprintln(out, "Warning: .mesa/config.yaml already exists.")
		fmt.Fprint(out, "Overwrite with defaults? [y/N]: ")
		if !confirm(cmd.InOrStdin()) {
			fmt.Fprintln(out, "Aborted.")
			return nil
		}
	}

	if err := os.MkdirAll(filepath.Join(config.Dir(dir), "runs"), 0755); err != nil {
		return fmt.Errorf("creating .mesa/runs: %w", err)
	}
	if err := config.WriteConfig(dir, config.DefaultConfig()); err != nil {
		return err
	}

	if err := ensureGitignore(dir); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to set up .gitignore: %v\n", err)
	}

	fmt.Fprintln(out, "Mesa initialized")
	fmt.Fprintln(out, "Configuration written to .mesa/config.yaml")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Next steps:")
	fmt.Fprintln(out, "  mesa dine      run the dining philosophers")
	fmt.Fprintln(out, "  mesa buffer    run producers and consumers")
	fmt.Fprintln(out, "  mesa           open the interactive dashboard")
	return nil
}

func confirm(in io.Reader) bool {
	answer, _ := bufio.NewReader(in).ReadString('\n')
	answer = strings.TrimSpace(strings.ToLower(answer))
	return answer == "y" || answer == "yes"
}

// ensureGitignore appends the run directory to .gitignore unless it is
// already listed. config.yaml stays tracked.
func ensureGitignore(dir string) error {
	gitignorePath := filepath.Join(dir, ".gitignore")
	const entry = ".mesa/runs/"

	existing := ""
	if data, err := os.ReadFile(gitignorePath); err == nil {
		existing = string(data)
	}
	if strings.Contains(existing, entry) {
		return nil
	}

	var toAppend strings.Builder
	if existing != "" && !strings.HasSuffix(existing, "\n") {
		toAppend.WriteString("\n")
	}
	if existing != "" {
		toAppend.WriteString("\n# Added by mesa init\n")
	}
	toAppend.WriteString(entry + "\n")

	f, err := os.OpenFile(gitignorePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("opening .gitignore: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(toAppend.String()); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}
	return nil
}
