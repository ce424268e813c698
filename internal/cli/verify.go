// verify.go implements the "mesa verify" command.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/berth-dev/mesa/internal/table"
	"github.com/berth-dev/mesa/internal/verify"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Prove fork policies free of deadlock",
	Long: `Explore every interleaving of the philosophers' fork pickups for each
table size and policy, and report whether any state leaves nobody able to
move or leaves some philosopher unable to ever eat again.

The naive policy (everyone takes the left fork first) is accepted so the
deadlock it allows can be shown. Exits non-zero if any check fails.`,
	Args: cobra.NoArgs,
	RunE: runVerify,
}

var (
	verifySeats    []int
	verifyPolicies []string
)

func init() {
	verifyCmd.Flags().IntSliceVar(&verifySeats, "seats", []int{2, 3, 5, 8}, fmt.Sprintf("Table sizes to check (2..%d)", verify.MaxSeats))
	verifyCmd.Flags().StringSliceVar(&verifyPolicies, "policy", []string{"parity", "ordered"}, "Policies to check: parity, ordered, naive")
}

func runVerify(cmd *cobra.Command, args []string) error {
	policies := make([]table.Policy, 0, len(verifyPolicies))
	for _, s := range verifyPolicies {
		p, err := table.ParsePolicy(s)
		if err != nil {
			return err
		}
		policies = append(policies, p)
	}

	results, err := verify.CheckAll(verifySeats, policies)
	if err != nil {
		return fmt.Errorf("verify: %w", err)
	}

	out := cmd.OutOrStdout()
	failed := 0
	for _, r := range results {
		fmt.Fprintln(out, r)
		if r.Deadlock != nil {
			for i, step := range r.Deadlock {
				fmt.Fprintf(out, "    %2d. %s\n", i+1, step)
			}
		}
		if !r.OK() {
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d checks failed", failed, len(results))
	}
	fmt.Fprintf(out, "\nAll %d checks passed.\n", len(results))
	return nil
}
