// dine.go implements the "mesa dine" command.
package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/berth-dev/mesa/internal/config"
	"github.com/berth-dev/mesa/internal/control"
)

var dineCmd = &cobra.Command{
	Use:   "dine",
	Short: "Run the dining philosophers",
	Long: `Seat philosophers around a table and let them think and eat until
each has had --meals meals, --duration has passed, or Ctrl+C.

Values not given as flags come from .mesa/config.yaml.`,
	Args: cobra.NoArgs,
	RunE: runDine,
}

var dineFlags struct {
	seats    int
	meals    int
	duration time.Duration
	policy   string
	thinkMax time.Duration
	eatMax   time.Duration
	noLog    bool
}

func init() {
	f := dineCmd.Flags()
	f.IntVar(&dineFlags.seats, "seats", 0, "Number of philosophers (default from config)")
	f.IntVar(&dineFlags.meals, "meals", 0, "Meals per philosopher before stopping (0 = unlimited)")
	f.DurationVar(&dineFlags.duration, "duration", 0, "Stop after this long (0 = until meals or Ctrl+C)")
	f.StringVar(&dineFlags.policy, "policy", "", "Fork order: parity or ordered")
	f.DurationVar(&dineFlags.thinkMax, "think-max", 0, "Longest think delay")
	f.DurationVar(&dineFlags.eatMax, "eat-max", 0, "Longest eat delay")
	f.BoolVar(&dineFlags.noLog, "no-log", false, "Do not write an event log")
}

// applyDineFlags overrides cfg with every flag the user set.
func applyDineFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("seats") {
		cfg.Table.Seats = dineFlags.seats
	}
	if f.Changed("meals") {
		cfg.Table.Meals = dineFlags.meals
	}
	if f.Changed("policy") {
		cfg.Table.Policy = dineFlags.policy
	}
	if f.Changed("think-max") {
		cfg.Table.ThinkMaxMs = int(dineFlags.thinkMax.Milliseconds())
	}
	if f.Changed("eat-max") {
		cfg.Table.EatMaxMs = int(dineFlags.eatMax.Milliseconds())
	}
}

func runDine(cmd *cobra.Command, args []string) error {
	root, err := projectRoot()
	if err != nil {
		return err
	}
	cfg, err := config.Load(root)
	if err != nil {
		return err
	}
	applyDineFlags(cmd, cfg)

	meals := "unlimited meals"
	if cfg.Table.Meals > 0 {
		meals = fmt.Sprintf("%d meals each", cfg.Table.Meals)
	}
	return runScenario(cmd.Context(), cmd.OutOrStdout(), root, cfg, scenario{
		mode:     "dine",
		title:    fmt.Sprintf("%d philosophers, %s policy, %s", cfg.Table.Seats, cfg.Table.Policy, meals),
		seats:    cfg.Table.Seats,
		duration: dineFlags.duration,
		noLog:    dineFlags.noLog,
		start: func(ctrl *control.Controller) error {
			return ctrl.Start(control.KindPhilosophers, control.Params{})
		},
	})
}
