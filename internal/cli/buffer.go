// buffer.go implements the "mesa buffer" command.
package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/berth-dev/mesa/internal/config"
	"github.com/berth-dev/mesa/internal/control"
)

var bufferCmd = &cobra.Command{
	Use:   "buffer",
	Short: "Run producers and consumers over a bounded buffer",
	Long: `Start producers and consumers sharing a fixed-capacity ring buffer.
Producers block while it is full and consumers block while it is empty.

With --items each producer makes that many values and the consumers
split the total between them, so the run ends with an empty buffer.`,
	Args: cobra.NoArgs,
	RunE: runBuffer,
}

var bufferFlags struct {
	capacity   int
	producers  int
	consumers  int
	items      int
	values     string
	produceMax time.Duration
	consumeMax time.Duration
	duration   time.Duration
	noLog      bool
}

func init() {
	f := bufferCmd.Flags()
	f.IntVar(&bufferFlags.capacity, "capacity", 0, "Buffer slots (default from config)")
	f.IntVar(&bufferFlags.producers, "producers", 0, "Number of producers")
	f.IntVar(&bufferFlags.consumers, "consumers", 0, "Number of consumers")
	f.IntVar(&bufferFlags.items, "items", 0, "Values per producer before stopping (0 = unlimited)")
	f.StringVar(&bufferFlags.values, "values", "", "Producer values: sequential or random")
	f.DurationVar(&bufferFlags.produceMax, "produce-max", 0, "Longest delay after each push")
	f.DurationVar(&bufferFlags.consumeMax, "consume-max", 0, "Longest delay after each pop")
	f.DurationVar(&bufferFlags.duration, "duration", 0, "Stop after this long (0 = until items or Ctrl+C)")
	f.BoolVar(&bufferFlags.noLog, "no-log", false, "Do not write an event log")
}

// applyBufferFlags overrides cfg with every flag the user set.
func applyBufferFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("capacity") {
		cfg.Buffer.Capacity = bufferFlags.capacity
	}
	if f.Changed("producers") {
		cfg.Buffer.Producers = bufferFlags.producers
	}
	if f.Changed("consumers") {
		cfg.Buffer.Consumers = bufferFlags.consumers
	}
	if f.Changed("items") {
		cfg.Buffer.Items = bufferFlags.items
	}
	if f.Changed("values") {
		cfg.Buffer.Values = bufferFlags.values
	}
	if f.Changed("produce-max") {
		cfg.Buffer.ProduceMaxMs = int(bufferFlags.produceMax.Milliseconds())
	}
	if f.Changed("consume-max") {
		cfg.Buffer.ConsumeMaxMs = int(bufferFlags.consumeMax.Milliseconds())
	}
}

// consumerLimit splits the producers' total output across the consumers.
// Returns 0 for an unlimited run.
func consumerLimit(b config.BufferConfig) (int, error) {
	if b.Items == 0 {
		return 0, nil
	}
	producers, consumers := max(1, b.Producers), max(1, b.Consumers)
	total := b.Items * producers
	if total%consumers != 0 {
		return 0, fmt.Errorf("--items: %d values from %d producer(s) cannot be split evenly across %d consumer(s)",
			total, producers, consumers)
	}
	return total / consumers, nil
}

func runBuffer(cmd *cobra.Command, args []string) error {
	root, err := projectRoot()
	if err != nil {
		return err
	}
	cfg, err := config.Load(root)
	if err != nil {
		return err
	}
	applyBufferFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	perConsumer, err := consumerLimit(cfg.Buffer)
	if err != nil {
		return err
	}

	return runScenario(cmd.Context(), cmd.OutOrStdout(), root, cfg, scenario{
		mode: "buffer",
		title: fmt.Sprintf("%d producer(s), %d consumer(s), capacity %d, %s values",
			cfg.Buffer.Producers, cfg.Buffer.Consumers, cfg.Buffer.Capacity, cfg.Buffer.Values),
		capacity: cfg.Buffer.Capacity,
		duration: bufferFlags.duration,
		noLog:    bufferFlags.noLog,
		start: func(ctrl *control.Controller) error {
			if err := ctrl.Start(control.KindConsumer, control.Params{Limit: perConsumer}); err != nil {
				return err
			}
			return ctrl.Start(control.KindProducer, control.Params{})
		},
	})
}
