package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/retailpulse/lake-cli/internal/lake"
	"github.com/retailpulse/lake-cli/internal/quality"
	"github.com/retailpulse/lake-cli/internal/silver"
)

var silverCmd = &cobra.Command{
	Use:   "silver",
	Short: "Clean bronze events and resolve latest item properties",
	Long: `Drops incomplete event rows, coerces fields to the clean event model,
and collapses each day's item-property change log into one resolved price
and category per item (last record in file order wins).`,
	RunE: runSilver,
}

func init() {
	silverCmd.Flags().Int("workers", 0, "parallel date partitions (overrides config)")
	rootCmd.AddCommand(silverCmd)
}

func runSilver(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if workers, _ := cmd.Flags().GetInt("workers"); workers > 0 {
		cfg.Silver.Workers = workers
	}

	if err := cfg.Validate("silver"); err != nil {
		return err
	}

	log := zap.L().With(zap.String("command", "silver"))
	log.Info("silver: starting")

	qc := quality.NewCollector()
	n := silver.New(lake.Lake{Root: cfg.Lake.Root}, cfg.Silver, qc)
	if err := n.Run(ctx); err != nil {
		return err
	}

	qc.LogSummary("silver")
	return nil
}
