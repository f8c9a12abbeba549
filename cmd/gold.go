package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/retailpulse/lake-cli/internal/gold"
	"github.com/retailpulse/lake-cli/internal/lake"
	"github.com/retailpulse/lake-cli/internal/quality"
)

var goldCmd = &cobra.Command{
	Use:   "gold",
	Short: "Aggregate silver partitions into daily metrics and top items",
	Long: `Counts the daily funnel (view, addtocart, transaction), prices each
transaction through the fallback chain (latest resolved price as of the
date, latest anywhere, global median), and ranks items by transactions.

Re-running over identical silver inputs produces byte-identical tables.`,
	RunE: runGold,
}

func init() {
	rootCmd.AddCommand(goldCmd)
}

func runGold(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cfg.Validate("gold"); err != nil {
		return err
	}

	log := zap.L().With(zap.String("command", "gold"))
	log.Info("gold: starting")

	qc := quality.NewCollector()
	agg := gold.New(lake.Lake{Root: cfg.Lake.Root}, cfg.Gold, qc)
	if err := agg.Run(ctx); err != nil {
		return err
	}

	qc.LogSummary("gold")
	return nil
}
