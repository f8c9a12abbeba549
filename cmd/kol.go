package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/retailpulse/lake-cli/internal/kol"
	"github.com/retailpulse/lake-cli/internal/lake"
	"github.com/retailpulse/lake-cli/internal/quality"
)

var kolCmd = &cobra.Command{
	Use:   "kol",
	Short: "Build the synthetic creator-attribution dataset",
	Long: `Generates a seeded synthetic creator population and redistributes each
day's funnel counts and revenue across it. Daily view totals are conserved
exactly; the same seed and creator count reproduce the run bit for bit.`,
	RunE: runKol,
}

func init() {
	f := kolCmd.Flags()
	f.Int64("seed", 0, "random seed (overrides config)")
	f.Int("creators", 0, "population size (overrides config)")

	rootCmd.AddCommand(kolCmd)
}

func runKol(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if seed, _ := cmd.Flags().GetInt64("seed"); cmd.Flags().Changed("seed") {
		cfg.Kol.Seed = seed
	}
	if creators, _ := cmd.Flags().GetInt("creators"); creators > 0 {
		cfg.Kol.Creators = creators
	}

	if err := cfg.Validate("kol"); err != nil {
		return err
	}

	log := zap.L().With(zap.String("command", "kol"))
	log.Info("kol: starting")

	qc := quality.NewCollector()
	engine := kol.NewEngine(lake.Lake{Root: cfg.Lake.Root}, cfg.Kol, qc)
	if err := engine.Run(ctx); err != nil {
		return err
	}

	qc.LogSummary("kol")
	return nil
}
