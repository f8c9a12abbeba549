package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/retailpulse/lake-cli/internal/gold"
	"github.com/retailpulse/lake-cli/internal/ingest"
	"github.com/retailpulse/lake-cli/internal/kol"
	"github.com/retailpulse/lake-cli/internal/lake"
	"github.com/retailpulse/lake-cli/internal/quality"
	"github.com/retailpulse/lake-cli/internal/silver"
)

var pipelineCmd = &cobra.Command{
	Use:   "pipeline",
	Short: "Run the full pipeline: ingest, silver, gold, kol",
	Long: `Runs every stage sequentially. Each stage runs to completion before
the next begins; the on-disk partitioned tables are the only state shared
between stages. With --publish, the gold tables are loaded into the
configured database afterward.`,
	RunE: runPipeline,
}

func init() {
	pipelineCmd.Flags().Bool("publish", false, "publish gold tables to the configured store")
	rootCmd.AddCommand(pipelineCmd)
}

func runPipeline(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	for _, stage := range []string{"ingest", "silver", "gold", "kol"} {
		if err := cfg.Validate(stage); err != nil {
			return err
		}
	}

	log := zap.L().With(zap.String("command", "pipeline"))
	lk := lake.Lake{Root: cfg.Lake.Root}
	qc := quality.NewCollector()

	stages := []struct {
		name string
		run  func(context.Context) error
	}{
		{"ingest", ingest.New(lk, cfg.Ingest, qc).Run},
		{"silver", silver.New(lk, cfg.Silver, qc).Run},
		{"gold", gold.New(lk, cfg.Gold, qc).Run},
		{"kol", kol.NewEngine(lk, cfg.Kol, qc).Run},
	}

	for _, stage := range stages {
		start := time.Now()
		log.Info("pipeline: stage starting", zap.String("stage", stage.name))
		if err := stage.run(ctx); err != nil {
			return eris.Wrapf(err, "pipeline: stage %s", stage.name)
		}
		log.Info("pipeline: stage complete",
			zap.String("stage", stage.name),
			zap.Duration("elapsed", time.Since(start)),
		)
	}

	qc.LogSummary("pipeline")

	if publish, _ := cmd.Flags().GetBool("publish"); publish {
		if err := publishGoldTables(ctx, lk); err != nil {
			return eris.Wrap(err, "pipeline: publish")
		}
	}

	return nil
}
