package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/retailpulse/lake-cli/internal/ingest"
	"github.com/retailpulse/lake-cli/internal/lake"
	"github.com/retailpulse/lake-cli/internal/quality"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Partition the raw archive into the bronze layer",
	Long: `Reads the raw export archive in bounded row chunks and writes
per-calendar-day partitions of raw events and item-property changes, plus
an unchanged copy of the category tree.

Re-running replaces each touched date partition; it never appends
duplicate part files.`,
	RunE: runIngest,
}

func init() {
	f := ingestCmd.Flags()
	f.String("archive", "", "path to the raw export zip (overrides config)")
	f.Int("chunk-rows", 0, "rows per streaming chunk (overrides config)")

	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if archive, _ := cmd.Flags().GetString("archive"); archive != "" {
		cfg.Ingest.Archive = archive
	}
	if chunkRows, _ := cmd.Flags().GetInt("chunk-rows"); chunkRows > 0 {
		cfg.Ingest.ChunkRows = chunkRows
	}

	if err := cfg.Validate("ingest"); err != nil {
		return err
	}

	log := zap.L().With(zap.String("command", "ingest"))
	log.Info("ingest: starting")

	qc := quality.NewCollector()
	in := ingest.New(lake.Lake{Root: cfg.Lake.Root}, cfg.Ingest, qc)
	if err := in.Run(ctx); err != nil {
		return err
	}

	qc.LogSummary("ingest")
	return nil
}
