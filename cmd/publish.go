package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/retailpulse/lake-cli/internal/lake"
	"github.com/retailpulse/lake-cli/internal/model"
	"github.com/retailpulse/lake-cli/internal/store"
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Load the gold tables into the configured database",
	Long: `Replaces the published daily_metrics, top_items, and kol_performance
tables with the current gold snapshot. Consumers must treat them as
read-only, fully regenerated per run.`,
	RunE: runPublish,
}

func init() {
	rootCmd.AddCommand(publishCmd)
}

func runPublish(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cfg.Validate("publish"); err != nil {
		return err
	}

	return publishGoldTables(ctx, lake.Lake{Root: cfg.Lake.Root})
}

// publishGoldTables reads the three gold tables from the lake and replaces
// the published snapshot.
func publishGoldTables(ctx context.Context, lk lake.Lake) error {
	log := zap.L().With(zap.String("command", "publish"), zap.String("driver", cfg.Store.Driver))

	metrics, err := lake.ReadRows[model.DailyMetrics](lk.GoldDailyMetrics())
	if err != nil {
		return err
	}
	top, err := lake.ReadRows[model.TopItem](lk.GoldTopItems())
	if err != nil {
		return err
	}
	performance, err := lake.ReadRows[model.KolRecord](lk.GoldKolPerformance())
	if err != nil {
		return err
	}

	pub, err := store.NewFromConfig(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer pub.Close() //nolint:errcheck

	if err := pub.Migrate(ctx); err != nil {
		return err
	}
	if err := pub.PublishDailyMetrics(ctx, metrics); err != nil {
		return err
	}
	if err := pub.PublishTopItems(ctx, top); err != nil {
		return err
	}
	if err := pub.PublishKolPerformance(ctx, performance); err != nil {
		return err
	}

	log.Info("publish: gold tables replaced",
		zap.Int("daily_metrics", len(metrics)),
		zap.Int("top_items", len(top)),
		zap.Int("kol_performance", len(performance)),
	)
	return nil
}
