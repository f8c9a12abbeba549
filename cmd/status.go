package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/retailpulse/lake-cli/internal/lake"
	"github.com/retailpulse/lake-cli/internal/model"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show per-stage lake contents",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(_ *cobra.Command, _ []string) error {
	lk := lake.Lake{Root: cfg.Lake.Root}

	fmt.Printf("Lake root: %s\n\n", lk.Root)

	bronzeEvents, err := lake.ListPartitionDates(lk.BronzeEvents())
	if err != nil {
		return err
	}
	bronzeProps, err := lake.ListPartitionDates(lk.BronzeItemProps())
	if err != nil {
		return err
	}
	fmt.Printf("Bronze:\n")
	fmt.Printf("  events:      %s\n", describeDates(bronzeEvents))
	fmt.Printf("  item_props:  %s\n", describeDates(bronzeProps))

	cleanDates, err := lake.ListDateFiles(lk.SilverEventsClean())
	if err != nil {
		return err
	}
	priceDates, err := lake.ListDateFiles(lk.SilverPriceLatest())
	if err != nil {
		return err
	}
	categoryDates, err := lake.ListDateFiles(lk.SilverCategoryLatest())
	if err != nil {
		return err
	}
	fmt.Printf("Silver:\n")
	fmt.Printf("  events_clean:         %s\n", describeDates(cleanDates))
	fmt.Printf("  item_price_latest:    %s\n", describeDates(priceDates))
	fmt.Printf("  item_category_latest: %s\n", describeDates(categoryDates))

	fmt.Printf("Gold:\n")
	fmt.Printf("  daily_metrics:   %s\n", describeTable[model.DailyMetrics](lk.GoldDailyMetrics()))
	fmt.Printf("  top_items:       %s\n", describeTable[model.TopItem](lk.GoldTopItems()))
	fmt.Printf("  kol_performance: %s\n", describeTable[model.KolRecord](lk.GoldKolPerformance()))

	return nil
}

// describeDates summarizes a partition date list.
func describeDates(dates []string) string {
	if len(dates) == 0 {
		return "empty"
	}
	return fmt.Sprintf("%d dates (%s .. %s)", len(dates), dates[0], dates[len(dates)-1])
}

// describeTable summarizes one gold table.
func describeTable[T any](path string) string {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return "not built"
	}
	rows, err := lake.ReadRows[T](path)
	if err != nil {
		return fmt.Sprintf("unreadable (%v)", err)
	}
	return fmt.Sprintf("%d rows", len(rows))
}
