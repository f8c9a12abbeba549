// Package lake manages the on-disk layout of the partitioned data lake:
// date-partitioned part files for the Bronze and Silver stages and flat
// tables for the Gold stage.
package lake

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
)

// DateFormat is the partition-key layout for calendar dates.
const DateFormat = "2006-01-02"

const partitionPrefix = "date="

// Lake locates every dataset relative to a root directory.
type Lake struct {
	Root string
}

// BronzeEvents returns the raw events partition directory.
func (l Lake) BronzeEvents() string { return filepath.Join(l.Root, "bronze", "events") }

// BronzeItemProps returns the raw item-property partition directory.
func (l Lake) BronzeItemProps() string { return filepath.Join(l.Root, "bronze", "item_props") }

// CategoryTree returns the path of the unchanged category-tree copy.
func (l Lake) CategoryTree() string { return filepath.Join(l.Root, "category_tree.csv") }

// SilverEventsClean returns the cleaned events directory.
func (l Lake) SilverEventsClean() string { return filepath.Join(l.Root, "silver", "events_clean") }

// SilverPriceLatest returns the per-date resolved price directory.
func (l Lake) SilverPriceLatest() string {
	return filepath.Join(l.Root, "silver", "item_price_latest")
}

// SilverCategoryLatest returns the per-date resolved category directory.
func (l Lake) SilverCategoryLatest() string {
	return filepath.Join(l.Root, "silver", "item_category_latest")
}

// GoldDir returns the gold table directory.
func (l Lake) GoldDir() string { return filepath.Join(l.Root, "gold") }

// GoldDailyMetrics returns the daily_metrics table path.
func (l Lake) GoldDailyMetrics() string { return filepath.Join(l.GoldDir(), "daily_metrics.csv") }

// GoldTopItems returns the top_items table path.
func (l Lake) GoldTopItems() string { return filepath.Join(l.GoldDir(), "top_items.csv") }

// GoldKolPerformance returns the kol_performance table path.
func (l Lake) GoldKolPerformance() string {
	return filepath.Join(l.GoldDir(), "kol_performance.csv")
}

// PartitionDir returns the directory for one date partition of a dataset.
func PartitionDir(datasetDir, date string) string {
	return filepath.Join(datasetDir, partitionPrefix+date)
}

// DateFile returns the single-file partition path used by the Silver stage.
func DateFile(datasetDir, date string) string {
	return filepath.Join(datasetDir, partitionPrefix+date+".csv")
}

// ListPartitionDates returns the sorted dates of all date=* subdirectories.
// A missing dataset directory yields an empty slice, not an error.
func ListPartitionDates(datasetDir string) ([]string, error) {
	entries, err := os.ReadDir(datasetDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "lake: read dataset dir %s", datasetDir)
	}

	var dates []string
	for _, e := range entries {
		if e.IsDir() && strings.HasPrefix(e.Name(), partitionPrefix) {
			dates = append(dates, strings.TrimPrefix(e.Name(), partitionPrefix))
		}
	}
	sort.Strings(dates)
	return dates, nil
}

// ListDateFiles returns the sorted dates of all date=*.csv files in a
// single-file-per-date dataset directory.
func ListDateFiles(datasetDir string) ([]string, error) {
	entries, err := os.ReadDir(datasetDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "lake: read dataset dir %s", datasetDir)
	}

	var dates []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, partitionPrefix) || !strings.HasSuffix(name, ".csv") {
			continue
		}
		dates = append(dates, strings.TrimSuffix(strings.TrimPrefix(name, partitionPrefix), ".csv"))
	}
	sort.Strings(dates)
	return dates, nil
}

// ListPartFiles returns the sorted part-file paths within one partition
// directory. Sorted order is the file-arrival order contract the Normalizer
// depends on.
func ListPartFiles(partitionDir string) ([]string, error) {
	entries, err := os.ReadDir(partitionDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "lake: read partition dir %s", partitionDir)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), "part-") {
			files = append(files, filepath.Join(partitionDir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}
