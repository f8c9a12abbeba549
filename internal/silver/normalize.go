// Package silver cleans Bronze event partitions and collapses the
// item-property change log into one resolved value per item per day.
package silver

import (
	"context"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/retailpulse/lake-cli/internal/config"
	"github.com/retailpulse/lake-cli/internal/lake"
	"github.com/retailpulse/lake-cli/internal/model"
	"github.com/retailpulse/lake-cli/internal/quality"
)

// Tracked properties of the change log.
const (
	propPrice    = "price"
	propCategory = "categoryid"
)

// Normalizer builds the Silver layer from Bronze partitions.
type Normalizer struct {
	lake lake.Lake
	cfg  config.SilverConfig
	qc   *quality.Collector
}

// New creates a Normalizer.
func New(lk lake.Lake, cfg config.SilverConfig, qc *quality.Collector) *Normalizer {
	return &Normalizer{lake: lk, cfg: cfg, qc: qc}
}

// Run normalizes every Bronze date partition. Dates are independent, so the
// per-date work fans out over a bounded errgroup.
func (n *Normalizer) Run(ctx context.Context) error {
	workers := n.cfg.Workers
	if workers <= 0 {
		workers = 1
	}

	eventDates, err := lake.ListPartitionDates(n.lake.BronzeEvents())
	if err != nil {
		return err
	}
	zap.L().Info("silver: cleaning event partitions",
		zap.Int("dates", len(eventDates)),
		zap.Int("workers", workers),
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, date := range eventDates {
		date := date
		g.Go(func() error {
			return n.normalizeEvents(gCtx, date)
		})
	}
	if err := g.Wait(); err != nil {
		return eris.Wrap(err, "silver: clean events")
	}

	propDates, err := lake.ListPartitionDates(n.lake.BronzeItemProps())
	if err != nil {
		return err
	}
	zap.L().Info("silver: resolving item properties", zap.Int("dates", len(propDates)))

	g, gCtx = errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, date := range propDates {
		date := date
		g.Go(func() error {
			return n.resolveProperties(gCtx, date)
		})
	}
	if err := g.Wait(); err != nil {
		return eris.Wrap(err, "silver: resolve properties")
	}

	return nil
}

// normalizeEvents merges one date's part files into a single clean file:
// rows missing event or item are dropped, only the three event-model fields
// are retained.
func (n *Normalizer) normalizeEvents(ctx context.Context, date string) error {
	if err := ctx.Err(); err != nil {
		return eris.Wrap(err, "silver: cancelled")
	}

	parts, err := lake.ListPartFiles(lake.PartitionDir(n.lake.BronzeEvents(), date))
	if err != nil {
		return err
	}

	var clean []model.CleanEvent
	for _, part := range parts {
		rows, err := lake.ReadRows[model.RawEvent](part)
		if err != nil {
			return err
		}
		for _, r := range rows {
			if r.Event == "" || r.ItemID == "" {
				n.qc.Inc(quality.MissingField)
				continue
			}
			clean = append(clean, model.CleanEvent{
				VisitorID: r.VisitorID,
				Event:     r.Event,
				ItemID:    r.ItemID,
			})
		}
	}

	return writeDateFile(n.lake.SilverEventsClean(), date, clean)
}

// resolveProperties folds one date's change records, in sorted part-file
// order, into at most one resolved price file and one resolved category
// file. A date with no qualifying records after filtering produces no file:
// absence signals the Aggregator to fall back.
func (n *Normalizer) resolveProperties(ctx context.Context, date string) error {
	if err := ctx.Err(); err != nil {
		return eris.Wrap(err, "silver: cancelled")
	}

	parts, err := lake.ListPartFiles(lake.PartitionDir(n.lake.BronzeItemProps(), date))
	if err != nil {
		return err
	}

	var records []PropertyRecord
	for _, part := range parts {
		rows, err := lake.ReadRows[model.RawPropertyChange](part)
		if err != nil {
			return err
		}
		for _, r := range rows {
			records = append(records, PropertyRecord{ItemID: r.ItemID, Property: r.Property, Value: r.Value})
		}
	}

	var prices []model.ResolvedPrice
	for itemID, raw := range ResolveLatest(records, propPrice) {
		price, ok := ParsePrice(raw)
		if !ok {
			n.qc.Inc(quality.BadPrice)
			continue
		}
		prices = append(prices, model.ResolvedPrice{ItemID: itemID, Price: price})
	}
	sort.Slice(prices, func(i, j int) bool { return prices[i].ItemID < prices[j].ItemID })
	if len(prices) > 0 {
		if err := writeDateFile(n.lake.SilverPriceLatest(), date, prices); err != nil {
			return err
		}
	}

	var categories []model.ResolvedCategory
	for itemID, value := range ResolveLatest(records, propCategory) {
		categories = append(categories, model.ResolvedCategory{ItemID: itemID, CategoryID: value})
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].ItemID < categories[j].ItemID })
	if len(categories) > 0 {
		if err := writeDateFile(n.lake.SilverCategoryLatest(), date, categories); err != nil {
			return err
		}
	}

	return nil
}

// writeDateFile replaces one single-file date partition.
func writeDateFile[T any](datasetDir, date string, rows []T) error {
	return lake.WriteTable(lake.DateFile(datasetDir, date), rows)
}
