// Package gold builds the business-level aggregate tables: daily funnel
// metrics with a revenue proxy, and the top-items transaction ranking.
package gold

import (
	"context"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/retailpulse/lake-cli/internal/config"
	"github.com/retailpulse/lake-cli/internal/lake"
	"github.com/retailpulse/lake-cli/internal/model"
	"github.com/retailpulse/lake-cli/internal/quality"
)

// Aggregator builds the Gold layer from Silver partitions. Its output is a
// pure function of the Silver inputs: re-running over identical inputs
// produces byte-identical tables.
type Aggregator struct {
	lake lake.Lake
	cfg  config.GoldConfig
	qc   *quality.Collector
}

// New creates an Aggregator.
func New(lk lake.Lake, cfg config.GoldConfig, qc *quality.Collector) *Aggregator {
	return &Aggregator{lake: lk, cfg: cfg, qc: qc}
}

// Run aggregates every clean-event date file into daily_metrics and
// top_items.
func (a *Aggregator) Run(ctx context.Context) error {
	dates, err := lake.ListDateFiles(a.lake.SilverEventsClean())
	if err != nil {
		return err
	}

	hist, err := LoadPriceHistory(a.lake.SilverPriceLatest())
	if err != nil {
		return err
	}

	median, ok := hist.MedianLatest()
	if !ok {
		median = a.cfg.DefaultMedianPrice
		zap.L().Warn("gold: no resolved prices anywhere, using configured fallback constant",
			zap.Float64("median", median),
		)
	}
	chain := DefaultChain(hist, median)

	zap.L().Info("gold: aggregating",
		zap.Int("dates", len(dates)),
		zap.Float64("median_price", median),
	)

	metrics := make([]model.DailyMetrics, 0, len(dates))
	txByItem := make(map[string]int)

	for _, date := range dates {
		if err := ctx.Err(); err != nil {
			return eris.Wrap(err, "gold: cancelled")
		}

		events, err := lake.ReadRows[model.CleanEvent](lake.DateFile(a.lake.SilverEventsClean(), date))
		if err != nil {
			return err
		}

		m := model.DailyMetrics{Date: date}
		for _, e := range events {
			switch e.Event {
			case model.EventView:
				m.View++
			case model.EventAddToCart:
				m.AddToCart++
			case model.EventTransaction:
				m.Transaction++
				txByItem[e.ItemID]++

				price, resolver, ok := chain.Resolve(e.ItemID, date)
				if !ok {
					return eris.Errorf("gold: price chain exhausted for item %s on %s", e.ItemID, date)
				}
				if resolver == ResolverMedian {
					a.qc.Inc(quality.MedianFallback)
				}
				m.Revenue += price
			}
		}
		m.CTR, m.CVR = Rates(m.View, m.AddToCart, m.Transaction)
		metrics = append(metrics, m)
	}

	if err := lake.WriteTable(a.lake.GoldDailyMetrics(), metrics); err != nil {
		return err
	}

	top := rankTopItems(txByItem, hist)
	if err := lake.WriteTable(a.lake.GoldTopItems(), top); err != nil {
		return err
	}

	zap.L().Info("gold: aggregation complete",
		zap.Int("daily_metrics_rows", len(metrics)),
		zap.Int("top_items_rows", len(top)),
	)
	return nil
}

// Rates computes ctr (addtocart/view) and cvr (transaction/view). Both are
// nil on dates without views: a rate over zero views is undefined, not zero.
func Rates(view, addToCart, transaction int) (ctr, cvr *float64) {
	if view == 0 {
		return nil, nil
	}
	c := float64(addToCart) / float64(view)
	v := float64(transaction) / float64(view)
	return &c, &v
}

// rankTopItems orders items by transaction count (ties by item id) and
// annotates each with its most recent resolved price, nil when never
// resolved.
func rankTopItems(txByItem map[string]int, hist *PriceHistory) []model.TopItem {
	top := make([]model.TopItem, 0, len(txByItem))
	for itemID, count := range txByItem {
		item := model.TopItem{ItemID: itemID, Transactions: count}
		if price, ok := hist.LatestOverall(itemID); ok {
			item.Price = &price
		}
		top = append(top, item)
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].Transactions != top[j].Transactions {
			return top[i].Transactions > top[j].Transactions
		}
		return top[i].ItemID < top[j].ItemID
	})
	return top
}
