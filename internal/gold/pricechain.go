package gold

import (
	"sort"

	"github.com/retailpulse/lake-cli/internal/lake"
	"github.com/retailpulse/lake-cli/internal/model"
)

// Resolver names, reported by Chain.Resolve so callers can surface which
// strategy priced a transaction.
const (
	ResolverLatestAsOf    = "latest_as_of"
	ResolverLatestOverall = "latest_overall"
	ResolverMedian        = "median"
)

// PriceResolver resolves a price for an item as of a date. ok=false means
// the resolver has no answer and the chain falls through to the next one.
type PriceResolver interface {
	Name() string
	Resolve(itemID, date string) (float64, bool)
}

// Chain tries resolvers in priority order, returning the first hit along
// with the name of the resolver that produced it.
type Chain struct {
	resolvers []PriceResolver
}

// NewChain creates a Chain over the given resolvers.
func NewChain(resolvers ...PriceResolver) *Chain {
	return &Chain{resolvers: resolvers}
}

// DefaultChain is the revenue-proxy fallback order: the item's latest
// resolved price as of the date, then its latest resolved price anywhere,
// then the run-wide median constant.
func DefaultChain(h *PriceHistory, median float64) *Chain {
	return NewChain(
		asOfResolver{h: h},
		latestOverallResolver{h: h},
		constantResolver{price: median},
	)
}

// Resolve runs the chain for one item and date.
func (c *Chain) Resolve(itemID, date string) (float64, string, bool) {
	for _, r := range c.resolvers {
		if price, ok := r.Resolve(itemID, date); ok {
			return price, r.Name(), true
		}
	}
	return 0, "", false
}

type asOfResolver struct {
	h *PriceHistory
}

func (r asOfResolver) Name() string { return ResolverLatestAsOf }

func (r asOfResolver) Resolve(itemID, date string) (float64, bool) {
	return r.h.LatestAsOf(itemID, date)
}

type latestOverallResolver struct {
	h *PriceHistory
}

func (r latestOverallResolver) Name() string { return ResolverLatestOverall }

func (r latestOverallResolver) Resolve(itemID, _ string) (float64, bool) {
	return r.h.LatestOverall(itemID)
}

type constantResolver struct {
	price float64
}

func (r constantResolver) Name() string { return ResolverMedian }

func (r constantResolver) Resolve(_, _ string) (float64, bool) {
	return r.price, true
}

// pricePoint is one resolved price on one date.
type pricePoint struct {
	date  string
	price float64
}

// PriceHistory holds every item's resolved prices in date order.
type PriceHistory struct {
	byItem map[string][]pricePoint
}

// NewPriceHistory creates an empty history. Points must be added in
// ascending date order per item.
func NewPriceHistory() *PriceHistory {
	return &PriceHistory{byItem: make(map[string][]pricePoint)}
}

// Add appends one resolved price for an item.
func (h *PriceHistory) Add(itemID, date string, price float64) {
	h.byItem[itemID] = append(h.byItem[itemID], pricePoint{date: date, price: price})
}

// LoadPriceHistory reads every resolved-price date file of the Silver layer.
func LoadPriceHistory(datasetDir string) (*PriceHistory, error) {
	dates, err := lake.ListDateFiles(datasetDir)
	if err != nil {
		return nil, err
	}

	h := NewPriceHistory()
	for _, date := range dates {
		rows, err := lake.ReadRows[model.ResolvedPrice](lake.DateFile(datasetDir, date))
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			h.Add(r.ItemID, date, r.Price)
		}
	}
	return h, nil
}

// LatestAsOf returns the item's most recent resolved price on or before the
// given date.
func (h *PriceHistory) LatestAsOf(itemID, date string) (float64, bool) {
	points := h.byItem[itemID]
	for i := len(points) - 1; i >= 0; i-- {
		if points[i].date <= date {
			return points[i].price, true
		}
	}
	return 0, false
}

// LatestOverall returns the item's most recent resolved price on any date.
func (h *PriceHistory) LatestOverall(itemID string) (float64, bool) {
	points := h.byItem[itemID]
	if len(points) == 0 {
		return 0, false
	}
	return points[len(points)-1].price, true
}

// MedianLatest computes the median of all items' most recent resolved
// prices. ok=false when no item has any resolved price.
func (h *PriceHistory) MedianLatest() (float64, bool) {
	var latest []float64
	for _, points := range h.byItem {
		if len(points) > 0 {
			latest = append(latest, points[len(points)-1].price)
		}
	}
	if len(latest) == 0 {
		return 0, false
	}

	sort.Float64s(latest)
	mid := len(latest) / 2
	if len(latest)%2 == 1 {
		return latest[mid], true
	}
	return (latest[mid-1] + latest[mid]) / 2, true
}
