package gold

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retailpulse/lake-cli/internal/config"
	"github.com/retailpulse/lake-cli/internal/lake"
	"github.com/retailpulse/lake-cli/internal/model"
	"github.com/retailpulse/lake-cli/internal/quality"
)

func writeSilverFile[T any](t *testing.T, datasetDir, date string, rows []T) {
	t.Helper()
	require.NoError(t, lake.WriteRows(lake.DateFile(datasetDir, date), rows))
}

func repeatEvents(event, itemID string, n int) []model.CleanEvent {
	out := make([]model.CleanEvent, n)
	for i := range out {
		out[i] = model.CleanEvent{VisitorID: "v", Event: event, ItemID: itemID}
	}
	return out
}

func newAggregator(root string) (*Aggregator, *quality.Collector) {
	qc := quality.NewCollector()
	return New(lake.Lake{Root: root}, config.GoldConfig{DefaultMedianPrice: 100}, qc), qc
}

func TestAggregateRevenueProxy(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	lk := lake.Lake{Root: root}
	date := "2015-06-02"

	// Latest resolved prices are 10, 20, 30: median 20. Item y never
	// resolves a price, so its transactions fall back to the median.
	writeSilverFile(t, lk.SilverPriceLatest(), "2015-06-01", []model.ResolvedPrice{
		{ItemID: "x", Price: 10},
		{ItemID: "a", Price: 20},
		{ItemID: "b", Price: 30},
	})

	var events []model.CleanEvent
	events = append(events, repeatEvents(model.EventView, "x", 400)...)
	events = append(events, repeatEvents(model.EventAddToCart, "x", 200)...)
	events = append(events, repeatEvents(model.EventTransaction, "x", 100)...)
	events = append(events, repeatEvents(model.EventTransaction, "y", 50)...)
	writeSilverFile(t, lk.SilverEventsClean(), date, events)

	agg, qc := newAggregator(root)
	require.NoError(t, agg.Run(context.Background()))

	metrics, err := lake.ReadRows[model.DailyMetrics](lk.GoldDailyMetrics())
	require.NoError(t, err)
	require.Len(t, metrics, 1)

	m := metrics[0]
	assert.Equal(t, date, m.Date)
	assert.Equal(t, 400, m.View)
	assert.Equal(t, 200, m.AddToCart)
	assert.Equal(t, 150, m.Transaction)
	// 100 tx at the resolved 10.0 plus 50 tx at the median 20.0.
	assert.InDelta(t, 2000.0, m.Revenue, 1e-9)
	require.NotNil(t, m.CTR)
	require.NotNil(t, m.CVR)
	assert.InDelta(t, 0.5, *m.CTR, 1e-9)
	assert.InDelta(t, 0.375, *m.CVR, 1e-9)

	assert.Equal(t, 50, qc.Count(quality.MedianFallback))

	top, err := lake.ReadRows[model.TopItem](lk.GoldTopItems())
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "x", top[0].ItemID)
	assert.Equal(t, 100, top[0].Transactions)
	require.NotNil(t, top[0].Price)
	assert.Equal(t, 10.0, *top[0].Price)
	assert.Equal(t, "y", top[1].ItemID)
	assert.Nil(t, top[1].Price)
}

func TestAggregateZeroViewDate(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	lk := lake.Lake{Root: root}

	writeSilverFile(t, lk.SilverPriceLatest(), "2015-06-01", []model.ResolvedPrice{
		{ItemID: "i1", Price: 40},
	})
	writeSilverFile(t, lk.SilverEventsClean(), "2015-06-01",
		repeatEvents(model.EventTransaction, "i1", 3))

	agg, _ := newAggregator(root)
	require.NoError(t, agg.Run(context.Background()))

	metrics, err := lake.ReadRows[model.DailyMetrics](lk.GoldDailyMetrics())
	require.NoError(t, err)
	require.Len(t, metrics, 1)

	m := metrics[0]
	assert.Equal(t, 0, m.View)
	assert.Equal(t, 3, m.Transaction)
	assert.Nil(t, m.CTR)
	assert.Nil(t, m.CVR)
	assert.InDelta(t, 120.0, m.Revenue, 1e-9)
}

func TestAggregateNoPricesUsesConfiguredFallback(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	lk := lake.Lake{Root: root}

	writeSilverFile(t, lk.SilverEventsClean(), "2015-06-01",
		repeatEvents(model.EventTransaction, "i1", 2))

	agg, qc := newAggregator(root)
	require.NoError(t, agg.Run(context.Background()))

	metrics, err := lake.ReadRows[model.DailyMetrics](lk.GoldDailyMetrics())
	require.NoError(t, err)
	require.Len(t, metrics, 1)
	assert.InDelta(t, 200.0, metrics[0].Revenue, 1e-9)
	assert.Equal(t, 2, qc.Count(quality.MedianFallback))
}

func TestAggregateIdempotent(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	lk := lake.Lake{Root: root}

	writeSilverFile(t, lk.SilverPriceLatest(), "2015-06-01", []model.ResolvedPrice{
		{ItemID: "i1", Price: 15},
	})
	events := append(repeatEvents(model.EventView, "i1", 5),
		repeatEvents(model.EventTransaction, "i1", 2)...)
	writeSilverFile(t, lk.SilverEventsClean(), "2015-06-01", events)
	writeSilverFile(t, lk.SilverEventsClean(), "2015-06-02",
		repeatEvents(model.EventView, "i1", 7))

	agg, _ := newAggregator(root)
	require.NoError(t, agg.Run(context.Background()))
	first, err := os.ReadFile(lk.GoldDailyMetrics())
	require.NoError(t, err)
	firstTop, err := os.ReadFile(lk.GoldTopItems())
	require.NoError(t, err)

	agg2, _ := newAggregator(root)
	require.NoError(t, agg2.Run(context.Background()))
	second, err := os.ReadFile(lk.GoldDailyMetrics())
	require.NoError(t, err)
	secondTop, err := os.ReadFile(lk.GoldTopItems())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, firstTop, secondTop)
}
