package silver

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

const testDate = "2015-06-01"

func writeBronzePart[T any](t *testing.T, datasetDir, date, name string, rows []T) {
	t.Helper()
	path := lake.PartitionDir(datasetDir, date) + "/" + name
	require.NoError(t, lake.WriteRows(path, rows))
}

func newNormalizer(root string) (*Normalizer, *quality.Collector) {
	qc := quality.NewCollector()
	return New(lake.Lake{Root: root}, config.SilverConfig{Workers: 2}, qc), qc
}

func TestNormalizeEventsDropsIncompleteRows(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	lk := lake.Lake{Root: root}

	writeBronzePart(t, lk.BronzeEvents(), testDate, "part-r1-00000.csv", []model.RawEvent{
		{Timestamp: 1, VisitorID: "v1", Event: "view", ItemID: "i1", Date: testDate},
		{Timestamp: 2, VisitorID: "v2", Event: "", ItemID: "i1", Date: testDate},
		{Timestamp: 3, VisitorID: "v3", Event: "transaction", ItemID: "", Date: testDate},
		{Timestamp: 4, VisitorID: "v4", Event: "addtocart", ItemID: "i2", Date: testDate},
	})

	n, qc := newNormalizer(root)
	require.NoError(t, n.Run(context.Background()))

	clean, err := lake.ReadRows[model.CleanEvent](lake.DateFile(lk.SilverEventsClean(), testDate))
	require.NoError(t, err)
	assert.Equal(t, []model.CleanEvent{
		{VisitorID: "v1", Event: "view", ItemID: "i1"},
		{VisitorID: "v4", Event: "addtocart", ItemID: "i2"},
	}, clean)
	assert.Equal(t, 2, qc.Count(quality.MissingField))
}

func TestResolvePropertiesLastFileWins(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	lk := lake.Lake{Root: root}

	// Two part files; sorted file order is the arrival order, so the part-
	// 00001 value must win over part-00000 for the same item.
	writeBronzePart(t, lk.BronzeItemProps(), testDate, "part-r1-00000.csv", []model.RawPropertyChange{
		{Timestamp: 9, ItemID: "i1", Property: "price", Value: "10.00", Date: testDate},
		{Timestamp: 1, ItemID: "i2", Property: "PRICE", Value: "1,500", Date: testDate},
	})
	writeBronzePart(t, lk.BronzeItemProps(), testDate, "part-r1-00001.csv", []model.RawPropertyChange{
		// Lower timestamp than the earlier record: position still wins.
		{Timestamp: 2, ItemID: "i1", Property: "price", Value: "20.00", Date: testDate},
		{Timestamp: 3, ItemID: "i1", Property: "categoryid", Value: "55", Date: testDate},
	})

	n, _ := newNormalizer(root)
	require.NoError(t, n.Run(context.Background()))

	prices, err := lake.ReadRows[model.ResolvedPrice](lake.DateFile(lk.SilverPriceLatest(), testDate))
	require.NoError(t, err)
	assert.Equal(t, []model.ResolvedPrice{
		{ItemID: "i1", Price: 20},
		{ItemID: "i2", Price: 1500},
	}, prices)

	categories, err := lake.ReadRows[model.ResolvedCategory](lake.DateFile(lk.SilverCategoryLatest(), testDate))
	require.NoError(t, err)
	assert.Equal(t, []model.ResolvedCategory{{ItemID: "i1", CategoryID: "55"}}, categories)
}

func TestResolvePropertiesUnparseablePriceExcluded(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	lk := lake.Lake{Root: root}

	writeBronzePart(t, lk.BronzeItemProps(), testDate, "part-r1-00000.csv", []model.RawPropertyChange{
		{Timestamp: 1, ItemID: "i1", Property: "price", Value: "broken", Date: testDate},
	})

	n, qc := newNormalizer(root)
	require.NoError(t, n.Run(context.Background()))

	// The only candidate failed to parse: no price file for the date at all.
	_, err := os.Stat(lake.DateFile(lk.SilverPriceLatest(), testDate))
	assert.True(t, os.IsNotExist(err))
	assert.Equal(t, 1, qc.Count(quality.BadPrice))
}

func TestNormalizeNoPropertyPartitions(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	lk := lake.Lake{Root: root}

	writeBronzePart(t, lk.BronzeEvents(), testDate, "part-r1-00000.csv", []model.RawEvent{
		{Timestamp: 1, VisitorID: "v1", Event: "view", ItemID: "i1", Date: testDate},
	})

	n, _ := newNormalizer(root)
	require.NoError(t, n.Run(context.Background()))

	dates, err := lake.ListDateFiles(lk.SilverPriceLatest())
	require.NoError(t, err)
	assert.Empty(t, dates)
}
