package ingest

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retailpulse/lake-cli/internal/config"
	"github.com/retailpulse/lake-cli/internal/lake"
	"github.com/retailpulse/lake-cli/internal/model"
	"github.com/retailpulse/lake-cli/internal/quality"
)

// writeArchive builds a test export zip from member name -> content.
func writeArchive(t *testing.T, members map[string]string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "export.zip")
	f, err := os.Create(path)
	require.NoError(t, err)

	w := zip.NewWriter(f)
	for name, content := range members {
		entry, err := w.Create(name)
		require.NoError(t, err)
		_, err = entry.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())
	return path
}

func fullArchive(t *testing.T) string {
	t.Helper()

	// 1433116800 = 2015-06-01, 1433203200 = 2015-06-02 (seconds);
	// 1433116800000 is 2015-06-01 again, in milliseconds.
	return writeArchive(t, map[string]string{
		"export/events.csv": "timestamp,visitorid,event,itemid\n" +
			"1433116800,v1,view,i1\n" +
			"1433116800000,v2,addtocart,i1\n" +
			"1433203200,v3,transaction,i2\n" +
			"not-a-timestamp,v4,view,i3\n",
		"export/item_properties_part1.csv": "timestamp,itemid,property,value\n" +
			"1433116800,i1,price,100.00\n" +
			"1433116800,i1,categoryid,55\n",
		"export/item_properties_part2.csv": "timestamp,itemid,property,value\n" +
			"1433203200,i2,price,250.00\n",
		"export/category_tree.csv": "categoryid,parentid\n55,\n",
	})
}

func newIngestor(root, archive string) (*Ingestor, *quality.Collector) {
	qc := quality.NewCollector()
	cfg := config.IngestConfig{Archive: archive, ChunkRows: 2, Compress: false}
	return New(lake.Lake{Root: root}, cfg, qc), qc
}

func TestIngestPartitionsByDate(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	in, qc := newIngestor(root, fullArchive(t))
	require.NoError(t, in.Run(context.Background()))

	lk := lake.Lake{Root: root}

	dates, err := lake.ListPartitionDates(lk.BronzeEvents())
	require.NoError(t, err)
	assert.Equal(t, []string{"2015-06-01", "2015-06-02"}, dates)

	// Seconds and milliseconds epochs for the same day land in one partition.
	parts, err := lake.ListPartFiles(lake.PartitionDir(lk.BronzeEvents(), "2015-06-01"))
	require.NoError(t, err)
	var events []model.RawEvent
	for _, part := range parts {
		rows, err := lake.ReadRows[model.RawEvent](part)
		require.NoError(t, err)
		events = append(events, rows...)
	}
	require.Len(t, events, 2)
	assert.Equal(t, "v1", events[0].VisitorID)
	assert.Equal(t, "2015-06-01", events[1].Date)

	propDates, err := lake.ListPartitionDates(lk.BronzeItemProps())
	require.NoError(t, err)
	assert.Equal(t, []string{"2015-06-01", "2015-06-02"}, propDates)

	// Unparseable timestamp dropped, not fatal.
	assert.Equal(t, 1, qc.Count(quality.BadTimestamp))

	// Category tree copied unchanged.
	tree, err := os.ReadFile(lk.CategoryTree())
	require.NoError(t, err)
	assert.Equal(t, "categoryid,parentid\n55,\n", string(tree))
}

func TestIngestRerunReplacesPartitions(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	archive := fullArchive(t)
	lk := lake.Lake{Root: root}

	in, _ := newIngestor(root, archive)
	require.NoError(t, in.Run(context.Background()))

	countParts := func() int {
		dates, err := lake.ListPartitionDates(lk.BronzeEvents())
		require.NoError(t, err)
		total := 0
		for _, date := range dates {
			parts, err := lake.ListPartFiles(lake.PartitionDir(lk.BronzeEvents(), date))
			require.NoError(t, err)
			total += len(parts)
		}
		return total
	}

	first := countParts()
	require.Positive(t, first)

	in2, _ := newIngestor(root, archive)
	require.NoError(t, in2.Run(context.Background()))

	// Re-running replaces each date partition instead of appending.
	assert.Equal(t, first, countParts())
}

func TestIngestCompressedParts(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	qc := quality.NewCollector()
	in := New(lake.Lake{Root: root},
		config.IngestConfig{Archive: fullArchive(t), ChunkRows: 100, Compress: true}, qc)
	require.NoError(t, in.Run(context.Background()))

	parts, err := lake.ListPartFiles(lake.PartitionDir(lake.Lake{Root: root}.BronzeEvents(), "2015-06-01"))
	require.NoError(t, err)
	require.Len(t, parts, 1)
	assert.Contains(t, parts[0], ".csv.sz")

	rows, err := lake.ReadRows[model.RawEvent](parts[0])
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestIngestMissingArchiveFatal(t *testing.T) {
	t.Parallel()

	in, _ := newIngestor(t.TempDir(), filepath.Join(t.TempDir(), "nope.zip"))
	err := in.Run(context.Background())
	require.Error(t, err)
}

func TestIngestFailedRunLeavesNoStaging(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	archive := writeArchive(t, map[string]string{
		// events.csv is missing the itemid column, which is fatal after the
		// staging area has been created.
		"export/events.csv":                "timestamp,visitorid,event\n1433116800,v1,view\n",
		"export/item_properties_part1.csv": "timestamp,itemid,property,value\n",
		"export/item_properties_part2.csv": "timestamp,itemid,property,value\n",
		"export/category_tree.csv":         "categoryid,parentid\n",
	})

	in, _ := newIngestor(root, archive)
	require.Error(t, in.Run(context.Background()))

	entries, err := os.ReadDir(lake.Lake{Root: root}.BronzeEvents())
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".staging")
	}
}

func TestIngestMissingMemberFatal(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	archive := writeArchive(t, map[string]string{
		"export/events.csv": "timestamp,visitorid,event,itemid\n1433116800,v1,view,i1\n",
	})

	in, _ := newIngestor(root, archive)
	err := in.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "item_properties_part1.csv")
	assert.Contains(t, err.Error(), "category_tree.csv")

	// Fatal before any partition is written.
	dates, listErr := lake.ListPartitionDates(lake.Lake{Root: root}.BronzeEvents())
	require.NoError(t, listErr)
	assert.Empty(t, dates)
}
