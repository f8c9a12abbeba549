// Package ingest reads the raw export archive in bounded chunks and writes
// the Bronze layer: per-calendar-day partitions of raw events and raw
// item-property changes, plus an unchanged copy of the category tree.
package ingest

import (
	"archive/zip"
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/retailpulse/lake-cli/internal/config"
	"github.com/retailpulse/lake-cli/internal/lake"
	"github.com/retailpulse/lake-cli/internal/model"
	"github.com/retailpulse/lake-cli/internal/quality"
)

// Required archive members, matched by path suffix anywhere in the archive.
const (
	memberEvents = "events.csv"
	memberProps1 = "item_properties_part1.csv"
	memberProps2 = "item_properties_part2.csv"
	memberTree   = "category_tree.csv"
)

// Ingestor partitions the raw archive into the Bronze layer.
type Ingestor struct {
	lake lake.Lake
	cfg  config.IngestConfig
	qc   *quality.Collector
}

// New creates an Ingestor.
func New(lk lake.Lake, cfg config.IngestConfig, qc *quality.Collector) *Ingestor {
	return &Ingestor{lake: lk, cfg: cfg, qc: qc}
}

// Run ingests the archive. A missing archive or missing required member is
// fatal and aborts before any partition is written; malformed rows are
// skipped and counted.
func (in *Ingestor) Run(ctx context.Context) error {
	r, err := zip.OpenReader(in.cfg.Archive)
	if err != nil {
		return eris.Wrapf(err, "ingest: open archive %s", in.cfg.Archive)
	}
	defer r.Close() //nolint:errcheck

	members, err := findMembers(&r.Reader)
	if err != nil {
		return err
	}

	runID := uuid.New().String()[:8]
	log := zap.L().With(zap.String("run_id", runID), zap.String("archive", in.cfg.Archive))
	log.Info("ingest: starting bronze ingestion", zap.Int("chunk_rows", in.cfg.ChunkRows))

	if err := in.ingestEvents(ctx, members[memberEvents], runID); err != nil {
		return err
	}
	if err := in.ingestItemProps(ctx, []*zip.File{members[memberProps1], members[memberProps2]}, runID); err != nil {
		return err
	}
	if err := in.copyCategoryTree(members[memberTree]); err != nil {
		return err
	}

	log.Info("ingest: bronze ingestion complete")
	return nil
}

// findMembers locates every required dataset inside the archive.
func findMembers(r *zip.Reader) (map[string]*zip.File, error) {
	want := []string{memberEvents, memberProps1, memberProps2, memberTree}
	members := make(map[string]*zip.File, len(want))

	for _, suffix := range want {
		for _, f := range r.File {
			if strings.HasSuffix(f.Name, suffix) {
				members[suffix] = f
				break
			}
		}
	}

	var missing []string
	for _, suffix := range want {
		if members[suffix] == nil {
			missing = append(missing, suffix)
		}
	}
	if len(missing) > 0 {
		return nil, eris.Errorf("ingest: archive is missing required members: %s", strings.Join(missing, ", "))
	}
	return members, nil
}

// ingestEvents streams the events member in fixed-size row chunks, grouping
// each chunk by calendar date and writing one part file per (chunk, date).
func (in *Ingestor) ingestEvents(ctx context.Context, member *zip.File, runID string) error {
	stager, err := lake.NewStager(in.lake.BronzeEvents(), runID)
	if err != nil {
		return err
	}
	defer stager.Abort() //nolint:errcheck

	rc, err := member.Open()
	if err != nil {
		return eris.Wrapf(err, "ingest: open member %s", member.Name)
	}
	defer rc.Close() //nolint:errcheck

	reader := csv.NewReader(rc)
	reader.FieldsPerRecord = -1

	cols, err := columnIndexes(reader, member.Name, "timestamp", "visitorid", "event", "itemid")
	if err != nil {
		return err
	}

	buf := make(map[string][]model.RawEvent)
	rows, seq := 0, 0

	flush := func() error {
		for date, events := range buf {
			path := stager.PartPath(date, lake.PartFileName(runID, seq, in.cfg.Compress))
			if err := lake.WriteRows(path, events); err != nil {
				return err
			}
		}
		buf = make(map[string][]model.RawEvent)
		rows = 0
		seq++
		return nil
	}

	for {
		if err := ctx.Err(); err != nil {
			return eris.Wrap(err, "ingest: events cancelled")
		}

		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return eris.Wrapf(err, "ingest: read %s", member.Name)
		}

		row, ok := pick(record, cols, "timestamp", "visitorid", "event", "itemid")
		if !ok {
			in.qc.Inc(quality.MalformedRow)
			continue
		}
		ts, date, ok := ParseEpochDate(row[0])
		if !ok {
			in.qc.Inc(quality.BadTimestamp)
			continue
		}

		buf[date] = append(buf[date], model.RawEvent{
			Timestamp: ts,
			VisitorID: row[1],
			Event:     row[2],
			ItemID:    row[3],
			Date:      date,
		})
		rows++
		if rows >= in.cfg.ChunkRows {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if rows > 0 {
		if err := flush(); err != nil {
			return err
		}
	}

	return stager.Commit()
}

// ingestItemProps streams both item-property members through one stager and
// a shared chunk sequence, so part names stay unique across the two files.
func (in *Ingestor) ingestItemProps(ctx context.Context, members []*zip.File, runID string) error {
	stager, err := lake.NewStager(in.lake.BronzeItemProps(), runID)
	if err != nil {
		return err
	}
	defer stager.Abort() //nolint:errcheck

	buf := make(map[string][]model.RawPropertyChange)
	rows, seq := 0, 0

	flush := func() error {
		for date, changes := range buf {
			path := stager.PartPath(date, lake.PartFileName(runID, seq, in.cfg.Compress))
			if err := lake.WriteRows(path, changes); err != nil {
				return err
			}
		}
		buf = make(map[string][]model.RawPropertyChange)
		rows = 0
		seq++
		return nil
	}

	for _, member := range members {
		rc, err := member.Open()
		if err != nil {
			return eris.Wrapf(err, "ingest: open member %s", member.Name)
		}

		reader := csv.NewReader(rc)
		reader.FieldsPerRecord = -1

		cols, err := columnIndexes(reader, member.Name, "timestamp", "itemid", "property", "value")
		if err != nil {
			rc.Close()
			return err
		}

		for {
			if err := ctx.Err(); err != nil {
				rc.Close()
				return eris.Wrap(err, "ingest: item properties cancelled")
			}

			record, err := reader.Read()
			if err == io.EOF {
				break
			}
			if err != nil {
				rc.Close()
				return eris.Wrapf(err, "ingest: read %s", member.Name)
			}

			row, ok := pick(record, cols, "timestamp", "itemid", "property", "value")
			if !ok {
				in.qc.Inc(quality.MalformedRow)
				continue
			}
			ts, date, ok := ParseEpochDate(row[0])
			if !ok {
				in.qc.Inc(quality.BadTimestamp)
				continue
			}

			buf[date] = append(buf[date], model.RawPropertyChange{
				Timestamp: ts,
				ItemID:    row[1],
				Property:  row[2],
				Value:     row[3],
				Date:      date,
			})
			rows++
			if rows >= in.cfg.ChunkRows {
				if err := flush(); err != nil {
					rc.Close()
					return err
				}
			}
		}
		rc.Close()
	}
	if rows > 0 {
		if err := flush(); err != nil {
			return err
		}
	}

	return stager.Commit()
}

// copyCategoryTree copies the static category tree through unchanged.
func (in *Ingestor) copyCategoryTree(member *zip.File) error {
	rc, err := member.Open()
	if err != nil {
		return eris.Wrapf(err, "ingest: open member %s", member.Name)
	}
	defer rc.Close() //nolint:errcheck

	dest := in.lake.CategoryTree()
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return eris.Wrapf(err, "ingest: create dir for %s", dest)
	}

	out, err := os.Create(dest)
	if err != nil {
		return eris.Wrapf(err, "ingest: create %s", dest)
	}
	defer out.Close() //nolint:errcheck

	if _, err := io.Copy(out, rc); err != nil {
		return eris.Wrapf(err, "ingest: copy category tree")
	}
	return nil
}

// columnIndexes reads the header row and maps the wanted column names to
// their positions. A member without the expected header is unusable and
// therefore fatal.
func columnIndexes(reader *csv.Reader, memberName string, names ...string) (map[string]int, error) {
	header, err := reader.Read()
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: read header of %s", memberName)
	}

	idx := make(map[string]int, len(names))
	for i, col := range header {
		idx[strings.ToLower(strings.TrimSpace(col))] = i
	}

	cols := make(map[string]int, len(names))
	for _, name := range names {
		i, ok := idx[name]
		if !ok {
			return nil, eris.Errorf("ingest: member %s is missing column %q", memberName, name)
		}
		cols[name] = i
	}
	return cols, nil
}

// pick extracts the named columns from a record in order. Records too short
// to carry every column report ok=false.
func pick(record []string, cols map[string]int, names ...string) ([]string, bool) {
	out := make([]string, len(names))
	for i, name := range names {
		j := cols[name]
		if j >= len(record) {
			return nil, false
		}
		out[i] = record[j]
	}
	return out, true
}
