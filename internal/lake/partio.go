package lake

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang/snappy"
	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
)

// snappyExt marks part files carrying a snappy-framed CSV payload.
const snappyExt = ".sz"

// PartFileName builds a unique part-file name from the run identifier and
// the chunk sequence within the run.
func PartFileName(runID string, seq int, compressed bool) string {
	name := fmt.Sprintf("part-%s-%05d.csv", runID, seq)
	if compressed {
		name += snappyExt
	}
	return name
}

// WriteRows encodes rows as a typed CSV file at path, creating parent
// directories as needed. Paths ending in .sz are written snappy-framed.
func WriteRows[T any](path string, rows []T) error {
	data, err := csvutil.Marshal(rows)
	if err != nil {
		return eris.Wrapf(err, "lake: marshal rows for %s", path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "lake: create dir for %s", path)
	}

	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "lake: create %s", path)
	}

	var w io.Writer = f
	var sw *snappy.Writer
	if strings.HasSuffix(path, snappyExt) {
		sw = snappy.NewBufferedWriter(f)
		w = sw
	}

	if _, err := w.Write(data); err != nil {
		f.Close()
		return eris.Wrapf(err, "lake: write %s", path)
	}
	if sw != nil {
		if err := sw.Close(); err != nil {
			f.Close()
			return eris.Wrapf(err, "lake: flush %s", path)
		}
	}
	if err := f.Close(); err != nil {
		return eris.Wrapf(err, "lake: close %s", path)
	}

	return nil
}

// WriteTable writes rows to path through a temp file and rename, so a
// re-run replaces the table in one step instead of exposing a partial file.
func WriteTable[T any](path string, rows []T) error {
	tmp := path + ".tmp"
	if err := WriteRows(tmp, rows); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		return eris.Wrapf(err, "lake: commit %s", path)
	}
	return nil
}

// ReadRows decodes a typed CSV file written by WriteRows, transparently
// decompressing snappy-framed parts.
func ReadRows[T any](path string) ([]T, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "lake: read %s", path)
	}

	if strings.HasSuffix(path, snappyExt) {
		raw, err = io.ReadAll(snappy.NewReader(bytes.NewReader(raw)))
		if err != nil {
			return nil, eris.Wrapf(err, "lake: decompress %s", path)
		}
	}

	var rows []T
	if err := csvutil.Unmarshal(raw, &rows); err != nil {
		return nil, eris.Wrapf(err, "lake: unmarshal %s", path)
	}
	return rows, nil
}
