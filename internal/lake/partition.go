package lake

import (
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
)

// Stager accumulates partition writes for one dataset under a hidden staging
// directory, then swaps each completed date partition over the previous one.
// Re-running a stage therefore replaces partitions instead of appending
// duplicate part files to them.
type Stager struct {
	datasetDir string
	stagingDir string
}

// NewStager creates the staging area for a dataset. Any leftover staging
// directory from an interrupted run with the same id is removed first.
func NewStager(datasetDir, runID string) (*Stager, error) {
	staging := filepath.Join(datasetDir, ".staging-"+runID)
	if err := os.RemoveAll(staging); err != nil {
		return nil, eris.Wrapf(err, "lake: clear staging dir %s", staging)
	}
	if err := os.MkdirAll(staging, 0o755); err != nil {
		return nil, eris.Wrapf(err, "lake: create staging dir %s", staging)
	}
	return &Stager{datasetDir: datasetDir, stagingDir: staging}, nil
}

// PartPath returns the staged location for a part file of one date.
func (s *Stager) PartPath(date, fileName string) string {
	return filepath.Join(s.stagingDir, partitionPrefix+date, fileName)
}

// Commit moves every staged date partition over its live counterpart and
// removes the staging directory. Dates not touched by this run keep their
// existing partitions.
func (s *Stager) Commit() error {
	entries, err := os.ReadDir(s.stagingDir)
	if err != nil {
		return eris.Wrapf(err, "lake: read staging dir %s", s.stagingDir)
	}

	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		live := filepath.Join(s.datasetDir, e.Name())
		if err := os.RemoveAll(live); err != nil {
			return eris.Wrapf(err, "lake: remove stale partition %s", live)
		}
		if err := os.Rename(filepath.Join(s.stagingDir, e.Name()), live); err != nil {
			return eris.Wrapf(err, "lake: commit partition %s", live)
		}
	}

	if err := os.RemoveAll(s.stagingDir); err != nil {
		return eris.Wrapf(err, "lake: remove staging dir %s", s.stagingDir)
	}
	return nil
}

// Abort discards all staged writes. After a successful Commit the staging
// directory is already gone and Abort is a no-op.
func (s *Stager) Abort() error {
	return eris.Wrapf(os.RemoveAll(s.stagingDir), "lake: abort staging dir %s", s.stagingDir)
}
