package ingest

import (
	"strconv"
	"strings"
	"time"

	"github.com/retailpulse/lake-cli/internal/lake"
)

// msEpochThreshold separates second-precision from millisecond-precision
// epochs: values above it are treated as milliseconds.
const msEpochThreshold int64 = 100_000_000_000

// EpochDate converts an ambiguous epoch (seconds or milliseconds) to its
// UTC calendar date.
func EpochDate(n int64) string {
	var t time.Time
	if n > msEpochThreshold {
		t = time.UnixMilli(n)
	} else {
		t = time.Unix(n, 0)
	}
	return t.UTC().Format(lake.DateFormat)
}

// ParseEpochDate parses a raw timestamp field and classifies it. A value
// that is not an integer reports ok=false; the caller drops the row as a
// data-quality loss rather than failing the run.
func ParseEpochDate(raw string) (int64, string, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, "", false
	}
	return n, EpochDate(n), true
}
