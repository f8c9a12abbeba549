package silver

import (
	"math"
	"strconv"
	"strings"
)

// PropertyRecord is one change-log row, carried in file-arrival order.
type PropertyRecord struct {
	ItemID   string
	Property string
	Value    string
}

// ResolveLatest folds change records in the order given and returns the last
// value seen per item for the requested property (matched case-insensitively).
//
// The tie-break is positional, not temporal: records are concatenated in
// file-arrival order and the last record encountered in that order for a
// given item is the resolved value for that date. Intra-day temporal
// ordering is not reliably available in the source change log, so "last
// write wins by position" is the source-of-truth policy and must not be
// replaced by a timestamp comparison.
func ResolveLatest(records []PropertyRecord, property string) map[string]string {
	want := strings.ToLower(property)
	resolved := make(map[string]string)
	for _, r := range records {
		if strings.ToLower(r.Property) == want {
			resolved[r.ItemID] = r.Value
		}
	}
	return resolved
}

// ParsePrice parses a raw price value, stripping thousands separators and
// surrounding space. Unparseable values report ok=false and are excluded
// from resolution, leaving the item without a price that day.
func ParsePrice(raw string) (float64, bool) {
	s := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
