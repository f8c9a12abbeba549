// Package quality tracks row-level data loss and silent-degradation signals
// across a pipeline run so operators can see them without a run failing.
package quality

import (
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Counter names recorded by the pipeline stages.
const (
	BadTimestamp   = "bad_timestamp"    // unparseable epoch, row dropped at ingest
	MalformedRow   = "malformed_row"    // wrong column count, row dropped at ingest
	MissingField   = "missing_field"    // event/item missing, row dropped at silver
	BadPrice       = "bad_price"        // unparseable price value, excluded from resolution
	MedianFallback = "median_fallback"  // transaction priced via the global median constant
	ResidualTrip   = "residual_trip"    // allocation consistency check failed (bug signal)
)

// Collector accumulates named counters. Safe for concurrent use.
type Collector struct {
	mu     sync.Mutex
	counts map[string]int
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{counts: make(map[string]int)}
}

// Inc increments a counter by one.
func (c *Collector) Inc(name string) {
	c.Add(name, 1)
}

// Add increments a counter by n.
func (c *Collector) Add(name string, n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[name] += n
}

// Count returns the current value of a counter.
func (c *Collector) Count(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[name]
}

// Snapshot returns a copy of all non-zero counters.
func (c *Collector) Snapshot() map[string]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap := make(map[string]int, len(c.counts))
	for k, v := range c.counts {
		snap[k] = v
	}
	return snap
}

// LogSummary emits one log line per non-zero counter for a stage.
// MedianFallback and ResidualTrip warn; the rest are informational loss.
func (c *Collector) LogSummary(stage string) {
	snap := c.Snapshot()
	if len(snap) == 0 {
		zap.L().Info("quality: no data loss recorded", zap.String("stage", stage))
		return
	}

	names := make([]string, 0, len(snap))
	for name := range snap {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		fields := []zap.Field{
			zap.String("stage", stage),
			zap.String("counter", name),
			zap.Int("count", snap[name]),
		}
		switch name {
		case MedianFallback, ResidualTrip:
			zap.L().Warn("quality: degradation signal", fields...)
		default:
			zap.L().Info("quality: rows dropped", fields...)
		}
	}
}
