// Package metrics provides in-memory runtime statistics collection.
package metrics

import (
	"sync"
	"time"
)

// Operation names for the collector.
const (
	OpEmbedding = "embedding"
	OpLLMCall   = "llm_call"
	OpSearch    = "db_search"
	OpIngest    = "ingest"
	OpQuery     = "query"
)

// operation holds aggregated raw metrics for one operation type.
type operation struct {
	Count     int64
	TotalTime time.Duration
	MinTime   time.Duration
	MaxTime   time.Duration
}

// OperationSnapshot provides computed stats for one operation type.
type OperationSnapshot struct {
	Count       int64   `json:"count"`
	TotalTimeMs int64   `json:"total_time_ms"`
	AvgTimeMs   float64 `json:"avg_time_ms"`
	MinTimeMs   int64   `json:"min_time_ms"`
	MaxTimeMs   int64   `json:"max_time_ms"`
}

// Snapshot is the full set of statistics at a point in time.
type Snapshot struct {
	UptimeSeconds float64                      `json:"uptime_seconds"`
	Operations    map[string]OperationSnapshot `json:"operations"`
}

// Collector aggregates operation timings. A nil *Collector is valid and
// records nothing, so instrumented code never needs a nil check.
type Collector struct {
	mu      sync.Mutex
	started time.Time
	ops     map[string]*operation
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{
		started: time.Now(),
		ops:     make(map[string]*operation),
	}
}

// Record adds one timing sample for the named operation.
func (c *Collector) Record(name string, d time.Duration) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	op, ok := c.ops[name]
	if !ok {
		op = &operation{MinTime: d, MaxTime: d}
		c.ops[name] = op
	}
	op.Count++
	op.TotalTime += d
	if d < op.MinTime {
		op.MinTime = d
	}
	if d > op.MaxTime {
		op.MaxTime = d
	}
}

// Snapshot returns computed statistics for all recorded operations.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{Operations: map[string]OperationSnapshot{}}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		UptimeSeconds: time.Since(c.started).Seconds(),
		Operations:    make(map[string]OperationSnapshot, len(c.ops)),
	}
	for name, op := range c.ops {
		s := OperationSnapshot{
			Count:       op.Count,
			TotalTimeMs: op.TotalTime.Milliseconds(),
			MinTimeMs:   op.MinTime.Milliseconds(),
			MaxTimeMs:   op.MaxTime.Milliseconds(),
		}
		if op.Count > 0 {
			s.AvgTimeMs = float64(op.TotalTime.Milliseconds()) / float64(op.Count)
		}
		snap.Operations[name] = s
	}
	return snap
}
