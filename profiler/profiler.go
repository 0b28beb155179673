// Package profiler collects rolling latency statistics for the stages of
// the classification pipeline (preprocess, inference, decode). Thread-safe;
// the frame loop records, a reporting goroutine or the end of a demo run
// reads.
package profiler

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"time"
)

// DefaultMaxSamples bounds the rolling window per stage.
const DefaultMaxSamples = 600

// StageSummary is one stage's statistics over the rolling window.
type StageSummary struct {
	Avg   time.Duration
	Min   time.Duration
	Max   time.Duration
	Count int64
}

type stageStats struct {
	durations []time.Duration
	total     time.Duration
	min       time.Duration
	max       time.Duration
	count     int64
}

// StageProfiler tracks per-stage timings over a bounded rolling window.
type StageProfiler struct {
	mu         sync.Mutex
	maxSamples int
	stages     map[string]*stageStats
	startTime  time.Time
}

// New creates a profiler keeping at most maxSamples timings per stage.
// Zero or negative falls back to DefaultMaxSamples.
func New(maxSamples int) *StageProfiler {
	if maxSamples <= 0 {
		maxSamples = DefaultMaxSamples
	}
	return &StageProfiler{
		maxSamples: maxSamples,
		stages:     make(map[string]*stageStats),
		startTime:  time.Now(),
	}
}

// StartStage begins timing one stage execution.
//
// Arguments:
//   - name: The stage name, e.g. "preprocess" or "inference".
//
// Returns:
//   - func(): Call when the stage completes to record its duration.
func (p *StageProfiler) StartStage(name string) func() {
	start := time.Now()
	return func() {
		p.record(name, time.Since(start))
	}
}

func (p *StageProfiler) record(name string, d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	stats, ok := p.stages[name]
	if !ok {
		stats = &stageStats{min: d, max: d}
		p.stages[name] = stats
	}

	stats.durations = append(stats.durations, d)
	if len(stats.durations) > p.maxSamples {
		stats.total -= stats.durations[0]
		stats.durations = stats.durations[1:]
	}

	stats.total += d
	stats.count++
	if d < stats.min {
		stats.min = d
	}
	if d > stats.max {
		stats.max = d
	}
}

// Snapshot returns the current statistics per stage.
func (p *StageProfiler) Snapshot() map[string]StageSummary {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make(map[string]StageSummary, len(p.stages))
	for name, stats := range p.stages {
		if len(stats.durations) == 0 {
			continue
		}
		out[name] = StageSummary{
			Avg:   stats.total / time.Duration(len(stats.durations)),
			Min:   stats.min,
			Max:   stats.max,
			Count: stats.count,
		}
	}
	return out
}

// Report writes a per-stage timing table, stages in name order.
func (p *StageProfiler) Report(w io.Writer) {
	snapshot := p.Snapshot()

	names := make([]string, 0, len(snapshot))
	for name := range snapshot {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintf(w, "Stage timings after %v:\n", time.Since(p.startTime).Truncate(time.Millisecond))
	for _, name := range names {
		s := snapshot[name]
		fmt.Fprintf(w, "  %s: avg=%v min=%v max=%v count=%d\n",
			name,
			s.Avg.Truncate(time.Microsecond),
			s.Min.Truncate(time.Microsecond),
			s.Max.Truncate(time.Microsecond),
			s.Count)
	}
}
