// Package benchmark - latency measurement for classification runs.
package benchmark

import (
	"sort"
	"time"
)

// Result captures one scenario's performance data.
type Result struct {
	Scenario      Scenario      `json:"scenario"`
	Timestamp     time.Time     `json:"timestamp"`
	TotalDuration time.Duration `json:"total_duration"`
	Latency       LatencyStats  `json:"latency"`
	Throughput    float64       `json:"throughput"`
	ErrorRate     float64       `json:"error_rate"`
	MemoryStats   MemoryMetrics `json:"memory_stats"`
	NumCPU        int           `json:"num_cpu"`
}

// LatencyStats summarizes per-run latency samples.
type LatencyStats struct {
	Min  time.Duration `json:"min"`
	Max  time.Duration `json:"max"`
	Mean time.Duration `json:"mean"`
	P50  time.Duration `json:"p50"`
	P95  time.Duration `json:"p95"`
	P99  time.Duration `json:"p99"`
}

// MemoryMetrics captures memory usage statistics across a scenario.
type MemoryMetrics struct {
	AllocBytes      uint64 `json:"alloc_bytes"`
	TotalAllocBytes uint64 `json:"total_alloc_bytes"`
	SysBytes        uint64 `json:"sys_bytes"`
	NumGC           uint32 `json:"num_gc"`
	HeapAllocBytes  uint64 `json:"heap_alloc_bytes"`
	HeapSysBytes    uint64 `json:"heap_sys_bytes"`
}

// computeLatencyStats condenses raw samples into the summary statistics.
// The input slice is sorted in place.
func computeLatencyStats(samples []time.Duration) LatencyStats {
	if len(samples) == 0 {
		return LatencyStats{}
	}

	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })

	var total time.Duration
	for _, s := range samples {
		total += s
	}

	return LatencyStats{
		Min:  samples[0],
		Max:  samples[len(samples)-1],
		Mean: total / time.Duration(len(samples)),
		P50:  percentile(samples, 50),
		P95:  percentile(samples, 95),
		P99:  percentile(samples, 99),
	}
}

// percentile picks the nearest-rank percentile from sorted samples.
func percentile(sorted []time.Duration, p int) time.Duration {
	idx := len(sorted) * p / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
