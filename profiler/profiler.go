// Package profiler - runtime statistics for long-running classifier
// processes: memory and goroutine sampling, named operation timings and
// pluggable metric collectors.
package profiler

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// MetricsCollector supplies custom gauge values on every sample tick.
type MetricsCollector interface {
	CollectMetrics() map[string]float64
}

// Options configures the runtime profiler.
type Options struct {
	// SampleInterval is the cadence of system and collector sampling.
	SampleInterval time.Duration
	// ReportInterval is the cadence of log reports, 0 disables them.
	ReportInterval time.Duration
	// MaxSamples bounds the per-metric history window.
	MaxSamples int
}

// TimingStats summarizes one named operation's recorded durations.
type TimingStats struct {
	Count int           `json:"count"`
	Mean  time.Duration `json:"mean"`
	Min   time.Duration `json:"min"`
	Max   time.Duration `json:"max"`
}

// MetricStats summarizes one collected gauge.
type MetricStats struct {
	Samples int     `json:"samples"`
	Mean    float64 `json:"mean"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
}

// Snapshot is a point-in-time view of the profiled process.
type Snapshot struct {
	Uptime       time.Duration          `json:"uptime"`
	Goroutines   int                    `json:"goroutines"`
	CgoCalls     int64                  `json:"cgo_calls"`
	AllocBytes   uint64                 `json:"alloc_bytes"`
	SysBytes     uint64                 `json:"sys_bytes"`
	HeapObjects  uint64                 `json:"heap_objects"`
	GCCycles     uint32                 `json:"gc_cycles"`
	GCCPUPercent float64                `json:"gc_cpu_percent"`
	Operations   map[string]TimingStats `json:"operations"`
	Metrics      map[string]MetricStats `json:"metrics"`
}

type timeTracker struct {
	durations []time.Duration
	total     time.Duration
	min, max  time.Duration
}

type metricTracker struct {
	values   []float64
	sum      float64
	min, max float64
}

// RuntimeProfiler samples process health in the background and records
// operation timings on demand. Safe for concurrent use.
type RuntimeProfiler struct {
	sampleInterval time.Duration
	reportInterval time.Duration
	maxSamples     int
	startTime      time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu         sync.RWMutex
	started    bool
	collectors []MetricsCollector
	operations map[string]*timeTracker
	metrics    map[string]*metricTracker
}

// NewRuntimeProfiler creates a profiler, applying defaults for unset
// options.
func NewRuntimeProfiler(opts Options) *RuntimeProfiler {
	if opts.SampleInterval <= 0 {
		opts.SampleInterval = 5 * time.Second
	}
	if opts.MaxSamples <= 0 {
		opts.MaxSamples = 1000
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &RuntimeProfiler{
		sampleInterval: opts.SampleInterval,
		reportInterval: opts.ReportInterval,
		maxSamples:     opts.MaxSamples,
		startTime:      time.Now(),
		ctx:            ctx,
		cancel:         cancel,
		operations:     make(map[string]*timeTracker),
		metrics:        make(map[string]*metricTracker),
	}
}

// AddMetricsCollector registers a collector polled on every sample tick.
func (rp *RuntimeProfiler) AddMetricsCollector(collector MetricsCollector) {
	rp.mu.Lock()
	defer rp.mu.Unlock()
	rp.collectors = append(rp.collectors, collector)
}

// Start launches the background sampling and reporting loops. Calling it
// twice is a no-op.
func (rp *RuntimeProfiler) Start() {
	rp.mu.Lock()
	defer rp.mu.Unlock()

	if rp.started {
		return
	}
	rp.started = true

	rp.wg.Add(1)
	go rp.sampleLoop()

	if rp.reportInterval > 0 {
		rp.wg.Add(1)
		go rp.reportLoop()
	}
}

// Stop halts the background loops and waits for them to finish.
func (rp *RuntimeProfiler) Stop() {
	rp.cancel()
	rp.wg.Wait()
}

// StartOperation begins timing a named operation and returns the function
// that records its completion.
func (rp *RuntimeProfiler) StartOperation(name string) func() {
	start := time.Now()
	return func() {
		rp.recordOperation(name, time.Since(start))
	}
}

func (rp *RuntimeProfiler) recordOperation(name string, d time.Duration) {
	rp.mu.Lock()
	defer rp.mu.Unlock()

	t, ok := rp.operations[name]
	if !ok {
		t = &timeTracker{min: d, max: d}
		rp.operations[name] = t
	}

	t.durations = append(t.durations, d)
	if len(t.durations) > rp.maxSamples {
		t.total -= t.durations[0]
		t.durations = t.durations[1:]
	}
	t.total += d

	if d < t.min {
		t.min = d
	}
	if d > t.max {
		t.max = d
	}
}

// RecordMetric records one gauge value outside the collector cycle.
func (rp *RuntimeProfiler) RecordMetric(name string, value float64) {
	rp.mu.Lock()
	defer rp.mu.Unlock()
	rp.recordMetricLocked(name, value)
}

func (rp *RuntimeProfiler) recordMetricLocked(name string, value float64) {
	t, ok := rp.metrics[name]
	if !ok {
		t = &metricTracker{min: value, max: value}
		rp.metrics[name] = t
	}

	t.values = append(t.values, value)
	if len(t.values) > rp.maxSamples {
		t.sum -= t.values[0]
		t.values = t.values[1:]
	}
	t.sum += value

	if value < t.min {
		t.min = value
	}
	if value > t.max {
		t.max = value
	}
}

func (rp *RuntimeProfiler) sampleLoop() {
	defer rp.wg.Done()

	ticker := time.NewTicker(rp.sampleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rp.ctx.Done():
			return
		case <-ticker.C:
			rp.mu.Lock()
			for _, collector := range rp.collectors {
				for name, value := range collector.CollectMetrics() {
					rp.recordMetricLocked(name, value)
				}
			}
			rp.mu.Unlock()
		}
	}
}

func (rp *RuntimeProfiler) reportLoop() {
	defer rp.wg.Done()

	ticker := time.NewTicker(rp.reportInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rp.ctx.Done():
			return
		case <-ticker.C:
			snap := rp.Snapshot()
			logrus.WithFields(logrus.Fields{
				"uptime":     snap.Uptime.Truncate(time.Second),
				"goroutines": snap.Goroutines,
				"alloc":      snap.AllocBytes,
				"gc_cycles":  snap.GCCycles,
			}).Info("runtime status")

			for name, op := range snap.Operations {
				logrus.WithFields(logrus.Fields{
					"operation": name,
					"count":     op.Count,
					"mean":      op.Mean.Truncate(time.Microsecond),
					"min":       op.Min.Truncate(time.Microsecond),
					"max":       op.Max.Truncate(time.Microsecond),
				}).Info("operation timing")
			}
		}
	}
}

// Snapshot captures the current process and metric state.
func (rp *RuntimeProfiler) Snapshot() Snapshot {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	rp.mu.RLock()
	defer rp.mu.RUnlock()

	snap := Snapshot{
		Uptime:       time.Since(rp.startTime),
		Goroutines:   runtime.NumGoroutine(),
		CgoCalls:     runtime.NumCgoCall(),
		AllocBytes:   mem.Alloc,
		SysBytes:     mem.Sys,
		HeapObjects:  mem.HeapObjects,
		GCCycles:     mem.NumGC,
		GCCPUPercent: mem.GCCPUFraction * 100,
		Operations:   make(map[string]TimingStats, len(rp.operations)),
		Metrics:      make(map[string]MetricStats, len(rp.metrics)),
	}

	for name, t := range rp.operations {
		if len(t.durations) == 0 {
			continue
		}
		snap.Operations[name] = TimingStats{
			Count: len(t.durations),
			Mean:  t.total / time.Duration(len(t.durations)),
			Min:   t.min,
			Max:   t.max,
		}
	}

	for name, t := range rp.metrics {
		if len(t.values) == 0 {
			continue
		}
		snap.Metrics[name] = MetricStats{
			Samples: len(t.values),
			Mean:    t.sum / float64(len(t.values)),
			Min:     t.min,
			Max:     t.max,
		}
	}
	return snap
}
