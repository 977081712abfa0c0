package benchmark

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nvr-ai/go-efficientnet/images"
	"github.com/nvr-ai/go-efficientnet/inference"
	"github.com/nvr-ai/go-efficientnet/util"
)

// Classifier is the surface the suite drives. *efficientnet.Model
// satisfies it.
type Classifier interface {
	Classify(ctx context.Context, img image.Image) ([]inference.Prediction, error)
}

// Scenario defines one measurement configuration.
type Scenario struct {
	Name       string `json:"name"`
	Iterations int    `json:"iterations"`
	WarmupRuns int    `json:"warmup_runs"`
}

// Suite manages and executes benchmark scenarios against one classifier.
type Suite struct {
	classifier Classifier
	outputDir  string

	mu        sync.RWMutex
	scenarios []Scenario
	corpus    []image.Image
	results   []Result
}

// NewSuite creates a benchmark suite. Results are persisted under
// outputDir when RunAll finishes; an empty outputDir skips persistence.
func NewSuite(classifier Classifier, outputDir string) *Suite {
	return &Suite{
		classifier: classifier,
		outputDir:  outputDir,
		scenarios:  make([]Scenario, 0),
		results:    make([]Result, 0),
	}
}

// AddScenario adds a measurement configuration to the suite.
func (s *Suite) AddScenario(scenario Scenario) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scenarios = append(s.scenarios, scenario)
}

// AddImage appends an in-memory image to the measurement corpus.
func (s *Suite) AddImage(img image.Image) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.corpus = append(s.corpus, img)
}

// LoadCorpus decodes every supported image in a directory into the
// measurement corpus.
func (s *Suite) LoadCorpus(dir string) error {
	files, err := util.LoadImageFiles(dir)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range files {
		img, _, err := images.Decode(f.Data)
		if err != nil {
			logrus.WithField("path", f.Path).WithError(err).Warn("skipping undecodable image")
			continue
		}
		s.corpus = append(s.corpus, img)
	}
	if len(s.corpus) == 0 {
		return fmt.Errorf("no decodable images in %s", dir)
	}
	return nil
}

// RunScenario executes a single scenario: warmup runs, then timed
// iterations cycling over the corpus with per-run latency samples and
// memory stats captured around the timed section.
func (s *Suite) RunScenario(ctx context.Context, scenario Scenario) (*Result, error) {
	s.mu.RLock()
	corpus := s.corpus
	s.mu.RUnlock()

	if len(corpus) == 0 {
		return nil, fmt.Errorf("scenario %s has no corpus images", scenario.Name)
	}
	if scenario.Iterations <= 0 {
		return nil, fmt.Errorf("scenario %s has no iterations", scenario.Name)
	}

	for i := 0; i < scenario.WarmupRuns; i++ {
		if _, err := s.classifier.Classify(ctx, corpus[i%len(corpus)]); err != nil {
			logrus.WithError(err).Debug("warmup run failed")
		}
	}

	var startMem runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&startMem)

	samples := make([]time.Duration, 0, scenario.Iterations)
	errors := 0
	startTime := time.Now()

	for i := 0; i < scenario.Iterations; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		runStart := time.Now()
		if _, err := s.classifier.Classify(ctx, corpus[i%len(corpus)]); err != nil {
			errors++
			continue
		}
		samples = append(samples, time.Since(runStart))
	}

	totalDuration := time.Since(startTime)

	var endMem runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&endMem)

	result := &Result{
		Scenario:      scenario,
		Timestamp:     time.Now(),
		TotalDuration: totalDuration,
		Latency:       computeLatencyStats(samples),
		Throughput:    float64(len(samples)) / totalDuration.Seconds(),
		ErrorRate:     float64(errors) / float64(scenario.Iterations),
		MemoryStats: MemoryMetrics{
			AllocBytes:      endMem.Alloc,
			TotalAllocBytes: endMem.TotalAlloc - startMem.TotalAlloc,
			SysBytes:        endMem.Sys,
			NumGC:           endMem.NumGC - startMem.NumGC,
			HeapAllocBytes:  endMem.HeapAlloc,
			HeapSysBytes:    endMem.HeapSys,
		},
		NumCPU: runtime.NumCPU(),
	}
	return result, nil
}

// RunAll executes every configured scenario and persists the results.
func (s *Suite) RunAll(ctx context.Context) error {
	s.mu.RLock()
	scenarios := make([]Scenario, len(s.scenarios))
	copy(scenarios, s.scenarios)
	s.mu.RUnlock()

	for _, scenario := range scenarios {
		result, err := s.RunScenario(ctx, scenario)
		if err != nil {
			logrus.WithField("scenario", scenario.Name).WithError(err).Error("scenario failed")
			continue
		}

		s.mu.Lock()
		s.results = append(s.results, *result)
		s.mu.Unlock()

		logrus.WithFields(logrus.Fields{
			"scenario":   scenario.Name,
			"throughput": fmt.Sprintf("%.2f/s", result.Throughput),
			"p50":        result.Latency.P50,
			"p99":        result.Latency.P99,
		}).Info("scenario completed")
	}

	return s.SaveResults()
}

// SaveResults persists collected results as timestamped JSON plus a
// summary CSV. A suite without an output directory keeps results in
// memory only.
func (s *Suite) SaveResults() error {
	if s.outputDir == "" {
		return nil
	}

	s.mu.RLock()
	results := make([]Result, len(s.results))
	copy(results, s.results)
	s.mu.RUnlock()

	if err := os.MkdirAll(s.outputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")

	resultsFile := filepath.Join(s.outputDir, fmt.Sprintf("benchmark_results_%s.json", timestamp))
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	if err := os.WriteFile(resultsFile, data, 0o644); err != nil {
		return fmt.Errorf("failed to write results file: %w", err)
	}

	summaryFile := filepath.Join(s.outputDir, fmt.Sprintf("benchmark_summary_%s.csv", timestamp))
	if err := s.saveSummaryCSV(summaryFile, results); err != nil {
		return fmt.Errorf("failed to save summary CSV: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"results": resultsFile,
		"summary": summaryFile,
	}).Info("benchmark results saved")
	return nil
}

func (s *Suite) saveSummaryCSV(filename string, results []Result) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	header := "Scenario,Iterations,Throughput,P50_ms,P95_ms,P99_ms,Mean_ms,Error_Rate\n"
	if _, err := file.WriteString(header); err != nil {
		return err
	}

	for _, r := range results {
		line := fmt.Sprintf("%s,%d,%.2f,%.2f,%.2f,%.2f,%.2f,%.4f\n",
			r.Scenario.Name,
			r.Scenario.Iterations,
			r.Throughput,
			float64(r.Latency.P50.Nanoseconds())/1e6,
			float64(r.Latency.P95.Nanoseconds())/1e6,
			float64(r.Latency.P99.Nanoseconds())/1e6,
			float64(r.Latency.Mean.Nanoseconds())/1e6,
			r.ErrorRate,
		)
		if _, err := file.WriteString(line); err != nil {
			return err
		}
	}
	return nil
}

// Results returns a copy of all collected results.
func (s *Suite) Results() []Result {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]Result, len(s.results))
	copy(results, s.results)
	return results
}
