package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nvr-ai/go-efficientnet/benchmark"
)

var benchOpts struct {
	Variant    string
	Weights    string
	Iterations int
	Warmup     int
	OutputDir  string
}

// benchCmd represents the efficientnet command for bench.
var benchCmd = &cobra.Command{
	Use:          "bench [flags] <image-dir>",
	Short:        "Measure classification latency over an image corpus",
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBench(cmd.Context(), args[0])
	},
}

func init() {
	flags := benchCmd.Flags()
	flags.StringVar(&benchOpts.Variant, "variant", "b0", "specify the variant (b0-b7)")
	flags.StringVar(&benchOpts.Weights, "weights", "", "specify a weight entry by name")
	flags.IntVar(&benchOpts.Iterations, "iterations", 100, "timed iterations")
	flags.IntVar(&benchOpts.Warmup, "warmup", 10, "warmup runs before timing")
	flags.StringVar(&benchOpts.OutputDir, "output", "", "directory for JSON and CSV results, empty keeps them in memory")

	if err := viper.BindPFlags(flags); err != nil {
		panic(fmt.Errorf("bind bench flags to viper: %w", err))
	}
}

func runBench(ctx context.Context, corpusDir string) error {
	model, err := buildModel(ctx, benchOpts.Variant, benchOpts.Weights, 1)
	if err != nil {
		return err
	}
	defer model.Close()

	suite := benchmark.NewSuite(model, benchOpts.OutputDir)
	if err := suite.LoadCorpus(corpusDir); err != nil {
		return err
	}

	suite.AddScenario(benchmark.Scenario{
		Name:       model.Variant().String(),
		Iterations: benchOpts.Iterations,
		WarmupRuns: benchOpts.Warmup,
	})
	if err := suite.RunAll(ctx); err != nil {
		return err
	}

	results := suite.Results()
	if len(results) == 0 {
		return fmt.Errorf("benchmark produced no results")
	}
	result := results[0]

	fmt.Printf("%s: %.2f images/s\n", result.Scenario.Name, result.Throughput)
	fmt.Printf("  latency p50 %s, p95 %s, p99 %s (min %s, max %s)\n",
		result.Latency.P50, result.Latency.P95, result.Latency.P99,
		result.Latency.Min, result.Latency.Max)
	if result.ErrorRate > 0 {
		fmt.Printf("  error rate %.2f%%\n", result.ErrorRate*100)
	}
	return nil
}
