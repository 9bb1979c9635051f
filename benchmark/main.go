// Package main provides a performance benchmarking tool for the climdash CLI.
// It measures execution times of the dashboard commands against a running
// backend, once with the workspace store disabled (every run fetches the
// default dataset) and once with SQLite (the first run fetches, the rest
// restore), and writes CSV output for performance analysis.
//
// Prerequisites:
// - climdash binary installed and available in PATH
// - A backend reachable at the given URL (e.g. climdash serve)
//
// Usage: go run benchmark/main.go [api-url]
//
//	api-url: Base URL of the dashboard backend
package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"os/exec"
	"time"
)

// BenchmarkResult holds the result of a benchmark run (no-store average, cold run and average of warm runs).
type BenchmarkResult struct {
	Command     string
	NoStoreTime string
	ColdTime    string
	WarmTime    string
}

// BenchmarkCase is one CLI invocation to time.
type BenchmarkCase struct {
	Name string
	Args []string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	APIURL      string
	Timeout     time.Duration
	NoStoreRuns int
	StoreRuns   int
	WorkDir     string
	Cases       []BenchmarkCase
}

func main() {
	// Parse command line arguments
	if len(os.Args) != 2 {
		fmt.Printf("Usage: %s [api-url]\n", os.Args[0])
		os.Exit(1)
	}

	workDir, err := os.MkdirTemp("", "climdash-benchmark-")
	if err != nil {
		fmt.Printf("Failed to create work dir: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = os.RemoveAll(workDir) }()

	config := BenchmarkConfig{
		APIURL:      os.Args[1],
		Timeout:     time.Minute,
		NoStoreRuns: 3,
		StoreRuns:   4,
		WorkDir:     workDir,
		Cases: []BenchmarkCase{
			{Name: "dashboard", Args: []string{"dashboard", "--output", "json"}},
			{Name: "scenario", Args: []string{"scenario", "pessimistic", "--output", "json"}},
			{Name: "sensitivity", Args: []string{"sensitivity", "150", "--output", "json"}},
			{Name: "compare", Args: []string{"compare", "--output", "json"}},
			{Name: "summary", Args: []string{"summary"}},
		},
	}

	if err := checkPrerequisites(); err != nil {
		fmt.Printf("Prerequisites check failed: %v\n", err)
		os.Exit(1)
	}

	results := runBenchmarks(config)

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(results)
}

// checkPrerequisites verifies that the climdash binary exists
func checkPrerequisites() error {
	if _, err := exec.LookPath("climdash"); err != nil {
		return fmt.Errorf("climdash binary not found in PATH")
	}
	return nil
}

// runBenchmarks executes every configured case
func runBenchmarks(config BenchmarkConfig) []BenchmarkResult {
	fmt.Printf("Starting benchmark: %d commands, %v timeout, no-store: %d runs, store: %d runs\n",
		len(config.Cases), config.Timeout, config.NoStoreRuns, config.StoreRuns)

	results := make([]BenchmarkResult, 0, len(config.Cases))
	for _, c := range config.Cases {
		results = append(results, runBenchmarkSuite(config, c))
	}
	return results
}

// runBenchmarkSuite runs both no-store and store benchmarks for a command
func runBenchmarkSuite(config BenchmarkConfig, c BenchmarkCase) BenchmarkResult {
	fmt.Printf("Running %s\n", c.Name)

	// Helper to run a benchmark phase
	runPhase := func(backend string, numRuns int, phaseName string) (coldTime float64, avgTime string) {
		fmt.Printf("  %s phase (%d runs)\n", phaseName, numRuns)
		cold, times := runBenchmark(config, c, backend, numRuns)
		if len(times) == 0 {
			avgTime = "TIMEOUT"
		} else {
			var sum float64
			for _, t := range times {
				sum += t
			}
			avgTime = fmt.Sprintf("%.3fs", sum/float64(len(times)))
		}
		return cold, avgTime
	}

	// Phase 1: every run fetches the default dataset
	_, noStoreAvg := runPhase("none", config.NoStoreRuns, "No-store")

	// Phase 2: start from an empty workspace so the first run is cold
	clearWorkspace(config)
	coldTime, warmAvg := runPhase("sqlite", config.StoreRuns, "Store")

	coldTimeStr := "TIMEOUT"
	if coldTime > 0 {
		coldTimeStr = fmt.Sprintf("%.3fs", coldTime)
	}

	fmt.Printf("  No-store average: %s, Cold time: %s, Warm average: %s\n", noStoreAvg, coldTimeStr, warmAvg)

	return BenchmarkResult{
		Command:     c.Name,
		NoStoreTime: noStoreAvg,
		ColdTime:    coldTimeStr,
		WarmTime:    warmAvg,
	}
}

// clearWorkspace removes the saved workspace snapshot
func clearWorkspace(config BenchmarkConfig) {
	cmd := exec.Command("climdash", "store", "clear", "--target", "workspace")
	cmd.Dir = config.WorkDir
	if output, err := cmd.CombinedOutput(); err != nil {
		fmt.Printf("Warning: failed to clear workspace: %v\nOutput: %s\n", err, string(output))
	}
}

// runBenchmark executes a climdash command multiple times with the specified workspace backend and returns cold time and warm times
func runBenchmark(config BenchmarkConfig, c BenchmarkCase, backend string, numRuns int) (coldTime float64, warmTimes []float64) {
	args := append([]string{}, c.Args...)
	args = append(args, "--api-url", config.APIURL, "--workspace-backend", backend, "--querylog-backend", "none")

	var times []float64
	for range numRuns {
		ctx, cancel := context.WithTimeout(context.Background(), config.Timeout)
		start := time.Now()

		cmd := exec.CommandContext(ctx, "climdash", args...)
		cmd.Dir = config.WorkDir
		if err := cmd.Run(); err == nil {
			times = append(times, time.Since(start).Seconds())
		}
		cancel()
	}

	if len(times) > 0 {
		coldTime = times[0]
		warmTimes = times[1:]
	}
	return
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("/tmp/climdash_benchmark_%s.csv", timestamp)

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filename, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	if err := writer.Write([]string{"cmd", "no_store_avg", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	// Write results
	for _, result := range results {
		if err := writer.Write([]string{result.Command, result.NoStoreTime, result.ColdTime, result.WarmTime}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary
func printSummary(results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")
	for _, result := range results {
		fmt.Printf("  %-12s: No-store: %s, Cold: %s, Warm: %s\n", result.Command, result.NoStoreTime, result.ColdTime, result.WarmTime)
	}
}
