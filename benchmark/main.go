// Package main provides a performance benchmarking tool for the aimetrics CLI.
// It measures execution times of the repository commands across repositories,
// once with analysis tracking disabled and once with the SQLite backend,
// treating the first successful tracked run as cold and averaging the rest as warm.
//
// Prerequisites:
// - aimetrics binary installed and available in PATH
// - Test repositories cloned to the specified base directory
// - Git repositories: csv-parser, fd, git, kubernetes
//
// Usage: go run benchmark/main.go [repo-base-dir]
//
//	repo-base-dir: Directory containing test repositories
package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

// BenchmarkResult holds the result of a benchmark run (untracked average, cold run and average of warm runs).
type BenchmarkResult struct {
	Repository    string
	Command       string
	UntrackedTime string
	ColdTime      string
	WarmTime      string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	RepoBase      string
	Timeout       time.Duration
	UntrackedRuns int
	TrackedRuns   int
	TestRepos     []string
	Commands      map[string][]string
}

func main() {
	// Parse command line arguments
	if len(os.Args) != 2 {
		fmt.Printf("Usage: %s [repo-base-dir]\n", os.Args[0])
		os.Exit(1)
	}

	config := BenchmarkConfig{
		RepoBase:      os.Args[1],
		Timeout:       5 * time.Minute,
		UntrackedRuns: 3,
		TrackedRuns:   4,
		TestRepos:     []string{"csv-parser", "fd", "git", "kubernetes"},
		Commands: map[string][]string{
			"analyze":  {"analyze", "--days", "365", "--output-file", ""},
			"stats":    {"stats", "--output", "json"},
			"timeline": {"timeline", "--days", "365", "--output", "csv"},
		},
	}

	if err := checkPrerequisites(config); err != nil {
		fmt.Printf("Prerequisites check failed: %v\n", err)
		os.Exit(1)
	}

	dbDir, err := os.MkdirTemp("", "aimetrics-benchmark-*")
	if err != nil {
		fmt.Printf("Failed to create database directory: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = os.RemoveAll(dbDir) }()

	results := runBenchmarks(config, filepath.Join(dbDir, "analysis.db"))

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(results)
}

// checkPrerequisites verifies that the aimetrics binary and test repositories exist
func checkPrerequisites(config BenchmarkConfig) error {
	if _, err := exec.LookPath("aimetrics"); err != nil {
		return fmt.Errorf("aimetrics binary not found in PATH")
	}

	for _, repo := range config.TestRepos {
		repoPath := filepath.Join(config.RepoBase, repo)
		if _, err := os.Stat(repoPath); os.IsNotExist(err) {
			return fmt.Errorf("repository %s not found at %s", repo, repoPath)
		}
	}

	return nil
}

// runBenchmarks executes all benchmark tests across configured repositories
func runBenchmarks(config BenchmarkConfig, dbPath string) []BenchmarkResult {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d repos, %v timeout, untracked: %d runs, tracked: %d runs\n",
		len(config.TestRepos), config.Timeout, config.UntrackedRuns, config.TrackedRuns)

	for _, repo := range config.TestRepos {
		fmt.Printf("Benchmarking %s\n", repo)
		repoPath := filepath.Join(config.RepoBase, repo)
		for _, command := range []string{"analyze", "stats", "timeline"} {
			results = append(results, runBenchmarkSuite(config, repo, repoPath, command, dbPath))
		}
	}

	return results
}

// runBenchmarkSuite runs both untracked and tracked benchmarks for a command
func runBenchmarkSuite(config BenchmarkConfig, repo, repoPath, command, dbPath string) BenchmarkResult {
	fmt.Printf("Running %s on %s\n", command, repo)
	args := config.Commands[command]

	// Helper to run a benchmark phase
	runPhase := func(env []string, numRuns int, phaseName string) (coldTime float64, avgTime string) {
		fmt.Printf("  %s phase (%d runs)\n", phaseName, numRuns)
		cold, times := runBenchmark(config, repoPath, args, env, numRuns)
		if len(times) == 0 {
			return cold, "TIMEOUT"
		}
		var sum float64
		for _, t := range times {
			sum += t
		}
		return cold, fmt.Sprintf("%.3fs", sum/float64(len(times)))
	}

	untracked := []string{"AIMETRICS_ANALYSIS_BACKEND=none"}
	tracked := []string{"AIMETRICS_ANALYSIS_BACKEND=sqlite", "AIMETRICS_ANALYSIS_DB_CONNECT=" + dbPath}

	_, untrackedAvg := runPhase(untracked, config.UntrackedRuns, "Untracked")
	coldTime, warmAvg := runPhase(tracked, config.TrackedRuns, "Tracked")

	coldTimeStr := "TIMEOUT"
	if coldTime > 0 {
		coldTimeStr = fmt.Sprintf("%.3fs", coldTime)
	}

	fmt.Printf("  Untracked average: %s, Cold time: %s, Warm average: %s\n", untrackedAvg, coldTimeStr, warmAvg)

	return BenchmarkResult{
		Repository:    repo,
		Command:       command,
		UntrackedTime: untrackedAvg,
		ColdTime:      coldTimeStr,
		WarmTime:      warmAvg,
	}
}

// runBenchmark executes an aimetrics command multiple times and returns cold time and warm times
func runBenchmark(config BenchmarkConfig, repoPath string, args, env []string, numRuns int) (coldTime float64, warmTimes []float64) {
	var times []float64
	for run := 1; run <= numRuns; run++ {
		ctx, cancel := context.WithTimeout(context.Background(), config.Timeout)
		cmd := exec.CommandContext(ctx, "aimetrics", args...)
		cmd.Dir = repoPath
		cmd.Env = append(os.Environ(), env...)

		start := time.Now()
		err := cmd.Run()
		elapsed := time.Since(start).Seconds()
		cancel()
		if err == nil {
			times = append(times, elapsed)
		}
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
	filename := filepath.Join(os.TempDir(), fmt.Sprintf("aimetrics_benchmark_%s.csv", timestamp))

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

	if err := writer.Write([]string{"repo", "cmd", "untracked_avg", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, result := range results {
		if err := writer.Write([]string{result.Repository, result.Command, result.UntrackedTime, result.ColdTime, result.WarmTime}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary
func printSummary(results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")

	printCommandSummary(results, "analyze", "Analyze:")
	printCommandSummary(results, "stats", "Stats:")
	printCommandSummary(results, "timeline", "Timeline:")
}

// printCommandSummary displays results for a specific command type
func printCommandSummary(results []BenchmarkResult, command, title string) {
	fmt.Printf("%s\n", title)
	for _, result := range results {
		if result.Command == command {
			fmt.Printf("  %-12s: Untracked: %s, Cold: %s, Warm: %s\n", result.Repository, result.UntrackedTime, result.ColdTime, result.WarmTime)
		}
	}
}
