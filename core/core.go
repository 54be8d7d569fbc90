// Package core has the commit analysis pipeline and the entry points behind each command.
package core

import (
	"context"
	"fmt"
	"time"

	"github.com/ncolesummers/ai-code-metrics/core/agg"
	"github.com/ncolesummers/ai-code-metrics/core/roi"
	"github.com/ncolesummers/ai-code-metrics/internal/contract"
	"github.com/ncolesummers/ai-code-metrics/internal/outwriter"
	"github.com/ncolesummers/ai-code-metrics/internal/security"
	"github.com/ncolesummers/ai-code-metrics/schema"
)

// ExecutorFunc defines the function signature for executing the repository commands.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config, client contract.GitClient, mgr contract.StoreManager) error

// ExecuteAnalyze classifies the commits of the configured window and writes the report.
// It serves as the main entry point for the 'analyze' command.
func ExecuteAnalyze(ctx context.Context, cfg *contract.Config, client contract.GitClient, mgr contract.StoreManager) error {
	start := time.Now()
	report, err := RunAnalyze(ctx, cfg, client, mgr)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteAnalyze(report, cfg, time.Since(start))
}

// ExecuteStats classifies the whole history by message and writes the usage summary.
func ExecuteStats(ctx context.Context, cfg *contract.Config, client contract.GitClient, _ contract.StoreManager) error {
	start := time.Now()
	stats, err := RunStats(ctx, cfg, client)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteStats(stats, cfg, time.Since(start))
}

// ExecuteTimeline buckets the commits of the configured window per day and writes the series.
func ExecuteTimeline(ctx context.Context, cfg *contract.Config, client contract.GitClient, _ contract.StoreManager) error {
	start := time.Now()
	timeline, err := RunTimeline(ctx, cfg, client)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteTimeline(timeline, cfg, time.Since(start))
}

// ExecuteROI folds the observation logs into an ROI report and writes it.
func ExecuteROI(cfg *contract.Config) error {
	report, err := RunROI(cfg)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteROI(report, cfg)
}

// commitFilter builds the history filter for the configured window.
func commitFilter(cfg *contract.Config) schema.CommitFilter {
	return schema.CommitFilter{
		Since:    cfg.StartTime,
		Until:    cfg.EndTime,
		MaxCount: cfg.MaxCount,
	}
}

// RunAnalyze builds the analyze report and records the run in the analysis store when one is configured.
// Store failures are logged and never fail the analysis.
func RunAnalyze(ctx context.Context, cfg *contract.Config, client contract.GitClient, mgr contract.StoreManager) (schema.AnalyzeReport, error) {
	analyzer, err := OpenCommitAnalyzer(ctx, client, cfg.RepoPath)
	if err != nil {
		return schema.AnalyzeReport{}, err
	}

	tracker := beginTracking(cfg, analyzer.RepoPath(), mgr)

	records, err := analyzer.AnalyzeCommits(ctx, commitFilter(cfg))
	if err != nil {
		return schema.AnalyzeReport{}, err
	}
	if cfg.Anonymize {
		records = security.NewAnonymizer(cfg.AnonymizeSalt).Commits(records)
	}

	report := agg.BuildReport(analyzer.RepoPath(), cfg.Days, records)
	tracker.end(report.CommitData, report.UsageStats)
	return report, nil
}

// RunStats returns the message-pattern usage stats of the whole history.
func RunStats(ctx context.Context, cfg *contract.Config, client contract.GitClient) (schema.UsageStats, error) {
	analyzer, err := OpenCommitAnalyzer(ctx, client, cfg.RepoPath)
	if err != nil {
		return schema.UsageStats{}, err
	}
	return analyzer.UsageStats(ctx)
}

// RunTimeline returns the per-day activity of the configured window.
func RunTimeline(ctx context.Context, cfg *contract.Config, client contract.GitClient) (schema.Timeline, error) {
	analyzer, err := OpenCommitAnalyzer(ctx, client, cfg.RepoPath)
	if err != nil {
		return schema.Timeline{}, err
	}
	records, err := analyzer.AnalyzeCommits(ctx, commitFilter(cfg))
	if err != nil {
		return schema.Timeline{}, err
	}
	return agg.BuildTimeline(records, cfg.StartTime, cfg.EndTime), nil
}

// RunROI computes the ROI report over the observation logs in the metrics directory.
// Malformed lines are skipped with a warning. No logs at all gives a zero report.
func RunROI(cfg *contract.Config) (schema.ROIReport, error) {
	files, err := roi.MetricsFiles(cfg.MetricsDir)
	if err != nil {
		return schema.ROIReport{}, fmt.Errorf("failed to list metrics files: %w", err)
	}
	if len(files) == 0 {
		contract.LogWarn("No metrics files found", fmt.Errorf("directory %s has no timing or api_usage logs", cfg.MetricsDir))
	}
	res, err := roi.NewCalculator(cfg).Fold(files, cfg.Days)
	if err != nil {
		return schema.ROIReport{}, err
	}
	if n := len(res.Malformed); n > 0 {
		contract.LogWarn(fmt.Sprintf("Skipped %d malformed records", n), res.Malformed[0])
	}
	return res.Report, nil
}
