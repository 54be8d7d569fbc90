// Package outwriter has output and writer logic.
package outwriter

import (
	"time"

	"github.com/ncolesummers/ai-code-metrics/internal/contract"
	"github.com/ncolesummers/ai-code-metrics/schema"
)

// OutWriter provides a unified interface for all output operations.
// It encapsulates the various output formats and provides a clean API for the core logic.
type OutWriter struct{}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WriteAnalyze prints an analyze report using the configured output format.
func (ow *OutWriter) WriteAnalyze(report schema.AnalyzeReport, cfg *contract.Config, duration time.Duration) error {
	return PrintAnalyzeReport(report, cfg, duration)
}

// WriteStats prints message-pattern usage stats using the configured output format.
func (ow *OutWriter) WriteStats(stats schema.UsageStats, cfg *contract.Config, duration time.Duration) error {
	return PrintUsageStats(stats, cfg, duration)
}

// WriteTimeline prints the per-day activity series using the configured output format.
func (ow *OutWriter) WriteTimeline(timeline schema.Timeline, cfg *contract.Config, duration time.Duration) error {
	return PrintTimeline(timeline, cfg, duration)
}

// WriteROI prints an ROI report using the configured output format.
func (ow *OutWriter) WriteROI(report schema.ROIReport, cfg *contract.Config) error {
	return PrintROIReport(report, cfg)
}
