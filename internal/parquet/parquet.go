// Package parquet exports analysis history, reports and observation logs to Parquet files
// using github.com/parquet-go/parquet-go.
package parquet

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ncolesummers/ai-code-metrics/schema"
	"github.com/parquet-go/parquet-go"
)

// AnalysisRun represents a single analyze run with metadata.
// This struct maps to the aimetrics_analysis_runs database table.
type AnalysisRun struct {
	// AnalysisID is the unique identifier for this analysis run
	AnalysisID int64 `parquet:"analysis_id,snappy"`

	// RunUUID is the globally unique run identifier
	RunUUID string `parquet:"run_uuid,snappy"`

	// Repository is the analyzed repository root
	Repository string `parquet:"repository,snappy"`

	// StartTime is when the analysis began (stored as TIMESTAMP with nanosecond precision)
	StartTime time.Time `parquet:"start_time,snappy"`

	// EndTime is when the analysis completed (nullable)
	EndTime *time.Time `parquet:"end_time,optional,snappy"`

	// RunDurationMs is the duration of the analysis run in milliseconds (nullable)
	RunDurationMs *int32 `parquet:"run_duration_ms,optional,snappy"`

	TotalCommits      int32   `parquet:"total_commits,snappy"`
	AIAssistedCommits int32   `parquet:"ai_assisted_commits,snappy"`
	AIPercentage      float64 `parquet:"ai_percentage,snappy"`

	// ConfigParams contains the JSON-encoded configuration parameters (nullable)
	ConfigParams *string `parquet:"config_params,optional,snappy"`
}

// CommitRun is one classified commit stored for an analysis run.
// This struct maps to the aimetrics_commits database table.
type CommitRun struct {
	AnalysisID     int64     `parquet:"analysis_id,snappy"`
	CommitHash     string    `parquet:"commit_hash,snappy"`
	Author         string    `parquet:"author,snappy"`
	AuthorEmail    string    `parquet:"author_email,snappy"`
	CommitTime     time.Time `parquet:"commit_time,snappy"`
	FilesChanged   *int32    `parquet:"files_changed,optional,snappy"`
	LinesAdded     *int32    `parquet:"lines_added,optional,snappy"`
	LinesDeleted   *int32    `parquet:"lines_deleted,optional,snappy"`
	AIAssisted     bool      `parquet:"ai_assisted,snappy"`
	AIAssistant    *string   `parquet:"ai_assistant,optional,snappy"`
	HasExplanation bool      `parquet:"has_explanation,snappy"`
	Model          *string   `parquet:"model,optional,snappy"`
}

// Commit is one row of an analyze report.
type Commit struct {
	CommitHash       string    `parquet:"commit_hash,snappy"`
	Author           string    `parquet:"author,snappy"`
	AuthorEmail      string    `parquet:"author_email,snappy"`
	Timestamp        time.Time `parquet:"timestamp,snappy"`
	Subject          string    `parquet:"subject,snappy"`
	FilesChanged     *int32    `parquet:"files_changed,optional,snappy"`
	LinesAdded       *int32    `parquet:"lines_added,optional,snappy"`
	LinesDeleted     *int32    `parquet:"lines_deleted,optional,snappy"`
	AIGeneratedLines *int32    `parquet:"ai_generated_lines,optional,snappy"`
	AIAssisted       bool      `parquet:"ai_assisted,snappy"`
	AIAssistant      string    `parquet:"ai_assistant,snappy"`
	HasExplanation   bool      `parquet:"has_explanation,snappy"`
	Model            *string   `parquet:"model,optional,snappy"`
}

// DailyActivity is one day of a timeline.
type DailyActivity struct {
	Date       string `parquet:"date,snappy"`
	Commits    int32  `parquet:"commits,snappy"`
	AICommits  int32  `parquet:"ai_commits,snappy"`
	AILines    int32  `parquet:"ai_lines,snappy"`
	HumanLines int32  `parquet:"human_lines,snappy"`
}

// AssistantShare is one row of an assistant breakdown.
type AssistantShare struct {
	Assistant string  `parquet:"assistant,snappy"`
	Commits   int32   `parquet:"commits,snappy"`
	Share     float64 `parquet:"share,snappy"`
}

// ROIReport is the single-row ROI summary.
type ROIReport struct {
	ReportDate          time.Time `parquet:"report_date,snappy"`
	PeriodDays          int32     `parquet:"period_days,snappy"`
	MetricsAnalyzed     int32     `parquet:"metrics_analyzed,snappy"`
	TotalHoursSaved     float64   `parquet:"total_hours_saved,snappy"`
	DollarValueSaved    float64   `parquet:"dollar_value_saved,snappy"`
	TotalAPICost        float64   `parquet:"total_api_cost,snappy"`
	NetSavings          float64   `parquet:"net_savings,snappy"`
	ROIPercentage       float64   `parquet:"roi_percentage,snappy"`
	ROIUndefined        bool      `parquet:"roi_undefined,snappy"`
	AverageQualityScore float64   `parquet:"average_quality_score,snappy"`
	HourlyRate          float64   `parquet:"hourly_rate,snappy"`
	ImprovementFactor   float64   `parquet:"improvement_factor,snappy"`
}

// Observation is one timing or API usage record together with the log it came from.
type Observation struct {
	Kind           string    `parquet:"kind,snappy"`
	FunctionName   string    `parquet:"function_name,snappy"`
	StartTime      time.Time `parquet:"start_time,snappy"`
	RecordedAt     time.Time `parquet:"recorded_at,snappy"`
	Duration       *float64  `parquet:"duration,optional,snappy"`
	AIAssisted     bool      `parquet:"ai_assisted,snappy"`
	Success        bool      `parquet:"success,snappy"`
	Iterations     *int32    `parquet:"iterations,optional,snappy"`
	Model          *string   `parquet:"model,optional,snappy"`
	Provider       *string   `parquet:"provider,optional,snappy"`
	Language       *string   `parquet:"language,optional,snappy"`
	InputTokens    *int32    `parquet:"input_tokens,optional,snappy"`
	OutputTokens   *int32    `parquet:"output_tokens,optional,snappy"`
	Cost           *float64  `parquet:"cost,optional,snappy"`
	QualityScore   *float64  `parquet:"quality_score,optional,snappy"`
	LinesGenerated *int32    `parquet:"lines_generated,optional,snappy"`
}

// Write writes rows to a Parquet file whose schema is derived from the struct tags of T.
func Write[T any](rows []T, outputPath string) (err error) {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { err = errors.Join(err, file.Close()) }()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(rows); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// ConvertAnalysisRunRecords converts schema.AnalysisRunRecord to AnalysisRun for Parquet export.
func ConvertAnalysisRunRecords(records []schema.AnalysisRunRecord) []AnalysisRun {
	result := make([]AnalysisRun, len(records))
	for i, record := range records {
		result[i] = AnalysisRun{
			AnalysisID:        record.AnalysisID,
			RunUUID:           record.RunUUID,
			Repository:        record.Repository,
			StartTime:         record.StartTime,
			EndTime:           record.EndTime,
			RunDurationMs:     record.RunDurationMs,
			TotalCommits:      record.TotalCommits,
			AIAssistedCommits: record.AIAssisted,
			AIPercentage:      record.AIPercentage,
			ConfigParams:      record.ConfigParams,
		}
	}
	return result
}

// ConvertCommitRunRecords converts schema.CommitRunRecord to CommitRun for Parquet export.
func ConvertCommitRunRecords(records []schema.CommitRunRecord) []CommitRun {
	result := make([]CommitRun, len(records))
	for i, record := range records {
		result[i] = CommitRun{
			AnalysisID:     record.AnalysisID,
			CommitHash:     record.CommitHash,
			Author:         record.Author,
			AuthorEmail:    record.AuthorEmail,
			CommitTime:     record.CommitTime,
			FilesChanged:   record.FilesChanged,
			LinesAdded:     record.LinesAdded,
			LinesDeleted:   record.LinesDeleted,
			AIAssisted:     record.AIAssisted,
			AIAssistant:    record.AIAssistant,
			HasExplanation: record.HasExplanation,
			Model:          record.Model,
		}
	}
	return result
}

// ConvertCommitRecords converts report commits to Commit rows.
func ConvertCommitRecords(records []schema.CommitRecord) []Commit {
	result := make([]Commit, len(records))
	for i, c := range records {
		result[i] = Commit{
			CommitHash:       c.Hash,
			Author:           c.Author,
			AuthorEmail:      c.AuthorEmail,
			Timestamp:        c.Timestamp,
			Subject:          schema.Subject(c.Message),
			FilesChanged:     int32Ptr(c.FilesChanged),
			LinesAdded:       int32Ptr(c.LinesAdded),
			LinesDeleted:     int32Ptr(c.LinesDeleted),
			AIGeneratedLines: int32Ptr(c.AIGeneratedLines),
			AIAssisted:       c.AIAssisted,
			AIAssistant:      string(c.AIAssistant),
			HasExplanation:   c.HasExplanation,
			Model:            stringPtr(c.Model),
		}
	}
	return result
}

// ConvertTimeline converts the per-day series of a timeline.
func ConvertTimeline(tl schema.Timeline) []DailyActivity {
	result := make([]DailyActivity, len(tl.Days))
	for i, d := range tl.Days {
		result[i] = DailyActivity{
			Date:       d.Date,
			Commits:    int32(d.Commits),
			AICommits:  int32(d.AICommits),
			AILines:    int32(d.AILines),
			HumanLines: int32(d.HumanLines),
		}
	}
	return result
}

// ConvertBreakdown converts a sorted assistant breakdown.
func ConvertBreakdown(shares []schema.AssistantShare) []AssistantShare {
	result := make([]AssistantShare, len(shares))
	for i, s := range shares {
		result[i] = AssistantShare{Assistant: string(s.Assistant), Commits: int32(s.Commits), Share: s.Share}
	}
	return result
}

// ConvertROIReport converts an ROI report into its single row.
func ConvertROIReport(r schema.ROIReport) []ROIReport {
	return []ROIReport{{
		ReportDate:          r.ReportDate,
		PeriodDays:          int32(r.PeriodDays),
		MetricsAnalyzed:     int32(r.MetricsAnalyzed),
		TotalHoursSaved:     r.TotalHoursSaved,
		DollarValueSaved:    r.DollarValueSaved,
		TotalAPICost:        r.TotalAPICost,
		NetSavings:          r.NetSavings,
		ROIPercentage:       r.ROIPercentage,
		ROIUndefined:        r.ROIUndefined,
		AverageQualityScore: r.AverageQualityScore,
		HourlyRate:          r.HourlyRate,
		ImprovementFactor:   r.ImprovementFactor,
	}}
}

// ConvertObservation converts one observation record of the given kind.
func ConvertObservation(kind schema.ObservationKind, rec schema.ObservationRecord) Observation {
	obs := Observation{
		Kind:           string(kind),
		FunctionName:   rec.FunctionName,
		StartTime:      rec.StartTime,
		RecordedAt:     rec.RecordedAt(),
		Duration:       rec.Duration,
		AIAssisted:     rec.AIAssisted,
		Success:        rec.Success,
		Iterations:     int32Ptr(rec.Iterations),
		Model:          stringPtr(rec.Model),
		Provider:       stringPtr(rec.Provider),
		Language:       stringPtr(rec.Language),
		InputTokens:    int32Ptr(rec.InputTokens),
		OutputTokens:   int32Ptr(rec.OutputTokens),
		QualityScore:   rec.QualityScore,
		LinesGenerated: int32Ptr(rec.LinesGenerated),
	}
	if cost, ok := rec.Cost(); ok {
		obs.Cost = &cost
	}
	return obs
}

func int32Ptr(p *int) *int32 {
	if p == nil {
		return nil
	}
	v := int32(*p)
	return &v
}

func stringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
