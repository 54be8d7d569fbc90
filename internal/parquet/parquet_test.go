package parquet

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ncolesummers/ai-code-metrics/schema"
	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// readAll reads every row of a Parquet file back into T.
func readAll[T any](t *testing.T, path string) []T {
	t.Helper()
	file, err := os.Open(path)
	require.NoError(t, err, "Should be able to open output file")
	defer func() { _ = file.Close() }()

	reader := parquet.NewGenericReader[T](file)
	defer func() { _ = reader.Close() }()

	rows := make([]T, reader.NumRows())
	n, err := reader.Read(rows)
	if err != nil && err != io.EOF {
		require.NoError(t, err, "Should be able to read data")
	}
	return rows[:n]
}

func TestStructTags(t *testing.T) {
	tests := []struct {
		name    string
		model   any
		columns []string
	}{
		{"analysis run", new(AnalysisRun), []string{"analysis_id", "run_uuid", "repository", "start_time", "end_time", "run_duration_ms", "total_commits", "ai_assisted_commits", "ai_percentage", "config_params"}},
		{"commit run", new(CommitRun), []string{"analysis_id", "commit_hash", "author", "author_email", "commit_time", "files_changed", "lines_added", "lines_deleted", "ai_assisted", "ai_assistant", "has_explanation", "model"}},
		{"observation", new(Observation), []string{"kind", "function_name", "duration", "ai_assisted", "cost", "quality_score", "lines_generated"}},
		{"roi", new(ROIReport), []string{"roi_percentage", "roi_undefined", "net_savings"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := parquet.SchemaOf(tt.model)
			require.NotNil(t, s)
			for _, colName := range tt.columns {
				_, ok := s.Lookup(colName)
				assert.True(t, ok, "Column %s should exist in schema", colName)
			}
		})
	}
}

func TestWriteAnalysisRuns(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "runs.parquet")
	start := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	end := start.Add(1500 * time.Millisecond)
	duration := int32(1500)
	params := `{"days":7}`

	records := []schema.AnalysisRunRecord{
		{AnalysisID: 1, RunUUID: "3f1c", Repository: "/repo", StartTime: start, EndTime: &end, RunDurationMs: &duration, TotalCommits: 10, AIAssisted: 4, AIPercentage: 40, ConfigParams: &params},
		{AnalysisID: 2, RunUUID: "9a2e", Repository: "/repo", StartTime: start},
	}
	require.NoError(t, Write(ConvertAnalysisRunRecords(records), outputPath))

	rows := readAll[AnalysisRun](t, outputPath)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(1), rows[0].AnalysisID)
	assert.Equal(t, int32(4), rows[0].AIAssistedCommits)
	assert.Equal(t, 40.0, rows[0].AIPercentage)
	require.NotNil(t, rows[0].EndTime)
	assert.WithinDuration(t, end, *rows[0].EndTime, time.Nanosecond)
	require.NotNil(t, rows[0].ConfigParams)
	assert.Equal(t, params, *rows[0].ConfigParams)

	assert.Nil(t, rows[1].EndTime, "EndTime should be nil")
	assert.Nil(t, rows[1].RunDurationMs, "RunDurationMs should be nil")
	assert.Nil(t, rows[1].ConfigParams, "ConfigParams should be nil")
}

func TestWriteCommits(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "commits.parquet")
	records := []schema.CommitRecord{
		{
			Hash: "abc123", Author: "Ada", AuthorEmail: "ada@example.com",
			Timestamp: time.Date(2024, 3, 9, 8, 0, 0, 0, time.UTC), Message: "Add parser\n\nGenerated with Claude Code",
			FilesChanged: schema.Ptr(2), LinesAdded: schema.Ptr(30), LinesDeleted: schema.Ptr(4), AIGeneratedLines: schema.Ptr(30),
			AIAssisted: true, AIAssistant: schema.ClaudeCode, Model: "claude-3-opus",
		},
		{Hash: "def456", Author: "Bob", Message: "Merge branch", AIAssistant: schema.AssistantNone},
	}
	require.NoError(t, Write(ConvertCommitRecords(records), outputPath))

	rows := readAll[Commit](t, outputPath)
	require.Len(t, rows, 2)
	assert.Equal(t, "Add parser", rows[0].Subject)
	require.NotNil(t, rows[0].LinesAdded)
	assert.Equal(t, int32(30), *rows[0].LinesAdded)
	assert.Equal(t, "claude_code", rows[0].AIAssistant)
	require.NotNil(t, rows[0].Model)

	assert.Nil(t, rows[1].LinesAdded, "missing stats stay null")
	assert.Nil(t, rows[1].Model)
}

func TestWriteObservations(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "obs.parquet")
	obs := []Observation{
		ConvertObservation(schema.TimingKind, schema.ObservationRecord{FunctionName: "op", Duration: schema.Ptr(1.5), AIAssisted: true, Timestamp: 1710072000}),
		ConvertObservation(schema.APIUsageKind, schema.ObservationRecord{FunctionName: "call", Model: "gpt-4", TotalCost: schema.Ptr(0.2), APICost: schema.Ptr(0.1)}),
	}
	require.NoError(t, Write(obs, outputPath))

	rows := readAll[Observation](t, outputPath)
	require.Len(t, rows, 2)
	assert.Equal(t, "timing", rows[0].Kind)
	assert.Nil(t, rows[0].Cost)
	assert.Equal(t, time.Unix(1710072000, 0).UTC(), rows[0].RecordedAt.UTC())
	require.NotNil(t, rows[1].Cost)
	assert.Equal(t, 0.1, *rows[1].Cost, "api_cost wins over total_cost")
}

func TestConvertReports(t *testing.T) {
	days := ConvertTimeline(schema.Timeline{Days: []schema.DailyActivity{{Date: "2024-03-09", Commits: 3, AICommits: 1, AILines: 10, HumanLines: 5}}})
	require.Len(t, days, 1)
	assert.Equal(t, DailyActivity{Date: "2024-03-09", Commits: 3, AICommits: 1, AILines: 10, HumanLines: 5}, days[0])

	shares := ConvertBreakdown([]schema.AssistantShare{{Assistant: schema.Cursor, Commits: 2, Share: 50}})
	assert.Equal(t, []AssistantShare{{Assistant: "cursor", Commits: 2, Share: 50}}, shares)

	roi := ConvertROIReport(schema.ROIReport{PeriodDays: 30, ROIUndefined: true})
	require.Len(t, roi, 1)
	assert.True(t, roi[0].ROIUndefined)
	assert.Equal(t, int32(30), roi[0].PeriodDays)
}

func TestWriteEmptyData(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "empty.parquet")
	require.NoError(t, Write([]CommitRun{}, outputPath), "Writing empty data should not produce error")

	info, err := os.Stat(outputPath)
	require.NoError(t, err, "Output file should exist")
	assert.Greater(t, info.Size(), int64(0), "Output file should contain schema even if empty")
}

func TestWriteInvalidPath(t *testing.T) {
	err := Write([]AnalysisRun{{AnalysisID: 1}}, "/nonexistent/directory/output.parquet")
	require.Error(t, err, "Writing to invalid path should produce error")
}
