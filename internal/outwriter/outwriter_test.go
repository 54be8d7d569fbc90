package outwriter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ncolesummers/ai-code-metrics/internal/contract"
	"github.com/ncolesummers/ai-code-metrics/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport() schema.AnalyzeReport {
	at := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	return schema.AnalyzeReport{
		Repository:   "/repo",
		DaysAnalyzed: 7,
		LineStats: schema.LineStats{
			TotalCommits:          2,
			AIAssistedCommits:     1,
			AIAssistedPercentage:  50,
			TotalLinesAdded:       30,
			AIGeneratedLines:      10,
			AIGeneratedPercentage: 33.33,
		},
		UsageStats: schema.UsageStats{
			TotalCommits:       2,
			AIAssistedCommits:  1,
			AIPercentage:       50,
			AssistantBreakdown: map[schema.Assistant]int{schema.ClaudeCode: 1},
		},
		CommitData: []schema.CommitRecord{
			{
				Hash:             "0123456789abcdef0123456789abcdef01234567",
				Author:           "Ada",
				AuthorEmail:      "ada@example.com",
				Timestamp:        at,
				Message:          "Add parser\n\nGenerated with Claude Code",
				LinesAdded:       schema.Ptr(20),
				LinesDeleted:     schema.Ptr(2),
				AIGeneratedLines: schema.Ptr(10),
				AIAssisted:       true,
				AIAssistant:      schema.ClaudeCode,
			},
			{
				Hash:        "fedcba9876543210fedcba9876543210fedcba98",
				Author:      "Bob",
				AuthorEmail: "bob@example.com",
				Timestamp:   at.Add(-time.Hour),
				Message:     "Fix typo, with a comma",
			},
		},
	}
}

func TestWriteAnalyzeTable(t *testing.T) {
	var buf bytes.Buffer
	cfg := &contract.Config{Width: 200, AnalysisBackend: schema.NoneBackend}
	require.NoError(t, writeAnalyzeTable(&buf, sampleReport(), cfg, time.Second))

	out := buf.String()
	assert.Contains(t, out, "AI Code Metrics: /repo")
	assert.Contains(t, out, "0123456")
	assert.Contains(t, out, "claude_code")
	assert.Contains(t, out, "Add parser")
	assert.NotContains(t, out, "Generated with Claude Code", "only the subject is shown")
	assert.Contains(t, out, "AI-generated lines:")
	assert.Contains(t, out, "10 (33.33%)")
	assert.Contains(t, out, "Analysis backend: none")
}

func TestWriteAnalyzeCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeAnalyzeCSV(&buf, sampleReport().CommitData))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "commit_hash", records[0][0])
	assert.Equal(t, "AI", records[1][4])
	assert.Equal(t, "claude_code", records[1][5])
	assert.Equal(t, "20", records[1][9])
	assert.Equal(t, "Human", records[2][4])
	assert.Equal(t, "", records[2][9], "unknown stats stay blank")
	assert.Equal(t, "Fix typo, with a comma", records[2][12])
}

func TestPrintAnalyzeReportJSON(t *testing.T) {
	out := filepath.Join(t.TempDir(), "report.json")
	cfg := &contract.Config{Output: schema.JSONOut, OutputFile: out}
	require.NoError(t, PrintAnalyzeReport(sampleReport(), cfg, time.Second))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "/repo", doc["repository"])
	assert.EqualValues(t, 7, doc["days_analyzed"])
	assert.EqualValues(t, 2, doc["total_commits"])
	assert.EqualValues(t, 50, doc["ai_assisted_percentage"])
	assert.Contains(t, doc, "usage_stats")
	assert.Len(t, doc["commit_data"], 2)
}

func TestPrintParquetRequiresFile(t *testing.T) {
	cfg := &contract.Config{Output: schema.ParquetOut}
	err := PrintAnalyzeReport(sampleReport(), cfg, time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--output-file")

	cfg.OutputFile = filepath.Join(t.TempDir(), "commits.parquet")
	require.NoError(t, PrintAnalyzeReport(sampleReport(), cfg, time.Second))
	info, err := os.Stat(cfg.OutputFile)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestWriteStats(t *testing.T) {
	stats := schema.UsageStats{
		TotalCommits:      10,
		AIAssistedCommits: 4,
		AIPercentage:      40,
		AssistantBreakdown: map[schema.Assistant]int{
			schema.Cursor:     1,
			schema.ClaudeCode: 3,
		},
	}
	shares := schema.SortedBreakdown(stats)

	var buf bytes.Buffer
	require.NoError(t, writeStatsText(&buf, stats, shares, time.Second))
	out := buf.String()
	assert.Contains(t, out, "Repository AI Usage Summary")
	assert.Contains(t, out, "4 (40.00%)")
	assert.Less(t, strings.Index(out, "claude_code"), strings.Index(out, "cursor"))
	assert.Contains(t, out, "75.00%")

	buf.Reset()
	require.NoError(t, writeStatsCSV(&buf, shares))
	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"assistant", "commits", "share"},
		{"claude_code", "3", "75.00"},
		{"cursor", "1", "25.00"},
	}, records)
}

func TestWriteStatsNoAI(t *testing.T) {
	stats := schema.UsageStats{TotalCommits: 3, AssistantBreakdown: map[schema.Assistant]int{}}
	var buf bytes.Buffer
	require.NoError(t, writeStatsText(&buf, stats, schema.SortedBreakdown(stats), time.Second))
	assert.NotContains(t, buf.String(), "AI Assistant Breakdown")
}

func TestPrintUsageStatsJSON(t *testing.T) {
	out := filepath.Join(t.TempDir(), "stats.json")
	stats := schema.UsageStats{TotalCommits: 2, AIAssistedCommits: 1, AIPercentage: 50, AssistantBreakdown: map[schema.Assistant]int{schema.GitHubCopilot: 1}}
	require.NoError(t, PrintUsageStats(stats, &contract.Config{Output: schema.JSONOut, OutputFile: out}, time.Second))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var doc struct {
		schema.UsageStats
		Breakdown []schema.AssistantShare `json:"breakdown"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, 1, doc.AssistantBreakdown[schema.GitHubCopilot])
	require.Len(t, doc.Breakdown, 1)
	assert.InDelta(t, 100.0, doc.Breakdown[0].Share, 0.001)
}

func sampleTimeline() schema.Timeline {
	return schema.Timeline{
		Start: time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC),
		Days: []schema.DailyActivity{
			{Date: "2024-03-09", Commits: 2, AICommits: 1, AILines: 5, HumanLines: 7},
			{Date: "2024-03-10", Commits: 0},
		},
		TotalCommits:      2,
		AIAssistedCommits: 1,
		AIPercentage:      50,
		AILines:           5,
		HumanLines:        7,
		AILinesPercentage: 41.67,
	}
}

func TestWriteTimeline(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeTimelineTable(&buf, sampleTimeline(), time.Second))
	out := buf.String()
	assert.Contains(t, out, "AI Activity 2024-03-09 to 2024-03-11")
	assert.Contains(t, out, "2024-03-10")
	assert.Contains(t, out, "AI lines: 5 (41.67%)")

	buf.Reset()
	require.NoError(t, writeTimelineCSV(&buf, sampleTimeline().Days))
	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"2024-03-09", "2", "1", "5", "7"}, records[1])
}

func TestPrintTimelineParquet(t *testing.T) {
	cfg := &contract.Config{Output: schema.ParquetOut, OutputFile: filepath.Join(t.TempDir(), "timeline.parquet")}
	require.NoError(t, PrintTimeline(sampleTimeline(), cfg, time.Second))
	_, err := os.Stat(cfg.OutputFile)
	assert.NoError(t, err)
}

func TestWriteROI(t *testing.T) {
	report := schema.ROIReport{
		PeriodDays:        30,
		MetricsAnalyzed:   12,
		TotalHoursSaved:   4.5,
		DollarValueSaved:  337.5,
		TotalAPICost:      12.25,
		NetSavings:        325.25,
		ROIPercentage:     2655.1,
		HourlyRate:        75,
		ImprovementFactor: 0.3,
		ReportDate:        time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
	}

	var buf bytes.Buffer
	require.NoError(t, writeROIText(&buf, report))
	out := buf.String()
	assert.Contains(t, out, "ROI Analysis")
	assert.Contains(t, out, "30 days")
	assert.Contains(t, out, "$337.50")
	assert.Contains(t, out, "2655.10%")

	buf.Reset()
	require.NoError(t, writeROICSV(&buf, report))
	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Contains(t, records, []string{"net_savings", "325.25"})
	assert.Contains(t, records, []string{"report_date", "2024-03-10T00:00:00Z"})
}

func TestWriteROIUndefined(t *testing.T) {
	report := schema.ROIReport{PeriodDays: 7, NetSavings: 10, ROIUndefined: true}

	var buf bytes.Buffer
	require.NoError(t, writeROIText(&buf, report))
	assert.Contains(t, buf.String(), "undefined")
	assert.NotContains(t, buf.String(), "undefined%")

	buf.Reset()
	require.NoError(t, writeROICSV(&buf, report))
	assert.Contains(t, buf.String(), "roi_percentage,undefined")
}

func TestGetMaxMessageWidth(t *testing.T) {
	assert.Equal(t, 15, GetMaxMessageWidth(&contract.Config{Width: 40}))
	assert.Equal(t, 30, GetMaxMessageWidth(&contract.Config{Width: 120}))
	assert.Equal(t, 70, GetMaxMessageWidth(&contract.Config{Width: 400}))
}

func TestAssistantLabel(t *testing.T) {
	assert.Equal(t, "-", assistantLabel(""))
	assert.Equal(t, "-", assistantLabel(schema.AssistantNone))
	assert.Equal(t, "cursor", assistantLabel(schema.Cursor))
}

func TestFormatOptionalInt(t *testing.T) {
	assert.Equal(t, "", formatOptionalInt(nil))
	assert.Equal(t, "0", formatOptionalInt(schema.Ptr(0)))
}
