package agg

import (
	"testing"
	"time"

	"github.com/ncolesummers/ai-code-metrics/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommitLog(t *testing.T) {
	records, err := ParseCommitLog(generateTestGitLog(basicScenarios()), true)
	require.NoError(t, err)
	require.Len(t, records, 4)

	// git order is kept
	assert.Equal(t, hashOf(4), records[0].Hash)
	assert.Equal(t, hashOf(1), records[3].Hash)

	claude := records[0]
	assert.Equal(t, "Ada Lovelace", claude.Author)
	assert.Equal(t, "ada@example.com", claude.AuthorEmail)
	assert.Equal(t, time.UTC, claude.Timestamp.Location())
	assert.True(t, claude.AIAssisted)
	assert.Equal(t, schema.ClaudeCode, claude.AIAssistant)
	assert.Equal(t, 2, *claude.FilesChanged)
	assert.Equal(t, 120, *claude.LinesAdded)
	assert.Equal(t, 2, *claude.LinesDeleted)
	assert.Equal(t, 120, *claude.AIGeneratedLines)
	assert.Contains(t, claude.Message, "Co-Authored-By: Claude")

	human := records[1]
	assert.False(t, human.AIAssisted)
	assert.Empty(t, human.AIAssistant)
	assert.Equal(t, "Fix typo in README\n\nJust a small fix.", human.Message)
	assert.Equal(t, 0, *human.AIGeneratedLines)

	binary := records[2]
	assert.Equal(t, schema.GitHubCopilot, binary.AIAssistant)
	assert.Equal(t, 2, *binary.FilesChanged)
	assert.Equal(t, 10, *binary.LinesAdded)
	assert.Equal(t, 0, *binary.LinesDeleted)

	noop := records[3]
	require.NotNil(t, noop.FilesChanged)
	assert.Equal(t, 0, *noop.FilesChanged)
}

func TestParseCommitLogMergeAgainstFirstParent(t *testing.T) {
	merge := gitLogScenario{
		commitHash: hashOf(9),
		author:     "Ada Lovelace",
		email:      "ada@example.com",
		date:       time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC),
		message:    "Merge branch 'feat'\n\nCo-Authored-By: Claude <noreply@anthropic.com>",
		files:      []fileChange{{"b.go", "5", "0"}},
	}
	records, err := ParseCommitLog(generateTestGitLog([]gitLogScenario{merge}), true)
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Equal(t, 1, *records[0].FilesChanged)
	assert.Equal(t, 5, *records[0].LinesAdded)
	assert.Equal(t, 5, *records[0].AIGeneratedLines)
}

func TestParseCommitLogWithoutStats(t *testing.T) {
	records, err := ParseCommitLog(generateTestGitLog(basicScenarios()), false)
	require.NoError(t, err)
	require.Len(t, records, 4)
	for _, r := range records {
		assert.Nil(t, r.FilesChanged)
		assert.Nil(t, r.LinesAdded)
		assert.Nil(t, r.AIGeneratedLines)
		assert.False(t, r.HasStats())
	}
	assert.True(t, records[0].AIAssisted)
}

func TestParseCommitLogErrors(t *testing.T) {
	_, err := ParseCommitLog([]byte("\x1eabc\x1fonly two"), true)
	assert.Error(t, err)

	_, err = ParseCommitLog([]byte("\x1e"+hashOf(1)+"\x1fa\x1fe\x1fnot-a-date\x1fmsg\n\x1f\n"), true)
	assert.Error(t, err)

	records, err := ParseCommitLog(nil, true)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestParseMessageLog(t *testing.T) {
	messages := ParseMessageLog(generateTestMessageLog("one", "two\n\nbody", ""))
	require.Len(t, messages, 3)
	assert.Equal(t, "one", messages[0])
	assert.Equal(t, "two\n\nbody", messages[1])
	assert.Equal(t, "", messages[2])

	assert.Empty(t, ParseMessageLog(nil))
}

func TestFilterUntil(t *testing.T) {
	records, err := ParseCommitLog(generateTestGitLog(basicScenarios()), false)
	require.NoError(t, err)

	until := records[1].Timestamp
	kept := FilterUntil(records, until)
	require.Len(t, kept, 2)
	assert.Equal(t, records[2].Hash, kept[0].Hash)

	assert.Len(t, FilterUntil(records, time.Time{}), 4)
}

func TestAggregateUsage(t *testing.T) {
	tests := []struct {
		name       string
		aiFlags    []bool
		expected   float64
		aiAssisted int
	}{
		{"empty", nil, 0, 0},
		{"all human", []bool{false, false}, 0, 0},
		{"one of three", []bool{true, false, false}, 33.33, 1},
		{"two of three", []bool{true, true, false}, 66.67, 2},
		{"all ai", []bool{true, true}, 100, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := make([]schema.CommitRecord, 0, len(tt.aiFlags))
			for _, ai := range tt.aiFlags {
				rec := schema.CommitRecord{AIAssisted: ai}
				if ai {
					rec.AIAssistant = schema.GeneralAI
				}
				records = append(records, rec)
			}
			stats := AggregateUsage(records)
			assert.Equal(t, len(tt.aiFlags), stats.TotalCommits)
			assert.Equal(t, tt.aiAssisted, stats.AIAssistedCommits)
			assert.Equal(t, tt.expected, stats.AIPercentage)
			if tt.aiAssisted == 0 {
				assert.Empty(t, stats.AssistantBreakdown)
			} else {
				assert.Equal(t, tt.aiAssisted, stats.AssistantBreakdown[schema.GeneralAI])
			}
		})
	}
}

func TestAggregateUsageIdempotent(t *testing.T) {
	records, err := ParseCommitLog(generateTestGitLog(basicScenarios()), true)
	require.NoError(t, err)
	assert.Equal(t, AggregateUsage(records), AggregateUsage(records))
}

func TestAggregateMessagesMatchesRecords(t *testing.T) {
	scenarios := basicScenarios()
	records, err := ParseCommitLog(generateTestGitLog(scenarios), false)
	require.NoError(t, err)

	messages := make([]string, 0, len(scenarios))
	for _, s := range scenarios {
		messages = append(messages, s.message)
	}
	fromMessages := AggregateMessages(ParseMessageLog(generateTestMessageLog(messages...)))
	assert.Equal(t, AggregateUsage(records), fromMessages)
	assert.Equal(t, 50.0, fromMessages.AIPercentage)
	assert.Equal(t, map[schema.Assistant]int{schema.ClaudeCode: 1, schema.GitHubCopilot: 1}, fromMessages.AssistantBreakdown)
}

func TestAggregateLines(t *testing.T) {
	records, err := ParseCommitLog(generateTestGitLog(basicScenarios()), true)
	require.NoError(t, err)

	stats := AggregateLines(records)
	assert.Equal(t, 4, stats.TotalCommits)
	assert.Equal(t, 2, stats.AIAssistedCommits)
	assert.Equal(t, 50.0, stats.AIAssistedPercentage)
	assert.Equal(t, 131, stats.TotalLinesAdded)
	assert.Equal(t, 3, stats.TotalLinesDeleted)
	assert.Equal(t, 130, stats.AIGeneratedLines)
	assert.Equal(t, 99.24, stats.AIGeneratedPercentage)

	empty := AggregateLines(nil)
	assert.Zero(t, empty.AIGeneratedPercentage)
	assert.Zero(t, empty.AIAssistedPercentage)
}

func TestBuildReport(t *testing.T) {
	records, err := ParseCommitLog(generateTestGitLog(basicScenarios()), true)
	require.NoError(t, err)

	report := BuildReport("/repo", 7, records)
	assert.Equal(t, "/repo", report.Repository)
	assert.Equal(t, 7, report.DaysAnalyzed)
	assert.Equal(t, 130, report.AIGeneratedLines)
	assert.Equal(t, 2, report.UsageStats.AIAssistedCommits)
	assert.Len(t, report.CommitData, 4)

	empty := BuildReport("/repo", 7, nil)
	assert.NotNil(t, empty.CommitData)
	assert.Zero(t, empty.TotalCommits)
}

func TestBuildTimeline(t *testing.T) {
	records, err := ParseCommitLog(generateTestGitLog(basicScenarios()), true)
	require.NoError(t, err)

	start := time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)
	tl := BuildTimeline(records, start, end)

	dates := make([]string, 0, len(tl.Days))
	for _, d := range tl.Days {
		dates = append(dates, d.Date)
	}
	assert.Equal(t, []string{"2024-03-07", "2024-03-08", "2024-03-09", "2024-03-10", "2024-03-11"}, dates)

	// 2024-03-09 holds the README fix and the logo commit
	day := tl.Days[2]
	assert.Equal(t, 2, day.Commits)
	assert.Equal(t, 1, day.AICommits)
	assert.Equal(t, 10, day.AILines)
	assert.Equal(t, 1, day.HumanLines)

	assert.Equal(t, 0, tl.Days[1].Commits)
	assert.Equal(t, 4, tl.TotalCommits)
	assert.Equal(t, 2, tl.AIAssistedCommits)
	assert.Equal(t, 50.0, tl.AIPercentage)
	assert.Equal(t, 130, tl.AILines)
	assert.Equal(t, 1, tl.HumanLines)
	assert.Equal(t, 99.24, tl.AILinesPercentage)
	assert.Equal(t, map[schema.Assistant]int{schema.ClaudeCode: 1, schema.GitHubCopilot: 1}, tl.Assistants)
}

func TestBuildTimelineZeroStart(t *testing.T) {
	records, err := ParseCommitLog(generateTestGitLog(basicScenarios()), true)
	require.NoError(t, err)

	tl := BuildTimeline(records, time.Time{}, time.Date(2024, 3, 10, 23, 0, 0, 0, time.UTC))
	require.NotEmpty(t, tl.Days)
	assert.Equal(t, "2024-03-07", tl.Days[0].Date)
	assert.Equal(t, "2024-03-10", tl.Days[len(tl.Days)-1].Date)
	assert.Equal(t, records[3].Timestamp, tl.Start)

	empty := BuildTimeline(nil, time.Time{}, time.Time{})
	assert.Empty(t, empty.Days)
	assert.Zero(t, empty.AIPercentage)
}
