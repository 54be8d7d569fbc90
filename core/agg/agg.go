// Package agg has parsing and aggregation logic for commit history data.
package agg

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ncolesummers/ai-code-metrics/core/match"
	"github.com/ncolesummers/ai-code-metrics/internal/contract"
	"github.com/ncolesummers/ai-code-metrics/schema"
	"github.com/samber/lo"
)

// commitFieldCount is hash, author, email, date, body and the numstat block.
const commitFieldCount = 6

// ParseCommitLog parses the delimited output of GitClient.GetCommitLog into records,
// in the order git emitted them. When withStats is set, the numstat block of each
// commit fills the file and line counts, otherwise they stay nil.
func ParseCommitLog(out []byte, withStats bool) ([]schema.CommitRecord, error) {
	chunks := strings.Split(string(out), contract.RecordSeparator)
	records := make([]schema.CommitRecord, 0, len(chunks))
	for _, chunk := range chunks {
		if strings.TrimSpace(chunk) == "" {
			continue
		}
		rec, err := parseCommitChunk(chunk, withStats)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// parseCommitChunk parses a single commit block.
func parseCommitChunk(chunk string, withStats bool) (schema.CommitRecord, error) {
	parts := strings.SplitN(chunk, contract.FieldSeparator, commitFieldCount)
	if len(parts) < commitFieldCount-1 {
		return schema.CommitRecord{}, fmt.Errorf("unexpected git log record with %d fields", len(parts))
	}
	ts, err := time.Parse(time.RFC3339, strings.TrimSpace(parts[3]))
	if err != nil {
		return schema.CommitRecord{}, fmt.Errorf("invalid commit date for %s: %w", schema.ShortHash(parts[0]), err)
	}

	rec := schema.CommitRecord{
		Hash:        strings.TrimSpace(parts[0]),
		Author:      parts[1],
		AuthorEmail: parts[2],
		Timestamp:   ts.UTC(),
		Message:     strings.TrimRight(parts[4], "\n"),
	}
	if withStats {
		numstat := ""
		if len(parts) == commitFieldCount {
			numstat = parts[5]
		}
		files, added, deleted := parseNumstat(numstat)
		rec.FilesChanged = &files
		rec.LinesAdded = &added
		rec.LinesDeleted = &deleted
	}
	match.Apply(&rec)
	return rec, nil
}

// parseNumstat sums a numstat block. Binary files report "-" and count as zero lines.
func parseNumstat(block string) (files, added, deleted int) {
	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.SplitN(line, "\t", 3)
		if len(fields) < 3 {
			continue
		}
		files++
		added += parseCount(fields[0])
		deleted += parseCount(fields[1])
	}
	return files, added, deleted
}

func parseCount(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// ParseMessageLog splits the output of GitClient.GetMessageLog into raw messages.
func ParseMessageLog(out []byte) []string {
	chunks := strings.Split(string(out), contract.RecordSeparator)
	messages := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		if i == 0 && strings.TrimSpace(chunk) == "" {
			continue
		}
		messages = append(messages, strings.TrimRight(chunk, "\n"))
	}
	return messages
}

// FilterUntil drops records at or after until. A zero until keeps everything.
func FilterUntil(records []schema.CommitRecord, until time.Time) []schema.CommitRecord {
	if until.IsZero() {
		return records
	}
	return lo.Filter(records, func(r schema.CommitRecord, _ int) bool {
		return r.Timestamp.Before(until)
	})
}

// AggregateUsage folds records into message-pattern statistics.
func AggregateUsage(records []schema.CommitRecord) schema.UsageStats {
	stats := schema.UsageStats{
		TotalCommits:       len(records),
		AssistantBreakdown: make(map[schema.Assistant]int),
	}
	for _, r := range records {
		if r.AIAssisted {
			stats.AIAssistedCommits++
		}
		if r.AIAssistant != "" && r.AIAssistant != schema.AssistantNone {
			stats.AssistantBreakdown[r.AIAssistant]++
		}
	}
	stats.AIPercentage = schema.Percentage(stats.AIAssistedCommits, stats.TotalCommits)
	return stats
}

// AggregateMessages classifies raw messages and folds them into message-pattern
// statistics without building full records.
func AggregateMessages(messages []string) schema.UsageStats {
	stats := schema.UsageStats{
		TotalCommits:       len(messages),
		AssistantBreakdown: make(map[schema.Assistant]int),
	}
	for _, msg := range messages {
		if a := match.Identify(msg); a != schema.AssistantNone {
			stats.AIAssistedCommits++
			stats.AssistantBreakdown[a]++
		}
	}
	stats.AIPercentage = schema.Percentage(stats.AIAssistedCommits, stats.TotalCommits)
	return stats
}

// AggregateLines folds records into generated-line statistics. A commit counts as
// AI-assisted here only when its ai_generated_lines is positive.
func AggregateLines(records []schema.CommitRecord) schema.LineStats {
	stats := schema.LineStats{TotalCommits: len(records)}
	for _, r := range records {
		generated := schema.Deref(r.AIGeneratedLines)
		if generated > 0 {
			stats.AIAssistedCommits++
		}
		stats.TotalLinesAdded += schema.Deref(r.LinesAdded)
		stats.TotalLinesDeleted += schema.Deref(r.LinesDeleted)
		stats.AIGeneratedLines += generated
	}
	stats.AIAssistedPercentage = schema.Percentage(stats.AIAssistedCommits, stats.TotalCommits)
	stats.AIGeneratedPercentage = schema.Percentage(stats.AIGeneratedLines, stats.TotalLinesAdded)
	return stats
}

// BuildReport assembles the analyze report with both classification axes.
func BuildReport(repository string, days int, records []schema.CommitRecord) schema.AnalyzeReport {
	if records == nil {
		records = []schema.CommitRecord{}
	}
	return schema.AnalyzeReport{
		Repository:   repository,
		DaysAnalyzed: days,
		LineStats:    AggregateLines(records),
		UsageStats:   AggregateUsage(records),
		CommitData:   records,
	}
}

// BuildTimeline buckets records per UTC day between start and end, filling empty days.
// A zero start begins at the oldest record.
func BuildTimeline(records []schema.CommitRecord, start, end time.Time) schema.Timeline {
	tl := schema.Timeline{
		Start:      start.UTC(),
		End:        end.UTC(),
		Assistants: make(map[schema.Assistant]int),
	}

	days := make(map[string]*schema.DailyActivity)
	for _, r := range records {
		key := r.Timestamp.UTC().Format(schema.ObservationDateLayout)
		day, ok := days[key]
		if !ok {
			day = &schema.DailyActivity{Date: key}
			days[key] = day
		}
		day.Commits++
		tl.TotalCommits++
		if r.AIAssisted {
			day.AICommits++
			tl.AIAssistedCommits++
			tl.Assistants[r.AIAssistant]++
		}
		ai := schema.Deref(r.AIGeneratedLines)
		human := max(schema.Deref(r.LinesAdded)-ai, 0)
		day.AILines += ai
		day.HumanLines += human
		tl.AILines += ai
		tl.HumanLines += human

		if start.IsZero() && (tl.Start.IsZero() || r.Timestamp.Before(tl.Start)) {
			tl.Start = r.Timestamp.UTC()
		}
	}

	if !tl.Start.IsZero() && !tl.End.IsZero() {
		first := tl.Start.Truncate(24 * time.Hour)
		for d := first; !d.After(tl.End); d = d.Add(24 * time.Hour) {
			key := d.Format(schema.ObservationDateLayout)
			if _, ok := days[key]; !ok {
				days[key] = &schema.DailyActivity{Date: key}
			}
		}
	}

	keys := lo.Keys(days)
	sort.Strings(keys)
	tl.Days = lo.Map(keys, func(k string, _ int) schema.DailyActivity { return *days[k] })
	tl.AIPercentage = schema.Percentage(tl.AIAssistedCommits, tl.TotalCommits)
	tl.AILinesPercentage = schema.Percentage(tl.AILines, tl.AILines+tl.HumanLines)
	return tl
}
