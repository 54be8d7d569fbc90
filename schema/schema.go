// Package schema has the models and constants shared by all parts of aimetrics.
package schema

import "time"

// CommitRecord is one historical commit with its AI classification and diff stats.
// Stat fields are nil when the history backend did not provide them, which keeps
// "unknown" distinct from a real zero.
type CommitRecord struct {
	Hash             string    `json:"commit_hash"`
	Author           string    `json:"author"`
	AuthorEmail      string    `json:"author_email"`
	Timestamp        time.Time `json:"timestamp"`
	Message          string    `json:"message"`
	FilesChanged     *int      `json:"files_changed,omitempty"`
	LinesAdded       *int      `json:"lines_added,omitempty"`
	LinesDeleted     *int      `json:"lines_deleted,omitempty"`
	AIGeneratedLines *int      `json:"ai_generated_lines,omitempty"`
	AIAssisted       bool      `json:"ai_assisted"`
	AIAssistant      Assistant `json:"ai_assistant,omitempty"`
	HasExplanation   bool      `json:"has_explanation"`
	Model            string    `json:"model,omitempty"`
}

// HasStats reports whether line statistics were extracted for the commit.
func (c CommitRecord) HasStats() bool {
	return c.LinesAdded != nil
}

// CommitFilter restricts a history walk. Zero values mean "no bound".
// Since is inclusive and Until is exclusive.
type CommitFilter struct {
	Since    time.Time
	Until    time.Time
	MaxCount int
}

// UsageStats summarizes message-pattern classification over a set of commits.
type UsageStats struct {
	TotalCommits       int               `json:"total_commits"`
	AIAssistedCommits  int               `json:"ai_assisted_commits"`
	AIPercentage       float64           `json:"ai_percentage"`
	AssistantBreakdown map[Assistant]int `json:"assistant_breakdown"`
}

// LineStats summarizes generated-line classification over a set of commits.
// AIAssistedCommits here counts commits with ai_generated_lines > 0.
type LineStats struct {
	TotalCommits          int     `json:"total_commits"`
	AIAssistedCommits     int     `json:"ai_assisted_commits"`
	AIAssistedPercentage  float64 `json:"ai_assisted_percentage"`
	TotalLinesAdded       int     `json:"total_lines_added"`
	TotalLinesDeleted     int     `json:"total_lines_deleted"`
	AIGeneratedLines      int     `json:"ai_generated_lines"`
	AIGeneratedPercentage float64 `json:"ai_generated_percentage"`
}

// AnalyzeReport is the document written by the analyze command.
// The top-level counters use the generated-line axis; UsageStats carries
// the message-pattern axis under its own key.
type AnalyzeReport struct {
	Repository   string `json:"repository"`
	DaysAnalyzed int    `json:"days_analyzed"`
	LineStats
	UsageStats UsageStats     `json:"usage_stats"`
	CommitData []CommitRecord `json:"commit_data"`
}
