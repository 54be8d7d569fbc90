package schema

import "time"

// DailyActivity is one UTC day of commit activity.
type DailyActivity struct {
	Date       string `json:"date"`
	Commits    int    `json:"commits"`
	AICommits  int    `json:"ai_commits"`
	AILines    int    `json:"ai_lines"`
	HumanLines int    `json:"human_lines"`
}

// Timeline holds the per-day activity series and the totals behind it.
type Timeline struct {
	Start             time.Time         `json:"start"`
	End               time.Time         `json:"end"`
	Days              []DailyActivity   `json:"days"`
	TotalCommits      int               `json:"total_commits"`
	AIAssistedCommits int               `json:"ai_assisted_commits"`
	AIPercentage      float64           `json:"ai_percentage"`
	AILines           int               `json:"ai_lines"`
	HumanLines        int               `json:"human_lines"`
	AILinesPercentage float64           `json:"ai_lines_percentage"`
	Assistants        map[Assistant]int `json:"ai_assistants"`
}
