package schema

import "time"

// AnalysisRunRecord represents a row from the aimetrics_analysis_runs table.
type AnalysisRunRecord struct {
	AnalysisID    int64
	RunUUID       string
	Repository    string
	StartTime     time.Time
	EndTime       *time.Time
	RunDurationMs *int32
	TotalCommits  int32
	AIAssisted    int32
	AIPercentage  float64
	ConfigParams  *string
}

// CommitRunRecord represents a row from the aimetrics_commits table.
type CommitRunRecord struct {
	AnalysisID     int64
	CommitHash     string
	Author         string
	AuthorEmail    string
	CommitTime     time.Time
	FilesChanged   *int32
	LinesAdded     *int32
	LinesDeleted   *int32
	AIAssisted     bool
	AIAssistant    *string
	HasExplanation bool
	Model          *string
}
