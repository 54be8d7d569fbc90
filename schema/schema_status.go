package schema

import "time"

// AnalysisStatus represents the status of the analysis store.
type AnalysisStatus struct {
	Backend            string           `json:"backend"`
	Connected          bool             `json:"connected"`
	TotalRuns          int              `json:"total_runs"`
	LastRunID          int64            `json:"last_run_id"`
	LastRunTime        time.Time        `json:"last_run_time"`
	OldestRunTime      time.Time        `json:"oldest_run_time"`
	TotalCommitsStored int              `json:"total_commits_stored"`
	TableSizes         map[string]int64 `json:"table_sizes"`
}

// ObservationStatus summarizes the observation logs on disk.
type ObservationStatus struct {
	Directory string                  `json:"directory"`
	Files     map[ObservationKind]int `json:"files"`
	Bytes     int64                   `json:"bytes"`
	Newest    string                  `json:"newest,omitempty"`
}
