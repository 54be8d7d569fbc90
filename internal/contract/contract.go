// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"
	"time"

	"github.com/ncolesummers/ai-code-metrics/schema"
)

// GitClient defines the necessary operations for commit history analysis.
// This allows the core analysis logic to be tested without needing a real git executable.
type GitClient interface {
	// --- Generic / Low-Level ---

	// Run executes a git command and returns its output.
	// Its use should be minimized in favor of the explicit methods below.
	Run(ctx context.Context, repoPath string, args ...string) ([]byte, error)

	// --- Reference Resolution ---

	// GetRepoHash returns the current HEAD commit hash of the repository.
	GetRepoHash(ctx context.Context, repoPath string) (string, error)

	// GetRepoRoot returns the absolute path to the root of the Git repository
	// containing the given context path.
	GetRepoRoot(ctx context.Context, contextPath string) (string, error)

	// --- History Logs ---

	// GetCommitLog returns the delimited commit log with numstat output for the filter.
	GetCommitLog(ctx context.Context, repoPath string, filter schema.CommitFilter) ([]byte, error)

	// GetMessageLog returns the delimited commit messages of the whole history, without stats.
	GetMessageLog(ctx context.Context, repoPath string) ([]byte, error)
}

// StoreManager defines the interface for managing persistence stores.
// This allows the store layer to be mocked for testing.
type StoreManager interface {
	GetAnalysisStore() AnalysisStore
}

// AnalysisStore defines the interface for tracking analyze runs and the commits they classified.
type AnalysisStore interface {
	// BeginAnalysis creates a new analysis run and returns its unique ID
	BeginAnalysis(startTime time.Time, repository string, configParams map[string]any) (int64, error)

	// RecordCommits stores the classified commits of the run in one transaction
	RecordCommits(analysisID int64, records []schema.CommitRecord) error

	// EndAnalysis updates the analysis run with completion data
	EndAnalysis(analysisID int64, endTime time.Time, stats schema.UsageStats) error

	// GetStatus returns status information about the analysis store
	GetStatus() (schema.AnalysisStatus, error)

	// GetAllAnalysisRuns returns every stored run
	GetAllAnalysisRuns() ([]schema.AnalysisRunRecord, error)

	// GetAllCommitRuns returns every stored commit row
	GetAllCommitRuns() ([]schema.CommitRunRecord, error)

	// Close closes the underlying connection
	Close() error
}
