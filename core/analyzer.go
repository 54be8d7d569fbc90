package core

import (
	"context"

	"github.com/ncolesummers/ai-code-metrics/core/agg"
	"github.com/ncolesummers/ai-code-metrics/internal/contract"
	"github.com/ncolesummers/ai-code-metrics/schema"
)

// CommitAnalyzer walks the history of a single repository.
type CommitAnalyzer struct {
	client   contract.GitClient
	repoPath string
}

// OpenCommitAnalyzer resolves the repository containing path. It fails with a
// RepositoryAccessError when path is not inside a readable Git repository.
func OpenCommitAnalyzer(ctx context.Context, client contract.GitClient, path string) (*CommitAnalyzer, error) {
	root, err := client.GetRepoRoot(ctx, path)
	if err != nil {
		return nil, &contract.RepositoryAccessError{Path: path, Err: err}
	}
	return &CommitAnalyzer{client: client, repoPath: root}, nil
}

// RepoPath returns the resolved repository root.
func (a *CommitAnalyzer) RepoPath() string {
	return a.repoPath
}

// AnalyzeCommits returns the classified commits matching filter, with file and
// line stats, in git traversal order (most recent first).
func (a *CommitAnalyzer) AnalyzeCommits(ctx context.Context, filter schema.CommitFilter) ([]schema.CommitRecord, error) {
	out, err := a.client.GetCommitLog(ctx, a.repoPath, filter)
	if err != nil {
		return nil, &contract.RepositoryAccessError{Path: a.repoPath, Err: err}
	}
	records, err := agg.ParseCommitLog(out, true)
	if err != nil {
		return nil, err
	}
	// git's --until is second-granular and inclusive
	return agg.FilterUntil(records, filter.Until), nil
}

// UsageStats classifies the messages of the whole history in one pass without
// extracting per-commit stats.
func (a *CommitAnalyzer) UsageStats(ctx context.Context) (schema.UsageStats, error) {
	out, err := a.client.GetMessageLog(ctx, a.repoPath)
	if err != nil {
		return schema.UsageStats{}, &contract.RepositoryAccessError{Path: a.repoPath, Err: err}
	}
	return agg.AggregateMessages(agg.ParseMessageLog(out)), nil
}
