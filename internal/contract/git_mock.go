package contract

import (
	"context"

	"github.com/ncolesummers/ai-code-metrics/schema"
	"github.com/stretchr/testify/mock"
)

// MockGitClient is a testify mock of GitClient for use in tests across packages.
type MockGitClient struct {
	mock.Mock
}

var _ GitClient = &MockGitClient{} // Compile-time check

// Run implements the GitClient interface.
func (m *MockGitClient) Run(ctx context.Context, repoPath string, args ...string) ([]byte, error) {
	calledArgs := []any{ctx, repoPath}
	for _, arg := range args {
		calledArgs = append(calledArgs, arg)
	}
	ret := m.Called(calledArgs...)
	return bytesOrNil(ret.Get(0)), ret.Error(1)
}

// GetRepoHash implements the GitClient interface.
func (m *MockGitClient) GetRepoHash(ctx context.Context, repoPath string) (string, error) {
	ret := m.Called(ctx, repoPath)
	return ret.String(0), ret.Error(1)
}

// GetRepoRoot implements the GitClient interface.
func (m *MockGitClient) GetRepoRoot(ctx context.Context, contextPath string) (string, error) {
	ret := m.Called(ctx, contextPath)
	return ret.String(0), ret.Error(1)
}

// GetCommitLog implements the GitClient interface.
func (m *MockGitClient) GetCommitLog(ctx context.Context, repoPath string, filter schema.CommitFilter) ([]byte, error) {
	ret := m.Called(ctx, repoPath, filter)
	return bytesOrNil(ret.Get(0)), ret.Error(1)
}

// GetMessageLog implements the GitClient interface.
func (m *MockGitClient) GetMessageLog(ctx context.Context, repoPath string) ([]byte, error) {
	ret := m.Called(ctx, repoPath)
	return bytesOrNil(ret.Get(0)), ret.Error(1)
}

func bytesOrNil(v any) []byte {
	if v == nil {
		return nil
	}
	return v.([]byte)
}
