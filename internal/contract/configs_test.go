package contract

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ncolesummers/ai-code-metrics/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestProcessAndValidate(t *testing.T) {
	tests := []struct {
		name        string
		input       *ConfigRawInput
		expectError bool
		setupMock   func(*MockGitClient)
	}{
		{
			name:  "valid minimal config",
			input: &ConfigRawInput{RepoPathStr: "."},
			setupMock: func(m *MockGitClient) {
				m.On("GetRepoRoot", mock.Anything, mock.Anything).Return("/mock/repo/root", nil)
			},
		},
		{
			name:        "invalid output",
			input:       &ConfigRawInput{Output: "xml", RepoPathStr: "."},
			expectError: true,
		},
		{
			name:        "parquet without file",
			input:       &ConfigRawInput{Output: "parquet", RepoPathStr: "."},
			expectError: true,
		},
		{
			name:        "negative days",
			input:       &ConfigRawInput{Days: -1, RepoPathStr: "."},
			expectError: true,
		},
		{
			name:        "invalid color",
			input:       &ConfigRawInput{Color: "maybe", RepoPathStr: "."},
			expectError: true,
		},
		{
			name:        "invalid backend",
			input:       &ConfigRawInput{AnalysisBackend: "oracle", RepoPathStr: "."},
			expectError: true,
		},
		{
			name:        "mysql without connection string",
			input:       &ConfigRawInput{AnalysisBackend: "mysql", RepoPathStr: "."},
			expectError: true,
		},
		{
			name: "improvement factor out of range",
			input: &ConfigRawInput{
				Settings:    Settings{ROI: ROISettings{ImprovementFactor: 1.0}},
				RepoPathStr: ".",
			},
			expectError: true,
		},
		{
			name: "bad refresh interval",
			input: &ConfigRawInput{
				Settings:    Settings{Prometheus: PrometheusSettings{RefreshInterval: "soon"}},
				RepoPathStr: ".",
			},
			expectError: true,
		},
		{
			name:        "not a repository",
			input:       &ConfigRawInput{RepoPathStr: "."},
			expectError: true,
			setupMock: func(m *MockGitClient) {
				m.On("GetRepoRoot", mock.Anything, mock.Anything).Return("", errors.New("not a git repository"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockClient := new(MockGitClient)
			if tt.setupMock != nil {
				tt.setupMock(mockClient)
			}
			cfg := &Config{}
			err := ProcessAndValidate(context.Background(), cfg, mockClient, tt.input)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "/mock/repo/root", cfg.RepoPath)
			mockClient.AssertExpectations(t)
		})
	}
}

func TestProcessAndValidateDefaults(t *testing.T) {
	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(context.Background(), cfg, nil, &ConfigRawInput{}))

	assert.Equal(t, DefaultLookbackDays, cfg.Days)
	assert.Equal(t, schema.TextOut, cfg.Output)
	assert.Equal(t, schema.NoneBackend, cfg.AnalysisBackend)
	assert.Equal(t, DefaultPrometheusHost, cfg.PrometheusHost)
	assert.Equal(t, DefaultPrometheusPort, cfg.PrometheusPort)
	assert.Equal(t, "0.0.0.0:8080", cfg.ListenAddr())
	assert.Equal(t, DefaultHourlyRate, cfg.HourlyRate)
	assert.Equal(t, DefaultImprovementFactor, cfg.ImprovementFactor)
	assert.Equal(t, DefaultSalt, cfg.AnonymizeSalt)
	assert.Equal(t, DefaultModelLabel, cfg.DefaultModel)
	assert.Equal(t, DefaultLanguageLabel, cfg.DefaultLanguage)
	assert.True(t, cfg.UseColors)
	assert.Equal(t, DefaultModelPricing(), cfg.Models)
	assert.Empty(t, cfg.RepoPath)
	assert.WithinDuration(t, cfg.EndTime.Add(-7*24*time.Hour), cfg.StartTime, time.Second)
}

func TestProcessAndValidateOverrides(t *testing.T) {
	input := &ConfigRawInput{
		Settings: Settings{
			MetricsStoragePath: "/tmp/metrics",
			Prometheus:         PrometheusSettings{Host: "127.0.0.1", Port: 9100, RefreshInterval: "5s"},
			ROI:                ROISettings{HourlyRate: 120, ImprovementFactor: 0.5},
			Security:           SecuritySettings{Salt: "pepper"},
		},
		ModelsRaw: map[string]any{
			"claude-3-haiku":    map[string]any{"input": 0.8},
			"claude-3.5-sonnet": map[string]any{"input": "3", "output": 15},
		},
		Days:      14,
		Anonymize: true,
		Color:     "no",
	}
	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(context.Background(), cfg, nil, input))

	assert.Equal(t, "/tmp/metrics", cfg.MetricsDir)
	assert.Equal(t, "127.0.0.1:9100", cfg.ListenAddr())
	assert.Equal(t, 5*time.Second, cfg.RefreshInterval)
	assert.Equal(t, 120.0, cfg.HourlyRate)
	assert.Equal(t, 0.5, cfg.ImprovementFactor)
	assert.True(t, cfg.Anonymize)
	assert.Equal(t, "pepper", cfg.AnonymizeSalt)
	assert.False(t, cfg.UseColors)
	assert.Equal(t, 14, cfg.Days)

	// partial model overrides keep the other side
	assert.Equal(t, ModelPrice{Input: 0.8, Output: 1.25}, cfg.Models["claude-3-haiku"])
	assert.Equal(t, ModelPrice{Input: 3, Output: 15}, cfg.Models["claude-3.5-sonnet"])
	assert.Equal(t, ModelPrice{Input: 30, Output: 60}, cfg.Models["gpt-4"])
}

func TestResolveRepoPathMissingDir(t *testing.T) {
	cfg := &Config{}
	err := ProcessAndValidate(context.Background(), cfg, new(MockGitClient), &ConfigRawInput{
		RepoPathStr: filepath.Join(t.TempDir(), "missing"),
	})
	var repoErr *RepositoryAccessError
	require.ErrorAs(t, err, &repoErr)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestMergeModelPricing(t *testing.T) {
	base := DefaultModelPricing()

	_, err := MergeModelPricing(base, map[string]any{"gpt-4": map[string]any{"input": "cheap"}})
	assert.Error(t, err)

	_, err = MergeModelPricing(base, map[string]any{"gpt-4": map[string]any{"cached": 1}})
	assert.Error(t, err)

	_, err = MergeModelPricing(base, map[string]any{"gpt-4": map[string]any{"input": -1}})
	assert.Error(t, err)

	_, err = MergeModelPricing(base, "not a map")
	assert.Error(t, err)

	merged, err := MergeModelPricing(base, nil)
	require.NoError(t, err)
	assert.Equal(t, base, merged)

	// base is never mutated
	_, err = MergeModelPricing(base, map[string]any{"gpt-4": map[string]any{"input": 1}})
	require.NoError(t, err)
	assert.Equal(t, 30.0, base["gpt-4"].Input)
}

func TestConfigClone(t *testing.T) {
	cfg := &Config{Models: DefaultModelPricing(), Days: 3}
	clone := cfg.Clone()
	clone.Models["gpt-4"] = ModelPrice{}
	clone.Days = 9
	assert.Equal(t, 30.0, cfg.Models["gpt-4"].Input)
	assert.Equal(t, 3, cfg.Days)
}
