package cmd

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/ncolesummers/ai-code-metrics/core/roi"
	"github.com/ncolesummers/ai-code-metrics/internal/contract"
	"github.com/ncolesummers/ai-code-metrics/schema"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// useConfigFile points the global viper at path for the duration of the test.
func useConfigFile(t *testing.T, path string) {
	t.Helper()
	viper.Set("config", path)
	t.Cleanup(func() { viper.Set("config", "") })
	initConfig()
}

func TestModelsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"models": {"gpt-3.5-turbo": {"input": 1}}}`), 0o644))
	useConfigFile(t, path)

	models, ok := modelsFromFile().(map[string]any)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"input": 1.0, "output": 1.5}, models["gpt-3.5-turbo"])
	assert.Contains(t, models, "claude-3-opus")
}

func TestModelsFromCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0o644))
	useConfigFile(t, path)

	assert.Nil(t, modelsFromFile())
}

func TestLoadSettingsUsesCommandDefaults(t *testing.T) {
	useConfigFile(t, filepath.Join(t.TempDir(), "missing.json"))

	require.NoError(t, loadSettings(context.Background(), roiCmd, nil, nil))
	assert.Equal(t, contract.DefaultROIDays, cfg.Days)
	assert.Equal(t, contract.DefaultHourlyRate, cfg.HourlyRate)
	assert.Equal(t, schema.TextOut, cfg.Output)
	assert.Contains(t, cfg.Models, "claude-3-opus")
}

func TestLoadSettingsReadsConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	doc := `{"metrics_storage_path": "` + dir + `", "roi": {"hourly_rate": 120}, "prometheus": {"port": 9464}}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	useConfigFile(t, path)

	require.NoError(t, loadSettings(context.Background(), exportCmd, nil, nil))
	assert.Equal(t, dir, cfg.MetricsDir)
	assert.Equal(t, 120.0, cfg.HourlyRate)
	assert.Equal(t, 9464, cfg.PrometheusPort)
}

func TestRunTrackedPropagatesExitStatus(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	useConfigFile(t, filepath.Join(t.TempDir(), "missing.json"))
	cfg.MetricsDir = t.TempDir()

	require.NoError(t, trackCmd.Flags().Set("name", "failing_step"))
	require.NoError(t, trackCmd.Flags().Set("ai", "true"))
	t.Cleanup(func() {
		_ = trackCmd.Flags().Set("name", "")
		_ = trackCmd.Flags().Set("ai", "false")
	})
	require.NoError(t, bindCommandFlags(trackCmd))

	code, err := runTracked(trackCmd, []string{"sh", "-c", "exit 3"})
	require.NoError(t, err)
	assert.Equal(t, 3, code)

	files, err := roi.MetricsFiles(cfg.MetricsDir)
	require.NoError(t, err)
	require.Len(t, files, 1)

	var records []schema.ObservationRecord
	_, err = roi.ScanFile(files[0], func(rec schema.ObservationRecord) {
		records = append(records, rec)
	})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "failing_step", records[0].FunctionName)
	assert.True(t, records[0].AIAssisted)
	assert.False(t, records[0].Success)
	assert.Nil(t, records[0].QualityScore)
}

// setTrackFlags sets track flags for one test and restores their defaults.
func setTrackFlags(t *testing.T, values map[string]string) {
	t.Helper()
	for name, value := range values {
		flag := trackCmd.Flags().Lookup(name)
		require.NotNil(t, flag, name)
		def := flag.DefValue
		require.NoError(t, trackCmd.Flags().Set(name, value))
		t.Cleanup(func() {
			_ = trackCmd.Flags().Set(name, def)
			flag.Changed = false
		})
	}
	require.NoError(t, bindCommandFlags(trackCmd))
}

func TestRunTrackedReportsLostRecord(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	useConfigFile(t, filepath.Join(t.TempDir(), "missing.json"))
	cfg.MetricsDir = t.TempDir()
	setTrackFlags(t, map[string]string{"name": "blocked_step"})

	// a directory in place of today's file makes the append fail
	dayFile := filepath.Join(cfg.MetricsDir, schema.ObservationFileName(schema.TimingKind, time.Now()))
	require.NoError(t, os.Mkdir(dayFile, 0o755))

	code, err := runTracked(trackCmd, []string{"sh", "-c", "exit 0"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "blocked_step")
	assert.Equal(t, 0, code)

	code, err = runTracked(trackCmd, []string{"sh", "-c", "exit 4"})
	require.Error(t, err)
	assert.Equal(t, 4, code)
}

func TestRunTrackedQualityScoreRange(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	useConfigFile(t, filepath.Join(t.TempDir(), "missing.json"))
	cfg.MetricsDir = t.TempDir()
	setTrackFlags(t, map[string]string{"name": "scored_step", "quality-score": "87.5"})

	code, err := runTracked(trackCmd, []string{"sh", "-c", "exit 0"})
	require.NoError(t, err)
	assert.Equal(t, 0, code)

	files, err := roi.MetricsFiles(cfg.MetricsDir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	var scores []float64
	_, err = roi.ScanFile(files[0], func(rec schema.ObservationRecord) {
		if rec.QualityScore != nil {
			scores = append(scores, *rec.QualityScore)
		}
	})
	require.NoError(t, err)
	assert.Equal(t, []float64{87.5}, scores)

	setTrackFlags(t, map[string]string{"quality-score": "101"})
	_, err = runTracked(trackCmd, []string{"sh", "-c", "exit 0"})
	assert.ErrorContains(t, err, "between 0 and 100")
}
