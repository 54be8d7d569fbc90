package iocache

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ncolesummers/ai-code-metrics/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMemoryStore(t *testing.T) *AnalysisStoreImpl {
	t.Helper()
	store, err := NewAnalysisStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store.(*AnalysisStoreImpl)
}

func sampleCommits(base time.Time) []schema.CommitRecord {
	return []schema.CommitRecord{
		{
			Hash: "a1b2c3d4e5", Author: "Ada", AuthorEmail: "ada@example.com", Timestamp: base,
			FilesChanged: schema.Ptr(3), LinesAdded: schema.Ptr(40), LinesDeleted: schema.Ptr(2),
			AIAssisted: true, AIAssistant: schema.ClaudeCode, HasExplanation: true, Model: "claude-3-opus",
		},
		{
			Hash: "f6e5d4c3b2", Author: "Bob", AuthorEmail: "bob@example.com", Timestamp: base.Add(-time.Hour),
			AIAssistant: schema.AssistantNone,
		},
	}
}

func TestAnalysisStore_NoneBackend(t *testing.T) {
	store, err := NewAnalysisStore(schema.NoneBackend, "")
	require.NoError(t, err)
	require.NotNil(t, store)

	// BeginAnalysis should return 0 for NoneBackend
	analysisID, err := store.BeginAnalysis(time.Now(), "/repo", map[string]any{"test": "value"})
	assert.NoError(t, err)
	assert.Equal(t, int64(0), analysisID)

	// Other operations should not error
	assert.NoError(t, store.RecordCommits(1, sampleCommits(time.Now())))
	assert.NoError(t, store.EndAnalysis(1, time.Now(), schema.UsageStats{}))

	status, err := store.GetStatus()
	assert.NoError(t, err)
	assert.False(t, status.Connected)
	assert.Equal(t, "none", status.Backend)

	runs, err := store.GetAllAnalysisRuns()
	assert.NoError(t, err)
	assert.Empty(t, runs)

	assert.NoError(t, store.Close())
}

func TestAnalysisStore_UnsupportedBackend(t *testing.T) {
	_, err := NewAnalysisStore("oracle", "")
	assert.Error(t, err)
}

func TestAnalysisStore_RunLifecycle(t *testing.T) {
	store := newMemoryStore(t)
	start := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	analysisID, err := store.BeginAnalysis(start, "/work/repo", map[string]any{"days": 7, "anonymize": false})
	require.NoError(t, err)
	assert.Greater(t, analysisID, int64(0))

	require.NoError(t, store.RecordCommits(analysisID, sampleCommits(start)))
	stats := schema.UsageStats{TotalCommits: 2, AIAssistedCommits: 1, AIPercentage: 50}
	require.NoError(t, store.EndAnalysis(analysisID, start.Add(1500*time.Millisecond), stats))

	runs, err := store.GetAllAnalysisRuns()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	run := runs[0]
	assert.Equal(t, analysisID, run.AnalysisID)
	assert.Equal(t, "/work/repo", run.Repository)
	_, err = uuid.Parse(run.RunUUID)
	assert.NoError(t, err, "run_uuid should be a UUID")
	assert.True(t, start.Equal(run.StartTime))
	require.NotNil(t, run.EndTime)
	require.NotNil(t, run.RunDurationMs)
	assert.Equal(t, int32(1500), *run.RunDurationMs)
	assert.Equal(t, int32(2), run.TotalCommits)
	assert.Equal(t, int32(1), run.AIAssisted)
	assert.Equal(t, 50.0, run.AIPercentage)
	require.NotNil(t, run.ConfigParams)
	var params map[string]any
	require.NoError(t, json.Unmarshal([]byte(*run.ConfigParams), &params))
	assert.Equal(t, 7.0, params["days"])

	commits, err := store.GetAllCommitRuns()
	require.NoError(t, err)
	require.Len(t, commits, 2)

	ai := commits[0]
	assert.Equal(t, "a1b2c3d4e5", ai.CommitHash, "newest commit first")
	assert.True(t, ai.AIAssisted)
	assert.True(t, ai.HasExplanation)
	require.NotNil(t, ai.AIAssistant)
	assert.Equal(t, "claude_code", *ai.AIAssistant)
	require.NotNil(t, ai.LinesAdded)
	assert.Equal(t, int32(40), *ai.LinesAdded)
	require.NotNil(t, ai.Model)
	assert.True(t, start.Equal(ai.CommitTime))

	human := commits[1]
	assert.False(t, human.AIAssisted)
	assert.Nil(t, human.AIAssistant, "none is stored as NULL")
	assert.Nil(t, human.LinesAdded, "missing stats stay NULL")
	assert.Nil(t, human.Model)
}

func TestAnalysisStore_RecordCommitsRollsBack(t *testing.T) {
	store := newMemoryStore(t)
	analysisID, err := store.BeginAnalysis(time.Now(), "/repo", nil)
	require.NoError(t, err)

	commits := sampleCommits(time.Now())
	commits = append(commits, commits[0]) // duplicate primary key
	assert.Error(t, store.RecordCommits(analysisID, commits))

	stored, err := store.GetAllCommitRuns()
	require.NoError(t, err)
	assert.Empty(t, stored, "a failed batch leaves no rows behind")
}

func TestAnalysisStore_EndUnknownRun(t *testing.T) {
	store := newMemoryStore(t)
	assert.Error(t, store.EndAnalysis(42, time.Now(), schema.UsageStats{}))
}

func TestAnalysisStore_GetStatus(t *testing.T) {
	store := newMemoryStore(t)

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.True(t, status.Connected)
	assert.Equal(t, "sqlite", status.Backend)
	assert.Zero(t, status.TotalRuns)
	assert.Equal(t, int64(0), status.TableSizes[analysisRunsTable])

	first := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	last := time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)
	id1, err := store.BeginAnalysis(first, "/repo", nil)
	require.NoError(t, err)
	require.NoError(t, store.RecordCommits(id1, sampleCommits(first)))
	id2, err := store.BeginAnalysis(last, "/repo", nil)
	require.NoError(t, err)
	require.NoError(t, store.RecordCommits(id2, sampleCommits(last)[:1]))

	status, err = store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, 2, status.TotalRuns)
	assert.Equal(t, id2, status.LastRunID)
	assert.True(t, last.Equal(status.LastRunTime))
	assert.True(t, first.Equal(status.OldestRunTime))
	assert.Equal(t, 3, status.TotalCommitsStored)
	assert.Equal(t, int64(2), status.TableSizes[analysisRunsTable])
	assert.Equal(t, int64(3), status.TableSizes[commitsTable])
}

func TestAnalysisStore_SQLiteFilePersists(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "analysis.db")

	store, err := NewAnalysisStore(schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	_, err = store.BeginAnalysis(time.Now(), "/repo", nil)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := NewAnalysisStore(schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()
	status, err := reopened.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, 1, status.TotalRuns)
}

func TestRebind(t *testing.T) {
	pg := &AnalysisStoreImpl{backend: schema.PostgreSQLBackend}
	assert.Equal(t, "UPDATE t SET a = $1 WHERE b = $2", pg.rebind("UPDATE t SET a = ? WHERE b = ?"))

	lite := &AnalysisStoreImpl{backend: schema.SQLiteBackend}
	assert.Equal(t, "SELECT ?", lite.rebind("SELECT ?"))
}

func TestQuoteTableName(t *testing.T) {
	tests := []struct {
		backend  schema.DatabaseBackend
		expected string
	}{
		{schema.MySQLBackend, "`aimetrics_commits`"},
		{schema.PostgreSQLBackend, `"aimetrics_commits"`},
		{schema.SQLiteBackend, `"aimetrics_commits"`},
	}
	for _, tt := range tests {
		t.Run(string(tt.backend), func(t *testing.T) {
			assert.Equal(t, tt.expected, quoteTableName(commitsTable, tt.backend))
		})
	}
}

func TestGetCreateQueries(t *testing.T) {
	for _, backend := range []schema.DatabaseBackend{schema.SQLiteBackend, schema.MySQLBackend, schema.PostgreSQLBackend} {
		t.Run(string(backend), func(t *testing.T) {
			runs := getCreateAnalysisRunsQuery(backend)
			assert.Contains(t, runs, "CREATE TABLE IF NOT EXISTS")
			assert.Contains(t, runs, "run_uuid")
			assert.Contains(t, runs, "ai_percentage")

			commits := getCreateCommitsQuery(backend)
			assert.Contains(t, commits, "PRIMARY KEY (analysis_id, commit_hash)")
		})
	}
	assert.Contains(t, getCreateAnalysisRunsQuery(schema.MySQLBackend), "AUTO_INCREMENT")
	assert.Contains(t, getCreateAnalysisRunsQuery(schema.PostgreSQLBackend), "BIGSERIAL")
	assert.Contains(t, getCreateAnalysisRunsQuery(schema.SQLiteBackend), "AUTOINCREMENT")
}

func TestMySQLDSN(t *testing.T) {
	dsn, err := mysqlDSN("root:secret@tcp(localhost:3306)/aimetrics", true)
	require.NoError(t, err)
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "multiStatements=true")

	_, err = mysqlDSN("not a dsn", false)
	assert.Error(t, err)
}

func TestDBTimeScan(t *testing.T) {
	ref := time.Date(2024, 3, 10, 12, 30, 0, 123, time.UTC)

	var d dbTime
	require.NoError(t, d.Scan(ref.Format(time.RFC3339Nano)))
	assert.True(t, d.Valid)
	assert.True(t, ref.Equal(d.Time))

	require.NoError(t, d.Scan([]byte(ref.Format(time.RFC3339Nano))))
	assert.True(t, ref.Equal(d.Time))

	require.NoError(t, d.Scan(ref.In(time.FixedZone("x", 3600))))
	assert.Equal(t, time.UTC, d.Time.Location())

	require.NoError(t, d.Scan(nil))
	assert.False(t, d.Valid)

	assert.Error(t, d.Scan("yesterday"))
	assert.Error(t, d.Scan(42))
}
