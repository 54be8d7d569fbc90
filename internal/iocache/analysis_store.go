package iocache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	"github.com/ncolesummers/ai-code-metrics/internal/contract"
	"github.com/ncolesummers/ai-code-metrics/schema"
	_ "modernc.org/sqlite" // SQLite driver
)

// Table names for analysis tracking.
const (
	analysisRunsTable = "aimetrics_analysis_runs"
	commitsTable      = "aimetrics_commits"
)

// analysisTables lists the tables owned by the analysis store, parents first.
var analysisTables = []string{analysisRunsTable, commitsTable}

// AnalysisStoreImpl implements the AnalysisStore interface.
type AnalysisStoreImpl struct {
	db         *sql.DB
	backend    schema.DatabaseBackend
	driverName string
}

var _ contract.AnalysisStore = &AnalysisStoreImpl{} // Compile-time check

// NewAnalysisStore creates a new AnalysisStore with the specified backend.
func NewAnalysisStore(backend schema.DatabaseBackend, connStr string) (contract.AnalysisStore, error) {
	if backend == schema.NoneBackend || backend == "" {
		// A no-op store for disabled tracking
		return &AnalysisStoreImpl{backend: schema.NoneBackend}, nil
	}

	db, driverName, err := openDatabase(backend, connStr, false)
	if err != nil {
		return nil, err
	}
	// Ping to verify connection
	if err := db.Ping(); err != nil {
		_ = db.Close()
		var connDetail string
		switch backend {
		case schema.MySQLBackend:
			connDetail = "Check that MySQL is running and the connection string is correct. Ensure user/password are valid."
		case schema.PostgreSQLBackend:
			connDetail = "Check that PostgreSQL is running and the connection string is correct. Ensure user/password are valid."
		default:
			connDetail = "Verify that the database directory exists and is writable."
		}
		return nil, fmt.Errorf("failed to connect to %s database: %w. %s", backend, err, connDetail)
	}

	if err := createAnalysisTables(db, backend); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create analysis tables: %w", err)
	}

	return &AnalysisStoreImpl{
		db:         db,
		backend:    backend,
		driverName: driverName,
	}, nil
}

// openDatabase opens a handle for the backend without connecting.
// MySQL DSNs are rewritten so DATETIME columns scan into time.Time;
// multiStatements is enabled for migration files.
func openDatabase(backend schema.DatabaseBackend, connStr string, multiStatements bool) (*sql.DB, string, error) {
	switch backend {
	case schema.SQLiteBackend:
		dbPath := connStr
		if dbPath == "" {
			dbPath = GetAnalysisDBFilePath()
		}
		if dbPath != ":memory:" && !strings.HasPrefix(dbPath, "file:") {
			if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
				return nil, "", fmt.Errorf("failed to create directory for %q: %w", dbPath, err)
			}
		}
		db, err := sql.Open("sqlite", dbPath)
		if err != nil {
			return nil, "", fmt.Errorf("failed to open SQLite database at %q: %w. Check that the directory is writable", dbPath, err)
		}
		// Limit SQLite to a single open connection to avoid "database is locked" errors
		// and to keep :memory: databases on one connection
		db.SetMaxOpenConns(1)
		return db, "sqlite", nil

	case schema.MySQLBackend:
		dsn, err := mysqlDSN(connStr, multiStatements)
		if err != nil {
			return nil, "", err
		}
		db, err := sql.Open("mysql", dsn)
		if err != nil {
			return nil, "", fmt.Errorf("failed to open MySQL database: %w. Check connection string format: user:password@tcp(host:port)/dbname", err)
		}
		return db, "mysql", nil

	case schema.PostgreSQLBackend:
		db, err := sql.Open("pgx", connStr)
		if err != nil {
			return nil, "", fmt.Errorf("failed to open PostgreSQL database: %w. Check connection string format: host=... dbname=... user=... password=...", err)
		}
		return db, "pgx", nil

	default:
		return nil, "", fmt.Errorf("unsupported backend: %s", backend)
	}
}

// mysqlDSN normalizes a MySQL connection string.
func mysqlDSN(connStr string, multiStatements bool) (string, error) {
	cfg, err := mysql.ParseDSN(connStr)
	if err != nil {
		return "", fmt.Errorf("invalid MySQL connection string: %w", err)
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	cfg.MultiStatements = cfg.MultiStatements || multiStatements
	return cfg.FormatDSN(), nil
}

// createAnalysisTables creates the analysis tracking tables.
func createAnalysisTables(db *sql.DB, backend schema.DatabaseBackend) error {
	tables := []struct {
		name  string
		query string
	}{
		{analysisRunsTable, getCreateAnalysisRunsQuery(backend)},
		{commitsTable, getCreateCommitsQuery(backend)},
	}

	for _, table := range tables {
		if _, err := db.Exec(table.query); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table.name, err)
		}
	}
	return nil
}

// getCreateAnalysisRunsQuery returns the CREATE TABLE query for aimetrics_analysis_runs.
func getCreateAnalysisRunsQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(analysisRunsTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				analysis_id BIGINT AUTO_INCREMENT PRIMARY KEY,
				run_uuid CHAR(36) NOT NULL,
				repository VARCHAR(1024) NOT NULL,
				start_time DATETIME(6) NOT NULL,
				end_time DATETIME(6),
				run_duration_ms INT,
				total_commits INT NOT NULL DEFAULT 0,
				ai_assisted_commits INT NOT NULL DEFAULT 0,
				ai_percentage DOUBLE NOT NULL DEFAULT 0,
				config_params TEXT
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				analysis_id BIGSERIAL PRIMARY KEY,
				run_uuid UUID NOT NULL,
				repository TEXT NOT NULL,
				start_time TIMESTAMPTZ NOT NULL,
				end_time TIMESTAMPTZ,
				run_duration_ms INT,
				total_commits INT NOT NULL DEFAULT 0,
				ai_assisted_commits INT NOT NULL DEFAULT 0,
				ai_percentage DOUBLE PRECISION NOT NULL DEFAULT 0,
				config_params TEXT
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				analysis_id INTEGER PRIMARY KEY AUTOINCREMENT,
				run_uuid TEXT NOT NULL,
				repository TEXT NOT NULL,
				start_time TEXT NOT NULL,
				end_time TEXT,
				run_duration_ms INTEGER,
				total_commits INTEGER NOT NULL DEFAULT 0,
				ai_assisted_commits INTEGER NOT NULL DEFAULT 0,
				ai_percentage REAL NOT NULL DEFAULT 0,
				config_params TEXT
			);
		`, quotedTableName)
	}
}

// getCreateCommitsQuery returns the CREATE TABLE query for aimetrics_commits.
func getCreateCommitsQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(commitsTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				analysis_id BIGINT NOT NULL,
				commit_hash VARCHAR(64) NOT NULL,
				author VARCHAR(255) NOT NULL,
				author_email VARCHAR(255) NOT NULL,
				commit_time DATETIME(6) NOT NULL,
				files_changed INT,
				lines_added INT,
				lines_deleted INT,
				ai_assisted BOOLEAN NOT NULL,
				ai_assistant VARCHAR(50),
				has_explanation BOOLEAN NOT NULL,
				model VARCHAR(100),
				PRIMARY KEY (analysis_id, commit_hash)
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				analysis_id BIGINT NOT NULL,
				commit_hash TEXT NOT NULL,
				author TEXT NOT NULL,
				author_email TEXT NOT NULL,
				commit_time TIMESTAMPTZ NOT NULL,
				files_changed INT,
				lines_added INT,
				lines_deleted INT,
				ai_assisted BOOLEAN NOT NULL,
				ai_assistant TEXT,
				has_explanation BOOLEAN NOT NULL,
				model TEXT,
				PRIMARY KEY (analysis_id, commit_hash)
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				analysis_id INTEGER NOT NULL,
				commit_hash TEXT NOT NULL,
				author TEXT NOT NULL,
				author_email TEXT NOT NULL,
				commit_time TEXT NOT NULL,
				files_changed INTEGER,
				lines_added INTEGER,
				lines_deleted INTEGER,
				ai_assisted INTEGER NOT NULL,
				ai_assistant TEXT,
				has_explanation INTEGER NOT NULL,
				model TEXT,
				PRIMARY KEY (analysis_id, commit_hash)
			);
		`, quotedTableName)
	}
}

// BeginAnalysis creates a new analysis run and returns its unique ID.
func (as *AnalysisStoreImpl) BeginAnalysis(startTime time.Time, repository string, configParams map[string]any) (int64, error) {
	if as.disabled() {
		return 0, nil
	}

	configJSON, err := json.Marshal(configParams)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal config params: %w", err)
	}

	quotedTableName := quoteTableName(analysisRunsTable, as.backend)
	args := []any{uuid.NewString(), repository, formatTime(startTime, as.backend), string(configJSON)}

	var analysisID int64
	switch as.backend {
	case schema.PostgreSQLBackend:
		query := fmt.Sprintf(`INSERT INTO %s (run_uuid, repository, start_time, config_params) VALUES ($1, $2, $3, $4) RETURNING analysis_id`, quotedTableName)
		err = as.db.QueryRow(query, args...).Scan(&analysisID)
	default: // SQLite and MySQL
		query := fmt.Sprintf(`INSERT INTO %s (run_uuid, repository, start_time, config_params) VALUES (?, ?, ?, ?)`, quotedTableName)
		var result sql.Result
		result, err = as.db.Exec(query, args...)
		if err == nil {
			analysisID, err = result.LastInsertId()
		}
	}
	if err != nil {
		return 0, fmt.Errorf("failed to insert analysis run: %w", err)
	}
	return analysisID, nil
}

// RecordCommits stores the classified commits of a run in one transaction.
func (as *AnalysisStoreImpl) RecordCommits(analysisID int64, records []schema.CommitRecord) error {
	if as.disabled() || len(records) == 0 {
		return nil
	}

	query := as.rebind(fmt.Sprintf(`
		INSERT INTO %s (analysis_id, commit_hash, author, author_email, commit_time,
		                files_changed, lines_added, lines_deleted,
		                ai_assisted, ai_assistant, has_explanation, model)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, quoteTableName(commitsTable, as.backend)))

	tx, err := as.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(query)
	if err != nil {
		return fmt.Errorf("failed to prepare commit insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, c := range records {
		assistant := ""
		if c.AIAssistant != schema.AssistantNone {
			assistant = string(c.AIAssistant)
		}
		_, err := stmt.Exec(
			analysisID, c.Hash, c.Author, c.AuthorEmail, formatTime(c.Timestamp, as.backend),
			nullInt(c.FilesChanged), nullInt(c.LinesAdded), nullInt(c.LinesDeleted),
			c.AIAssisted, nullString(assistant), c.HasExplanation, nullString(c.Model),
		)
		if err != nil {
			return fmt.Errorf("failed to insert commit %s: %w", schema.ShortHash(c.Hash), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// EndAnalysis updates the analysis run with completion data.
func (as *AnalysisStoreImpl) EndAnalysis(analysisID int64, endTime time.Time, stats schema.UsageStats) error {
	if as.disabled() {
		return nil
	}

	quotedTableName := quoteTableName(analysisRunsTable, as.backend)

	// First, get the start_time to calculate duration
	var startTime dbTime
	query := as.rebind(fmt.Sprintf(`SELECT start_time FROM %s WHERE analysis_id = ?`, quotedTableName))
	if err := as.db.QueryRow(query, analysisID).Scan(&startTime); err != nil {
		return fmt.Errorf("failed to get start_time for analysis %d: %w", analysisID, err)
	}
	durationMs := endTime.Sub(startTime.Time).Milliseconds()

	updateQuery := as.rebind(fmt.Sprintf(`
		UPDATE %s SET end_time = ?, run_duration_ms = ?, total_commits = ?, ai_assisted_commits = ?, ai_percentage = ?
		WHERE analysis_id = ?
	`, quotedTableName))
	_, err := as.db.Exec(updateQuery,
		formatTime(endTime, as.backend), durationMs, stats.TotalCommits, stats.AIAssistedCommits, stats.AIPercentage, analysisID)
	if err != nil {
		return fmt.Errorf("failed to update analysis run: %w", err)
	}
	return nil
}

// Close closes the underlying connection.
func (as *AnalysisStoreImpl) Close() error {
	if as.db != nil {
		return as.db.Close()
	}
	return nil
}

// GetStatus returns status information about the analysis store.
func (as *AnalysisStoreImpl) GetStatus() (schema.AnalysisStatus, error) {
	status := schema.AnalysisStatus{
		Backend:    string(as.backend),
		Connected:  as.db != nil,
		TableSizes: make(map[string]int64),
	}
	if as.disabled() {
		return status, nil
	}

	runsTable := quoteTableName(analysisRunsTable, as.backend)
	if err := as.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", runsTable)).Scan(&status.TotalRuns); err != nil {
		return status, fmt.Errorf("failed to get total runs: %w", err)
	}

	if status.TotalRuns > 0 {
		var lastRun, oldestRun dbTime
		lastRunQuery := fmt.Sprintf("SELECT analysis_id, start_time FROM %s ORDER BY analysis_id DESC LIMIT 1", runsTable)
		if err := as.db.QueryRow(lastRunQuery).Scan(&status.LastRunID, &lastRun); err != nil {
			return status, fmt.Errorf("failed to get last run info: %w", err)
		}
		status.LastRunTime = lastRun.Time

		oldestRunQuery := fmt.Sprintf("SELECT start_time FROM %s ORDER BY analysis_id ASC LIMIT 1", runsTable)
		if err := as.db.QueryRow(oldestRunQuery).Scan(&oldestRun); err != nil {
			return status, fmt.Errorf("failed to get oldest run time: %w", err)
		}
		status.OldestRunTime = oldestRun.Time
	}

	for _, table := range analysisTables {
		countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteTableName(table, as.backend))
		var count int64
		if err := as.db.QueryRow(countQuery).Scan(&count); err != nil {
			return status, fmt.Errorf("failed to get count for table %s: %w", table, err)
		}
		status.TableSizes[table] = count
	}
	status.TotalCommitsStored = int(status.TableSizes[commitsTable])

	return status, nil
}

// GetAllAnalysisRuns retrieves all analysis runs from the store.
func (as *AnalysisStoreImpl) GetAllAnalysisRuns() ([]schema.AnalysisRunRecord, error) {
	if as.disabled() {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT analysis_id, run_uuid, repository, start_time, end_time, run_duration_ms,
		total_commits, ai_assisted_commits, ai_percentage, config_params
		FROM %s ORDER BY analysis_id`, quoteTableName(analysisRunsTable, as.backend))

	rows, err := as.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query analysis runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.AnalysisRunRecord
	for rows.Next() {
		var record schema.AnalysisRunRecord
		var startTime, endTime dbTime
		if err := rows.Scan(&record.AnalysisID, &record.RunUUID, &record.Repository, &startTime, &endTime,
			&record.RunDurationMs, &record.TotalCommits, &record.AIAssisted, &record.AIPercentage,
			&record.ConfigParams); err != nil {
			return nil, fmt.Errorf("failed to scan analysis run: %w", err)
		}
		record.StartTime = startTime.Time
		if endTime.Valid {
			record.EndTime = &endTime.Time
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating analysis runs: %w", err)
	}
	return results, nil
}

// GetAllCommitRuns retrieves all stored commit rows.
func (as *AnalysisStoreImpl) GetAllCommitRuns() ([]schema.CommitRunRecord, error) {
	if as.disabled() {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT analysis_id, commit_hash, author, author_email, commit_time,
		files_changed, lines_added, lines_deleted, ai_assisted, ai_assistant, has_explanation, model
		FROM %s ORDER BY analysis_id, commit_time DESC, commit_hash`, quoteTableName(commitsTable, as.backend))

	rows, err := as.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query commits: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.CommitRunRecord
	for rows.Next() {
		var record schema.CommitRunRecord
		var commitTime dbTime
		if err := rows.Scan(&record.AnalysisID, &record.CommitHash, &record.Author, &record.AuthorEmail, &commitTime,
			&record.FilesChanged, &record.LinesAdded, &record.LinesDeleted,
			&record.AIAssisted, &record.AIAssistant, &record.HasExplanation, &record.Model); err != nil {
			return nil, fmt.Errorf("failed to scan commit: %w", err)
		}
		record.CommitTime = commitTime.Time
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating commits: %w", err)
	}
	return results, nil
}

// disabled reports whether the store is a no-op.
func (as *AnalysisStoreImpl) disabled() bool {
	return as.backend == schema.NoneBackend || as.db == nil
}

// rebind rewrites ? placeholders to $n for PostgreSQL.
func (as *AnalysisStoreImpl) rebind(query string) string {
	if as.backend != schema.PostgreSQLBackend {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// quoteTableName quotes a table name for the backend.
func quoteTableName(table string, backend schema.DatabaseBackend) string {
	switch backend {
	case schema.MySQLBackend:
		return "`" + table + "`"
	default:
		return `"` + table + `"`
	}
}

// formatTime converts a time.Time to the appropriate format for the backend.
func formatTime(t time.Time, backend schema.DatabaseBackend) any {
	switch backend {
	case schema.SQLiteBackend:
		return t.UTC().Format(time.RFC3339Nano)
	default:
		return t.UTC()
	}
}

// nullString maps "" to NULL.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// nullInt maps a nil stat to NULL.
func nullInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

// dbTime scans a timestamp stored natively or as RFC 3339 text.
type dbTime struct {
	Time  time.Time
	Valid bool
}

// Scan implements sql.Scanner.
func (d *dbTime) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		d.Time, d.Valid = time.Time{}, false
		return nil
	case time.Time:
		d.Time, d.Valid = v.UTC(), true
		return nil
	case string:
		return d.parse(v)
	case []byte:
		return d.parse(string(v))
	default:
		return fmt.Errorf("unsupported time value %T", src)
	}
}

func (d *dbTime) parse(s string) error {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return fmt.Errorf("failed to parse time %q: %w", s, err)
	}
	d.Time, d.Valid = t.UTC(), true
	return nil
}
