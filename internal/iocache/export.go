package iocache

import (
	"errors"
	"fmt"
	"io"

	"github.com/ncolesummers/ai-code-metrics/core/roi"
	"github.com/ncolesummers/ai-code-metrics/internal/contract"
	"github.com/ncolesummers/ai-code-metrics/internal/parquet"
	"github.com/ncolesummers/ai-code-metrics/schema"
)

// ExecuteAnalysisExport exports the stored runs and commits to Parquet files
// named <outputFile>.analysis_runs.parquet and <outputFile>.commits.parquet.
func ExecuteAnalysisExport(w io.Writer, store contract.AnalysisStore, outputFile string) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}

	// Check if there's any data to export
	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get analysis status: %w", err)
	}
	if status.TotalRuns == 0 {
		return errors.New("no analysis data found to export")
	}

	_, _ = fmt.Fprintf(w, "Exporting data from %s backend...\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Total analysis runs: %d\n", status.TotalRuns)
	_, _ = fmt.Fprintf(w, "Total commit records: %d\n", status.TotalCommitsStored)

	analysisRuns, err := store.GetAllAnalysisRuns()
	if err != nil {
		return fmt.Errorf("failed to retrieve analysis runs: %w", err)
	}
	commits, err := store.GetAllCommitRuns()
	if err != nil {
		return fmt.Errorf("failed to retrieve commits: %w", err)
	}

	analysisRunsFile := outputFile + ".analysis_runs.parquet"
	if err := parquet.Write(parquet.ConvertAnalysisRunRecords(analysisRuns), analysisRunsFile); err != nil {
		return fmt.Errorf("failed to write analysis runs: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d analysis runs to: %s\n", len(analysisRuns), analysisRunsFile)

	commitsFile := outputFile + ".commits.parquet"
	if err := parquet.Write(parquet.ConvertCommitRunRecords(commits), commitsFile); err != nil {
		return fmt.Errorf("failed to write commits: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d commit records to: %s\n", len(commits), commitsFile)

	return nil
}

// ExecuteObservationExport exports every timing and API usage record under
// metricsDir to <outputFile>.observations.parquet. Malformed lines are skipped
// with a warning.
func ExecuteObservationExport(w io.Writer, metricsDir, outputFile string) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}

	files, err := roi.MetricsFiles(metricsDir)
	if err != nil {
		return fmt.Errorf("failed to list observation files: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no observation files found in %s", metricsDir)
	}

	var rows []parquet.Observation
	skipped := 0
	for _, file := range files {
		kind, _ := roi.KindOf(file)
		malformed, err := roi.ScanFile(file, func(rec schema.ObservationRecord) {
			rows = append(rows, parquet.ConvertObservation(kind, rec))
		})
		if err != nil {
			return err
		}
		for _, m := range malformed {
			contract.LogWarn("Skipping record", m)
		}
		skipped += len(malformed)
	}

	observationsFile := outputFile + ".observations.parquet"
	if err := parquet.Write(rows, observationsFile); err != nil {
		return fmt.Errorf("failed to write observations: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d observations from %d files to: %s\n", len(rows), len(files), observationsFile)
	if skipped > 0 {
		_, _ = fmt.Fprintf(w, "Skipped %d malformed lines\n", skipped)
	}
	return nil
}
