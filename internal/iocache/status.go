package iocache

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ncolesummers/ai-code-metrics/core/roi"
	"github.com/ncolesummers/ai-code-metrics/schema"
)

// PrintAnalysisStatus prints analysis status information.
func PrintAnalysisStatus(w io.Writer, status schema.AnalysisStatus) {
	_, _ = fmt.Fprintf(w, "Analysis Backend: %s\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Connected: %t\n", status.Connected)
	if !status.Connected {
		return
	}
	_, _ = fmt.Fprintf(w, "Total Runs: %d\n", status.TotalRuns)
	if status.TotalRuns > 0 {
		_, _ = fmt.Fprintf(w, "Last Run ID: %d\n", status.LastRunID)
		_, _ = fmt.Fprintf(w, "Last Run: %s\n", status.LastRunTime.Format("2006-01-02 15:04:05"))
		_, _ = fmt.Fprintf(w, "Oldest Run: %s\n", status.OldestRunTime.Format("2006-01-02 15:04:05"))
		_, _ = fmt.Fprintf(w, "Total Commits Stored: %d\n", status.TotalCommitsStored)
	}
	tables := make([]string, 0, len(status.TableSizes))
	for table := range status.TableSizes {
		tables = append(tables, table)
	}
	sort.Strings(tables)
	_, _ = fmt.Fprintln(w, "Table Sizes:")
	for _, table := range tables {
		_, _ = fmt.Fprintf(w, "  %s: %d rows\n", table, status.TableSizes[table])
	}
}

// GetObservationStatus summarizes the observation logs under dir.
func GetObservationStatus(dir string) (schema.ObservationStatus, error) {
	status := schema.ObservationStatus{
		Directory: dir,
		Files:     make(map[schema.ObservationKind]int),
	}
	files, err := roi.MetricsFiles(dir)
	if err != nil {
		return status, err
	}
	for _, file := range files {
		info, err := os.Stat(file)
		if err != nil {
			return status, fmt.Errorf("failed to stat %s: %w", file, err)
		}
		kind, _ := roi.KindOf(file)
		status.Files[kind]++
		status.Bytes += info.Size()
	}
	// Names sort by kind then date, so compare dates across kinds
	for _, file := range files {
		if day := observationDay(file); day > status.Newest {
			status.Newest = day
		}
	}
	return status, nil
}

// observationDay extracts the YYYY-MM-DD part of an observation file name.
func observationDay(file string) string {
	name := strings.TrimSuffix(filepath.Base(file), ".jsonl")
	if len(name) < len(schema.ObservationDateLayout) {
		return ""
	}
	return name[len(name)-len(schema.ObservationDateLayout):]
}

// PrintObservationStatus prints the observation log summary.
func PrintObservationStatus(w io.Writer, status schema.ObservationStatus) {
	_, _ = fmt.Fprintf(w, "Observation Directory: %s\n", status.Directory)
	for _, kind := range schema.AllObservationKinds {
		_, _ = fmt.Fprintf(w, "  %s files: %d\n", kind, status.Files[kind])
	}
	_, _ = fmt.Fprintf(w, "Total Size: %d bytes\n", status.Bytes)
	if status.Newest != "" {
		_, _ = fmt.Fprintf(w, "Newest Day: %s\n", status.Newest)
	}
}
