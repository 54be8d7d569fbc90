package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/ncolesummers/ai-code-metrics/internal/contract"
	"github.com/ncolesummers/ai-code-metrics/internal/parquet"
	"github.com/ncolesummers/ai-code-metrics/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// PrintTimeline outputs the per-day activity series in the configured format.
func PrintTimeline(timeline schema.Timeline, cfg *contract.Config, duration time.Duration) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, timeline)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeTimelineCSV(w, timeline.Days)
		}, "Wrote CSV")
	case schema.ParquetOut:
		return writeParquetFile(parquet.ConvertTimeline(timeline), cfg.OutputFile)
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeTimelineTable(w, timeline, duration)
		}, "Wrote table")
	}
}

// writeTimelineTable writes one table row per day followed by the window totals.
func writeTimelineTable(w io.Writer, timeline schema.Timeline, duration time.Duration) error {
	title := fmt.Sprintf("AI Activity %s to %s",
		timeline.Start.UTC().Format(schema.ObservationDateLayout),
		timeline.End.UTC().Format(schema.ObservationDateLayout))
	if _, err := fmt.Fprintln(w, styleHeader.Render(title)); err != nil {
		return err
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Date", "Commits", "AI Commits", "AI Lines", "Human Lines"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})
	var data [][]string
	for _, d := range timeline.Days {
		data = append(data, []string{
			d.Date,
			strconv.Itoa(d.Commits),
			strconv.Itoa(d.AICommits),
			strconv.Itoa(d.AILines),
			strconv.Itoa(d.HumanLines),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "Total commits: %d, AI-assisted: %d (%s%%), AI lines: %d (%s%%)\n",
		timeline.TotalCommits, timeline.AIAssistedCommits, formatFloat(timeline.AIPercentage),
		timeline.AILines, formatFloat(timeline.AILinesPercentage)); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, styleMuted.Render(fmt.Sprintf("Timeline built in %v", duration)))
	return err
}

// writeTimelineCSV writes one row per day.
func writeTimelineCSV(w io.Writer, days []schema.DailyActivity) error {
	header := []string{"date", "commits", "ai_commits", "ai_lines", "human_lines"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, d := range days {
			rec := []string{
				d.Date,
				strconv.Itoa(d.Commits),
				strconv.Itoa(d.AICommits),
				strconv.Itoa(d.AILines),
				strconv.Itoa(d.HumanLines),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}
