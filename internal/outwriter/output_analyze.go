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

// PrintAnalyzeReport outputs an analyze report, dispatching based on the output format configured.
func PrintAnalyzeReport(report schema.AnalyzeReport, cfg *contract.Config, duration time.Duration) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, report)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeAnalyzeCSV(w, report.CommitData)
		}, "Wrote CSV")
	case schema.ParquetOut:
		return writeParquetFile(parquet.ConvertCommitRecords(report.CommitData), cfg.OutputFile)
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeAnalyzeTable(w, report, cfg, duration)
		}, "Wrote table")
	}
}

// writeAnalyzeTable generates and writes the human-readable commit table and summary.
func writeAnalyzeTable(w io.Writer, report schema.AnalyzeReport, cfg *contract.Config, duration time.Duration) error {
	if _, err := fmt.Fprintln(w, styleHeader.Render("AI Code Metrics: "+report.Repository)); err != nil {
		return err
	}

	if len(report.CommitData) > 0 {
		table := tablewriter.NewWriter(w)
		table.Header([]string{"Hash", "Date", "Author", "Label", "Assistant", "Added", "Deleted", "Subject"})
		table.Configure(func(cfg *tablewriter.Config) {
			cfg.Row.Alignment.Global = tw.AlignLeft
		})

		msgWidth := GetMaxMessageWidth(cfg)
		var data [][]string
		for _, c := range report.CommitData {
			data = append(data, []string{
				schema.ShortHash(c.Hash),
				c.Timestamp.UTC().Format(schema.ObservationDateLayout),
				contract.TruncateText(c.Author, 20),
				contract.GetColorLabel(c.AIAssisted),
				assistantLabel(c.AIAssistant),
				formatOptionalInt(c.LinesAdded),
				formatOptionalInt(c.LinesDeleted),
				contract.TruncateText(schema.Subject(c.Message), msgWidth),
			})
		}
		if err := table.Bulk(data); err != nil {
			return err
		}
		if err := table.Render(); err != nil {
			return err
		}
	}

	lines := [][2]string{
		{"Days analyzed", strconv.Itoa(report.DaysAnalyzed)},
		{"Total commits", strconv.Itoa(report.TotalCommits)},
		{"AI-generated commits", fmt.Sprintf("%d (%s%%)", report.AIAssistedCommits, formatFloat(report.AIAssistedPercentage))},
		{"Lines added", strconv.Itoa(report.TotalLinesAdded)},
		{"Lines deleted", strconv.Itoa(report.TotalLinesDeleted)},
		{"AI-generated lines", fmt.Sprintf("%d (%s%%)", report.AIGeneratedLines, formatFloat(report.AIGeneratedPercentage))},
		{"AI-assisted by message", fmt.Sprintf("%d (%s%%)", report.UsageStats.AIAssistedCommits, formatFloat(report.UsageStats.AIPercentage))},
	}
	for _, line := range lines {
		if _, err := fmt.Fprintf(w, "%s%s\n", styleLabel.Render(line[0]+":"), line[1]); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, styleMuted.Render(fmt.Sprintf("Analysis completed in %v. Analysis backend: %s", duration, cfg.AnalysisBackend)))
	return err
}

// writeAnalyzeCSV writes one CSV row per classified commit.
func writeAnalyzeCSV(w io.Writer, commits []schema.CommitRecord) error {
	header := []string{
		"commit_hash",
		"author",
		"author_email",
		"timestamp",
		"label",
		"ai_assistant",
		"has_explanation",
		"model",
		"files_changed",
		"lines_added",
		"lines_deleted",
		"ai_generated_lines",
		"subject",
	}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, c := range commits {
			rec := []string{
				c.Hash,
				c.Author,
				c.AuthorEmail,
				c.Timestamp.UTC().Format(contract.DateTimeFormat),
				contract.GetPlainLabel(c.AIAssisted),
				string(c.AIAssistant),
				strconv.FormatBool(c.HasExplanation),
				c.Model,
				formatOptionalInt(c.FilesChanged),
				formatOptionalInt(c.LinesAdded),
				formatOptionalInt(c.LinesDeleted),
				formatOptionalInt(c.AIGeneratedLines),
				schema.Subject(c.Message),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// assistantLabel renders an assistant id for tables, with a dash for unmatched commits.
func assistantLabel(a schema.Assistant) string {
	if a == "" || a == schema.AssistantNone {
		return "-"
	}
	return string(a)
}
