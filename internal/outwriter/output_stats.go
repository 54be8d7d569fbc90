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

// statsDocument is the JSON shape of the stats command.
type statsDocument struct {
	schema.UsageStats
	Breakdown []schema.AssistantShare `json:"breakdown"`
}

// PrintUsageStats outputs message-pattern usage stats in the configured format.
func PrintUsageStats(stats schema.UsageStats, cfg *contract.Config, duration time.Duration) error {
	shares := schema.SortedBreakdown(stats)
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, statsDocument{UsageStats: stats, Breakdown: shares})
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeStatsCSV(w, shares)
		}, "Wrote CSV")
	case schema.ParquetOut:
		return writeParquetFile(parquet.ConvertBreakdown(shares), cfg.OutputFile)
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeStatsText(w, stats, shares, duration)
		}, "Wrote text")
	}
}

// writeStatsText writes the usage summary and the assistant breakdown table.
func writeStatsText(w io.Writer, stats schema.UsageStats, shares []schema.AssistantShare, duration time.Duration) error {
	if _, err := fmt.Fprintln(w, styleHeader.Render("Repository AI Usage Summary")); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%s%d\n", styleLabel.Render("Total commits:"), stats.TotalCommits); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%s%d (%s%%)\n", styleLabel.Render("AI-assisted commits:"), stats.AIAssistedCommits, formatFloat(stats.AIPercentage)); err != nil {
		return err
	}

	if len(shares) > 0 {
		if _, err := fmt.Fprintln(w, styleHeader.Render("AI Assistant Breakdown")); err != nil {
			return err
		}
		table := tablewriter.NewWriter(w)
		table.Header([]string{"Assistant", "Commits", "Share"})
		table.Configure(func(cfg *tablewriter.Config) {
			cfg.Row.Alignment.Global = tw.AlignRight
		})
		var data [][]string
		for _, s := range shares {
			data = append(data, []string{string(s.Assistant), strconv.Itoa(s.Commits), formatFloat(s.Share) + "%"})
		}
		if err := table.Bulk(data); err != nil {
			return err
		}
		if err := table.Render(); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, styleMuted.Render(fmt.Sprintf("Stats computed in %v", duration)))
	return err
}

// writeStatsCSV writes one row per assistant with its share of AI-assisted commits.
func writeStatsCSV(w io.Writer, shares []schema.AssistantShare) error {
	return writeCSVWithHeader(w, []string{"assistant", "commits", "share"}, func(cw *csv.Writer) error {
		for _, s := range shares {
			if err := cw.Write([]string{string(s.Assistant), strconv.Itoa(s.Commits), formatFloat(s.Share)}); err != nil {
				return err
			}
		}
		return nil
	})
}
