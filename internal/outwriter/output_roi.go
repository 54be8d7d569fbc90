package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/ncolesummers/ai-code-metrics/internal/contract"
	"github.com/ncolesummers/ai-code-metrics/internal/parquet"
	"github.com/ncolesummers/ai-code-metrics/schema"
)

// PrintROIReport outputs an ROI report in the configured format.
func PrintROIReport(report schema.ROIReport, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, report)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeROICSV(w, report)
		}, "Wrote CSV")
	case schema.ParquetOut:
		return writeParquetFile(parquet.ConvertROIReport(report), cfg.OutputFile)
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeROIText(w, report)
		}, "Wrote text")
	}
}

// formatROI renders the ROI percentage, or "undefined" when there was no API cost to divide by.
func formatROI(report schema.ROIReport) string {
	if report.ROIUndefined {
		return "undefined"
	}
	return formatFloat(report.ROIPercentage)
}

// writeROIText writes the ROI summary as labeled lines.
func writeROIText(w io.Writer, report schema.ROIReport) error {
	if _, err := fmt.Fprintln(w, styleHeader.Render("ROI Analysis")); err != nil {
		return err
	}
	roi := formatROI(report)
	if !report.ROIUndefined {
		roi += "%"
	}
	lines := [][2]string{
		{"Period", fmt.Sprintf("%d days", report.PeriodDays)},
		{"Metrics analyzed", strconv.Itoa(report.MetricsAnalyzed)},
		{"Total hours saved", formatFloat(report.TotalHoursSaved)},
		{"Dollar value saved", "$" + formatFloat(report.DollarValueSaved)},
		{"API cost", "$" + formatFloat(report.TotalAPICost)},
		{"Net savings", signedStyle(report.NetSavings).Render("$" + formatFloat(report.NetSavings))},
		{"ROI", signedStyle(report.ROIPercentage).Render(roi)},
		{"Average quality score", formatFloat(report.AverageQualityScore)},
	}
	for _, line := range lines {
		if _, err := fmt.Fprintf(w, "%s%s\n", styleLabel.Render(line[0]+":"), line[1]); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, styleMuted.Render(fmt.Sprintf("Hourly rate $%s, improvement factor %s",
		formatFloat(report.HourlyRate), formatFloat(report.ImprovementFactor))))
	return err
}

// writeROICSV writes the ROI summary as metric/value rows.
func writeROICSV(w io.Writer, report schema.ROIReport) error {
	return writeCSVWithHeader(w, []string{"metric", "value"}, func(cw *csv.Writer) error {
		rows := [][]string{
			{"period_days", strconv.Itoa(report.PeriodDays)},
			{"metrics_analyzed", strconv.Itoa(report.MetricsAnalyzed)},
			{"total_hours_saved", formatFloat(report.TotalHoursSaved)},
			{"dollar_value_saved", formatFloat(report.DollarValueSaved)},
			{"total_api_cost", formatFloat(report.TotalAPICost)},
			{"net_savings", formatFloat(report.NetSavings)},
			{"roi_percentage", formatROI(report)},
			{"average_quality_score", formatFloat(report.AverageQualityScore)},
			{"hourly_rate", formatFloat(report.HourlyRate)},
			{"improvement_factor", formatFloat(report.ImprovementFactor)},
			{"report_date", report.ReportDate.UTC().Format(contract.DateTimeFormat)},
		}
		return cw.WriteAll(rows)
	})
}
