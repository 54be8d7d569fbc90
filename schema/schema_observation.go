package schema

import "time"

// ObservationRecord is one persisted measurement of an instrumented operation.
// Optional fields are pointers so that absent values survive a JSON round-trip.
type ObservationRecord struct {
	FunctionName   string    `json:"function_name"`
	StartTime      time.Time `json:"start_time"`
	Duration       *float64  `json:"duration,omitempty"`
	Timestamp      float64   `json:"timestamp"`
	AIAssisted     bool      `json:"ai_assisted"`
	Success        bool      `json:"success"`
	Iterations     *int      `json:"iterations,omitempty"`
	Model          string    `json:"model,omitempty"`
	Provider       string    `json:"provider,omitempty"`
	Language       string    `json:"language,omitempty"`
	InputTokens    *int      `json:"input_tokens,omitempty"`
	OutputTokens   *int      `json:"output_tokens,omitempty"`
	TotalCost      *float64  `json:"total_cost,omitempty"`
	APICost        *float64  `json:"api_cost,omitempty"`
	QualityScore   *float64  `json:"quality_score,omitempty"`
	LinesGenerated *int      `json:"lines_generated,omitempty"`
}

// Cost returns the dollar cost carried by the record, preferring api_cost over total_cost.
func (o ObservationRecord) Cost() (float64, bool) {
	switch {
	case o.APICost != nil:
		return *o.APICost, true
	case o.TotalCost != nil:
		return *o.TotalCost, true
	default:
		return 0, false
	}
}

// RecordedAt converts the unix timestamp into a time.Time.
func (o ObservationRecord) RecordedAt() time.Time {
	sec := int64(o.Timestamp)
	nsec := int64((o.Timestamp - float64(sec)) * float64(time.Second))
	return time.Unix(sec, nsec).UTC()
}

// ObservationFileName returns the day-partitioned file name for a kind and instant.
func ObservationFileName(kind ObservationKind, at time.Time) string {
	return string(kind) + "_" + at.UTC().Format(ObservationDateLayout) + ".jsonl"
}

// ROIReport is the return-on-investment summary over a window of observations.
// RoiUndefined is set when API cost is zero but net savings are not, which has no finite ratio.
type ROIReport struct {
	PeriodDays          int       `json:"period_days"`
	MetricsAnalyzed     int       `json:"metrics_analyzed"`
	TotalHoursSaved     float64   `json:"total_hours_saved"`
	DollarValueSaved    float64   `json:"dollar_value_saved"`
	TotalAPICost        float64   `json:"total_api_cost"`
	NetSavings          float64   `json:"net_savings"`
	ROIPercentage       float64   `json:"roi_percentage"`
	ROIUndefined        bool      `json:"roi_undefined"`
	AverageQualityScore float64   `json:"average_quality_score"`
	HourlyRate          float64   `json:"hourly_rate"`
	ImprovementFactor   float64   `json:"improvement_factor"`
	ReportDate          time.Time `json:"report_date"`
}
