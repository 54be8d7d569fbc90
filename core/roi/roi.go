// Package roi folds observation logs into a return-on-investment report.
package roi

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ncolesummers/ai-code-metrics/internal/contract"
	"github.com/ncolesummers/ai-code-metrics/schema"
	"github.com/shopspring/decimal"
)

// maxLineSize bounds a single observation line.
const maxLineSize = 1 << 20

// Calculator computes ROI from observation files.
type Calculator struct {
	HourlyRate        float64
	ImprovementFactor float64   // fraction of time AI is assumed to save, in [0, 1)
	Now               time.Time // zero means time.Now()
}

// NewCalculator builds a calculator from the run configuration.
func NewCalculator(cfg *contract.Config) Calculator {
	return Calculator{HourlyRate: cfg.HourlyRate, ImprovementFactor: cfg.ImprovementFactor}
}

// Result is a report together with the lines skipped while reading.
type Result struct {
	Report    schema.ROIReport
	Malformed []*contract.MalformedRecordError
}

// Calculate reads every file and returns the report for the last days.
func (c Calculator) Calculate(files []string, days int) (schema.ROIReport, error) {
	res, err := c.Fold(files, days)
	return res.Report, err
}

// accumulator holds the running totals of a fold.
type accumulator struct {
	count       int
	secondsSave float64
	cost        decimal.Decimal
	quality     []float64
}

// Fold is Calculate that also reports malformed lines.
func (c Calculator) Fold(files []string, days int) (Result, error) {
	if days < 0 {
		return Result{}, fmt.Errorf("days must not be negative, got %d", days)
	}
	if c.ImprovementFactor < 0 || c.ImprovementFactor >= 1 {
		return Result{}, fmt.Errorf("improvement factor must be in [0, 1), got %v", c.ImprovementFactor)
	}
	now := c.Now
	if now.IsZero() {
		now = time.Now()
	}
	cutoff := float64(now.Add(-time.Duration(days)*24*time.Hour).UnixNano()) / float64(time.Second)

	var acc accumulator
	var malformed []*contract.MalformedRecordError
	for _, file := range files {
		bad, err := c.foldFile(file, cutoff, &acc)
		malformed = append(malformed, bad...)
		if err != nil {
			return Result{Malformed: malformed}, err
		}
	}
	return Result{Report: c.report(acc, days, now), Malformed: malformed}, nil
}

// foldFile adds one file's in-window records to acc.
func (c Calculator) foldFile(file string, cutoff float64, acc *accumulator) ([]*contract.MalformedRecordError, error) {
	return ScanFile(file, func(rec schema.ObservationRecord) {
		if rec.Timestamp >= cutoff {
			c.add(acc, rec)
		}
	})
}

// ScanFile decodes every line of an observation file and hands it to fn.
// Blank lines are ignored, malformed lines are returned and skipped, and a
// missing file has no records.
func ScanFile(file string, fn func(schema.ObservationRecord)) ([]*contract.MalformedRecordError, error) {
	f, err := os.Open(file)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", file, err)
	}
	defer func() { _ = f.Close() }()

	var malformed []*contract.MalformedRecordError
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var rec schema.ObservationRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			malformed = append(malformed, &contract.MalformedRecordError{File: file, Line: line, Err: err})
			continue
		}
		fn(rec)
	}
	if err := scanner.Err(); err != nil {
		return malformed, fmt.Errorf("failed to read %s: %w", file, err)
	}
	return malformed, nil
}

// KindOf returns the observation kind encoded in a file name.
func KindOf(file string) (schema.ObservationKind, bool) {
	name := filepath.Base(file)
	for _, kind := range schema.AllObservationKinds {
		if strings.HasPrefix(name, string(kind)+"_") && strings.HasSuffix(name, ".jsonl") {
			return kind, true
		}
	}
	return "", false
}

func (c Calculator) add(acc *accumulator, rec schema.ObservationRecord) {
	acc.count++
	if rec.AIAssisted && rec.Duration != nil && *rec.Duration > 0 {
		d := *rec.Duration
		acc.secondsSave += d/(1-c.ImprovementFactor) - d
	}
	if cost, ok := rec.Cost(); ok {
		acc.cost = acc.cost.Add(decimal.NewFromFloat(cost))
	}
	if rec.QualityScore != nil {
		acc.quality = append(acc.quality, *rec.QualityScore)
	}
}

func (c Calculator) report(acc accumulator, days int, now time.Time) schema.ROIReport {
	hours := decimal.NewFromFloat(acc.secondsSave).Div(decimal.NewFromInt(3600))
	value := hours.Mul(decimal.NewFromFloat(c.HourlyRate))
	net := value.Sub(acc.cost)

	report := schema.ROIReport{
		PeriodDays:        days,
		MetricsAnalyzed:   acc.count,
		TotalHoursSaved:   hours.Round(2).InexactFloat64(),
		DollarValueSaved:  value.Round(2).InexactFloat64(),
		TotalAPICost:      acc.cost.Round(2).InexactFloat64(),
		NetSavings:        net.Round(2).InexactFloat64(),
		HourlyRate:        c.HourlyRate,
		ImprovementFactor: c.ImprovementFactor,
		ReportDate:        now,
	}

	switch {
	case acc.cost.IsPositive():
		report.ROIPercentage = net.Div(acc.cost).Mul(decimal.NewFromInt(100)).Round(2).InexactFloat64()
	case net.IsZero():
		report.ROIPercentage = 0
	default:
		report.ROIUndefined = true
	}

	if len(acc.quality) > 0 {
		sum := decimal.Zero
		for _, q := range acc.quality {
			sum = sum.Add(decimal.NewFromFloat(q))
		}
		report.AverageQualityScore = sum.Div(decimal.NewFromInt(int64(len(acc.quality)))).Round(2).InexactFloat64()
	}
	return report
}

// MetricsFiles lists the observation files under dir, sorted by name.
// A missing directory has no files.
func MetricsFiles(dir string) ([]string, error) {
	var files []string
	for _, kind := range schema.AllObservationKinds {
		matches, err := filepath.Glob(filepath.Join(dir, string(kind)+"_*.jsonl"))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	sort.Strings(files)
	return files, nil
}
