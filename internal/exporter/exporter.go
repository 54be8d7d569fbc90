// Package exporter tails observation logs into Prometheus collectors and serves them.
package exporter

import (
	"bytes"
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"

	"github.com/ncolesummers/ai-code-metrics/core/roi"
	"github.com/ncolesummers/ai-code-metrics/internal/contract"
	"github.com/ncolesummers/ai-code-metrics/schema"
	"github.com/prometheus/client_golang/prometheus"
)

// Label values used when a record carries none.
const (
	unknownProvider    = "unknown"
	qualityMetricType  = "quality_score"
	defaultModelLabel  = contract.DefaultModelLabel
	defaultLangLabel   = contract.DefaultLanguageLabel
	responseTimeName   = "ai_coding_response_time_seconds"
	requestsTotalName  = "ai_coding_requests_total"
	apiCostName        = "ai_coding_api_cost_dollars"
	linesGeneratedName = "ai_coding_lines_generated_total"
	qualityScoreName   = "ai_coding_quality_score"
)

// ResponseTimeBuckets are the fixed histogram buckets in seconds.
var ResponseTimeBuckets = []float64{0.1, 0.5, 1.0, 2.5, 5.0, 10.0}

// Options configures label defaults.
type Options struct {
	DefaultModel    string
	DefaultLanguage string
}

// Exporter incrementally reads observation files and updates its collectors.
// Read offsets live only in memory, so two exporters over one directory double-count.
type Exporter struct {
	dir  string
	opts Options

	registry     *prometheus.Registry
	requests     *prometheus.CounterVec
	apiCost      *prometheus.CounterVec
	lines        *prometheus.CounterVec
	responseTime *prometheus.HistogramVec
	quality      *prometheus.GaugeVec

	mu        sync.Mutex
	offsets   map[string]int64
	malformed int
}

// New creates an exporter over dir with its own registry.
func New(dir string, opts Options) *Exporter {
	opts.DefaultModel = cmp.Or(opts.DefaultModel, defaultModelLabel)
	opts.DefaultLanguage = cmp.Or(opts.DefaultLanguage, defaultLangLabel)

	e := &Exporter{
		dir:      dir,
		opts:     opts,
		registry: prometheus.NewRegistry(),
		offsets:  make(map[string]int64),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: requestsTotalName,
			Help: "Total AI assistant requests",
		}, []string{"model", "language", "operation"}),
		apiCost: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: apiCostName,
			Help: "Total API costs in dollars",
		}, []string{"model", "provider"}),
		lines: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: linesGeneratedName,
			Help: "Total lines of code generated",
		}, []string{"language", "ai_assisted"}),
		responseTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    responseTimeName,
			Help:    "AI request response time",
			Buckets: ResponseTimeBuckets,
		}, []string{"model", "operation"}),
		quality: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: qualityScoreName,
			Help: "Code quality score (0-100)",
		}, []string{"language", "metric_type"}),
	}
	e.registry.MustRegister(e.requests, e.apiCost, e.lines, e.responseTime, e.quality)
	return e
}

// NewFromConfig creates an exporter from the run configuration.
func NewFromConfig(cfg *contract.Config) *Exporter {
	return New(cfg.MetricsDir, Options{DefaultModel: cfg.DefaultModel, DefaultLanguage: cfg.DefaultLanguage})
}

// Registry returns the exporter's private registry.
func (e *Exporter) Registry() *prometheus.Registry {
	return e.registry
}

// Dir returns the observed directory.
func (e *Exporter) Dir() string {
	return e.dir
}

// Malformed returns how many lines have been skipped so far.
func (e *Exporter) Malformed() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.malformed
}

// Update consumes every complete line appended since the last call.
// A trailing partial line is left for a later call.
func (e *Exporter) Update() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	files, err := roi.MetricsFiles(e.dir)
	if err != nil {
		return err
	}
	var errs []error
	for _, file := range files {
		if err := e.consume(file); err != nil {
			errs = append(errs, fmt.Errorf("failed to read %s: %w", file, err))
		}
	}
	return errors.Join(errs...)
}

// consume reads one file from its stored offset. Callers hold e.mu.
func (e *Exporter) consume(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	offset := e.offsets[path]
	info, err := f.Stat()
	if err != nil {
		return err
	}
	if info.Size() < offset {
		// the file was replaced; start over
		offset = 0
	}
	if info.Size() == offset {
		return nil
	}
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return err
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return err
	}
	end := bytes.LastIndexByte(data, '\n')
	if end < 0 {
		return nil
	}
	for line := range bytes.SplitSeq(data[:end], []byte{'\n'}) {
		e.observeLine(line)
	}
	e.offsets[path] = offset + int64(end) + 1
	return nil
}

func (e *Exporter) observeLine(line []byte) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return
	}
	var rec schema.ObservationRecord
	if err := json.Unmarshal(line, &rec); err != nil || rec.FunctionName == "" {
		e.malformed++
		return
	}
	e.observe(rec)
}

// observe applies one record to the collectors.
func (e *Exporter) observe(rec schema.ObservationRecord) {
	model := cmp.Or(rec.Model, e.opts.DefaultModel)
	language := cmp.Or(rec.Language, e.opts.DefaultLanguage)
	operation := rec.FunctionName

	e.requests.WithLabelValues(model, language, operation).Inc()
	if rec.Duration != nil && *rec.Duration >= 0 {
		e.responseTime.WithLabelValues(model, operation).Observe(*rec.Duration)
	}
	if cost, ok := rec.Cost(); ok && cost > 0 {
		e.apiCost.WithLabelValues(model, cmp.Or(rec.Provider, unknownProvider)).Add(cost)
	}
	if rec.LinesGenerated != nil && *rec.LinesGenerated > 0 {
		e.lines.WithLabelValues(language, strconv.FormatBool(rec.AIAssisted)).Add(float64(*rec.LinesGenerated))
	}
	if rec.QualityScore != nil {
		e.quality.WithLabelValues(language, qualityMetricType).Set(*rec.QualityScore)
	}
}

// isObservationFile reports whether a path names a timing or API usage log.
func isObservationFile(path string) bool {
	_, ok := roi.KindOf(path)
	return ok
}
