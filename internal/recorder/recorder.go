// Package recorder persists timing and API usage observations as append-only,
// day-partitioned JSON lines.
package recorder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ncolesummers/ai-code-metrics/internal/contract"
	"github.com/ncolesummers/ai-code-metrics/schema"
)

// Recorder appends ObservationRecords to the files under its directory.
// It holds no mutable state and is safe for concurrent use.
type Recorder struct {
	dir string
	now func() time.Time
}

// NewRecorder returns a recorder writing into dir, creating it when missing.
func NewRecorder(dir string) (*Recorder, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create metrics directory: %w", err)
	}
	return &Recorder{dir: dir, now: time.Now}, nil
}

// Dir returns the metrics directory.
func (r *Recorder) Dir() string {
	return r.dir
}

// Append writes one record as a single line to the current day's file for kind.
// The line is written with exactly one Write call on a file opened in append mode,
// so concurrent writers never interleave partial lines.
func (r *Recorder) Append(kind schema.ObservationKind, rec schema.ObservationRecord) error {
	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode %s record: %w", kind, err)
	}
	line = append(line, '\n')

	path := filepath.Join(r.dir, schema.ObservationFileName(kind, r.now()))
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	if _, err := f.Write(line); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to append to %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}

// Span is an in-flight timed operation. End must be called exactly once.
type Span struct {
	r     *Recorder
	kind  schema.ObservationKind
	start time.Time
	rec   schema.ObservationRecord
	ended bool
}

// Start begins timing an operation.
func (r *Recorder) Start(operation string, aiAssisted bool) *Span {
	start := r.now()
	return &Span{
		r:     r,
		kind:  schema.TimingKind,
		start: start,
		rec: schema.ObservationRecord{
			FunctionName: operation,
			StartTime:    start.UTC(),
			AIAssisted:   aiAssisted,
		},
	}
}

// SetIterations records how many attempts the operation took.
func (s *Span) SetIterations(n int) { s.rec.Iterations = &n }

// SetQualityScore attaches a quality score to the record.
func (s *Span) SetQualityScore(q float64) { s.rec.QualityScore = &q }

// SetLinesGenerated attaches the number of lines the operation produced.
func (s *Span) SetLinesGenerated(n int) { s.rec.LinesGenerated = &n }

// SetLabels sets the model and language labels. Empty values are left unset.
func (s *Span) SetLabels(model, language string) {
	s.rec.Model = model
	s.rec.Language = language
}

// End stops the clock and appends the record. A non-nil opErr marks the
// operation as failed. Calling End twice is a no-op.
func (s *Span) End(opErr error) error {
	if s.ended {
		return nil
	}
	s.ended = true

	// time.Since reads the monotonic clock carried by start
	elapsed := time.Since(s.start).Seconds()
	if elapsed < 0 {
		elapsed = 0
	}
	s.rec.Duration = &elapsed
	s.rec.Success = opErr == nil
	s.rec.Timestamp = float64(s.r.now().UnixNano()) / float64(time.Second)
	return s.r.Append(s.kind, s.rec)
}

// Track runs fn under a timing span. Exactly one record is persisted however fn
// exits. fn's error is returned unchanged unless persisting also failed, in
// which case both are joined. A panic in fn is recorded as a failure and re-raised.
func (r *Recorder) Track(ctx context.Context, operation string, aiAssisted bool, fn func(context.Context) error) (err error) {
	span := r.Start(operation, aiAssisted)
	defer func() {
		if p := recover(); p != nil {
			if perr := span.End(fmt.Errorf("panic: %v", p)); perr != nil {
				contract.LogWarn("Failed to record "+operation, perr)
			}
			panic(p)
		}
	}()

	fnErr := fn(ctx)
	if perr := span.End(fnErr); perr != nil {
		return errors.Join(fnErr, perr)
	}
	return fnErr
}

// TrackValue is Track for operations that produce a value.
func TrackValue[T any](ctx context.Context, r *Recorder, operation string, aiAssisted bool, fn func(context.Context) (T, error)) (T, error) {
	var out T
	err := r.Track(ctx, operation, aiAssisted, func(ctx context.Context) error {
		v, err := fn(ctx)
		out = v
		return err
	})
	return out, err
}
