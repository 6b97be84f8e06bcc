// Package report aggregates per-item regeneration outcomes into a batch
// report and maps it onto a process exit status.
package report

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/tendant/simple-content-regen/pkg/media"
)

// ErrInterrupted marks items that were not attempted because the batch was cancelled
var ErrInterrupted = errors.New("batch interrupted")

// Status of a single work item.
type Status string

// Status constants
const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

// Outcome is the result of one work item.
type Outcome struct {
	Item     media.WorkItem
	Status   Status
	Err      error
	Duration time.Duration
}

// Succeeded builds a succeeded outcome.
func Succeeded(item media.WorkItem, d time.Duration) Outcome {
	return Outcome{Item: item, Status: StatusSucceeded, Duration: d}
}

// Failed builds a failed outcome.
func Failed(item media.WorkItem, err error, d time.Duration) Outcome {
	return Outcome{Item: item, Status: StatusFailed, Err: err, Duration: d}
}

// Skipped builds a skipped outcome. err may be nil (dry run).
func Skipped(item media.WorkItem, err error) Outcome {
	return Outcome{Item: item, Status: StatusSkipped, Err: err}
}

// Reason returns the failure reason, or "" for outcomes without one.
func (o Outcome) Reason() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}

// Severity is the worst condition reached by a batch.
type Severity int

// Severity levels, ordered from best to worst
const (
	SeverityOK Severity = iota
	SeverityDegraded
	SeverityInterrupted
)

func (s Severity) String() string {
	switch s {
	case SeverityOK:
		return "ok"
	case SeverityDegraded:
		return "degraded"
	case SeverityInterrupted:
		return "interrupted"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// Exit status codes
const (
	ExitOK          = 0
	ExitEngineFault = 1
	ExitUsage       = 2
	ExitInterrupted = 130
)

// BatchReport summarises one regeneration run.
type BatchReport struct {
	RunID     string
	StartedAt time.Time
	Duration  time.Duration

	Total     int
	Succeeded int
	Failed    int
	Skipped   int
	Severity  Severity

	// Failures holds the failed outcomes in batch order.
	Failures []Outcome
}

// Summarize aggregates outcomes into a report.
func Summarize(runID string, startedAt time.Time, outcomes []Outcome) BatchReport {
	r := BatchReport{
		RunID:     runID,
		StartedAt: startedAt,
		Total:     len(outcomes),
	}
	if !startedAt.IsZero() {
		r.Duration = time.Since(startedAt)
	}

	for _, o := range outcomes {
		switch o.Status {
		case StatusSucceeded:
			r.Succeeded++
		case StatusFailed:
			r.Failed++
			r.Failures = append(r.Failures, o)
			r.raise(SeverityDegraded)
		case StatusSkipped:
			r.Skipped++
			if errors.Is(o.Err, ErrInterrupted) {
				r.raise(SeverityInterrupted)
			}
		}
	}
	return r
}

func (r *BatchReport) raise(s Severity) {
	if s > r.Severity {
		r.Severity = s
	}
}

// ExitStatus maps a completed batch onto a process exit code. Per-item
// failures are recoverable and still exit 0.
func ExitStatus(r BatchReport) int {
	if r.Severity == SeverityInterrupted {
		return ExitInterrupted
	}
	return ExitOK
}

// Log writes the summary and one entry per failure.
func Log(logger zerolog.Logger, r BatchReport) {
	for _, f := range r.Failures {
		logger.Error().
			Int64("media_id", f.Item.Record.ID).
			Str("conversion", f.Item.Conversion.Name).
			Str("reason", f.Reason()).
			Msg("regeneration failed")
	}

	event := logger.Info()
	if r.Severity != SeverityOK {
		event = logger.Warn()
	}
	event.
		Str("run_id", r.RunID).
		Int("total", r.Total).
		Int("succeeded", r.Succeeded).
		Int("failed", r.Failed).
		Int("skipped", r.Skipped).
		Stringer("severity", r.Severity).
		Dur("duration", r.Duration).
		Msg("regeneration batch finished")
}

// WriteText prints a human readable summary.
func WriteText(w io.Writer, r BatchReport) error {
	if _, err := fmt.Fprintf(w, "Done: %d regenerated, %d skipped, %d failed (of %d)\n",
		r.Succeeded, r.Skipped, r.Failed, r.Total); err != nil {
		return err
	}
	for _, f := range r.Failures {
		if _, err := fmt.Fprintf(w, "  failed %s (%s): %s\n",
			f.Item.Key(), f.Item.ArtifactPath(), f.Reason()); err != nil {
			return err
		}
	}
	return nil
}
