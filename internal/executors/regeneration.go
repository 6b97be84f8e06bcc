package executors

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tendant/simple-content-regen/internal/report"
	"github.com/tendant/simple-content-regen/pkg/media"
)

// Pipeline produces the derived bytes of one conversion.
type Pipeline interface {
	Produce(ctx context.Context, rec media.Record, conv media.Conversion) ([]byte, error)
}

// ArtifactWriter stores derived artifacts on the record's disk.
type ArtifactWriter interface {
	Write(ctx context.Context, rec media.Record, path string, r io.Reader) error
}

// Observer is notified after every outcome. Calls may come from several
// goroutines when concurrency is above one.
type Observer func(report.Outcome)

// Option configures a RegenerationExecutor.
type Option func(*RegenerationExecutor)

// WithConcurrency sets how many records are processed in parallel.
func WithConcurrency(n int) Option {
	return func(e *RegenerationExecutor) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// WithDryRun reports every item as skipped without running the pipeline.
func WithDryRun(dryRun bool) Option {
	return func(e *RegenerationExecutor) { e.dryRun = dryRun }
}

// WithLogger sets the executor logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(e *RegenerationExecutor) { e.logger = logger }
}

// WithObserver registers a callback invoked for each outcome.
func WithObserver(obs Observer) Option {
	return func(e *RegenerationExecutor) { e.observers = append(e.observers, obs) }
}

// RegenerationExecutor runs the processing pipeline for each work item and
// writes the derived artifacts.
type RegenerationExecutor struct {
	pipeline    Pipeline
	writer      ArtifactWriter
	concurrency int
	dryRun      bool
	logger      zerolog.Logger
	observers   []Observer
}

// NewRegenerationExecutor creates a new executor
func NewRegenerationExecutor(pipeline Pipeline, writer ArtifactWriter, opts ...Option) *RegenerationExecutor {
	e := &RegenerationExecutor{
		pipeline:    pipeline,
		writer:      writer,
		concurrency: 1,
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run processes every item and returns one outcome per item, in item order.
// A failing item never stops the batch. Cancelling ctx stops scheduling new
// items; those are reported skipped with report.ErrInterrupted.
func (e *RegenerationExecutor) Run(ctx context.Context, items []media.WorkItem) []report.Outcome {
	outcomes := make([]report.Outcome, len(items))
	if e.concurrency <= 1 {
		e.runGroup(ctx, items, outcomes, indexes(0, len(items)))
		return outcomes
	}

	// Items of one record stay on one goroutine so no derived path is
	// written twice at the same time.
	var g errgroup.Group
	g.SetLimit(e.concurrency)
	for _, group := range groupByRecord(items) {
		group := group
		g.Go(func() error {
			e.runGroup(ctx, items, outcomes, group)
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

// runGroup processes the items at the given indexes sequentially, writing
// each outcome into its own slot.
func (e *RegenerationExecutor) runGroup(ctx context.Context, items []media.WorkItem, outcomes []report.Outcome, idx []int) {
	for _, i := range idx {
		var o report.Outcome
		if ctx.Err() != nil {
			o = report.Skipped(items[i], report.ErrInterrupted)
		} else {
			o = e.runItem(ctx, items[i])
		}
		outcomes[i] = o
		e.notify(o)
	}
}

func (e *RegenerationExecutor) runItem(ctx context.Context, item media.WorkItem) report.Outcome {
	logger := e.logger.With().
		Int64("media_id", item.Record.ID).
		Str("conversion", item.Conversion.Name).
		Logger()

	path := item.ArtifactPath()
	if e.dryRun {
		logger.Info().Str("path", path).Msg("[DRY] would regenerate")
		return report.Skipped(item, nil)
	}

	start := time.Now()
	data, err := e.produce(ctx, item)
	if err == nil {
		err = e.writer.Write(ctx, item.Record, path, bytes.NewReader(data))
		if err != nil {
			err = fmt.Errorf("write %s: %w", path, err)
		}
	}
	elapsed := time.Since(start)

	if err != nil {
		logger.Warn().Err(err).Msg("regeneration failed")
		return report.Failed(item, err, elapsed)
	}

	logger.Info().
		Str("path", path).
		Str("mime", item.Conversion.TargetFormat(item.Record).MimeType()).
		Int("bytes", len(data)).
		Dur("elapsed", elapsed).
		Msg("regenerated")
	return report.Succeeded(item, elapsed)
}

// produce calls the pipeline, converting a panic into an item failure.
func (e *RegenerationExecutor) produce(ctx context.Context, item media.WorkItem) (data []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pipeline panic: %v", r)
		}
	}()
	return e.pipeline.Produce(ctx, item.Record, item.Conversion)
}

func (e *RegenerationExecutor) notify(o report.Outcome) {
	for _, obs := range e.observers {
		obs(o)
	}
}

// groupByRecord returns item indexes grouped by record id, groups ordered by
// first appearance.
func groupByRecord(items []media.WorkItem) [][]int {
	pos := make(map[int64]int)
	var groups [][]int
	for i, it := range items {
		g, ok := pos[it.Record.ID]
		if !ok {
			g = len(groups)
			pos[it.Record.ID] = g
			groups = append(groups, nil)
		}
		groups[g] = append(groups[g], i)
	}
	return groups
}

func indexes(from, to int) []int {
	idx := make([]int, 0, to-from)
	for i := from; i < to; i++ {
		idx = append(idx, i)
	}
	return idx
}
