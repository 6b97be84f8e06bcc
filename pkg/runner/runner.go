package runner

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tendant/simple-content-regen/internal/catalog"
	"github.com/tendant/simple-content-regen/internal/conversions"
	"github.com/tendant/simple-content-regen/internal/executors"
	"github.com/tendant/simple-content-regen/internal/metrics"
	"github.com/tendant/simple-content-regen/internal/report"
	"github.com/tendant/simple-content-regen/internal/selection"
	"github.com/tendant/simple-content-regen/internal/storage"
	"github.com/tendant/simple-content-regen/internal/workflows"
	"github.com/tendant/simple-content-regen/pkg/media"
)

// Config holds the collaborators of a regeneration runner
type Config struct {
	Catalog     catalog.Catalog       // media records (required)
	Registry    *conversions.Registry // conversion definitions (required)
	Disks       storage.Disks         // originals and derived artifacts (required)
	Pipeline    workflows.Pipeline    // optional: defaults to the imaging workflow over Disks
	Concurrency int                   // records processed in parallel, default 1
	DryRun      bool                  // list work items without writing
	Logger      zerolog.Logger
	Metrics     *metrics.Recorder // optional
	Observer    executors.Observer // optional progress callback
}

// Runner provides a high-level API for regenerating derived media
type Runner struct {
	catalog  catalog.Catalog
	registry *conversions.Registry
	selector *selection.Selector
	executor *executors.RegenerationExecutor
	metrics  *metrics.Recorder
	logger   zerolog.Logger
}

// New creates a runner from its collaborators
func New(cfg Config) (*Runner, error) {
	if cfg.Catalog == nil || cfg.Registry == nil || len(cfg.Disks) == 0 {
		return nil, fmt.Errorf("runner: catalog, registry and disks are required")
	}

	pipeline := cfg.Pipeline
	if pipeline == nil {
		pipeline = workflows.NewConversionWorkflow(cfg.Disks, cfg.Logger.With().Str("component", "workflow").Logger())
	}

	opts := []executors.Option{
		executors.WithConcurrency(cfg.Concurrency),
		executors.WithDryRun(cfg.DryRun),
		executors.WithLogger(cfg.Logger.With().Str("component", "executor").Logger()),
	}
	if cfg.Metrics != nil {
		opts = append(opts, executors.WithObserver(cfg.Metrics.Observe))
	}
	if cfg.Observer != nil {
		opts = append(opts, executors.WithObserver(cfg.Observer))
	}

	return &Runner{
		catalog:  cfg.Catalog,
		registry: cfg.Registry,
		selector: selection.NewSelector(cfg.Registry, storage.NewProbe(cfg.Disks), cfg.Logger.With().Str("component", "selection").Logger()),
		executor: executors.NewRegenerationExecutor(pipeline, cfg.Disks, opts...),
		metrics:  cfg.Metrics,
		logger:   cfg.Logger,
	}, nil
}

// Regenerate selects the work items of scope and regenerates them. Per-item
// failures are part of the report; only catalog faults return an error.
func (r *Runner) Regenerate(ctx context.Context, scope selection.Scope) (report.BatchReport, error) {
	runID := uuid.New().String()
	started := time.Now()
	logger := r.logger.With().Str("run_id", runID).Logger()

	records, err := r.fetchRecords(ctx, scope)
	if err != nil {
		return report.BatchReport{RunID: runID, StartedAt: started}, fmt.Errorf("load media records: %w", err)
	}
	r.warnUnknownConversions(logger, scope)

	items := r.selector.Select(ctx, records, scope)
	logger.Info().
		Int("records", len(records)).
		Int("items", len(items)).
		Bool("only_missing", scope.OnlyMissing).
		Msg("work items selected")

	outcomes := r.executor.Run(ctx, items)

	rep := report.Summarize(runID, started, outcomes)
	report.Log(logger, rep)
	if r.metrics != nil {
		r.metrics.Complete(rep)
	}
	return rep, nil
}

// Plan returns the work items of scope without executing them.
func (r *Runner) Plan(ctx context.Context, scope selection.Scope) ([]media.WorkItem, error) {
	records, err := r.fetchRecords(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("load media records: %w", err)
	}
	return r.selector.Select(ctx, records, scope), nil
}

// fetchRecords loads everything selection needs upfront. With an id filter
// only those records are fetched, in ascending id order; unknown ids are
// ignored.
func (r *Runner) fetchRecords(ctx context.Context, scope selection.Scope) ([]media.Record, error) {
	if !scope.HasIDs() {
		return r.catalog.ListRecords(ctx)
	}

	ids := make([]int64, 0, len(scope.IDs))
	for id := range scope.IDs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	records := make([]media.Record, 0, len(ids))
	for _, id := range ids {
		rec, ok, err := r.catalog.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if !ok {
			r.logger.Debug().Int64("media_id", id).Msg("media id not in catalog, ignoring")
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

func (r *Runner) warnUnknownConversions(logger zerolog.Logger, scope selection.Scope) {
	for name := range scope.Only {
		if _, ok := r.registry.Lookup(name); !ok {
			logger.Warn().Str("conversion", name).Msg("conversion is not registered, nothing to regenerate for it")
		}
	}
}
