package runner

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tendant/simple-content-regen/internal/catalog"
	"github.com/tendant/simple-content-regen/internal/config"
	"github.com/tendant/simple-content-regen/internal/conversions"
	"github.com/tendant/simple-content-regen/internal/executors"
	"github.com/tendant/simple-content-regen/internal/metrics"
	"github.com/tendant/simple-content-regen/internal/storage"
	"github.com/tendant/simple-content-regen/pkg/media"
)

// Setup wires a runner from loaded configuration. The returned cleanup
// closes the catalog connection.
func Setup(ctx context.Context, cfg *config.Config, logger zerolog.Logger, rec *metrics.Recorder, obs executors.Observer) (*Runner, func(), error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	registry, err := conversions.LoadFile(cfg.ConversionsFile)
	if err != nil {
		return nil, nil, err
	}

	disks, err := OpenDisks(cfg)
	if err != nil {
		return nil, nil, err
	}

	store, err := catalog.Open(ctx, cfg.CatalogDriver, cfg.CatalogDSN)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() { _ = store.Close() }

	r, err := New(Config{
		Catalog:     store,
		Registry:    registry,
		Disks:       disks,
		Concurrency: cfg.Concurrency,
		DryRun:      cfg.DryRun,
		Logger:      logger,
		Metrics:     rec,
		Observer:    obs,
	})
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	logger.Info().
		Str("catalog", cfg.CatalogDriver).
		Str("media_root", cfg.MediaRoot).
		Strs("conversions", registry.Names()).
		Int("concurrency", cfg.Concurrency).
		Msg("regeneration runner ready")

	return r, cleanup, nil
}

// OpenDisks builds the default disk from MediaRoot plus any named disks.
func OpenDisks(cfg *config.Config) (storage.Disks, error) {
	disks := storage.Disks{}
	root, err := storage.NewFilesystemStorage(cfg.MediaRoot)
	if err != nil {
		return nil, fmt.Errorf("open disk %s: %w", media.DefaultDisk, err)
	}
	disks[media.DefaultDisk] = root

	for name, dir := range cfg.Disks {
		fs, err := storage.NewFilesystemStorage(dir)
		if err != nil {
			return nil, fmt.Errorf("open disk %s: %w", name, err)
		}
		disks[name] = fs
	}
	return disks, nil
}
