// Package selection narrows the catalog down to the work items of one
// regeneration batch.
package selection

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/tendant/simple-content-regen/pkg/media"
)

// Registry resolves the conversions applicable to a record.
type Registry interface {
	Applicable(rec media.Record) []media.Conversion
}

// Probe reports whether a pair's derived artifact exists.
type Probe interface {
	Exists(ctx context.Context, rec media.Record, conv media.Conversion) (bool, error)
}

// Scope is the requested selection. Nil sets mean "no restriction".
type Scope struct {
	IDs         map[int64]struct{}
	Only        map[string]struct{}
	OnlyMissing bool
}

// HasIDs reports whether the scope restricts media ids.
func (s Scope) HasIDs() bool { return s.IDs != nil }

// HasOnly reports whether the scope restricts conversion names.
func (s Scope) HasOnly() bool { return s.Only != nil }

func (s Scope) includesRecord(rec media.Record) bool {
	if s.IDs == nil {
		return true
	}
	_, ok := s.IDs[rec.ID]
	return ok
}

func (s Scope) includesConversion(conv media.Conversion) bool {
	if s.Only == nil {
		return true
	}
	_, ok := s.Only[conv.Name]
	return ok
}

// Selector builds work items from records.
type Selector struct {
	registry Registry
	probe    Probe
	logger   zerolog.Logger
}

// NewSelector creates a selector. probe may be nil when OnlyMissing is never used.
func NewSelector(registry Registry, probe Probe, logger zerolog.Logger) *Selector {
	return &Selector{registry: registry, probe: probe, logger: logger}
}

// Select returns one work item per (record, conversion) pair passing every
// filter of the scope, ordered by record then registration order. Filters
// only ever discard, so their order does not change the result.
func (s *Selector) Select(ctx context.Context, records []media.Record, scope Scope) []media.WorkItem {
	var items []media.WorkItem
	for _, rec := range records {
		if !scope.includesRecord(rec) {
			continue
		}
		for _, conv := range s.registry.Applicable(rec) {
			if !scope.includesConversion(conv) {
				continue
			}
			if scope.OnlyMissing && s.artifactExists(ctx, rec, conv) {
				continue
			}
			items = append(items, media.WorkItem{Record: rec, Conversion: conv})
		}
	}
	return items
}

// artifactExists treats probe errors as a missing artifact, so the pair is
// regenerated rather than silently skipped.
func (s *Selector) artifactExists(ctx context.Context, rec media.Record, conv media.Conversion) bool {
	if s.probe == nil {
		return false
	}
	ok, err := s.probe.Exists(ctx, rec, conv)
	if err != nil {
		s.logger.Warn().Err(err).
			Int64("media_id", rec.ID).
			Str("conversion", conv.Name).
			Msg("artifact probe failed, treating as missing")
		return false
	}
	return ok
}

// Select is a convenience wrapper around Selector.Select.
func Select(ctx context.Context, records []media.Record, registry Registry, probe Probe, scope Scope) []media.WorkItem {
	return NewSelector(registry, probe, zerolog.Nop()).Select(ctx, records, scope)
}
