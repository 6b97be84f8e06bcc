// Package conversions holds the immutable set of registered conversion
// definitions and resolves which of them apply to a media record.
package conversions

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tendant/simple-content-regen/pkg/media"
)

var (
	// ErrInvalidConversion is returned when a definition fails validation
	ErrInvalidConversion = errors.New("invalid conversion definition")

	// ErrDuplicateConversion is returned when two definitions share a name
	ErrDuplicateConversion = errors.New("duplicate conversion name")
)

// Registry is an ordered, read-only set of conversion definitions.
type Registry struct {
	defs  []media.Conversion
	index map[string]int
}

// NewRegistry validates the definitions and freezes them in registration order.
func NewRegistry(defs ...media.Conversion) (*Registry, error) {
	r := &Registry{
		defs:  make([]media.Conversion, 0, len(defs)),
		index: make(map[string]int, len(defs)),
	}
	for i, def := range defs {
		def, err := normalize(def)
		if err != nil {
			return nil, fmt.Errorf("conversion #%d: %w", i+1, err)
		}
		if _, ok := r.index[def.Name]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateConversion, def.Name)
		}
		r.index[def.Name] = len(r.defs)
		r.defs = append(r.defs, def)
	}
	return r, nil
}

// Applicable returns the conversions defined for the record's collection, in
// registration order. It never returns nil.
func (r *Registry) Applicable(rec media.Record) []media.Conversion {
	out := make([]media.Conversion, 0, len(r.defs))
	for _, def := range r.defs {
		if def.AppliesTo(rec.Collection) {
			out = append(out, def)
		}
	}
	return out
}

// Lookup returns the definition registered under name.
func (r *Registry) Lookup(name string) (media.Conversion, bool) {
	i, ok := r.index[name]
	if !ok {
		return media.Conversion{}, false
	}
	return r.defs[i], true
}

// Names returns the registered names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.defs))
	for i, def := range r.defs {
		names[i] = def.Name
	}
	return names
}

// Len returns the number of registered definitions.
func (r *Registry) Len() int {
	return len(r.defs)
}

func normalize(def media.Conversion) (media.Conversion, error) {
	def.Name = strings.TrimSpace(def.Name)
	if def.Name == "" {
		return def, fmt.Errorf("%w: name is required", ErrInvalidConversion)
	}
	if strings.ContainsAny(def.Name, `/\`) || def.Name == "." || def.Name == ".." {
		return def, fmt.Errorf("%w: name %q is not a valid file name", ErrInvalidConversion, def.Name)
	}

	if def.Format != "" {
		def.Format = media.FormatFromExtension(string(def.Format))
		if !def.Format.Known() {
			return def, fmt.Errorf("%w: %s: unsupported format %q", ErrInvalidConversion, def.Name, def.Format)
		}
	}

	switch def.Fit {
	case "":
		def.Fit = media.FitContain
	case media.FitContain, media.FitCover, media.FitStretch:
	default:
		return def, fmt.Errorf("%w: %s: unknown fit %q", ErrInvalidConversion, def.Name, def.Fit)
	}

	if def.Width < 0 || def.Height < 0 {
		return def, fmt.Errorf("%w: %s: negative dimensions", ErrInvalidConversion, def.Name)
	}
	if def.Fit != media.FitContain && (def.Width == 0 || def.Height == 0) {
		return def, fmt.Errorf("%w: %s: fit %q needs width and height", ErrInvalidConversion, def.Name, def.Fit)
	}
	if def.Quality < 0 || def.Quality > 100 {
		return def, fmt.Errorf("%w: %s: quality must be within 1-100", ErrInvalidConversion, def.Name)
	}
	if def.Sharpen < 0 {
		return def, fmt.Errorf("%w: %s: sharpen must not be negative", ErrInvalidConversion, def.Name)
	}

	// Copy so later mutation of the caller's slice cannot leak into the registry.
	if def.Collections != nil {
		def.Collections = append([]string(nil), def.Collections...)
	}
	return def, nil
}
