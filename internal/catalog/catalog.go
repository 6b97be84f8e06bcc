// Package catalog provides read access to the media records whose derived
// artifacts are regenerated.
package catalog

import (
	"context"
	"errors"
	"sort"

	"github.com/tendant/simple-content-regen/pkg/media"
)

// ErrUnavailable is returned when the catalog cannot be reached
var ErrUnavailable = errors.New("catalog unavailable")

// Catalog lists media records. ListRecords returns records in ascending id order.
type Catalog interface {
	ListRecords(ctx context.Context) ([]media.Record, error)
	FindByID(ctx context.Context, id int64) (media.Record, bool, error)
}

// Memory is an in-memory catalog.
type Memory struct {
	records []media.Record
}

// NewMemory creates a catalog holding the given records.
func NewMemory(records ...media.Record) *Memory {
	sorted := append([]media.Record(nil), records...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
	return &Memory{records: sorted}
}

// ListRecords returns a copy of all records in ascending id order.
func (m *Memory) ListRecords(ctx context.Context) ([]media.Record, error) {
	return append([]media.Record(nil), m.records...), nil
}

// FindByID returns the record with the given id.
func (m *Memory) FindByID(ctx context.Context, id int64) (media.Record, bool, error) {
	i := sort.Search(len(m.records), func(i int) bool { return m.records[i].ID >= id })
	if i < len(m.records) && m.records[i].ID == id {
		return m.records[i], true, nil
	}
	return media.Record{}, false, nil
}
