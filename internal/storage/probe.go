package storage

import (
	"context"

	"github.com/tendant/simple-content-regen/pkg/media"
)

// Probe reports whether a conversion's derived artifact is present. It only
// looks at the derived path; a missing original is not its concern.
type Probe struct {
	disks Disks
}

// NewProbe creates a probe over the given disks.
func NewProbe(disks Disks) *Probe {
	return &Probe{disks: disks}
}

// Exists checks the canonical derived path of the pair on the record's disk.
func (p *Probe) Exists(ctx context.Context, rec media.Record, conv media.Conversion) (bool, error) {
	disk, err := p.disks.Resolve(rec)
	if err != nil {
		return false, err
	}
	return disk.Exists(ctx, media.ConversionPath(rec, conv))
}
