package workflows

import (
	"context"
	"io"

	"github.com/tendant/simple-content-regen/pkg/media"
)

// OriginalReader provides read access to a record's original file
type OriginalReader interface {
	ReadOriginal(ctx context.Context, rec media.Record) (io.ReadCloser, error)
}

// Pipeline produces the derived bytes of one conversion from a record's original
type Pipeline interface {
	// Produce runs the conversion. Errors wrap ErrSourceMissing,
	// ErrInvalidRequest or ErrProcessing.
	Produce(ctx context.Context, rec media.Record, conv media.Conversion) ([]byte, error)
}
