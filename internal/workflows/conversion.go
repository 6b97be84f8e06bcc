package workflows

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"

	"github.com/tendant/simple-content-regen/internal/storage"
	"github.com/tendant/simple-content-regen/pkg/media"
)

const defaultQuality = 90

// ConversionWorkflow generates derived images with disintegration/imaging
type ConversionWorkflow struct {
	originals OriginalReader
	logger    zerolog.Logger
}

// NewConversionWorkflow creates a new conversion workflow
func NewConversionWorkflow(originals OriginalReader, logger zerolog.Logger) *ConversionWorkflow {
	return &ConversionWorkflow{
		originals: originals,
		logger:    logger,
	}
}

// Produce reads the original, applies the conversion and returns the encoded artifact.
func (w *ConversionWorkflow) Produce(ctx context.Context, rec media.Record, conv media.Conversion) ([]byte, error) {
	logger := w.logger.With().Int64("media_id", rec.ID).Str("conversion", conv.Name).Logger()

	// Step 1: Open source
	reader, err := w.originals.ReadOriginal(ctx, rec)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrUnknownDisk) {
			return nil, fmt.Errorf("%w: %v", ErrSourceMissing, err)
		}
		return nil, fmt.Errorf("%w: open original: %v", ErrProcessing, err)
	}
	defer reader.Close()

	format, err := imagingFormat(conv.TargetFormat(rec))
	if err != nil {
		return nil, err
	}

	// Step 2: Decode, honouring EXIF orientation
	img, err := imaging.Decode(reader, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrProcessing, rec.FileName, err)
	}
	bounds := img.Bounds()
	logger.Debug().Int("width", bounds.Dx()).Int("height", bounds.Dy()).Msg("original decoded")

	// Step 3: Transform
	out := transform(img, conv)

	// Step 4: Encode
	quality := conv.Quality
	if quality == 0 {
		quality = defaultQuality
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, out, format, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("%w: encode %s: %v", ErrProcessing, conv.Name, err)
	}

	logger.Debug().
		Int("width", out.Bounds().Dx()).
		Int("height", out.Bounds().Dy()).
		Int("bytes", buf.Len()).
		Msg("conversion produced")

	return buf.Bytes(), nil
}

// transform applies resize, sharpen and grayscale in that order.
func transform(img image.Image, conv media.Conversion) image.Image {
	out := img
	switch {
	case conv.Width == 0 && conv.Height == 0:
	case conv.Fit == media.FitCover:
		out = imaging.Fill(out, conv.Width, conv.Height, imaging.Center, imaging.Lanczos)
	case conv.Fit == media.FitStretch:
		out = imaging.Resize(out, conv.Width, conv.Height, imaging.Lanczos)
	case conv.Width > 0 && conv.Height > 0:
		out = imaging.Fit(out, conv.Width, conv.Height, imaging.Lanczos)
	default:
		// One dimension set: scale preserving the aspect ratio.
		out = imaging.Resize(out, conv.Width, conv.Height, imaging.Lanczos)
	}

	if conv.Sharpen > 0 {
		out = imaging.Sharpen(out, conv.Sharpen)
	}
	if conv.Grayscale {
		out = imaging.Grayscale(out)
	}
	return out
}

func imagingFormat(f media.Format) (imaging.Format, error) {
	format, err := imaging.FormatFromExtension(f.Extension())
	if err != nil {
		return 0, fmt.Errorf("%w: unsupported target format %q", ErrInvalidRequest, f)
	}
	return format, nil
}
