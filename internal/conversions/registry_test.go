package conversions

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/simple-content-regen/pkg/media"
)

func TestRegistryApplicableKeepsRegistrationOrder(t *testing.T) {
	reg, err := NewRegistry(
		media.Conversion{Name: "thumb", Format: media.FormatJPEG, Width: 50, Height: 50},
		media.Conversion{Name: "banner", Format: media.FormatPNG, Width: 800, Collections: []string{"headers"}},
		media.Conversion{Name: "keep_original_format", Width: 300},
	)
	require.NoError(t, err)

	images := reg.Applicable(media.Record{ID: 1, Collection: "images"})
	require.Len(t, images, 2)
	assert.Equal(t, "thumb", images[0].Name)
	assert.Equal(t, "keep_original_format", images[1].Name)

	headers := reg.Applicable(media.Record{ID: 2, Collection: "headers"})
	assert.Equal(t, []string{"thumb", "banner", "keep_original_format"}, names(headers))

	// Repeated calls return the same order.
	for i := 0; i < 5; i++ {
		assert.Equal(t, names(headers), names(reg.Applicable(media.Record{Collection: "headers"})))
	}
}

func TestRegistryApplicableEmpty(t *testing.T) {
	reg, err := NewRegistry(media.Conversion{Name: "banner", Collections: []string{"headers"}})
	require.NoError(t, err)

	got := reg.Applicable(media.Record{ID: 1, Collection: "avatars"})
	assert.NotNil(t, got)
	assert.Empty(t, got)

	empty, err := NewRegistry()
	require.NoError(t, err)
	assert.Empty(t, empty.Applicable(media.Record{ID: 1}))
}

func TestRegistryValidation(t *testing.T) {
	tests := []struct {
		name string
		defs []media.Conversion
	}{
		{"missing name", []media.Conversion{{Format: media.FormatJPEG}}},
		{"path in name", []media.Conversion{{Name: "../thumb"}}},
		{"unknown format", []media.Conversion{{Name: "thumb", Format: "webm"}}},
		{"unknown fit", []media.Conversion{{Name: "thumb", Fit: "zoom", Width: 10, Height: 10}}},
		{"cover without height", []media.Conversion{{Name: "thumb", Fit: media.FitCover, Width: 10}}},
		{"negative width", []media.Conversion{{Name: "thumb", Width: -1}}},
		{"quality out of range", []media.Conversion{{Name: "thumb", Quality: 101}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistry(tt.defs...)
			assert.ErrorIs(t, err, ErrInvalidConversion)
		})
	}

	_, err := NewRegistry(media.Conversion{Name: "thumb"}, media.Conversion{Name: "thumb"})
	assert.ErrorIs(t, err, ErrDuplicateConversion)
}

func TestRegistryNormalizesFormat(t *testing.T) {
	reg, err := NewRegistry(media.Conversion{Name: "thumb", Format: "JPEG"})
	require.NoError(t, err)

	def, ok := reg.Lookup("thumb")
	require.True(t, ok)
	assert.Equal(t, media.FormatJPEG, def.Format)
	assert.Equal(t, media.FitContain, def.Fit)

	_, ok = reg.Lookup("missing")
	assert.False(t, ok)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conversions.yaml")
	data := []byte(`
conversions:
  - name: thumb
    format: jpg
    width: 368
    height: 232
    fit: cover
    quality: 85
  - name: keep_original_format
    collections: [images]
    width: 1024
    grayscale: true
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	reg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"thumb", "keep_original_format"}, reg.Names())

	keep, ok := reg.Lookup("keep_original_format")
	require.True(t, ok)
	assert.True(t, keep.KeepsOriginalFormat())
	assert.True(t, keep.Grayscale)
	assert.Equal(t, []string{"images"}, keep.Collections)
}

func TestParseRejectsUnknownFields(t *testing.T) {
	_, err := Parse([]byte("conversions:\n  - name: thumb\n    widht: 10\n"))
	require.Error(t, err)

	reg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, reg.Len())
}

func names(defs []media.Conversion) []string {
	out := make([]string, len(defs))
	for i, d := range defs {
		out[i] = d.Name
	}
	return out
}
