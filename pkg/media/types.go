package media

import (
	"fmt"
	"path"
	"strings"
)

// DefaultDisk is the disk name used when a record does not name one.
const DefaultDisk = "local"

// ConversionsDir is the directory, relative to a record's directory, that
// holds its derived artifacts.
const ConversionsDir = "conversions"

// Record identifies one uploaded original file in the catalog.
type Record struct {
	ID         int64  `json:"id"`
	Collection string `json:"collection_name"`
	FileName   string `json:"file_name"`
	Disk       string `json:"disk"`
	MimeType   string `json:"mime_type,omitempty"`
	Size       int64  `json:"size"`
}

// Extension returns the lower-case extension of the original file, without the dot.
func (r Record) Extension() string {
	ext := strings.TrimPrefix(path.Ext(r.FileName), ".")
	return strings.ToLower(ext)
}

// DiskName returns the record's disk, falling back to DefaultDisk.
func (r Record) DiskName() string {
	if r.Disk == "" {
		return DefaultDisk
	}
	return r.Disk
}

// Fit mode constants
const (
	FitContain = "contain"
	FitCover   = "cover"
	FitStretch = "stretch"
)

// Conversion is a named transformation rule applied to a record's original.
type Conversion struct {
	Name   string `yaml:"name" json:"name"`
	Format Format `yaml:"format,omitempty" json:"format,omitempty"` // empty keeps the original's format

	// Collections limits the conversion to the named collections; empty means all.
	Collections []string `yaml:"collections,omitempty" json:"collections,omitempty"`

	Width     int     `yaml:"width,omitempty" json:"width,omitempty"`
	Height    int     `yaml:"height,omitempty" json:"height,omitempty"`
	Fit       string  `yaml:"fit,omitempty" json:"fit,omitempty"`
	Quality   int     `yaml:"quality,omitempty" json:"quality,omitempty"`
	Sharpen   float64 `yaml:"sharpen,omitempty" json:"sharpen,omitempty"`
	Grayscale bool    `yaml:"grayscale,omitempty" json:"grayscale,omitempty"`
}

// AppliesTo reports whether the conversion is defined for the collection.
func (c Conversion) AppliesTo(collection string) bool {
	if len(c.Collections) == 0 {
		return true
	}
	for _, name := range c.Collections {
		if name == collection {
			return true
		}
	}
	return false
}

// KeepsOriginalFormat reports whether the derived artifact reuses the original's format.
func (c Conversion) KeepsOriginalFormat() bool {
	return c.Format == ""
}

// TargetFormat resolves the output format for the given record.
func (c Conversion) TargetFormat(r Record) Format {
	if !c.KeepsOriginalFormat() {
		return c.Format
	}
	return FormatFromExtension(r.Extension())
}

// WorkItem pairs a record with one conversion selected for regeneration.
type WorkItem struct {
	Record     Record
	Conversion Conversion
}

// Key returns "<id>/<conversion>", unique within a batch.
func (w WorkItem) Key() string {
	return fmt.Sprintf("%d/%s", w.Record.ID, w.Conversion.Name)
}

// ArtifactPath returns the derived artifact path of the item.
func (w WorkItem) ArtifactPath() string {
	return ConversionPath(w.Record, w.Conversion)
}

// RecordDir returns the directory holding a record's files, relative to its disk root.
func RecordDir(r Record) string {
	return fmt.Sprintf("%d", r.ID)
}

// OriginalPath returns the path of the record's original file, relative to its disk root.
func OriginalPath(r Record) string {
	return path.Join(RecordDir(r), r.FileName)
}

// ConversionPath returns "<id>/conversions/<name>.<ext>" for the pair.
func ConversionPath(r Record, c Conversion) string {
	name := c.Name
	if ext := c.TargetFormat(r).Extension(); ext != "" {
		name += "." + ext
	}
	return path.Join(RecordDir(r), ConversionsDir, name)
}
