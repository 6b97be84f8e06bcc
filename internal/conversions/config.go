package conversions

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tendant/simple-content-regen/pkg/media"
)

// File is the on-disk layout of a conversions file:
//
//	conversions:
//	  - name: thumb
//	    format: jpg
//	    width: 368
//	    height: 232
//	  - name: keep_original_format
//	    collections: [images]
//	    width: 1024
type File struct {
	Conversions []media.Conversion `yaml:"conversions"`
}

// LoadFile reads and parses a YAML conversions file.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read conversions file: %w", err)
	}
	reg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return reg, nil
}

// Parse decodes YAML conversion definitions. Unknown keys are rejected.
func Parse(data []byte) (*Registry, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode conversions: %w", err)
	}
	return NewRegistry(f.Conversions...)
}
