// Package config loads regeneration settings from the environment (and an
// optional .env file) and from command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/tendant/simple-content-regen/internal/catalog"
)

// Config holds the regeneration settings
type Config struct {
	// MediaRoot is the directory of the default disk
	// Required. Originals live at <root>/<id>/<file>, artifacts at <root>/<id>/conversions/
	MediaRoot string

	// Disks maps additional disk names to directories (MEDIA_DISKS=archive=/mnt/archive,...)
	Disks map[string]string

	// CatalogDriver is "sqlite" or "postgres"
	// Optional. Defaults to "sqlite"
	CatalogDriver string

	// CatalogDSN is the catalog file path (sqlite) or connection string (postgres)
	// Required.
	CatalogDSN string

	// ConversionsFile is the YAML file with the conversion definitions
	// Required.
	ConversionsFile string

	// Concurrency is the number of records processed in parallel
	// Optional. Defaults to 1
	Concurrency int

	LogLevel   string
	LogConsole bool

	// Metrics export; both optional
	PushgatewayURL  string
	MetricsTextfile string
	MetricsJob      string

	// Scope options (flags only)
	IDs         []string
	Only        []string
	OnlyMissing bool
	DryRun      bool
}

// Load reads .env (when present) and the environment.
func Load() (*Config, error) {
	// Load .env file if it exists (silently ignore if not found)
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a config from a lookup function.
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		MediaRoot:       getenv("MEDIA_ROOT"),
		CatalogDriver:   getenv("CATALOG_DRIVER"),
		CatalogDSN:      getenv("CATALOG_DSN"),
		ConversionsFile: getenv("CONVERSIONS_FILE"),
		LogLevel:        getenv("LOG_LEVEL"),
		PushgatewayURL:  getenv("METRICS_PUSHGATEWAY_URL"),
		MetricsTextfile: getenv("METRICS_TEXTFILE"),
		MetricsJob:      getenv("METRICS_JOB"),
	}

	if v := getenv("REGEN_CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return nil, fmt.Errorf("REGEN_CONCURRENCY must be a whole number (got %q)", v)
		}
		cfg.Concurrency = n
	}
	if v := getenv("LOG_CONSOLE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("LOG_CONSOLE must be a boolean (got %q)", v)
		}
		cfg.LogConsole = b
	}
	if v := getenv("MEDIA_DISKS"); v != "" {
		disks, err := parseDisks(v)
		if err != nil {
			return nil, err
		}
		cfg.Disks = disks
	}

	cfg.WithDefaults()
	return cfg, nil
}

// WithDefaults fills in default values for optional fields
func (c *Config) WithDefaults() {
	if name, err := catalog.NormalizeDriver(c.CatalogDriver); err == nil {
		c.CatalogDriver = name
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 1
	}
	if c.MetricsJob == "" {
		c.MetricsJob = "media-regenerate"
	}
}

// Validate reports missing required settings.
func (c *Config) Validate() error {
	var errs []error
	if c.MediaRoot == "" {
		errs = append(errs, errors.New("MEDIA_ROOT (--media-root) is required"))
	}
	if c.CatalogDSN == "" {
		errs = append(errs, errors.New("CATALOG_DSN (--catalog) is required"))
	}
	if c.ConversionsFile == "" {
		errs = append(errs, errors.New("CONVERSIONS_FILE (--config) is required"))
	}
	if _, err := catalog.NormalizeDriver(c.CatalogDriver); err != nil {
		errs = append(errs, fmt.Errorf("CATALOG_DRIVER: %w", err))
	}
	return errors.Join(errs...)
}

// parseDisks parses "name=dir,name=dir".
func parseDisks(v string) (map[string]string, error) {
	disks := make(map[string]string)
	for _, pair := range strings.Split(v, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, dir, ok := strings.Cut(pair, "=")
		name, dir = strings.TrimSpace(name), strings.TrimSpace(dir)
		if !ok || name == "" || dir == "" {
			return nil, fmt.Errorf("MEDIA_DISKS entry %q must be name=dir", pair)
		}
		disks[name] = dir
	}
	return disks, nil
}
