package config

// CLI flag parsing. Flags override values loaded from the environment.

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
)

// Version is shown by --version; override at build time with
// -ldflags "-X github.com/tendant/simple-content-regen/internal/config.Version=...".
var Version = "0.1.0-dev"

// ErrHelp is returned when --help or --version was handled.
var ErrHelp = errors.New("help requested")

// stringList collects repeated flag values.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// ParseFlags parses args (without the program name) into cfg. Usage and
// version output go to out.
func ParseFlags(cfg *Config, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("regenerate", flag.ContinueOnError)
	fs.SetOutput(out)
	fs.Usage = func() { printUsage(fs, out) }

	var (
		ids         stringList
		only        stringList
		showVersion bool
	)

	// Scope
	fs.Var(&ids, "ids", "Regenerate only these media ids (comma separated, repeatable)")
	fs.Var(&only, "only", "Regenerate only these conversions (comma separated, repeatable)")
	fs.BoolVar(&cfg.OnlyMissing, "only-missing", cfg.OnlyMissing, "Regenerate only missing derived files")

	// Behavior
	fs.BoolVar(&cfg.DryRun, "dry-run", cfg.DryRun, "List the work items without writing")
	fs.IntVar(&cfg.Concurrency, "concurrency", cfg.Concurrency, "Media records processed in parallel")

	// Sources
	fs.StringVar(&cfg.ConversionsFile, "config", cfg.ConversionsFile, "Conversions YAML file")
	fs.StringVar(&cfg.MediaRoot, "media-root", cfg.MediaRoot, "Root directory of the default disk")
	fs.StringVar(&cfg.CatalogDriver, "catalog-driver", cfg.CatalogDriver, "Catalog driver: sqlite | postgres")
	fs.StringVar(&cfg.CatalogDSN, "catalog", cfg.CatalogDSN, "Catalog file or connection string")

	// Display
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	fs.BoolVar(&cfg.LogConsole, "console", cfg.LogConsole, "Human readable logs")
	fs.BoolVar(&showVersion, "version", false, "Print version and exit")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ErrHelp
		}
		return err
	}
	if showVersion {
		fmt.Fprintln(out, "regenerate v"+Version)
		return ErrHelp
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	cfg.IDs = append(cfg.IDs, ids...)
	cfg.Only = append(cfg.Only, only...)
	cfg.WithDefaults()
	return nil
}

func printUsage(fs *flag.FlagSet, out io.Writer) {
	fmt.Fprintf(out, "regenerate v%s - regenerate derived media conversions\n\n", Version)
	fmt.Fprintln(out, "Usage: regenerate [--ids 1,2] [--only thumb] [--only-missing] [options]")
	fmt.Fprintln(out)
	fs.PrintDefaults()
}
