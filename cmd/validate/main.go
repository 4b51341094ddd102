// Command validate checks that a PFDS response is a usable precipitation
// frequency table: extractable, 19 durations by 10 ARIs, all depths positive,
// and depths never shrinking as the ARI or the duration grows.
//
// Usage:
//
//	go run ./cmd/validate -file pfds_response.txt
//	go run ./cmd/validate -lat 39.7205 -lon -105.1193 -units mm
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/couchcryptid/storm-freeboard/internal/adapter/pfds"
	"github.com/couchcryptid/storm-freeboard/internal/config"
	"github.com/couchcryptid/storm-freeboard/internal/domain"
	"github.com/couchcryptid/storm-freeboard/internal/observability"
)

const (
	wantRows = 19
	wantCols = 10
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

// options are the parsed command-line flags.
type options struct {
	file  string
	lat   float64
	lon   float64
	units string
}

var errNoTarget = errors.New("need -file, or both -lat and -lon")

// parseFlags requires -file or an explicitly set -lat/-lon pair; 0 is a valid
// flag value, so presence is checked with Visit rather than by value.
func parseFlags(args []string, errOut io.Writer) (options, error) {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var opts options
	fs.StringVar(&opts.file, "file", "", "path to a saved PFDS response body")
	fs.Float64Var(&opts.lat, "lat", 0, "latitude to fetch live (ignored with -file)")
	fs.Float64Var(&opts.lon, "lon", 0, "longitude to fetch live (ignored with -file)")
	fs.StringVar(&opts.units, "units", "inch", "depth units for a live fetch (inch or mm)")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if opts.file == "" && !(set["lat"] && set["lon"]) {
		fs.Usage()
		return options{}, errNoTarget
	}
	return opts, nil
}

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "validate: %v\n", err)
		}
		os.Exit(1)
	}

	body, err := load(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		os.Exit(1)
	}
	os.Exit(run(os.Stdout, body))
}

// load reads the body from disk or fetches it from the configured PFDS endpoint.
func load(opts options) ([]byte, error) {
	if opts.file != "" {
		return os.ReadFile(opts.file)
	}

	unit, err := domain.ParseDepthUnit(opts.units)
	if err != nil {
		return nil, err
	}
	q, err := domain.NewQuery(opts.lat, opts.lon, unit.UnitSystem())
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger := observability.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	client := pfds.NewClient(cfg.PFDSURL, cfg.PFDSTimeout, cfg.PFDSRateLimit, observability.NewMetricsForTesting(), logger)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.PFDSTimeout)
	defer cancel()
	return client.FetchRaw(ctx, q)
}

func run(w io.Writer, body []byte) int {
	fmt.Fprintln(w, "=== PFDS Response Validation ===")
	fmt.Fprintln(w)

	extraction := &phase{name: "Phase 1: Extraction (quantiles literal)"}
	table, err := pfds.ParseQuantiles(body)
	if err != nil {
		extraction.errorf("%v", err)
	}

	phases := []*phase{extraction}
	if extraction.passed() {
		phases = append(phases,
			validateShape(table),
			validatePositive(table),
			validateMonotonic(table),
		)
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(w, "  %-42s %s\n", p.name, status)
	}

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(w, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(w, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(w, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(w, "\nValidation FAILED.")
	return 1
}

func validateShape(table domain.Table) *phase {
	p := &phase{name: "Phase 2: Shape (19 durations x 10 ARIs)"}
	if len(table) != wantRows {
		p.errorf("expected %d rows, got %d", wantRows, len(table))
	}
	for r, row := range table {
		if len(row) != wantCols {
			p.errorf("row %d: expected %d columns, got %d", r, wantCols, len(row))
		}
	}
	return p
}

func validatePositive(table domain.Table) *phase {
	p := &phase{name: "Phase 3: Depths positive"}
	for r, row := range table {
		for c, v := range row {
			if v <= 0 {
				p.errorf("row %d col %d: depth %g is not positive", r, c, v)
			}
		}
	}
	return p
}

// validateMonotonic checks that depth never decreases with a longer ARI
// (along a row) or a longer duration (down a column).
func validateMonotonic(table domain.Table) *phase {
	p := &phase{name: "Phase 4: Depths non-decreasing"}
	for r, row := range table {
		for c := 1; c < len(row); c++ {
			if row[c] < row[c-1] {
				p.errorf("row %d: col %d (%g) < col %d (%g)", r, c, row[c], c-1, row[c-1])
			}
		}
	}
	for r := 1; r < len(table); r++ {
		for c := range table[r] {
			if c >= len(table[r-1]) {
				continue
			}
			if table[r][c] < table[r-1][c] {
				p.errorf("col %d: row %d (%g) < row %d (%g)", c, r, table[r][c], r-1, table[r-1][c])
			}
		}
	}
	return p
}
