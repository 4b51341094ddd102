// Package cli is the freeboard command line front end.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os/signal"
	"slices"
	"strconv"
	"strings"
	"syscall"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	httpadapter "github.com/couchcryptid/storm-freeboard/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/storm-freeboard/internal/adapter/kafka"
	"github.com/couchcryptid/storm-freeboard/internal/adapter/pfds"
	"github.com/couchcryptid/storm-freeboard/internal/config"
	"github.com/couchcryptid/storm-freeboard/internal/domain"
	"github.com/couchcryptid/storm-freeboard/internal/lookup"
	"github.com/couchcryptid/storm-freeboard/internal/observability"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

// Version is reported by --version.
const Version = "0.1.0"

// Exit codes.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 2
)

var outputFormats = []string{"text", "json", "yaml"}

type app struct {
	metrics *observability.Metrics
}

// NewApp builds the freeboard command. Output goes to out, logs and errors to errOut.
func NewApp(out, errOut io.Writer, metrics *observability.Metrics) *cli.App {
	a := &app{metrics: metrics}
	return &cli.App{
		Name:      "freeboard",
		Usage:     "look up a location-specific storm event from NOAA's precipitation frequency data server",
		UsageText: "freeboard [options] LAT LON\nfreeboard serve",
		Description: "Takes a location's latitude and longitude (must be in the contiguous US).\n" +
			"LAT is the latitude in decimal degrees.\n" +
			"LON is the longitude in decimal degrees, negative for the western hemisphere.",
		ArgsUsage:       "LAT LON",
		Version:         Version,
		Writer:          out,
		ErrWriter:       errOut,
		HideHelpCommand: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "ari",
				Aliases: []string{"r"},
				Value:   domain.DefaultARI,
				Usage:   "average recurrence interval (" + strings.Join(domain.ARIChoices, ", ") + ")",
			},
			&cli.StringFlag{
				Name:    "duration",
				Aliases: []string{"d"},
				Value:   domain.DefaultDuration,
				Usage:   "storm duration (" + strings.Join(domain.DurationChoices, ", ") + ")",
			},
			&cli.StringFlag{
				Name:    "units",
				Aliases: []string{"u"},
				Value:   string(domain.Inch),
				Usage:   "precipitation units (inch or mm)",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Value:   "text",
				Usage:   "output format (text, json, yaml)",
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "only log errors",
			},
		},
		Action: a.lookupAction,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "serve storm event lookups over HTTP",
				Action: a.serveAction,
			},
		},
		OnUsageError: func(_ *cli.Context, err error, _ bool) error {
			return usageErrorf("%v", err)
		},
		// Exit codes are decided by the caller via ExitCode.
		ExitErrHandler: func(*cli.Context, error) {},
	}
}

func (a *app) lookupAction(c *cli.Context) error {
	req, err := parseLookupArgs(c)
	if err != nil {
		return err
	}
	format := strings.ToLower(c.String("output"))
	if !slices.Contains(outputFormats, format) {
		return usageErrorf("invalid --output %q: choose from %s", c.String("output"), strings.Join(outputFormats, ", "))
	}

	cfg, err := config.Load()
	if err != nil {
		return cli.Exit(fmt.Sprintf("load config: %v", err), ExitFailure)
	}
	level := cfg.LogLevel
	if c.Bool("quiet") {
		level = "error"
	}
	logger := observability.NewLogger(c.App.ErrWriter, level, cfg.LogFormat)

	svc, closeFn := a.newService(cfg, logger)
	defer closeFn()

	event, err := svc.Lookup(c.Context, req)
	if err != nil {
		logger.Debug("storm event lookup failed", "kind", lookup.ErrorKind(err))
		return err
	}
	return writeEvent(c.App.Writer, format, event)
}

func (a *app) serveAction(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return cli.Exit(fmt.Sprintf("load config: %v", err), ExitFailure)
	}
	logger := newServeLogger(cfg)

	svc, closeFn := a.newService(cfg, logger)
	defer closeFn()

	srv := httpadapter.NewServer(cfg.HTTPAddr, svc, svc, logger)

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return cli.Exit(fmt.Sprintf("http server: %v", err), ExitFailure)
		}
	case <-ctx.Done():
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	logger.Info("shutdown complete")
	return nil
}

// newServeLogger is the long-running service logger: stdout, installed as the
// slog default. Lookups log to ErrWriter instead so stdout carries only the result.
func newServeLogger(cfg *config.Config) *slog.Logger {
	return sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
}

// newService wires the PFDS client and, when enabled, the Kafka publisher.
func (a *app) newService(cfg *config.Config, logger *slog.Logger) (*lookup.Service, func()) {
	client := pfds.NewClient(cfg.PFDSURL, cfg.PFDSTimeout, cfg.PFDSRateLimit, a.metrics, logger)

	if !cfg.KafkaEnabled {
		a.metrics.PublishEnabled.Set(0)
		logger.Debug("kafka publishing disabled")
		return lookup.New(client, nil, logger, a.metrics), func() {}
	}

	writer := kafkaadapter.NewWriter(cfg, logger)
	a.metrics.PublishEnabled.Set(1)
	logger.Info("kafka publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	return lookup.New(client, writer, logger, a.metrics), func() {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}
}

func parseLookupArgs(c *cli.Context) (domain.Request, error) {
	if c.NArg() != 2 {
		return domain.Request{}, usageErrorf("expected LAT and LON, got %d argument(s)", c.NArg())
	}
	lat, err := strconv.ParseFloat(c.Args().Get(0), 64)
	if err != nil {
		return domain.Request{}, usageErrorf("invalid LAT %q: not a decimal number", c.Args().Get(0))
	}
	lon, err := strconv.ParseFloat(c.Args().Get(1), 64)
	if err != nil {
		return domain.Request{}, usageErrorf("invalid LON %q: not a decimal number", c.Args().Get(1))
	}

	ari, err := choice(c.String("ari"), "--ari", domain.ARIChoices)
	if err != nil {
		return domain.Request{}, err
	}
	duration, err := choice(c.String("duration"), "--duration", domain.DurationChoices)
	if err != nil {
		return domain.Request{}, err
	}
	unit, err := domain.ParseDepthUnit(c.String("units"))
	if err != nil {
		return domain.Request{}, usageErrorf("invalid --units: %v", err)
	}

	return domain.Request{Lat: lat, Lon: lon, Duration: duration, ARI: ari, Unit: unit}, nil
}

// choice matches v case-insensitively against choices and returns the canonical spelling.
func choice(v, flag string, choices []string) (string, error) {
	for _, c := range choices {
		if strings.EqualFold(strings.TrimSpace(v), c) {
			return c, nil
		}
	}
	return "", usageErrorf("invalid %s %q: choose from %s", flag, v, strings.Join(choices, ", "))
}

func writeEvent(w io.Writer, format string, event domain.DesignStormEvent) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(event)
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(event)
	default:
		_, err := fmt.Fprintf(w,
			"Geographic Coordinate: %s\nAverage Return Interval: %s\nPrecipitation Duration: %s\nStorm Event: %s\n",
			event.Coordinate(), event.ARI, event.Duration, event)
		return err
	}
}

func usageErrorf(format string, args ...any) error {
	return cli.Exit(fmt.Sprintf(format, args...), ExitUsage)
}

// ExitCode maps an error returned by the app to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var coder cli.ExitCoder
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}
	if lookup.IsInputError(err) {
		return ExitUsage
	}
	return ExitFailure
}

// ReorderArgs moves numeric arguments behind a "--" terminator so a negative
// longitude is not parsed as a flag. Sub-commands are left untouched.
func ReorderArgs(args []string) []string {
	if len(args) < 2 || args[1] == "serve" {
		return args
	}

	flags := []string{args[0]}
	var positional []string
	for i := 1; i < len(args); i++ {
		if args[i] == "--" {
			positional = append(positional, args[i+1:]...)
			break
		}
		if isNumber(args[i]) {
			positional = append(positional, args[i])
			continue
		}
		flags = append(flags, args[i])
	}
	if len(positional) == 0 {
		return flags
	}
	return append(append(flags, "--"), positional...)
}

func isNumber(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}
