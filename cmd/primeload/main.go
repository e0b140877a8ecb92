// Command primeload simulates PrimeCRM users against a running API and
// reports latency and error statistics.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"primeload/internal/collector"
	"primeload/internal/config"
	"primeload/internal/coordinator"
	"primeload/internal/core"
	"primeload/internal/crm"
	phttp "primeload/internal/http"
	"primeload/internal/logging"
	"primeload/internal/progress"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	ExitSuccess         = 0
	ExitThresholdFailed = 1
	ExitError           = 2
)

// profileGrace lets actors finish their last cycle after a profile ends.
const profileGrace = 5 * time.Second

type options struct {
	configPath    string
	envFile       string
	host          string
	users         int
	duration      time.Duration
	output        string
	quiet         bool
	verbose       bool
	maxIterations int
	warmup        int
	logLevel      string
	logFormat     string
	metricsAddr   string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	opts := &options{}
	fs := flag.NewFlagSet("primeload", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.configPath, "config", "", "path to YAML config file (optional)")
	fs.StringVar(&opts.envFile, "env-file", "", "load KEY=VALUE pairs for ${env:...} placeholders (existing variables win)")
	fs.StringVar(&opts.host, "host", "", "base URL of the PrimeCRM API (overrides config)")
	fs.IntVar(&opts.users, "users", 5, "number of concurrent simulated users")
	fs.DurationVar(&opts.duration, "duration", 30*time.Second, "test duration (ignored with a load profile)")
	fs.StringVar(&opts.output, "output", "text", "output format: text, json")
	fs.BoolVar(&opts.quiet, "quiet", false, "suppress progress output during test")
	fs.BoolVar(&opts.verbose, "verbose", false, "enable debug output (request/response logging)")
	fs.IntVar(&opts.maxIterations, "max-iterations", 0, "max task cycles per user (0 = unlimited)")
	fs.IntVar(&opts.warmup, "warmup", 0, "cycles per user before metrics are collected")
	fs.StringVar(&opts.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	fs.StringVar(&opts.logFormat, "log-format", "text", "log format: text, json")
	fs.StringVar(&opts.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9090)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if opts.output != "text" && opts.output != "json" {
		return nil, fmt.Errorf("--output must be 'text' or 'json', got %q", opts.output)
	}
	if opts.users < 1 {
		return nil, fmt.Errorf("--users must be >= 1")
	}
	if opts.duration <= 0 {
		return nil, fmt.Errorf("--duration must be positive")
	}
	if opts.maxIterations < 0 || opts.warmup < 0 {
		return nil, fmt.Errorf("--max-iterations and --warmup must be >= 0")
	}
	return opts, nil
}

// loadConfig reads the config file, if any, and applies CLI overrides.
func loadConfig(opts *options) (*config.Config, error) {
	cfg := config.Default()
	if opts.configPath != "" {
		var err error
		if cfg, err = config.LoadConfig(opts.configPath); err != nil {
			return nil, err
		}
	}

	if opts.host != "" {
		cfg.Host = opts.host
	}
	if opts.maxIterations > 0 {
		cfg.Execution.MaxIterations = opts.maxIterations
	}
	if opts.warmup > 0 {
		cfg.Execution.WarmupIterations = opts.warmup
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(stderr, "error: %v\n", err)
		}
		return ExitError
	}

	if opts.envFile != "" {
		if err := godotenv.Load(opts.envFile); err != nil {
			fmt.Fprintf(stderr, "error: env file: %v\n", err)
			return ExitError
		}
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return ExitError
	}

	coll := collector.NewCollector()
	prog := progress.NewProgress(coll, opts.quiet)
	prog.SetOutput(stderr)

	logger, err := logging.New(prog, opts.logLevel, opts.logFormat)
	if err != nil {
		coll.Close()
		fmt.Fprintf(stderr, "error: %v\n", err)
		return ExitError
	}
	runID := uuid.NewString()
	log := logger.WithField("run", runID)

	var reporter core.Reporter = coll
	var metricsSrv *http.Server
	var metricsLn net.Listener
	if opts.metricsAddr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector())
		prom, err := collector.NewPromReporter(coll, reg)
		if err != nil {
			coll.Close()
			fmt.Fprintf(stderr, "error: %v\n", err)
			return ExitError
		}
		reporter = prom

		metricsLn, err = net.Listen("tcp", opts.metricsAddr)
		if err != nil {
			coll.Close()
			fmt.Fprintf(stderr, "error: metrics listener: %v\n", err)
			return ExitError
		}
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		metricsSrv = &http.Server{Handler: mux}
		log.WithField("addr", metricsLn.Addr().String()).Info("serving Prometheus metrics")
	}

	var debug *phttp.DebugLogger
	if opts.verbose {
		debug = phttp.NewDebugLogger(log)
	}

	scn, err := crm.New(cfg, crm.Options{
		Client: &http.Client{Timeout: cfg.Client.Timeout},
		Debug:  debug,
		Logger: log,
	})
	if err != nil {
		if metricsLn != nil {
			metricsLn.Close()
		}
		coll.Close()
		fmt.Fprintf(stderr, "error: %v\n", err)
		return ExitError
	}

	coord := coordinator.NewCoordinator(reporter)
	coord.SetLogger(log)
	coord.SetRunnerConfig(core.RunnerConfig{
		MaxIterations: cfg.Execution.MaxIterations,
		WarmupIters:   cfg.Execution.WarmupIterations,
	})
	prog.SetActiveFunc(coord.ActiveActors)

	g, gctx := errgroup.WithContext(ctx)
	loadDone := make(chan struct{})
	g.Go(func() error {
		defer close(loadDone)
		execute(gctx, cfg, opts, coord, scn.Factory(), prog, log)
		coll.Close()
		return nil
	})
	if metricsSrv != nil {
		g.Go(func() error {
			if err := metricsSrv.Serve(metricsLn); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			select {
			case <-loadDone:
			case <-gctx.Done():
			}
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return metricsSrv.Shutdown(shutdownCtx)
		})
	}
	runErr := g.Wait()
	prog.Stop()

	interrupted := ctx.Err() != nil
	if interrupted && !opts.quiet {
		fmt.Fprintln(stderr, "Received interrupt signal, shutting down...")
	}

	metrics := coll.Compute()
	metrics.RunID = runID
	if dropped := coll.DroppedEvents(); dropped > 0 {
		log.WithField("dropped", dropped).Warn("events dropped, results undercount")
	}

	var thresholdResults *collector.ThresholdResults
	if cfg.Thresholds != nil {
		thresholdResults = cfg.Thresholds.Check(metrics)
	}

	if opts.output == "json" {
		if err := collector.FormatJSON(stdout, metrics, thresholdResults); err != nil {
			log.WithError(err).Error("writing report")
		}
	} else {
		collector.FormatText(stdout, metrics, thresholdResults)
	}

	switch {
	case runErr != nil:
		log.WithError(runErr).Error("run failed")
		return ExitError
	case interrupted:
		return ExitSuccess
	case thresholdResults != nil && !thresholdResults.Passed:
		if opts.output == "text" {
			fmt.Fprintln(stderr, "\nThreshold check failed!")
		}
		return ExitThresholdFailed
	}
	return ExitSuccess
}

// execute runs actors until the duration or the load profile ends, then
// waits for every actor to exit.
func execute(ctx context.Context, cfg *config.Config, opts *options, coord *coordinator.Coordinator, factory core.WorkflowFactory, prog *progress.Progress, log logrus.FieldLogger) {
	if cfg.LoadProfile != nil && len(cfg.LoadProfile.Phases) > 0 {
		prog.Printf("primeload starting: load profile with %d phases (%v), host %s",
			len(cfg.LoadProfile.Phases), cfg.LoadProfile.TotalDuration(), cfg.Host)

		ctx, cancel := context.WithTimeout(ctx, cfg.LoadProfile.TotalDuration()+profileGrace)
		defer cancel()

		prog.Start()
		coord.RunWithProfile(ctx, cfg.LoadProfile, factory, prog)
		coord.Wait()
		return
	}

	prog.Printf("primeload starting: %d users, duration %v, host %s", opts.users, opts.duration, cfg.Host)
	log.WithField("users", opts.users).Debug("spawning users")

	ctx, cancel := context.WithTimeout(ctx, opts.duration)
	defer cancel()

	prog.Start()
	coord.Spawn(ctx, opts.users, factory)
	coord.Wait()
}
