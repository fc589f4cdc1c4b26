// Command effscan rescales the zero-width efficiencies of event samples to
// a grid of decay widths and writes one efficiency table per sample.
//
// Usage:
//
//	effscan [-config effmap.yaml] [-log-level debug] [sample ...]
//
// Samples given on the command line replace scan.files and scan.patterns.
// The exit status is 1 when any sample failed and 2 on a configuration error.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/llpbakery/effmap/internal/adapters/recorder"
	"github.com/llpbakery/effmap/internal/app"
	"github.com/llpbakery/effmap/internal/config"
	"github.com/llpbakery/effmap/pkg/logger"
	"github.com/llpbakery/effmap/pkg/metrics"
)

// Exit codes.
const (
	exitOK     = 0
	exitFailed = 1
	exitConfig = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

// run executes one effscan invocation and returns its exit status. Logs and
// usage go to stderr.
func run(args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("effscan", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		configPath = fs.String("config", "", "YAML config file (default $"+config.EnvConfigPath+")")
		logLevel   = fs.String("log-level", "", "override log_level: debug, info, warn, error")
	)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitConfig
	}

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx, *configPath)
	if err != nil {
		// Logger isn't configured yet.
		fmt.Fprintf(stderr, "failed to load config: %v\n", err)
		return exitConfig
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat), logger.WithWriter(stderr)); err != nil {
		fmt.Fprintf(stderr, "failed to initialize logging: %v\n", err)
		return exitConfig
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Get().Named("effscan")

	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	if err := cfg.ValidateScan(); err != nil {
		log.Error(ctx, "invalid scan config", logger.Error(err))
		return exitConfig
	}

	files := fs.Args()
	if len(files) == 0 {
		files, err = cfg.Scan.Inputs(filepath.Glob)
		if err != nil {
			log.Error(ctx, "invalid sample pattern", logger.Error(err))
			return exitConfig
		}
	}

	agg, err := app.NewAggregator(cfg)
	if err != nil {
		log.Error(ctx, "invalid analysis", logger.Error(err))
		return exitConfig
	}

	rec, err := recorder.New(ctx, cfg.Recorder.Driver, cfg.Recorder.DSN)
	if err != nil {
		log.Error(ctx, "failed to open recorder", logger.Error(err))
		return exitConfig
	}
	defer rec.Close()

	scanner := app.NewScanner(agg,
		app.WithLogger(log),
		app.WithWorkerCount(cfg.Scan.Workers),
		app.WithWidths(cfg.Scan.Widths...),
		app.WithLabels(cfg.Analysis.EffLabels...),
		app.WithOutDir(cfg.Scan.OutDir),
		app.WithPlotDir(cfg.Scan.PlotDir, cfg.Scan.PlotFormat),
		app.WithRecorder(rec),
	)
	outcomes := scanner.Run(ctx, files)

	if cfg.Metrics.Textfile != "" {
		if err := metrics.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			log.Warn(ctx, "failed to write metrics", logger.String("path", cfg.Metrics.Textfile), logger.Error(err))
		}
	}

	if app.Failed(outcomes) > 0 {
		return exitFailed
	}
	return exitOK
}
