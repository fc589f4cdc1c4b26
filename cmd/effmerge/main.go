// Command effmerge pairs every model file with its efficiency table and
// writes one efficiency map sorted by a chosen column.
//
// Usage:
//
//	effmerge [-config effmap.yaml] [-log-level debug]
//
// The exit status is 1 when the merge failed and 2 on a configuration error.
// A failed merge leaves no output file.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
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

// run executes one effmerge invocation and returns its exit status. Logs and
// usage go to stderr.
func run(args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("effmerge", flag.ContinueOnError)
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx, *configPath)
	if err != nil {
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
	log := logger.Get().Named("effmerge")

	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	if err := cfg.ValidateMerge(); err != nil {
		log.Error(ctx, "invalid merge config", logger.Error(err))
		return exitConfig
	}

	rec, err := recorder.New(ctx, cfg.Recorder.Driver, cfg.Recorder.DSN)
	if err != nil {
		log.Error(ctx, "failed to open recorder", logger.Error(err))
		return exitConfig
	}
	defer rec.Close()

	masses, effs := app.MergeColumns(cfg.Merge)
	svc := app.NewMergeService(cfg.Merge.EffDir, cfg.Merge.SLHADir, cfg.Merge.Output, masses, effs,
		app.WithMergeLogger(log),
		app.WithMergeRecorder(rec),
		app.WithSortBy(cfg.Merge.SortBy),
	)
	runErr := svc.Run(ctx)

	if cfg.Metrics.Textfile != "" {
		if err := metrics.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			log.Warn(ctx, "failed to write metrics", logger.String("path", cfg.Metrics.Textfile), logger.Error(err))
		}
	}

	if runErr != nil {
		return exitFailed
	}
	return exitOK
}
