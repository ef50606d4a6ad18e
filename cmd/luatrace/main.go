package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/mkideal/cli"

	"github.com/lattesec/luatrace/internal/config"
	"github.com/lattesec/luatrace/internal/helpers/cleanup"
	"github.com/lattesec/luatrace/internal/luahost"
	"github.com/lattesec/luatrace/internal/metrics"
	"github.com/lattesec/luatrace/internal/socket"
	"github.com/lattesec/luatrace/pkg/log"
)

func main() {
	argv := Config{}

	ret := cli.Run(&argv, func(ctx *cli.Context) error {
		return run(&argv, os.Stdout)
	}, "run a Lua script with bounded stack traces")

	os.Exit(ret)
}

func run(argv *Config, stdout io.Writer) error {
	cfg, err := config.Load(argv.ConfigName, argv.overrides()...)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	lvl, _ := log.ParseLevel(cfg.Log.Level)
	if err := log.Init(cfg.Log.File, lvl); err != nil {
		return err
	}
	cleanup.Register("log", log.Close)
	defer cleanup.RunCleanup()

	reg := metrics.NewRegistry()
	if cfg.Metrics.SymbolsFile != "" {
		if syms, err := metrics.LoadSymbols(cfg.Metrics.SymbolsFile); err != nil {
			log.Warnf("handler attribution disabled: %v\n", err)
		} else {
			reg.SetSymbols(syms)
			log.Debugf("loaded %d symbols from %s\n", syms.Len(), cfg.Metrics.SymbolsFile)
		}
	}

	opts := luahost.Options{
		TraceBufferSize:    cfg.Trace.BufferSize,
		AnnotateBufferSize: cfg.Trace.AnnotateSize,
		Registry:           reg,
	}

	var reporter *socket.Reporter
	if cfg.Collector.Address != "" {
		reporter, err = newReporter(cfg.Collector)
		if err != nil {
			log.Warnf("collector %s unavailable, traces stay local: %v\n", cfg.Collector.Address, err)
		} else {
			opts.Reporter = reporter
			cleanup.Register("collector", reporter.Close)
		}
	}

	host := luahost.New(opts)
	cleanup.Register("lua", func() error {
		host.Close()
		return nil
	})

	ctx, cancel := cleanup.Watch(context.Background())
	defer cancel()

	log.Infof("running %s\n", argv.Script)
	runErr := host.RunFile(ctx, argv.Script)
	if runErr != nil {
		log.Errorf("%v\n", runErr)
	}

	if reporter != nil {
		if err := reporter.PushMetrics(reg); err != nil {
			log.Warnf("failed to push metrics: %v\n", err)
		}
	}
	if argv.Metrics {
		if err := reg.WriteText(stdout); err != nil {
			return err
		}
	}
	return runErr
}

func newReporter(c config.CollectorConfig) (*socket.Reporter, error) {
	cc, err := connConfig(c)
	if err != nil {
		return nil, err
	}
	return socket.NewReporter(cc)
}
