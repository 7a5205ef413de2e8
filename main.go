package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/meza/minecraft-launcher/cmd/mml"
	"github.com/meza/minecraft-launcher/internal/environment"
	"github.com/meza/minecraft-launcher/internal/lifecycle"
	"github.com/meza/minecraft-launcher/internal/perf"
	"github.com/meza/minecraft-launcher/internal/telemetry"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"go.opentelemetry.io/otel/attribute"
)

const (
	perfLifecycleStartup  = "app.lifecycle.startup"
	perfLifecycleExecute  = "app.lifecycle.execute"
	perfLifecycleShutdown = "app.lifecycle.shutdown"
)

type shutdownTrigger string

const (
	shutdownTriggerExit   shutdownTrigger = "exit"
	shutdownTriggerSignal shutdownTrigger = "signal"
)

type runDeps struct {
	execute           func(ctx context.Context) error
	telemetryInit     func()
	telemetryShutdown func(ctx context.Context)
	register          func(handler lifecycle.Handler) lifecycle.HandlerID
	unregister        func(id lifecycle.HandlerID)
	args              []string
	fs                afero.Fs
	stderr            io.Writer
}

func main() {
	args := os.Args[1:]
	os.Exit(runWithDeps(runDeps{
		execute: func(ctx context.Context) error {
			ctx, stop := lifecycle.NotifyContext(ctx)
			defer stop()
			return mml.Execute(ctx, args)
		},
		telemetryInit:     func() { telemetry.Init(telemetry.Config{}) },
		telemetryShutdown: telemetry.Shutdown,
		register:          lifecycle.Register,
		unregister:        lifecycle.Unregister,
		args:              args,
	}))
}

func runWithDeps(deps runDeps) int {
	if deps.fs == nil {
		deps.fs = afero.NewOsFs()
	}
	if deps.stderr == nil {
		deps.stderr = os.Stderr
	}
	cwd, _ := os.Getwd()
	export := perfExportConfigFromArgs(deps.args, cwd)

	ctx := context.Background()
	_, startup := perf.StartSpan(ctx, perfLifecycleStartup)
	deps.telemetryInit()

	var once sync.Once
	shutdown := func(trigger shutdownTrigger, sig os.Signal) {
		once.Do(func() {
			_, span := perf.StartSpan(ctx, perfLifecycleShutdown, perf.WithAttributes(attribute.String("trigger", string(trigger))))
			if sig != nil {
				span.SetAttributes(attribute.String("signal", sig.String()))
			}
			flushCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
			deps.telemetryShutdown(flushCtx)
			cancel()
			span.End()
			exportPerf(deps.fs, deps.stderr, export)
		})
	}
	id := deps.register(func(sig os.Signal) {
		shutdown(shutdownTriggerSignal, sig)
	})
	startup.End()

	execCtx, execute := perf.StartSpan(ctx, perfLifecycleExecute)
	err := deps.execute(execCtx)
	execute.SetAttributes(attribute.Bool("success", err == nil))
	execute.End()

	shutdown(shutdownTriggerExit, nil)
	deps.unregister(id)

	if err != nil {
		_, _ = fmt.Fprintf(deps.stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

type perfExportConfig struct {
	enabled bool
	// baseDir is stripped from path attributes.
	baseDir string
	outDir  string
	debug   bool
}

// perfExportConfigFromArgs reads the perf flags before cobra runs so the export also covers
// startup and shutdown. A relative --perf-out-dir is taken from cwd.
func perfExportConfigFromArgs(args []string, cwd string) perfExportConfig {
	flags := pflag.NewFlagSet("perf", pflag.ContinueOnError)
	flags.ParseErrorsWhitelist.UnknownFlags = true
	flags.SetOutput(io.Discard)
	flags.Usage = func() {}
	enabled := flags.Bool("perf", false, "")
	outDir := flags.String("perf-out-dir", "", "")
	dataDir := flags.String("data-dir", "", "")
	debug := flags.BoolP("debug", "d", false, "")
	flags.BoolP("quiet", "q", false, "")
	flags.BoolP("help", "h", false, "")
	_ = flags.Parse(args)

	cfg := perfExportConfig{enabled: *enabled, debug: *debug, outDir: cwd}
	if *outDir != "" {
		cfg.outDir = absFrom(cwd, *outDir)
	}
	cfg.baseDir = environment.DataDir()
	if *dataDir != "" {
		cfg.baseDir = absFrom(cwd, *dataDir)
	}
	return cfg
}

func absFrom(cwd string, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(cwd, path)
}

func exportPerf(fs afero.Fs, stderr io.Writer, cfg perfExportConfig) {
	if !cfg.enabled {
		return
	}
	spans, err := perf.GetSpans()
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "perf export failed: %v\n", err)
		return
	}
	path, err := perf.ExportToFile(fs, cfg.outDir, cfg.baseDir, spans)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "perf export failed: %v\n", err)
		return
	}
	if cfg.debug {
		_, _ = fmt.Fprintf(stderr, "perf spans written to %s\n", path)
		if overwritten := perf.OverwrittenSpans(); overwritten > 0 {
			_, _ = fmt.Fprintf(stderr, "perf kept the last %d spans, %d older ones were dropped\n", len(spans), overwritten)
		}
	}
}
