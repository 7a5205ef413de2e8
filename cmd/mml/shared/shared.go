// Package shared holds the wiring every mml subcommand repeats: global flags, settings,
// the HTTP client, the downloader and the telemetry record.
package shared

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/meza/minecraft-launcher/internal/config"
	"github.com/meza/minecraft-launcher/internal/constants"
	"github.com/meza/minecraft-launcher/internal/downloader"
	"github.com/meza/minecraft-launcher/internal/environment"
	"github.com/meza/minecraft-launcher/internal/httpclient"
	"github.com/meza/minecraft-launcher/internal/i18n"
	"github.com/meza/minecraft-launcher/internal/logger"
	"github.com/meza/minecraft-launcher/internal/models"
	"github.com/meza/minecraft-launcher/internal/perf"
	"github.com/meza/minecraft-launcher/internal/telemetry"
	"github.com/meza/minecraft-launcher/internal/tui"
	"github.com/meza/minecraft-launcher/internal/version"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"
)

type Globals struct {
	DataDir       string
	Quiet         bool
	Debug         bool
	DownloadLimit int
	MetricsAddr   string
}

// AddGlobalFlags declares the persistent flags every subcommand reads through ReadGlobals.
func AddGlobalFlags(flags *pflag.FlagSet) {
	flags.String("data-dir", "", i18n.T("cmd.root.flag.data_dir"))
	flags.BoolP("quiet", "q", false, i18n.T("cmd.root.flag.quiet"))
	flags.BoolP("debug", "d", false, i18n.T("cmd.root.flag.debug"))
	flags.Int("download-limit", 0, i18n.T("cmd.root.flag.download_limit"))
	flags.String("metrics-addr", "", i18n.T("cmd.root.flag.metrics_addr"))
}

// ReadGlobals collects the persistent root flags. A missing flag is an error so commands
// detached from the root fail loudly in tests.
func ReadGlobals(cmd *cobra.Command) (Globals, error) {
	var globals Globals
	var err error
	if globals.DataDir, err = cmd.Flags().GetString("data-dir"); err != nil {
		return globals, err
	}
	if globals.Quiet, err = cmd.Flags().GetBool("quiet"); err != nil {
		return globals, err
	}
	if globals.Debug, err = cmd.Flags().GetBool("debug"); err != nil {
		return globals, err
	}
	if globals.DownloadLimit, err = cmd.Flags().GetInt("download-limit"); err != nil {
		return globals, err
	}
	if globals.MetricsAddr, err = cmd.Flags().GetString("metrics-addr"); err != nil {
		return globals, err
	}
	if globals.DataDir == "" {
		globals.DataDir = environment.DataDir()
	}
	return globals, nil
}

// Env is everything a command needs to talk to disk and the network.
type Env struct {
	Globals  Globals
	Fs       afero.Fs
	Layout   config.Layout
	Settings config.Settings
	Logger   *logger.Logger
	Client   httpclient.Doer
	Metrics  *downloader.Metrics

	downloadClient httpclient.Doer
	backoff        func(attempt int) time.Duration
	metricsServer  *http.Server
}

type Options struct {
	Fs     afero.Fs
	Client httpclient.Doer
	// Listen opens the metrics listener; tests replace it.
	Listen func(network string, address string) (net.Listener, error)
	// Backoff overrides the wait between download attempts.
	Backoff func(attempt int) time.Duration
}

func Setup(ctx context.Context, cmd *cobra.Command, options Options) (*Env, error) {
	globals, err := ReadGlobals(cmd)
	if err != nil {
		return nil, err
	}
	if options.Fs == nil {
		options.Fs = afero.NewOsFs()
	}
	if options.Listen == nil {
		options.Listen = net.Listen
	}

	env := &Env{
		Globals: globals,
		Fs:      options.Fs,
		Layout:  config.NewLayout(globals.DataDir),
		Logger:  logger.New(cmd.OutOrStdout(), cmd.ErrOrStderr(), globals.Quiet, globals.Debug),
		backoff: options.Backoff,
	}
	if env.Settings, err = config.ReadSettings(ctx, env.Fs, env.Layout); err != nil {
		return nil, err
	}
	if globals.DownloadLimit > 0 {
		env.Settings.DownloadLimit = globals.DownloadLimit
	}

	env.Client = options.Client
	env.downloadClient = options.Client
	if env.Client == nil {
		metadata := httpclient.NewRLClient(rate.NewLimiter(rate.Limit(20), 40))
		metadata.UserAgent = UserAgent()
		// The downloader retries on its own and resumes partial files between attempts.
		transfers := httpclient.NewRLClient(rate.NewLimiter(rate.Inf, 0))
		transfers.RetryConfig = httpclient.NoRetries()
		transfers.UserAgent = UserAgent()
		env.Client = metadata
		env.downloadClient = transfers
	}

	if globals.MetricsAddr != "" {
		if err := env.serveMetrics(options.Listen); err != nil {
			return nil, err
		}
	}
	return env, nil
}

func UserAgent() string {
	return constants.CommandName + "/" + environment.AppVersion()
}

func (e *Env) serveMetrics(listen func(string, string) (net.Listener, error)) error {
	registry := prometheus.NewRegistry()
	metrics, err := downloader.NewMetrics(registry)
	if err != nil {
		return err
	}
	listener, err := listen("tcp", e.Globals.MetricsAddr)
	if err != nil {
		return err
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	e.Metrics = metrics
	e.metricsServer = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := e.metricsServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			e.Logger.Debugf("metrics server stopped: %v", err)
		}
	}()
	e.Logger.Debugf("serving metrics on %s", listener.Addr())
	return nil
}

// Close stops the metrics listener when one was started.
func (e *Env) Close() {
	if e == nil || e.metricsServer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = e.metricsServer.Shutdown(ctx)
}

func (e *Env) Downloader(observer downloader.Observer) *downloader.Downloader {
	return downloader.New(downloader.Options{
		Limit:    e.Settings.DownloadLimit,
		Backoff:  e.backoff,
		Client:   e.downloadClient,
		Fs:       e.Fs,
		Observer: observer,
		Metrics:  e.Metrics,
		Logger:   e.Logger,
	})
}

func (e *Env) VersionDeps(fetcher version.Fetcher, runner version.Runner) version.Deps {
	return version.Deps{
		Fs:         e.Fs,
		Layout:     e.Layout,
		Settings:   e.Settings,
		Client:     e.Client,
		Downloader: fetcher,
		Runner:     runner,
		Platform:   models.CurrentHost(),
		Logger:     e.Logger,
	}
}

func (e *Env) Header(extras ...string) tui.Config {
	return tui.Config{App: constants.CommandName, Version: environment.AppVersion(), Extras: extras}
}

// Progress runs work behind the download bar, or with plain group lines off a terminal.
func (e *Env) Progress(ctx context.Context, cmd *cobra.Command, title string, work tui.Work) error {
	return tui.RunWithProgress(ctx, e.Header(title), title, e.Globals.Quiet, cmd.InOrStdin(), cmd.OutOrStdout(), work)
}

// Track opens the command span and returns the function that closes it and records the
// command for telemetry.
func Track(ctx context.Context, command string) (context.Context, func(err error, extra map[string]any)) {
	ctx, span := perf.StartSpan(ctx, "app.command."+command)
	started := time.Now()
	return ctx, func(err error, extra map[string]any) {
		span.SetAttributes(attribute.Bool("success", err == nil))
		if err != nil {
			span.SetAttributes(attribute.String("error_kind", version.KindOf(err).String()))
		}
		span.End()
		telemetry.RecordCommand(telemetry.CommandTelemetry{
			Command:  command,
			Success:  err == nil,
			Duration: time.Since(started),
			Error:    err,
			Extra:    extra,
		})
	}
}
