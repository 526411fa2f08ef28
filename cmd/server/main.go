// Urgency classifies customer support emails into urgency tiers, subcategories
// and SLAs with an LLM.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/linnemanlabs/go-core/cfg"
	"github.com/linnemanlabs/go-core/health"
	"github.com/linnemanlabs/go-core/httpmw"
	"github.com/linnemanlabs/go-core/httpserver"
	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/go-core/opshttp"
	"github.com/linnemanlabs/go-core/otelx"
	"github.com/linnemanlabs/go-core/prof"
	v "github.com/linnemanlabs/go-core/version"

	uc "github.com/linnemanlabs/urgency/internal/cfg"
	"github.com/linnemanlabs/urgency/internal/llm/claude"
	"github.com/linnemanlabs/urgency/internal/notify/slack"
	"github.com/linnemanlabs/urgency/internal/taxonomy"
	"github.com/linnemanlabs/urgency/internal/urgency"
)

const appName = "urgency"
const component = "server"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "fatal error:", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	v.AppName = appName
	v.Component = component
	vi := v.Get()

	// real environment variables win over .env
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "failed to load .env:", err)
	}

	var (
		appCfg    uc.Config
		httpCfg   httpserver.Config
		httpmwCfg httpmw.Config
		logCfg    log.Config
		opsCfg    opshttp.Config
		profCfg   prof.Config
		traceCfg  otelx.Config
	)
	appCfg.RegisterFlags(flag.CommandLine)
	httpCfg.RegisterFlags(flag.CommandLine)
	httpmwCfg.RegisterFlags(flag.CommandLine)
	logCfg.RegisterFlags(flag.CommandLine)
	opsCfg.RegisterFlags(flag.CommandLine)
	profCfg.RegisterFlags(flag.CommandLine)
	traceCfg.RegisterFlags(flag.CommandLine)
	var showVersion bool
	flag.BoolVar(&showVersion, "V", false, "Print version+build information and exit")

	flag.Parse()
	if showVersion {
		fmt.Printf(
			"%s (%s) %s (commit=%s, commit_date=%s, build_id=%s, build_date=%s, go=%s, dirty=%v)\n",
			vi.AppName, vi.Component, vi.Version, vi.Commit, vi.CommitDate, vi.BuildId, vi.BuildDate, vi.GoVersion,
			vi.VCSDirty != nil && *vi.VCSDirty,
		)
		return nil
	}

	// URGENCY_* fills only flags not set on the command line
	cfg.FillFromEnv(flag.CommandLine, "URGENCY_", func(format string, args ...any) {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	})

	if err := errors.Join(
		appCfg.Validate(),
		httpCfg.Validate(),
		httpmwCfg.Validate(),
		logCfg.Validate(),
		opsCfg.Validate(),
		profCfg.Validate(),
		traceCfg.Validate(),
	); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	if appCfg.APIPort == opsCfg.Port {
		return fmt.Errorf("http and admin ports must differ (both %d)", appCfg.APIPort)
	}

	lg, err := log.New(logCfg.ToOptions(v.AppName))
	if err != nil {
		return fmt.Errorf("logger init: %w", err)
	}
	defer func() { _ = lg.Sync() }()

	L := lg.With("component", vi.Component)
	ctx = log.WithContext(ctx, L)

	L.Info(ctx, "initializing application",
		"version", vi.Version,
		"commit", vi.Commit,
		"build_id", vi.BuildId,
		"go_version", vi.GoVersion,
		"http_port", appCfg.APIPort,
		"admin_port", opsCfg.Port,
		"enable_pprof", opsCfg.EnablePprof,
		"enable_pyroscope", profCfg.EnablePyroscope,
		"enable_tracing", traceCfg.EnableTracing,
		"otlp_endpoint", traceCfg.OTLPEndpoint,
		"trusted_proxy_hops", httpmwCfg.TrustedProxyHops,
		"claude_model", appCfg.ClaudeModel,
		"claude_api_key_set", appCfg.ClaudeAPIKey != "",
		"cache_backend", appCfg.CacheBackend,
		"single_flight", appCfg.SingleFlight,
		"api_auth", appCfg.APIToken != "",
	)

	tel := startTelemetry(ctx, L, &vi, &profCfg, &traceCfg)
	defer func() { _ = tel.Shutdown(context.Background()) }()
	registerDBMetrics(tel.metrics.Registry())

	resultCache, closeCache, err := openCache(ctx, &appCfg, L)
	if err != nil {
		return err
	}
	defer closeCache()

	classifier := newClassifier(ctx, &appCfg, L, resultCache, urgency.NewMetrics(tel.metrics.Registry()))

	var shutdownGate health.ShutdownGate
	readiness := health.All(shutdownGate.Probe())
	liveness := health.Fixed(true, "")

	opsOpts := opsCfg.ToOptions()
	opsOpts.Metrics = tel.metrics.Handler()
	opsOpts.Health = liveness
	opsOpts.Readiness = readiness
	opsOpts.UseRecoverMW = true
	opsOpts.OnPanic = tel.metrics.IncHttpPanic

	// metrics, health and pprof; meant for internal scrapers only
	opsHTTPStop, err := opshttp.Start(ctx, L, opsOpts)
	if err != nil {
		L.Error(ctx, err, "failed to start ops http listener")
		return err
	}
	defer func() {
		if err := opsHTTPStop(context.Background()); err != nil {
			L.Error(ctx, err, "failed to stop ops http listener")
		}
	}()

	h := newAPIHandler(apiDeps{
		logger:     L,
		classifier: classifier,
		apiToken:   appCfg.APIToken,
		proxyHops:  httpmwCfg.TrustedProxyHops,
		liveness:   liveness,
		readiness:  readiness,
		metricsMW:  tel.metrics.Middleware,
		onPanic:    tel.metrics.IncHttpPanic,
	})

	apiOpts, err := httpCfg.ToOptions()
	if err != nil {
		L.Error(ctx, err, "invalid http config")
		return err
	}
	apiHTTPStop, err := httpserver.Start(ctx, fmt.Sprintf(":%d", appCfg.APIPort), h, L, apiOpts)
	if err != nil {
		L.Error(ctx, err, "failed to start api http listener")
		return err
	}
	defer func() {
		if err := apiHTTPStop(context.Background()); err != nil {
			L.Error(ctx, err, "failed to stop api http listener")
		}
	}()

	if err := notifySystemd(); err != nil {
		L.Warn(ctx, "failed to notify systemd of readiness", "error", err)
	}

	<-ctx.Done()
	bg := log.WithContext(context.Background(), L)
	L.Info(bg, "shutdown signal received")

	shutdownGate.Set("draining")
	forceCh := make(chan os.Signal, 1)
	signal.Notify(forceCh, os.Interrupt, syscall.SIGTERM)
	waitForDrain(bg, L, time.Duration(appCfg.DrainSeconds)*time.Second, forceCh)
	signal.Stop(forceCh)

	shutdownAll(bg, L, time.Duration(appCfg.ShutdownBudgetSeconds)*time.Second, []stopFn{
		{"api http server", apiHTTPStop},
		{"ops http server", opsHTTPStop},
		{"telemetry", tel.Shutdown},
	})

	L.Info(bg, "shutdown complete")
	return nil
}

// newClassifier wires the lazily built Claude client, the optional Slack
// notifier and metrics into a Classifier. A missing API key surfaces as 503
// on classification requests rather than failing startup.
func newClassifier(ctx context.Context, appCfg *uc.Config, L log.Logger, cache urgency.Cache, m *urgency.Metrics) *urgency.Classifier {
	provider := urgency.NewLazyProvider(func() (urgency.Provider, error) {
		c, err := claude.New(appCfg.ClaudeAPIKey, appCfg.ClaudeModel)
		if err != nil {
			return nil, err
		}
		L.Info(ctx, "claude client initialized", "model", c.Model())
		return c, nil
	})
	if appCfg.ClaudeAPIKey == "" {
		L.Warn(ctx, "claude api key is not set, classification requests will fail until it is configured")
	}

	var notifier urgency.Notifier
	if appCfg.SlackWebhookURL != "" {
		notifier = slack.New(appCfg.SlackWebhookURL, L)
		L.Info(ctx, "notifier enabled", "type", "slack")
	}

	return urgency.NewClassifier(provider, cache, L, urgency.Options{
		Registry:                taxonomy.Default(),
		Hooks:                   m.Hooks(),
		Notifier:                notifier,
		Timeout:                 appCfg.LLMTimeout,
		MaxTokens:               appCfg.LLMMaxTokens,
		SingleFlight:            appCfg.SingleFlight,
		OverrideConfidenceScale: appCfg.OverrideConfidenceScale,
	})
}
