package main

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/go-core/metrics"
	"github.com/linnemanlabs/go-core/otelx"
	"github.com/linnemanlabs/go-core/prof"
	v "github.com/linnemanlabs/go-core/version"

	"github.com/linnemanlabs/urgency/internal/postgres"
)

// telemetry owns the process-wide profiler, tracer provider and metrics
// registry.
type telemetry struct {
	metrics *metrics.ServerMetrics

	stopProf     func()
	shutdownOtel func(context.Context) error
	once         sync.Once
}

// startTelemetry starts pyroscope and otel. Neither is fatal: a failure is
// logged and the service runs without it.
func startTelemetry(ctx context.Context, L log.Logger, vi *v.Info, profCfg *prof.Config, traceCfg *otelx.Config) *telemetry {
	t := &telemetry{
		metrics:      metrics.New(),
		stopProf:     func() {},
		shutdownOtel: func(context.Context) error { return nil },
	}

	profOpts := profCfg.ToOptions()
	profOpts.AppName = vi.AppName
	profOpts.Tags = map[string]string{
		"app":       vi.AppName,
		"component": vi.Component,
		"version":   vi.Version,
		"commit":    vi.Commit,
		"build_id":  vi.BuildId,
		"source":    "lmlabs-go-agent",
	}
	stopProf, profErr := prof.Start(ctx, profOpts)
	if profErr != nil {
		L.Error(ctx, profErr, "pyroscope start failed", "pyro_server", profCfg.PyroServer)
	}
	if stopProf != nil {
		t.stopProf = stopProf
	}

	traceOpts := traceCfg.ToOptions()
	traceOpts.Service = vi.AppName
	traceOpts.Component = vi.Component
	traceOpts.Version = vi.Version
	shutdownOtel, err := otelx.Init(ctx, traceOpts)
	if err != nil {
		L.Error(ctx, err, "otel init failed")
	}
	if shutdownOtel != nil {
		t.shutdownOtel = shutdownOtel
	}

	t.metrics.SetBuildInfoFromVersion(vi.AppName, vi.Component, vi)
	t.metrics.SetProfilingActive(profErr == nil && profCfg.EnablePyroscope)
	return t
}

// Shutdown stops the profiler and flushes spans. Only the first call does
// any work.
func (t *telemetry) Shutdown(ctx context.Context) error {
	var err error
	t.once.Do(func() {
		t.stopProf()
		err = t.shutdownOtel(ctx)
	})
	return err
}

// registerDBMetrics exports per-query durations reported by the postgres
// tracer.
func registerDBMetrics(reg prometheus.Registerer) *prometheus.HistogramVec {
	dur := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "urgency_db_query_duration_seconds",
		Help:    "Duration of individual database queries.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "operation", "outcome"})
	reg.MustRegister(dur)

	postgres.SetQueryObserver(postgres.QueryObserverFunc(
		func(_ context.Context, method, route, operation, outcome string, d time.Duration) {
			dur.WithLabelValues(method, route, operation, outcome).Observe(d.Seconds())
		},
	))
	return dur
}
