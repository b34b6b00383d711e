package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/driftwatch/driftwatch/internal/analyzer"
	"github.com/driftwatch/driftwatch/internal/api"
	"github.com/driftwatch/driftwatch/internal/config"
	"github.com/driftwatch/driftwatch/internal/jobs"
	"github.com/driftwatch/driftwatch/internal/pipeline"
	"github.com/driftwatch/driftwatch/internal/ws"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	simStages := flag.Int("sim", 0, "register this many synthetic pipeline stages for self-exercising the analyzer; 0 disables")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	slog.Info("driftwatchd starting", "config", *configPath)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	slog.Info("config loaded",
		"http_port", cfg.HTTP.Port,
		"monitor_interval", cfg.Analysis.MonitorInterval,
		"history_cap", cfg.Analysis.HistoryCap,
		"parallel", cfg.Analysis.ParallelEnabled(),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pool := jobs.NewPool()

	var an *analyzer.Analyzer
	if cfg.Analysis.ParallelEnabled() {
		an = analyzer.NewStandard(pool)
	} else {
		an = analyzer.NewRealTime(pool)
	}

	sys := pipeline.New(an, pipeline.Options{
		MonitorInterval: cfg.Analysis.MonitorInterval,
		HistoryCap:      cfg.Analysis.HistoryCap,
	})
	applyMetricConfig(sys, cfg.Analysis.Metrics)

	sys.SetAlertCallback(func(res analyzer.TransitionResult) {
		slog.Warn("alert: pipeline health degraded",
			"stage", res.StageName,
			"health", res.Health.String(),
			"score", res.OverallScore,
			"summary", res.Summary,
		)
	})

	if *simStages > 0 {
		registerSimStages(sys, *simStages)
		slog.Info("synthetic stages registered", "count", *simStages)
	}

	sys.StartRealTimeMonitoring()

	// Hot reload: metric toggles and thresholds apply in place. Listener
	// and interval changes need a restart.
	go func() {
		err := config.Watch(ctx, *configPath, func(next *config.Config) {
			applyMetricConfig(sys, next.Analysis.Metrics)
		})
		if err != nil {
			slog.Error("config watcher failed", "err", err)
		}
	}()

	// WebSocket hub pushes the newest results to UI clients.
	hub := ws.New(sys, cfg.HTTP.BroadcastInterval)
	go hub.Run(ctx)

	restAPI := api.New(sys)
	httpMux := http.NewServeMux()
	httpMux.Handle("/api/", restAPI)
	httpMux.Handle("/metrics", restAPI)
	httpMux.Handle("/ws/stream", hub)

	httpSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler: httpMux,
	}
	go func() {
		slog.Info("HTTP server listening", "port", cfg.HTTP.Port)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server stopped", "err", err)
		}
	}()

	<-ctx.Done()
	slog.Info("driftwatchd shutting down")
	sys.StopRealTimeMonitoring()
	httpSrv.Shutdown(context.Background()) //nolint:errcheck
	pool.Close()
}

// applyMetricConfig pushes per-metric settings into the registry. Called
// on startup and again on every config reload.
func applyMetricConfig(sys *pipeline.System, metrics []config.MetricConfig) {
	for _, mc := range metrics {
		m, ok := sys.Analyzer().Registry().Get(mc.Name)
		if !ok {
			slog.Warn("config references unknown metric", "name", mc.Name)
			continue
		}
		sys.EnableMetric(mc.Name, !mc.Disabled)
		if mc.WarningThreshold != 0 || mc.CriticalThreshold != 0 {
			warning, critical := m.Thresholds()
			if mc.WarningThreshold != 0 {
				warning = mc.WarningThreshold
			}
			if mc.CriticalThreshold != 0 {
				critical = mc.CriticalThreshold
			}
			m.SetThresholds(warning, critical)
		}
		slog.Info("metric configured", "name", mc.Name, "disabled", mc.Disabled)
	}
}
