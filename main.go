package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"media-picker/internal/crop"
	"media-picker/internal/handlers"
	"media-picker/internal/ledger"
	"media-picker/internal/loader"
	"media-picker/internal/logging"
	"media-picker/internal/memory"
	"media-picker/internal/metrics"
	"media-picker/internal/middleware"
	"media-picker/internal/startup"
	"media-picker/internal/thumbnail"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	startTime := time.Now()

	// Load configuration
	config, err := startup.LoadConfig()
	if err != nil {
		logging.Fatal("Configuration error: %v", err)
	}

	// Configure GOMEMLIMIT before significant allocations
	memory.ConfigureFromEnv()

	// Pre-populate metric label combinations
	metrics.InitializeMetrics()

	// Initialize libvips for the image path; generation falls back to
	// pure-Go decoding when it is unavailable
	if err := thumbnail.InitVips(); err != nil {
		logging.Warn("libvips unavailable, using pure-Go image decoding: %v", err)
	}

	// Check ffmpeg availability for the video path
	startup.LogExtractorInit()

	// Open the thumbnail ledger and sweep files orphaned by crashes
	ledgerStart := time.Now()
	led, err := ledger.Open(config.LedgerDir)
	if err != nil {
		logging.Fatal("Failed to open thumbnail ledger: %v", err)
	}
	defer led.Close()

	orphans, err := led.SweepOrphans(time.Now().Add(-24 * time.Hour))
	if err != nil {
		logging.Warn("Orphan sweep failed: %v", err)
	}
	startup.LogLedgerInit(time.Since(ledgerStart), orphans)

	sessionID := fmt.Sprintf("session-%d", time.Now().UnixNano())
	logging.Info("  Session id: %s", sessionID)

	// Memory backpressure for the decode pool
	monitor := memory.NewMonitor(memory.DefaultConfig())
	monitor.Start()

	// Thumbnail generator
	genOpts := []thumbnail.Option{
		thumbnail.WithLedger(led, sessionID),
	}
	var resolver thumbnail.ContentResolver
	if config.ContentRoot != "" {
		resolver = thumbnail.DirResolver{Root: config.ContentRoot}
		genOpts = append(genOpts, thumbnail.WithContentResolver(resolver))
	}
	gen := thumbnail.New(genOpts...)

	// Loader session
	session := loader.NewSession(loader.Config{
		CacheDir:   config.CacheDir,
		Capacity:   config.CacheCapacity,
		MaxWidth:   config.ThumbMaxSize,
		MaxHeight:  config.ThumbMaxSize,
		QueueDepth: config.QueueDepth,
	}, gen,
		loader.WithLedger(led, sessionID),
		loader.WithMemoryMonitor(monitor),
	)

	// Crop editor asset resolver
	assetOpts := []crop.ResolverOption{}
	if resolver != nil {
		assetOpts = append(assetOpts, crop.WithContentResolver(resolver))
	}
	assets := crop.NewAssetResolver(filepath.Join(config.CacheDir, "editor-assets"), assetOpts...)

	// Handlers and router
	h := handlers.New(gen, session, assets, session.ThumbDir())
	router := mux.NewRouter()
	h.Register(router)

	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	var handler http.Handler = middleware.Logger(loggingConfig)(router)
	if config.MetricsEnabled {
		handler = middleware.Metrics(middleware.DefaultMetricsConfig())(handler)
	}

	srv := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Metrics server on its own port
	var metricsSrv *http.Server
	if config.MetricsEnabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", promhttp.Handler())
		metricsSrv = &http.Server{
			Addr:        ":" + config.MetricsPort,
			Handler:     metricsMux,
			ReadTimeout: 15 * time.Second,
		}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != http.ErrServerClosed {
				logging.Error("Metrics server error: %v", err)
			}
		}()
	}

	go handleShutdown(srv, metricsSrv, session, monitor)

	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		logging.Fatal("Server error: %v", err)
	}

	// Give the shutdown handler time to finish sweeping
	time.Sleep(100 * time.Millisecond)
}

func handleShutdown(srv, metricsSrv *http.Server, session *loader.Session, monitor *memory.Monitor) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	startup.LogShutdownStep("Closing loader session")
	if err := session.Close(); err != nil {
		logging.Warn("Session close error: %v", err)
	} else {
		startup.LogShutdownStepComplete("Loader session closed, thumbnails swept")
	}

	startup.LogShutdownStep("Stopping memory monitor")
	monitor.Stop()
	startup.LogShutdownStepComplete("Memory monitor stopped")

	startup.LogShutdownStep("Shutting down libvips")
	thumbnail.ShutdownVips()
	startup.LogShutdownStepComplete("libvips shut down")

	if metricsSrv != nil {
		startup.LogShutdownStep("Shutting down metrics server")
		if err := metricsSrv.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		} else {
			startup.LogShutdownStepComplete("Metrics server stopped")
		}
	}

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	startup.LogShutdownComplete()
}
