package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/thushan/warden/internal/app"
	"github.com/thushan/warden/internal/config"
	"github.com/thushan/warden/internal/logger"
	"github.com/thushan/warden/internal/version"
	"github.com/thushan/warden/pkg/format"
	"github.com/thushan/warden/pkg/nerdstats"
	"github.com/thushan/warden/pkg/profiler"
)

func main() {
	// a missing .env is normal, only a broken one is worth mentioning
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Ignoring .env: %v\n", err)
	}

	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

type serveOptions struct {
	configFile   string
	pprofAddress string
}

func runServe(opts serveOptions) error {
	startTime := time.Now()
	version.PrintVersionInfo(false, log.New(log.Writer(), "", 0))

	if opts.configFile != "" {
		if err := os.Setenv(config.EnvConfigFile, opts.configFile); err != nil {
			return err
		}
	}

	// the app does not exist until the config has loaded, so reloads that
	// land before then are dropped
	var running atomic.Pointer[app.Application]
	cfg, err := config.Load(func(c *config.Config, err error) {
		if a := running.Load(); a != nil {
			a.Reload(c, err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logInstance, styledLogger, cleanup, err := logger.NewWithTheme(buildLoggerConfig(cfg.Logging))
	if err != nil {
		return fmt.Errorf("failed to initialise logger: %w", err)
	}
	defer cleanup()

	slog.SetDefault(logInstance)
	styledLogger.Info("Initialising", "version", version.Version, "pid", os.Getpid())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if opts.pprofAddress != "" {
		pprofServer := profiler.NewServer(opts.pprofAddress)
		go func() {
			styledLogger.Warn("Profiling endpoints enabled", "address", opts.pprofAddress)
			if err := pprofServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				styledLogger.Error("Profiling server failed", "error", err)
			}
		}()
		defer pprofServer.Close()
	}

	application, err := app.New(cfg, startTime, styledLogger)
	if err != nil {
		logger.FatalWithLogger(logInstance, "Failed to create application", "error", err)
	}

	if err := application.Start(ctx); err != nil {
		logger.FatalWithLogger(logInstance, "Failed to start application", "error", err)
	}
	running.Store(application)

	select {
	case <-ctx.Done():
		styledLogger.Info("Shutdown signal received")
	case err := <-application.Err():
		styledLogger.Error("Listener failed, shutting down", "error", err)
	}
	running.Store(nil)

	if err := application.Stop(context.Background()); err != nil {
		styledLogger.Error("Error during shutdown", "error", err)
	}

	reportProcessStats(styledLogger, startTime)

	styledLogger.Info("Warden has shutdown")
	return nil
}

func reportProcessStats(logger logger.StyledLogger, startTime time.Time) {
	runtime.GC()

	stats := nerdstats.Snapshot(startTime)

	logger.Info("Process Memory Stats",
		"heap_alloc", format.Bytes(stats.HeapAlloc),
		"heap_sys", format.Bytes(stats.HeapSys),
		"heap_inuse", format.Bytes(stats.HeapInuse),
		"heap_released", format.Bytes(stats.HeapReleased),
		"stack_inuse", format.Bytes(stats.StackInuse),
		"total_alloc", format.Bytes(stats.TotalAlloc),
		"memory_pressure", stats.GetMemoryPressure(),
	)

	if stats.NumGC > 0 {
		logger.Info("Garbage Collection Stats",
			"num_gc_cycles", stats.NumGC,
			"last_gc", stats.LastGC.Format(time.RFC3339),
			"total_gc_time", format.Duration(stats.TotalGCTime),
			"avg_gc_pause", stats.AverageGCPause(),
			"gc_cpu_fraction", fmt.Sprintf("%.4f%%", stats.GCCPUFraction*100),
		)
	}

	logger.Info("Runtime Stats",
		"uptime", format.Duration(stats.Uptime),
		"goroutines", stats.NumGoroutines,
		"go_version", stats.GoVersion,
		"num_cpu", stats.NumCPU,
		"gomaxprocs", stats.GOMAXPROCS,
	)

	if buildInfo := stats.GetBuildInfoSummary(); len(buildInfo) > 0 {
		var buildArgs []any
		for key, value := range buildInfo {
			buildArgs = append(buildArgs, key, value)
		}
		logger.Info("Build Info", buildArgs...)
	}
}

func buildLoggerConfig(cfg config.LoggingConfig) *logger.Config {
	return &logger.Config{
		Level:      cfg.Level,
		FileOutput: cfg.FileOutput,
		LogDir:     cfg.LogDir,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Theme:      cfg.Theme,
	}
}
