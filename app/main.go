package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/lysyi3m/anime-comb/app/anime"
	"github.com/lysyi3m/anime-comb/app/api"
	"github.com/lysyi3m/anime-comb/app/cache"
	"github.com/lysyi3m/anime-comb/app/cfg"
	"github.com/lysyi3m/anime-comb/app/clock"
	"github.com/lysyi3m/anime-comb/app/lookup"
	"github.com/lysyi3m/anime-comb/app/mal"
	"github.com/lysyi3m/anime-comb/app/ratelimit"
	"github.com/lysyi3m/anime-comb/app/shinden"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown
		return
	}

	if logFile := setupLogging(appCfg); logFile != nil {
		defer logFile.Close()
	}

	slog.Info("Starting Anime Comb server", "version", appCfg.Version, "debug", appCfg.Debug)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	tuning := appCfg.Tuning
	clk := clock.Real{}
	httpClient := &http.Client{Timeout: appCfg.HTTPTimeout}

	malClient, err := mal.NewClient(appCfg.MALBaseURL, appCfg.MALClientID, httpClient)
	if err != nil {
		slog.Error("Failed to create MAL client", "error", err)
		os.Exit(1)
	}

	shindenClient, err := shinden.NewClient(appCfg.ShindenBaseURL, httpClient, appCfg.UserAgent)
	if err != nil {
		slog.Error("Failed to create shinden client", "error", err)
		os.Exit(1)
	}

	limiter := ratelimit.NewLimiter(tuning.RateLimit.Capacity, tuning.RateLimit.RefillInterval, tuning.RateLimit.MaxWait, clk)
	titleCache := cache.NewTitleCache(tuning.Cache.TTL, clk)
	if tuning.Cache.SweepInterval > 0 {
		go titleCache.RunSweeper(ctx, tuning.Cache.SweepInterval)
		slog.Info("Cache sweeper started", "interval", tuning.Cache.SweepInterval)
	}

	retryPolicy := lookup.NewRetryPolicy(tuning.Retry.MaxAttempts, tuning.Retry.BaseDelay, limiter, clk)
	secondary := lookup.New(shindenClient, titleCache, retryPolicy, clk, lookup.Config{
		JitterMin:  tuning.Lookup.JitterMin,
		JitterMax:  tuning.Lookup.JitterMax,
		BatchSize:  tuning.Lookup.BatchSize,
		BatchPause: tuning.Lookup.BatchPause,
	})

	service := anime.NewService(malClient, secondary, anime.ServiceConfig{
		SearchLimit:    tuning.Limits.SearchLimit,
		RandomCount:    tuning.Limits.RandomCount,
		RandomMaxCount: tuning.Limits.RandomMaxCount,
		RandomPoolSize: tuning.Limits.RandomPoolSize,
		TopLimit:       tuning.Limits.TopLimit,
		TopMaxLimit:    tuning.Limits.TopMaxLimit,
		TopRankSize:    tuning.Limits.TopRankSize,
		SeasonLimit:    tuning.Limits.SeasonLimit,
	})

	apiHandler := api.NewHandler(service, titleCache, limiter, appCfg.Version)
	server := api.NewServer(apiHandler, api.ServerOptions{
		APIAccessKey: appCfg.APIAccessKey,
		PublicDir:    appCfg.PublicDir,
	})

	// Lookups keep running after the client goes away, so writes may take
	// several batch cycles.
	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port, "public_dir", appCfg.PublicDir)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig)
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down server gracefully")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}

	slog.Info("Anime Comb server shutdown complete", "cached_titles", titleCache.Len())
}

// setupLogging installs the default slog logger and points gin's access log
// at the same output. With a log file configured, output is duplicated into a
// rotating file, which is returned for closing.
func setupLogging(appCfg *cfg.Cfg) *lumberjack.Logger {
	level := slog.LevelInfo
	if appCfg.Debug {
		level = slog.LevelDebug
	}

	var out io.Writer = os.Stdout
	var rotating *lumberjack.Logger
	if appCfg.LogFile != "" {
		rotating = &lumberjack.Logger{
			Filename:   appCfg.LogFile,
			MaxSize:    50, // megabytes
			MaxBackups: 5,
			MaxAge:     28, // days
			Compress:   true,
		}
		out = io.MultiWriter(os.Stdout, rotating)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})))
	gin.DefaultWriter = out
	gin.DefaultErrorWriter = out

	return rotating
}
