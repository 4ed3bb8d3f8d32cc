package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nulzo/studio-relay/cmd"
	"github.com/nulzo/studio-relay/internal/cli"
	"github.com/nulzo/studio-relay/internal/config"
	"github.com/nulzo/studio-relay/internal/gateway"
	"github.com/nulzo/studio-relay/internal/platform/logger"
	"github.com/nulzo/studio-relay/internal/platform/otel"
	"github.com/nulzo/studio-relay/internal/registry"
	"github.com/nulzo/studio-relay/internal/server"
	"github.com/nulzo/studio-relay/internal/store/cache"
	"github.com/nulzo/studio-relay/internal/store/results"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", cli.CrossMark(), err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	logCfg := logger.DefaultConfig()
	logCfg.Level = cfg.Log.Level
	logCfg.Format = cfg.Log.Format
	logger.Initialize(logCfg)
	defer logger.Sync()
	log := logger.Get()

	fmt.Println(cli.Banner("studio relay " + cmd.AppVersion))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer := otel.ShutdownFunc(otel.Noop)
	if cfg.Tracing.Enabled {
		if shutdownTracer, err = otel.InitTracer(cfg.Tracing.ServiceName, cmd.AppVersion, log, os.Stdout); err != nil {
			return fmt.Errorf("init tracer: %w", err)
		}
	}

	reg, err := registry.FromConfig(cfg)
	if err != nil {
		return fmt.Errorf("model registry: %w", err)
	}
	log.Info("model registry loaded",
		zap.Int("models", reg.Len()),
		zap.String("default", reg.Default().ID),
	)

	c, err := cache.New(ctx, cfg.Cache)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	if c != nil {
		defer func() { _ = c.Close() }()
	}

	service, err := gateway.Build(cfg, reg, nil, c, log)
	if err != nil {
		return err
	}

	srv := server.New(cfg, log, service, results.New(cfg.Results.Path))

	httpServer := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if latest := cmd.CheckForUpdates(ctx, nil); latest != "" {
			logger.Warn(fmt.Sprintf("%s a newer release is available", cli.WarningSign()),
				zap.String("current", cmd.AppVersion),
				zap.String("latest", latest),
			)
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		log.Info(fmt.Sprintf("%s listening on http://localhost:%s", cli.Arrow(), cfg.Server.Port),
			zap.String("static", cfg.Static.Dir),
			zap.Bool("runpod", cfg.RunPodConfigured()),
			zap.Bool("openrouter", cfg.OpenRouterConfigured()),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		log.Info("shutdown signal received, shutting down gracefully")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}
	if err := shutdownTracer(shutdownCtx); err != nil {
		log.Error("tracer shutdown", zap.Error(err))
	}

	log.Info("server exited")
	return nil
}
