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

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/searchd/internal/metrics"
	"github.com/kailas-cloud/searchd/internal/repository/segment"
	chiTransport "github.com/kailas-cloud/searchd/internal/transport/chi"
	healthuc "github.com/kailas-cloud/searchd/internal/usecase/health"
	"github.com/kailas-cloud/searchd/internal/usecase/optimize"
	sqluc "github.com/kailas-cloud/searchd/internal/usecase/sql"
	"github.com/kailas-cloud/searchd/internal/version"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP query endpoint",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, env, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger(env, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting searchd",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("data_dir", cfg.Optimize.DataDir),
		zap.Stringer("access", cfg.Access()),
	)

	metrics.Register()

	registry, err := segment.OpenDir(cfg.Optimize.DataDir, segment.Options{
		Access:        cfg.Access(),
		FactoryBuffer: cfg.Reader.DocsBuffer,
		ReaderBuffer:  cfg.Reader.ReadBuffer,
		Profiler:      metrics.Profiler{},
		Logger:        logger,
	})
	if err != nil {
		return fmt.Errorf("open indexes: %w", err)
	}
	defer func() {
		if err := registry.Close(); err != nil {
			logger.Warn("close indexes", zap.Error(err))
		}
	}()
	logger.Info("Indexes loaded", zap.Strings("indexes", registry.Names()))

	scheduler := optimize.New(func(name string) (optimize.Index, bool) {
		idx, ok := registry.Get(name)
		if !ok {
			return nil, false
		}
		return idx, true
	}, cfg.Optimize.Workers, cfg.Optimize.QueueSize, logger)

	maintenance := healthuc.NewMaintenance(cfg.Maintenance.Enabled)
	healthSvc := healthuc.New(healthuc.DirChecker(cfg.Optimize.DataDir), scheduler, maintenance)
	sqlSvc := sqluc.New(newParser(cfg), scheduler, nil)

	server := chiTransport.NewServer(sqlSvc, healthSvc, cfg.HTTP.MaxBodyBytes, logger)
	router := chiTransport.NewRouter(server, chiTransport.RouterConfig{
		Maintenance:        maintenance,
		MaintenanceMessage: cfg.Maintenance.Message,
		Logger:             logger,
	})

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-quit:
		logger.Info("Received shutdown signal")
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}
	if err := scheduler.Close(shutdownCtx); err != nil {
		logger.Warn("optimize tasks interrupted", zap.Error(err))
	}

	logger.Info("Server stopped")
	return nil
}
