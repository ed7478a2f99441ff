package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/HerbHall/storefront/internal/config"
	"github.com/HerbHall/storefront/internal/menu"
	"github.com/HerbHall/storefront/internal/plugin"
	"github.com/HerbHall/storefront/internal/server"
	"github.com/HerbHall/storefront/internal/storeapi"
	"github.com/HerbHall/storefront/internal/version"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "menu":
			runMenu(os.Args[2:])
			return
		case "serve":
			os.Args = append(os.Args[:1], os.Args[2:]...)
		}
	}

	configPath := flag.String("config", "", "path to configuration file")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Info())
		return
	}

	v, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(v.GetString("log.level"), v.GetString("log.format"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := serve(v, logger); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

func serve(v *viper.Viper, logger *zap.Logger) error {
	logger.Info("Storefront server starting", zap.String("version", version.Short()))

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	client := newBackendClient(v, logger, storeapi.NewMetrics(reg))

	// Plugins are composed at compile time.
	registry := plugin.NewRegistry(logger)
	plugins := []plugin.Plugin{
		menu.New(client, reg),
	}
	for _, p := range plugins {
		if err := registry.Register(p); err != nil {
			return fmt.Errorf("register plugin: %w", err)
		}
	}

	if err := registry.InitAll(v); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := registry.StartAll(ctx); err != nil {
		return err
	}

	addr := config.Addr(v)
	srv := server.New(addr, registry, reg, logger)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	logger.Info("Storefront server ready", zap.String("addr", addr))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	var serveErr error
	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
	case serveErr = <-errCh:
		logger.Error("server error", zap.Error(serveErr))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.New(v).GetDuration("server.shutdown_timeout"))
	defer shutdownCancel()

	registry.StopAll()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}

	logger.Info("Storefront server stopped")
	return serveErr
}

// newBackendClient builds the REST backend client from the backend.* keys.
func newBackendClient(v *viper.Viper, logger *zap.Logger, m *storeapi.Metrics) *storeapi.Client {
	cfg := config.New(v)
	return storeapi.NewClient(cfg.GetString("backend.base_url"), logger,
		storeapi.WithTimeout(cfg.GetDuration("backend.timeout")),
		storeapi.WithRateLimit(cfg.GetFloat64("backend.rate_limit"), cfg.GetInt("backend.burst")),
		storeapi.WithMetrics(m),
	)
}
