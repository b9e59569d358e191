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

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/esdex"
	"github.com/kailas-cloud/esdex/internal/config"
	logpkg "github.com/kailas-cloud/esdex/internal/logger"
	"github.com/kailas-cloud/esdex/internal/metrics"
	chiTransport "github.com/kailas-cloud/esdex/internal/transport/chi"
	"github.com/kailas-cloud/esdex/internal/version"
)

// readyWaiter is implemented by engine handles that can poll for readiness.
type readyWaiter interface {
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

func main() {
	fs := flag.NewFlagSet("esdex", flag.ExitOnError)
	env := fs.String("env", config.GetEnv(), "environment name, selects config/<env>.yaml")
	configPath := fs.String("config", "", "explicit config file path (overrides --env lookup)")
	showVersion := fs.Bool("version", false, "print version and exit")
	_ = fs.Parse(os.Args[1:])

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	if err := run(*env, *configPath); err != nil {
		fmt.Fprintln(os.Stderr, "esdex:", err)
		os.Exit(1)
	}
}

func run(env, configPath string) error {
	var (
		cfg config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load(env)
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting esdex gateway",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("engine_url", cfg.Engine.URL),
		zap.Bool("auth", len(cfg.Auth.APIKeys) > 0),
		zap.Float64("rate_limit_rps", cfg.RateLimit.RPS),
	)

	conn := esdex.NewConnection(nil)
	if err := conn.Configure(esdex.Config{
		URL:       cfg.Engine.URL,
		KeepAlive: cfg.Engine.KeepAlive,
		LogBodies: cfg.Engine.LogBodies,
		Logger:    logpkg.Engine(logger, cfg.Engine.LogRequests),
	}); err != nil {
		return err
	}
	client, err := esdex.New(conn,
		esdex.WithLogger(logger.Named("sdk")),
		esdex.WithPrometheus(prometheus.DefaultRegisterer),
	)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	readiness := time.Duration(cfg.Engine.ReadinessTimeout) * time.Second
	if err := waitForEngine(ctx, conn, readiness); err != nil {
		return fmt.Errorf("engine not ready: %w", err)
	}
	logger.Info("Engine is ready", zap.String("url", cfg.Engine.URL))

	httpMetrics := metrics.New(prometheus.DefaultRegisterer)
	server := chiTransport.NewServer(client, logger, chiTransport.WithMaxBodyBytes(cfg.HTTP.MaxBodyBytes))

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiTransport.AccessLogMiddleware(logger))
	r.Use(chiTransport.RecoverMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(chiTransport.RateLimitMiddleware(
		chiTransport.NewLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst),
		httpMetrics.RateLimited,
	))
	r.Use(httpMetrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadTimeout:       time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		ReadHeaderTimeout: time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Received shutdown signal")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server stopped with error", zap.Error(err))
		return err
	}
	logger.Info("Server stopped gracefully")
	return nil
}

// waitForEngine blocks until the configured engine answers a ping.
func waitForEngine(ctx context.Context, conn *esdex.Connection, timeout time.Duration) error {
	h, err := conn.Handle()
	if err != nil {
		return err
	}
	if w, ok := h.(readyWaiter); ok {
		return w.WaitForReady(ctx, timeout)
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return h.Ping(ctx)
}
