package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mflix/httpserver"
	"mflix/movie"
	"mflix/pkg/config"
	"mflix/pkg/otel"
	"mflix/pkg/sentry"
	"mflix/pkg/store"

	sentrygo "github.com/getsentry/sentry-go"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Cannot load config", "error", err)
		os.Exit(1)
	}

	err = sentrygo.Init(sentrygo.ClientOptions{
		Dsn:              cfg.SentryDSN,
		Environment:      cfg.AppEnv,
		AttachStacktrace: true,
	})
	if err != nil {
		slog.Error("Cannot init sentry", "error", err)
		os.Exit(1)
	}
	defer sentrygo.Flush(sentry.FlushTime)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := otel.SetupTracer(ctx, cfg.Otel.ServiceName, cfg.Otel.Endpoint)
	if err != nil {
		slog.Error("Cannot init tracer", "error", err)
		os.Exit(1)
	}

	repo, closeStore, err := store.Open(ctx, cfg, logger)
	if err != nil {
		slog.Error("Cannot open movie store", "driver", cfg.StoreDriver, "error", err)
		os.Exit(1)
	}

	server, err := httpserver.New(
		httpserver.WithConfig(cfg),
		httpserver.WithLogger(logger),
		httpserver.WithMovieService(movie.NewUsecase(repo)),
	)
	if err != nil {
		slog.Error("Cannot create server", "error", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              server.Addr,
		Handler:           otelhttp.NewHandler(server, cfg.Otel.ServiceName),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("server started!", "addr", srv.Addr, "store", cfg.StoreDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server stopped with error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown failed", "error", err)
	}
	if err := closeStore(shutdownCtx); err != nil {
		slog.Error("store close failed", "error", err)
	}
	if err := shutdownTracer(shutdownCtx); err != nil {
		slog.Error("tracer shutdown failed", "error", err)
	}
}
