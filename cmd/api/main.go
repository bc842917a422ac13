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

	"github.com/NowakArtur97/Personal-Kanban-Board-Backend/app"
	"github.com/NowakArtur97/Personal-Kanban-Board-Backend/config"
	"github.com/NowakArtur97/Personal-Kanban-Board-Backend/handlers"
	"github.com/NowakArtur97/Personal-Kanban-Board-Backend/internal/observability"
	"github.com/NowakArtur97/Personal-Kanban-Board-Backend/routes"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "kanban api: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) (err error) {
	cfg, err := config.New(ctx)
	if err != nil {
		return err
	}

	logger, err := observability.NewLogger(cfg.Observability)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	tracing, err := observability.NewTracing(ctx, cfg.Observability, handlers.Version, os.Stdout)
	if err != nil {
		return err
	}

	logger.Info("starting kanban api",
		zap.String("version", handlers.Version),
		zap.String("environment", cfg.Environment),
		zap.String("database", cfg.Database.LogString()),
		zap.Bool("tracing", tracing.Enabled()))

	deps, err := app.NewDependencies(ctx, cfg, logger, app.WithTracer(tracing.Tracer()))
	if err != nil {
		return errors.Join(err, tracing.Shutdown(context.Background()))
	}

	var workers []func(context.Context)
	if deps.LoginLimiter != nil {
		workers = append(workers, func(ctx context.Context) {
			deps.LoginLimiter.StartCleanupWorker(ctx, cfg.Login.CleanupInterval, cfg.Login.AttemptRetention)
		})
	}

	srv := newHTTPServer(cfg.Server, routes.SetupRoutes(deps))
	err = serve(ctx, srv, cfg.Server.ShutdownTimeout, logger, workers...)

	// Flush spans and release the pool even when the listener failed
	closeCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	err = errors.Join(err, tracing.Shutdown(closeCtx), deps.Close(closeCtx))

	logger.Info("kanban api stopped")
	return err
}

func newHTTPServer(cfg config.ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Address(),
		Handler:           handler,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.WriteTimeout,
	}
}

// serve runs srv and the background workers until ctx is cancelled, then
// drains in-flight requests for at most shutdownTimeout. Workers must return
// once their context is done.
func serve(ctx context.Context, srv *http.Server, shutdownTimeout time.Duration, logger *zap.Logger, workers ...func(context.Context)) error {
	g, gctx := errgroup.WithContext(ctx)

	for _, worker := range workers {
		worker := worker
		g.Go(func() error {
			worker(gctx)
			return nil
		})
	}

	g.Go(func() error {
		logger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}
