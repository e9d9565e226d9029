package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rendis/triago/internal/api"
	"github.com/rendis/triago/internal/engine"
	"github.com/rendis/triago/internal/logging"
	"github.com/rendis/triago/internal/lookup"
	"github.com/rendis/triago/internal/refdata"
	"github.com/rendis/triago/internal/reply"
	"github.com/rendis/triago/internal/scheduler"
	"github.com/rendis/triago/pkg/mcp"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "triaged:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := loadConfig()

	logger := newLogger(cfg.LogLevel)

	// Reference data is fatal at startup: a missing, unreadable, or
	// invalid file must surface here, not inside request handling.
	registry, err := refdata.NewRegistry(cfg.DataDir)
	if err != nil {
		return err
	}

	tool := lookup.NewTool(registry)
	renderer := reply.NewRenderer(registry)
	searcher := lookup.NewSearcher(tool)
	queryEngine := refdata.NewQueryEngine(registry)

	executor := engine.NewExecutor(registry, tool, renderer, engine.Config{
		GatePolicy: engine.GatePolicy(cfg.GatePolicy),
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.ReloadCron != "" {
		reloadSched, schedErr := scheduler.NewReloadScheduler(registry, cfg.ReloadCron, logger)
		if schedErr != nil {
			return schedErr
		}
		if startErr := reloadSched.Start(ctx); startErr != nil {
			return startErr
		}
		defer reloadSched.Stop()
	}

	if cfg.MCP {
		mcpServer := mcp.NewTriagoServer(mcp.TriagoServerDeps{
			Executor: executor,
			Registry: registry,
			Renderer: renderer,
			Logger:   logger,
		})
		logger.Info("serving MCP tools on stdio")
		return mcpServer.Serve(ctx)
	}

	apiServer := api.NewServer(api.ServerDeps{
		Registry: registry,
		Executor: executor,
		Searcher: searcher,
		Query:    queryEngine,
		Renderer: renderer,
		Logger:   logger,
	})

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: apiServer.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("triaged listening", slog.String("addr", cfg.ListenAddr))
		if serveErr := srv.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			errCh <- serveErr
		}
	}()

	select {
	case <-ctx.Done():
	case serveErr := <-errCh:
		return serveErr
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newLogger builds the process logger with correlation ID injection.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	inner := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	return slog.New(logging.NewCorrelationHandler(inner))
}
