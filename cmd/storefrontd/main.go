// storefrontd serves the storefront intent API: a REST surface and an MCP
// endpoint over one shared cart/checkout client stack.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront-client/internal/api"
	"storefront-client/internal/cart"
	"storefront-client/internal/checkout"
	"storefront-client/internal/config"
	"storefront-client/internal/dispatch"
	"storefront-client/internal/handler"
	"storefront-client/internal/middleware"
	"storefront-client/internal/session"
	"storefront-client/internal/token"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger := initLogger()

	ctx := context.Background()
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger.Info("configuration loaded",
		slog.String("store_id", cfg.StoreID),
		slog.String("environment", cfg.Environment),
		slog.String("backend", cfg.Store.BackendURL),
		slog.Bool("browser_tls", cfg.Store.BrowserTLS),
	)

	d, client, err := buildDispatcher(cfg, logger)
	if err != nil {
		return err
	}

	// Best-effort: learn the backend's refresh route before traffic starts.
	probeCtx, cancelProbe := context.WithTimeout(ctx, 5*time.Second)
	client.Probe(probeCtx)
	cancelProbe()

	mux := http.NewServeMux()
	handler.New(d, logger).RegisterRoutes(mux)

	httpHandler := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logging(logger),
	)(mux)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      httpHandler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", slog.String("addr", server.Addr))
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
	case sig := <-shutdown:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			server.Close()
			return fmt.Errorf("shutdown error: %w", err)
		}
	}

	logger.Info("server stopped")
	return nil
}

// buildDispatcher assembles the full client stack from configuration.
func buildDispatcher(cfg *config.Config, logger *slog.Logger) (*dispatch.Dispatcher, *api.Client, error) {
	tokens, err := token.NewStore(cfg.Store.DataDir)
	if err != nil {
		return nil, nil, fmt.Errorf("opening token store: %w", err)
	}

	client, err := api.New(api.Config{
		BaseURL:    cfg.Store.BackendURL,
		Tokens:     tokens,
		BrowserTLS: cfg.Store.BrowserTLS,
		Timeout:    cfg.Store.Timeout(),
		Logger:     logger,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("creating api client: %w", err)
	}

	state, err := session.NewStore(cfg.Store.DataDir)
	if err != nil {
		return nil, nil, fmt.Errorf("opening session store: %w", err)
	}

	rec := cart.NewReconciler(client, state, logger)
	bridge := session.NewBridge(client, logger)

	// Server embedding has no browser to redirect; navigation targets are
	// logged and surfaced to the caller through the intent result.
	nav := checkout.NavigatorFunc(func(url string) error {
		logger.Info("navigation target", slog.String("url", url))
		return nil
	})

	orch := checkout.New(client, bridge, rec, state, nav, logger)
	orch.LoginURL = cfg.Store.LoginURL

	return dispatch.New(client, rec, orch, state, logger), client, nil
}

// initLogger builds the process logger. JSON in production for Cloud
// Logging, text locally.
func initLogger() *slog.Logger {
	level := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	if os.Getenv("ENVIRONMENT") == "production" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
