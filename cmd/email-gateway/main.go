// Package main is the entry point for the email gateway server.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shineum/email-gateway/internal/api"
	"github.com/shineum/email-gateway/internal/config"
	"github.com/shineum/email-gateway/internal/dispatch"
	"github.com/shineum/email-gateway/internal/provider"
	"github.com/shineum/email-gateway/internal/provider/elasticemail"
	"github.com/shineum/email-gateway/internal/provider/mailgun"
	"github.com/shineum/email-gateway/internal/provider/sendgrid"
	"github.com/shineum/email-gateway/internal/routing"
)

// transportTimeout bounds each provider API call. The dispatch layer
// itself imposes no timeout; a slow provider is a transport failure.
const transportTimeout = 30 * time.Second

func main() {
	configPath := flag.String("config", "", "path to YAML configuration file (optional)")
	flag.Parse()

	// Load configuration
	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging
	setupLogger(cfg.Logging.Level)

	// Register known provider types. Registration order is the default
	// candidate order when a request names no route.
	registry := provider.NewRegistry()
	register := func(nickname string, factory provider.Factory) {
		if err := registry.Register(nickname, factory); err != nil {
			slog.Error("failed to register provider", "provider", nickname, "error", err)
			os.Exit(1)
		}
	}
	register(sendgrid.Nickname, sendgrid.New)
	register(mailgun.Nickname, mailgun.New)
	register(elasticemail.Nickname, elasticemail.New)

	// A registered provider without credentials, or a route referencing
	// an unknown nickname, means no request is ever served.
	if err := cfg.Validate(registry.Nicknames()); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	table, err := routing.NewTable(cfg.Routes, registry)
	if err != nil {
		slog.Error("invalid routing configuration", "error", err)
		os.Exit(1)
	}

	creds := make(map[string]provider.Credentials, len(cfg.Providers))
	for nickname, cred := range cfg.Providers {
		creds[nickname] = provider.Credentials{User: cred.User, Key: cred.Key}
	}

	orchestrator := dispatch.NewOrchestrator(
		routing.NewResolver(table, registry),
		dispatch.HTTPTransport(&http.Client{Timeout: transportTimeout}),
		creds,
		slog.Default(),
	)

	server := api.New(api.ServerConfig{
		ListenAddr:  cfg.Listen,
		DefaultFrom: cfg.DefaultFrom,
		Sender:      orchestrator,
	})

	slog.Info("starting email-gateway",
		"listen", cfg.Listen,
		"providers", registry.Nicknames(),
		"routes", len(cfg.Routes),
	)

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		sig := <-sigCh
		slog.Info("received signal, initiating shutdown", "signal", sig)
		cancel()
	}()

	// Start the server (blocks until context is cancelled)
	if err := server.ListenAndServe(ctx); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("email-gateway stopped")
}

// loadConfig loads configuration from the specified path (YAML + env
// override) or from environment variables only if no path is given.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

// setupLogger configures the global slog logger with JSON output and the
// specified log level.
func setupLogger(level string) {
	var logLevel slog.Level

	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}
