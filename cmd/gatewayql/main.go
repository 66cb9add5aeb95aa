// Package main implements the entry point for the GatewayQL plugin engine.
// GatewayQL loads a build-time table of plugins (optionally supplemented by
// shared-object plugins on disk), wires their policies, conditions, routes,
// and GraphQL hooks into one gateway instance, and serves the plugin routes
// over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/gatewayql/gatewayql/config"
	"github.com/gatewayql/gatewayql/gateway"
	"github.com/gatewayql/gatewayql/metric"
	"github.com/gatewayql/gatewayql/plugin"
)

// Build information constants
const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "gatewayql"
)

// builtins is the build-time plugin registration table. Plugins compiled
// into this binary add their manifests here via registerBuiltin calls in
// their own init functions or in generated wiring.
var builtins = plugin.Table{}

func registerBuiltin(pkg string, manifest *plugin.Manifest) {
	if err := builtins.Add(pkg, manifest); err != nil {
		panic(fmt.Sprintf("duplicate builtin plugin %q: %v", pkg, err))
	}
}

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(); err != nil {
		slog.Error("Application failed", "error", err, "exit_code", 1)
		os.Exit(1)
	}
}

func run() error {
	cliCfg, logger, shouldExit, err := initializeCLI()
	if shouldExit || err != nil {
		return err
	}

	cfg, err := config.Load(cliCfg.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if cliCfg.Validate {
		slog.Info("Configuration is valid", "plugins", len(cfg.Plugins))
		return nil
	}

	metrics := metric.NewEngine()
	resolver := buildResolver(cliCfg)

	gw, err := gateway.New(cfg, resolver, logger, metrics)
	if err != nil {
		return fmt.Errorf("create gateway: %w", err)
	}

	ctx := context.Background()
	if err := gw.Boot(ctx); err != nil {
		return fmt.Errorf("boot plugins: %w", err)
	}

	return serve(ctx, cfg, gw, metrics, cliCfg.ShutdownTimeout)
}

// initializeCLI parses flags and sets up logging
func initializeCLI() (*CLIConfig, *slog.Logger, bool, error) {
	cliCfg := parseFlags()
	if err := validateFlags(cliCfg); err != nil {
		return nil, nil, false, fmt.Errorf("invalid flags: %w", err)
	}

	if cliCfg.ShowVersion {
		fmt.Printf("%s version %s\n", appName, Version)
		return nil, nil, true, nil
	}

	if cliCfg.ShowHelp {
		printDetailedHelp()
		return nil, nil, true, nil
	}

	logger := setupLogger(cliCfg.LogLevel, cliCfg.LogFormat)
	slog.SetDefault(logger)

	slog.Info("Starting GatewayQL plugin engine",
		"version", Version,
		"build_time", BuildTime,
		"config_path", cliCfg.ConfigPath)

	return cliCfg, logger, false, nil
}

// buildResolver composes the build-time table with an optional
// shared-object resolver when a plugin directory is configured.
func buildResolver(cliCfg *CLIConfig) plugin.Resolver {
	if cliCfg.PluginDir == "" {
		return builtins
	}
	return plugin.ChainResolver{
		builtins,
		&plugin.SharedObjectResolver{Dir: cliCfg.PluginDir},
	}
}

// serve mounts the plugin routes and the metrics endpoint and blocks until
// a shutdown signal arrives.
func serve(ctx context.Context, cfg *config.Config, gw *gateway.Gateway, metrics *metric.Engine, shutdownTimeout time.Duration) error {
	mux := http.NewServeMux()
	mux.Handle(cfg.MountPath+"/", gw.Handler())
	mux.Handle(cfg.MetricsPath, metrics.Handler())

	server := &http.Server{
		Addr:              cfg.Listen,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	signalCtx, signalCancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer signalCancel()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", cfg.Listen, "mount_path", cfg.MountPath)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-signalCtx.Done():
	}

	slog.Info("Shutdown signal received", "timeout", shutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	slog.Info("Shutdown complete")
	return nil
}
