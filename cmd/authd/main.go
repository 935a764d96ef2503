// Package main is the entry point for the authorization service.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ayoubagrebi062-hue/olympus-2.0/internal/config"
	"github.com/ayoubagrebi062-hue/olympus-2.0/internal/observability"
	"github.com/ayoubagrebi062-hue/olympus-2.0/internal/server"
)

// Version information (set at build time).
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

// cliFlags holds command line flags.
type cliFlags struct {
	configPath  string
	logLevel    string
	logFormat   string
	showVersion bool
}

func main() {
	flags := parseFlags()

	if flags.showVersion {
		printVersion()
		return
	}

	logger := initLogger(flags)
	defer func() { _ = logger.Sync() }()

	cfg := loadAndValidateConfig(flags.configPath, logger)
	srv, tracer := initServer(cfg, logger)

	run(srv, tracer, flags.configPath, cfg, logger)
}

// parseFlags parses command line flags.
func parseFlags() cliFlags {
	configPath := flag.String("config", getEnvOrDefault("AUTHD_CONFIG_PATH", "configs/authd.yaml"),
		"Path to configuration file")
	logLevel := flag.String("log-level", getEnvOrDefault("AUTHD_LOG_LEVEL", "info"),
		"Log level (debug, info, warn, error)")
	logFormat := flag.String("log-format", getEnvOrDefault("AUTHD_LOG_FORMAT", "json"),
		"Log format (json, console)")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	return cliFlags{
		configPath:  *configPath,
		logLevel:    *logLevel,
		logFormat:   *logFormat,
		showVersion: *showVersion,
	}
}

// printVersion prints version information and exits.
func printVersion() {
	fmt.Printf("authd version %s\n", version)
	fmt.Printf("  Build time: %s\n", buildTime)
	fmt.Printf("  Git commit: %s\n", gitCommit)
}

// initLogger initializes the logger.
func initLogger(flags cliFlags) observability.Logger {
	logger, err := observability.NewLogger(observability.LogConfig{
		Level:  flags.logLevel,
		Format: flags.logFormat,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	observability.SetGlobalLogger(logger)
	return logger
}

// loadAndValidateConfig loads and validates the configuration.
func loadAndValidateConfig(configPath string, logger observability.Logger) *config.Config {
	logger.Info("starting authd",
		observability.String("version", version),
		observability.String("config", configPath),
	)

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Fatal("failed to load configuration", observability.Error(err))
	}

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", observability.Error(err))
	}

	if len(cfg.Auth.Secret()) == 0 {
		logger.Warn("signing secret is not configured, all token verification will fail",
			observability.String("env", cfg.Auth.SecretEnv),
		)
	}

	return cfg
}

// initServer builds the server and tracer.
func initServer(cfg *config.Config, logger observability.Logger) (*server.Server, *observability.Tracer) {
	tracer := initTracer(cfg, logger)

	srv, err := server.New(cfg,
		server.WithServerLogger(logger),
		server.WithServerTracer(tracer),
		server.WithVersion(version),
	)
	if err != nil {
		logger.Fatal("failed to create server", observability.Error(err))
	}

	return srv, tracer
}

// initTracer initializes the tracer.
func initTracer(cfg *config.Config, logger observability.Logger) *observability.Tracer {
	tracerCfg := observability.TracerConfig{
		ServiceName:  "authd",
		Enabled:      false,
		SamplingRate: 1.0,
	}

	if cfg.Tracing != nil {
		tracerCfg = *cfg.Tracing
		if tracerCfg.ServiceName == "" {
			tracerCfg.ServiceName = "authd"
		}
	}

	tracer, err := observability.NewTracer(tracerCfg)
	if err != nil {
		logger.Fatal("failed to initialize tracer", observability.Error(err))
	}

	return tracer
}

// run starts the server and blocks until shutdown.
func run(
	srv *server.Server,
	tracer *observability.Tracer,
	configPath string,
	cfg *config.Config,
	logger observability.Logger,
) {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	watcher := startConfigWatcher(srv, configPath, logger)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", observability.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", observability.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if watcher != nil {
		_ = watcher.Stop()
	}

	if err := srv.Stop(shutdownCtx); err != nil {
		logger.Error("failed to stop server gracefully", observability.Error(err))
	}

	if err := tracer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown tracer", observability.Error(err))
	}

	logger.Info("authd stopped")
}

// startConfigWatcher starts the configuration watcher for rate limit
// profile hot reload.
func startConfigWatcher(srv *server.Server, configPath string, logger observability.Logger) *config.Watcher {
	watcher, err := config.NewWatcher(configPath, func(newCfg *config.Config) {
		logger.Info("configuration changed, applying rate limit profiles")
		srv.ApplyRateLimits(newCfg.RateLimit)
	}, config.WithWatcherLogger(logger))

	if err != nil {
		logger.Warn("failed to create config watcher", observability.Error(err))
		return nil
	}

	if err := watcher.Start(context.Background()); err != nil {
		logger.Warn("failed to start config watcher", observability.Error(err))
	}

	return watcher
}

// getEnvOrDefault returns the environment variable value or a default.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
