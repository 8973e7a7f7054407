package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/yndnr/chatmesh-go/internal/core/capability"
	"github.com/yndnr/chatmesh-go/internal/core/capability/sim"
	"github.com/yndnr/chatmesh-go/internal/core/service"
	"github.com/yndnr/chatmesh-go/internal/credstore"
	"github.com/yndnr/chatmesh-go/internal/infra/confloader"
	"github.com/yndnr/chatmesh-go/internal/infra/shutdown"
	"github.com/yndnr/chatmesh-go/internal/server/config"
	"github.com/yndnr/chatmesh-go/internal/server/httpserver"
	"github.com/yndnr/chatmesh-go/internal/telemetry/logger"
	"github.com/yndnr/chatmesh-go/internal/telemetry/metric"
)

// Build information, set via ldflags.
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configFile  = flag.String("config", "", "Path to configuration file")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("chatmesh-server %s (commit: %s, built: %s)\n", version, commit, buildTime)
		return nil
	}

	cfg, err := loadConfig(*configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})
	slog.SetDefault(log)

	log.Info("starting chatmesh-server",
		"version", version,
		"commit", commit,
		"config", *configFile)

	store, err := initCredstore(cfg, log)
	if err != nil {
		return fmt.Errorf("init credstore: %w", err)
	}

	metrics := metric.New()

	services, err := initServices(cfg, store, log, metrics)
	if err != nil {
		return fmt.Errorf("init services: %w", err)
	}
	metrics.MustRegister(metric.NewSessionCollector(services.Registry))

	ctx := context.Background()
	if cfg.Session.RestoreOnStart {
		if err := services.Lifecycle.RestoreAll(ctx); err != nil {
			return fmt.Errorf("session restore: %w", err)
		}
	}

	services.Sweeper.Start()

	router := httpserver.NewRouter(httpserver.RouterConfig{
		Lifecycle:        services.Lifecycle,
		Status:           services.Status,
		Issuer:           services.Issuer,
		Credentials:      services.Credentials,
		Metrics:          metrics,
		Logger:           log,
		CodeWaitTimeout:  cfg.Capability.CodeWaitTimeout,
		RateLimitEnabled: cfg.RateLimit.Enabled,
		RateLimitRPS:     cfg.RateLimit.RPS,
		RateLimitBurst:   cfg.RateLimit.Burst,
		MetricsEnabled:   cfg.Metrics.Enabled,
	})

	httpServer := httpserver.New(cfg.Server.HTTP.Addr, router, httpserver.Options{
		ReadTimeout:  cfg.Server.HTTP.ReadTimeout,
		WriteTimeout: cfg.Server.HTTP.WriteTimeout,
	})

	shutdownHandler := shutdown.NewHandler(cfg.Server.HTTP.ShutdownTimeout)

	// Hooks run in reverse registration order.
	shutdownHandler.OnShutdown(func(ctx context.Context) error {
		log.Info("tearing down sessions")
		return services.Lifecycle.Shutdown(ctx)
	})
	shutdownHandler.OnShutdown(func(ctx context.Context) error {
		services.Sweeper.Stop()
		return nil
	})
	shutdownHandler.OnShutdown(func(ctx context.Context) error {
		log.Info("shutting down HTTP server")
		return httpServer.Shutdown(ctx)
	})

	if *configFile != "" {
		watcher, err := watchConfig(*configFile, log)
		if err != nil {
			log.Warn("config watch unavailable", "error", err)
		} else {
			shutdownHandler.OnShutdown(func(ctx context.Context) error {
				return watcher.Stop()
			})
		}
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", "addr", cfg.Server.HTTP.Addr)

		var err error
		if cfg.Server.HTTP.TLSCertFile != "" && cfg.Server.HTTP.TLSKeyFile != "" {
			err = httpServer.ListenAndServeTLS(cfg.Server.HTTP.TLSCertFile, cfg.Server.HTTP.TLSKeyFile)
		} else {
			err = httpServer.ListenAndServe()
		}

		if err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
	}()

	sigErr := make(chan error, 1)
	go func() { sigErr <- shutdownHandler.Wait() }()

	log.Info("server started, press Ctrl+C to stop")

	select {
	case err := <-serveErr:
		// Failing to serve is fatal; tear down whatever already started.
		log.Error("HTTP server failed", "error", err)
		shutdownHandler.Trigger()
		return fmt.Errorf("http server: %w", err)
	case err := <-sigErr:
		if err != nil {
			log.Error("shutdown error", "error", err)
			return err
		}
	}

	log.Info("server stopped gracefully")
	return nil
}

// loadConfig loads configuration from file and environment.
func loadConfig(configFile string) (*config.ServerConfig, error) {
	cfg := config.Default()

	opts := []confloader.Option{}
	if configFile != "" {
		opts = append(opts, confloader.WithConfigFile(configFile))
	}

	loader := confloader.NewLoader(opts...)
	if err := loader.Load(cfg); err != nil {
		return nil, err
	}

	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// initCredstore opens the encrypted identity store.
func initCredstore(cfg *config.ServerConfig, log *slog.Logger) (*credstore.Store, error) {
	opts := credstore.Options{Dir: cfg.Credstore.Dir}
	if cfg.Credstore.Passphrase != "" {
		opts.Passphrase = []byte(cfg.Credstore.Passphrase)
	}
	if cfg.Credstore.EncryptionKey != "" {
		opts.Key = []byte(cfg.Credstore.EncryptionKey)
	}
	return credstore.Open(opts, log)
}

// Services holds all initialized services.
type Services struct {
	Registry    *service.SessionRegistry
	Lifecycle   *service.LifecycleController
	Status      *service.StatusReporter
	Issuer      *service.ExchangeKeyIssuer
	Credentials *service.CredentialService
	Sweeper     *service.Sweeper
}

// initServices wires the session services together.
func initServices(
	cfg *config.ServerConfig,
	store *credstore.Store,
	log *slog.Logger,
	metrics *metric.Registry,
) (*Services, error) {
	factory, err := capabilityFactory(cfg)
	if err != nil {
		return nil, err
	}

	registry := service.NewSessionRegistry()
	coordinator := service.NewHandshakeCoordinator()
	issuer := service.NewExchangeKeyIssuer()

	credentials, err := service.NewCredentialService([]byte(cfg.Session.BearerSecret))
	if err != nil {
		return nil, err
	}

	lifecycle := service.NewLifecycleController(
		registry, coordinator, issuer, factory, store, nil, log, metrics)
	status := service.NewStatusReporter(registry, lifecycle, log)
	sweeper := service.NewSweeper(issuer, cfg.Session.SweepInterval, log, metrics)

	log.Info("services initialized", "capability_driver", cfg.Capability.Driver)

	return &Services{
		Registry:    registry,
		Lifecycle:   lifecycle,
		Status:      status,
		Issuer:      issuer,
		Credentials: credentials,
		Sweeper:     sweeper,
	}, nil
}

// capabilityFactory resolves the configured connection driver.
func capabilityFactory(cfg *config.ServerConfig) (capability.Factory, error) {
	switch cfg.Capability.Driver {
	case "sim":
		return sim.Factory(sim.Options{
			StepDelay: cfg.Capability.StepDelay,
			AutoScan:  cfg.Capability.AutoScan,
		}), nil
	default:
		return nil, fmt.Errorf("unknown capability driver %q", cfg.Capability.Driver)
	}
}

// watchConfig reloads the log level when the config file changes.
func watchConfig(path string, log *slog.Logger) (*confloader.Watcher, error) {
	watcher, err := confloader.NewWatcher(log)
	if err != nil {
		return nil, err
	}
	if err := watcher.Watch(path); err != nil {
		watcher.Stop()
		return nil, err
	}

	watcher.OnChange(func(changed string) {
		cfg := config.Default()
		loader := confloader.NewLoader(confloader.WithConfigFile(changed))
		if err := loader.Load(cfg); err != nil {
			log.Warn("config reload failed", "path", changed, "error", err)
			return
		}
		logger.SetLevel(cfg.Log.Level)
		log.Info("log level reloaded", "level", cfg.Log.Level)
	})
	watcher.Start()
	return watcher, nil
}
