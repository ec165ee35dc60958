package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"google.golang.org/grpc"

	"github.com/mvaleed/carfleet/internal/auth"
	"github.com/mvaleed/carfleet/internal/config"
	"github.com/mvaleed/carfleet/internal/event"
	"github.com/mvaleed/carfleet/internal/logging"
	"github.com/mvaleed/carfleet/internal/service"
	"github.com/mvaleed/carfleet/internal/storage"
	"github.com/mvaleed/carfleet/internal/storage/memory"
	"github.com/mvaleed/carfleet/internal/storage/postgres"
	grpcTransport "github.com/mvaleed/carfleet/internal/transport/grpc"
	httpTransport "github.com/mvaleed/carfleet/internal/transport/http"
)

func main() {
	// A missing .env file is fine; the environment may already be set.
	_ = godotenv.Load()

	cfg := config.Load()

	logger, err := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configure logging: %v\n", err)
		os.Exit(1)
	}
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	brokers, pinger, closeStorage, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStorage()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	var publisher event.Publisher = event.NewLoggingPublisher(logger)
	defer publisher.Close()

	hasher := auth.NewPasswordHasher(cfg.BcryptCost)
	jwtConfig := auth.DefaultJWTConfig()
	jwtConfig.SecretKey = cfg.JWTSecretKey
	jwtConfig.AccessTokenTTL = cfg.AccessTokenTTL
	jwtManager := auth.NewJWTManager(jwtConfig)

	services := service.NewServices(brokers, hasher, service.Deps{
		Clock:     service.SystemClock{},
		Logger:    logger,
		Publisher: publisher,
		Metrics:   service.NewMetrics(registry),
	})
	authService := service.NewAuthService(services.Users, hasher, jwtManager, publisher, logger)

	errChan := make(chan error, 2)

	httpServer := httpTransport.NewServer(services, authService, pinger, registry, logger)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		logger.Info("starting HTTP server", "addr", addr)
		if err := httpServer.ListenAndServe(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	grpcServer := grpcTransport.NewServer(services, authService, logger)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.GRPCPort)
		listener, err := net.Listen("tcp", addr)
		if err != nil {
			errChan <- fmt.Errorf("gRPC listen: %w", err)
			return
		}
		logger.Info("starting gRPC server", "addr", addr)
		if err := grpcServer.Serve(listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			errChan <- fmt.Errorf("gRPC server: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", "signal", sig)
	case err := <-errChan:
		logger.Error("server error", "error", err)
		return err
	}

	logger.Info("initiating graceful shutdown")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	grpcServer.GracefulStop()

	logger.Info("shutdown complete")
	return nil
}

// openStorage returns the brokers for the configured driver. pinger is nil for the
// in-memory driver.
func openStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*storage.Brokers, storage.Pinger, func(), error) {
	if cfg.StorageDriver == config.DriverMemory {
		logger.Warn("using in-memory storage, records are lost on restart")
		return memory.NewBrokers(), nil, func() {}, nil
	}

	if cfg.MigrateOnStart {
		logger.Info("applying database migrations")
		if err := postgres.Migrate(cfg.DatabaseURL, logger); err != nil {
			return nil, nil, nil, fmt.Errorf("migrate database: %w", err)
		}
	}

	logger.Info("connecting to database")
	db, err := postgres.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, nil, nil, fmt.Errorf("ping database: %w", err)
	}
	logger.Info("database connected")

	return db.Brokers(), db, db.Close, nil
}
