package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/solatis/filtertree/internal/core/api"
	"github.com/solatis/filtertree/internal/core/auth"
	"github.com/solatis/filtertree/internal/core/config"
	"github.com/solatis/filtertree/internal/core/db"
	"github.com/solatis/filtertree/internal/core/metrics"
	"github.com/solatis/filtertree/internal/core/server"
	"github.com/solatis/filtertree/internal/editor"
	"github.com/solatis/filtertree/internal/logging"
	"github.com/solatis/filtertree/internal/match"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the gRPC editor service",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("host", "0.0.0.0", "gRPC server host")
	serveCmd.Flags().Int("port", 50051, "gRPC server port")
	serveCmd.Flags().String("metrics-addr", "127.0.0.1:9090", "Prometheus metrics listen address")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("host") {
		cfg.Server.Host, _ = cmd.Flags().GetString("host")
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port, _ = cmd.Flags().GetInt("port")
	}
	if cmd.Flags().Changed("metrics-addr") {
		cfg.Metrics.Addr, _ = cmd.Flags().GetString("metrics-addr")
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logging.Sync(logger)

	database, err := db.Open(cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	statuses, err := db.MigrateStatus(database)
	if err != nil {
		return fmt.Errorf("failed to check migrations: %w", err)
	}
	if pending := db.Pending(statuses); len(pending) > 0 {
		return fmt.Errorf("migration %s not applied - run 'filtertree migrate up' first", pending[0].ID)
	}

	store, err := db.NewStore(database)
	if err != nil {
		return fmt.Errorf("failed to load queries: %w", err)
	}

	secrets, err := config.HMACSecrets()
	if err != nil {
		return fmt.Errorf("failed to load HMAC secrets: %w", err)
	}
	if len(secrets) == 0 {
		return fmt.Errorf("no HMAC secrets configured (set FT_HMAC_SECRET environment variable)")
	}
	authenticator := auth.NewAuthenticator(secrets, store.Queries(), logger.Named("auth"))

	var recorder editor.Recorder
	var metricsServer *server.MetricsServer
	if cfg.Metrics.Enabled {
		m := metrics.New()
		recorder = m
		metricsServer = server.NewMetricsServer(cfg.Metrics.Addr, m.Handler(), logger.Named("metrics"))
	}

	service, err := api.NewService(store, match.NewEngine(logger.Named("match")), cfg, recorder, logger.Named("api"))
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	grpcServer, err := server.NewGRPCServer(&cfg.Server, service, authenticator, logger.Named("grpc"))
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting filtertree editor service",
		zap.String("version", Version),
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port))

	errChan := make(chan error, 2)
	go func() {
		errChan <- grpcServer.Start(ctx)
	}()
	if metricsServer != nil {
		go func() {
			errChan <- metricsServer.Start(ctx)
		}()
	}

	var serveErr error
	select {
	case serveErr = <-errChan:
	case <-ctx.Done():
		logger.Info("shutting down gracefully")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("metrics server shutdown", zap.Error(err))
		}
	}
	if err := grpcServer.Shutdown(shutdownCtx); err != nil && serveErr == nil {
		serveErr = err
	}
	return serveErr
}
