package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/tournevent/paccofacile/internal/config"
	"github.com/tournevent/paccofacile/internal/server"
	"go.uber.org/zap"
)

var version = "0.0.1"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "paccofacile",
	Short:   "PaccoFacile fulfillment bridge - shipping quotes, shipments and documents",
	Version: version,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

var carriersCmd = &cobra.Command{
	Use:   "carriers",
	Short: "Print the fulfillment options of the account as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runQuery(cmd, func(ctx context.Context, a *app) (any, error) {
			return a.provider.ListFulfillmentOptions(ctx)
		})
	},
}

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Print the PaccoFacile account holder as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runQuery(cmd, func(ctx context.Context, a *app) (any, error) {
			return a.provider.Account(ctx)
		})
	},
}

var creditCmd = &cobra.Command{
	Use:   "credit",
	Short: "Print the PaccoFacile account credit as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runQuery(cmd, func(ctx context.Context, a *app) (any, error) {
			return a.provider.Credit(ctx)
		})
	},
}

func init() {
	rootCmd.AddCommand(serveCmd, carriersCmd, accountCmd, creditCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := initLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	tracerShutdown, err := initTracer(ctx, cfg)
	if err != nil {
		logger.Warn("Failed to initialize tracer", zap.Error(err))
	} else {
		defer tracerShutdown(context.Background())
	}

	a, err := initApp(ctx, cfg, logger, prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}
	defer a.store.Close()

	logger.Info("Starting PaccoFacile fulfillment bridge",
		zap.Int("port", cfg.Port),
		zap.String("version", cfg.Version),
		zap.String("environment", cfg.PaccoFacileEnvironment),
		zap.String("store", cfg.StoreDriver),
		zap.Bool("mock", cfg.PaccoFacileUseMock),
	)

	srv := server.New(server.Config{
		Port:          cfg.Port,
		AllowedOrigin: cfg.PaccoFacileBackendURL,
		Gatherer:      prometheus.DefaultGatherer,
	}, a.registry, a.provider, a.store, a.metrics, logger)
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// runQuery wires the provider without a server, runs fn and prints its
// result as indented JSON.
func runQuery(cmd *cobra.Command, fn func(context.Context, *app) (any, error)) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.StoreDriver = config.StoreMemory

	logger, err := initLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	a, err := initApp(ctx, cfg, logger, prometheus.NewRegistry())
	if err != nil {
		return err
	}
	defer a.store.Close()

	result, err := fn(ctx, a)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
