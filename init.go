package main

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/tournevent/paccofacile/internal/config"
	"github.com/tournevent/paccofacile/internal/store"
	"github.com/tournevent/paccofacile/internal/telemetry"
	"github.com/tournevent/paccofacile/pkg/fulfillment"
	"github.com/tournevent/paccofacile/pkg/fulfillment/paccofacile"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel"
)

// app holds the long-lived components shared by every command.
type app struct {
	store    store.Store
	metrics  *telemetry.Metrics
	provider *paccofacile.Client
	registry *fulfillment.Registry
}

func loadConfig() (*config.Config, error) {
	return config.Load()
}

func initLogger(cfg *config.Config) (*otelzap.Logger, error) {
	return telemetry.NewLogger(cfg.LogLevel, cfg.ServiceName)
}

func initTracer(ctx context.Context, cfg *config.Config) (func(context.Context) error, error) {
	if !cfg.OTELEnabled {
		return func(context.Context) error { return nil }, nil
	}

	return telemetry.InitTracer(ctx, cfg.OTELEndpoint, cfg.Attributes())
}

func initApp(ctx context.Context, cfg *config.Config, logger *otelzap.Logger, reg prometheus.Registerer) (*app, error) {
	st, err := store.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	metrics := telemetry.NewMetrics(reg)

	provider := paccofacile.New(paccofacile.Config{
		APIKey:        cfg.PaccoFacileAPIKey,
		APIToken:      cfg.PaccoFacileAPIToken,
		AccountNumber: cfg.PaccoFacileAccountNumber,
		Environment:   cfg.PaccoFacileEnvironment,
		BaseURL:       cfg.PaccoFacileBaseURL,
		Timeout:       cfg.PaccoFacileTimeout,
		UseMock:       cfg.PaccoFacileUseMock,
		MockLatency:   cfg.PaccoFacileMockLatency,
	}, st, logger, otel.Tracer(cfg.ServiceName), metrics.RecordUpstream)

	registry := fulfillment.NewRegistry()
	registry.Register(provider)

	return &app{
		store:    st,
		metrics:  metrics,
		provider: provider,
		registry: registry,
	}, nil
}
