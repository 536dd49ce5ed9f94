// Package server exposes the fulfillment bridge over HTTP: admin endpoints,
// the storefront locality lookup, the quote endpoint and the fulfillment
// hooks the host platform drives.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tournevent/paccofacile/internal/store"
	"github.com/tournevent/paccofacile/internal/telemetry"
	"github.com/tournevent/paccofacile/pkg/fulfillment"
	"github.com/tournevent/paccofacile/pkg/fulfillment/paccofacile"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Server is the HTTP server of the fulfillment bridge.
type Server struct {
	port     int
	registry *fulfillment.Registry
	provider *paccofacile.Client
	store    store.Store
	metrics  *telemetry.Metrics
	logger   *otelzap.Logger
	engine   *gin.Engine
}

// Config holds server configuration.
type Config struct {
	Port int

	// AllowedOrigin enables CORS for the admin backend when set.
	AllowedOrigin string

	// Gatherer backs /metrics. Defaults to prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer
}

// New creates a new server instance.
func New(
	cfg Config,
	registry *fulfillment.Registry,
	provider *paccofacile.Client,
	st store.Store,
	metrics *telemetry.Metrics,
	logger *otelzap.Logger,
) *Server {
	s := &Server{
		port:     cfg.Port,
		registry: registry,
		provider: provider,
		store:    st,
		metrics:  metrics,
		logger:   logger,
	}
	s.engine = s.setupRoutes(cfg)
	return s
}

// Handler returns the HTTP handler serving every route.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) setupRoutes(cfg Config) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(requestID())
	r.Use(requestLogger(s.logger, s.metrics))
	r.Use(cors(cfg.AllowedOrigin))

	gatherer := cfg.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r.GET("/health", s.handleHealth)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	admin := r.Group("/admin")
	{
		pf := admin.Group("/paccofacile")
		{
			pf.GET("/account", s.getAccount)
			pf.GET("/credit", s.getCredit)
			pf.GET("/settings", s.getSettings)
			pf.POST("/settings", s.postSettings)
			pf.GET("/settings/:name", s.getSetting)
			pf.POST("/settings/:name", s.postSetting)
		}

		orders := admin.Group("/orders/:id")
		{
			orders.GET("/fulfillments/:fulfillment_id/documents", s.getDocuments)
			orders.POST("/shipping-methods/:methodId", s.postShippingMethodData)
		}
	}

	r.POST("/paccofacile/quote", s.postQuote)
	r.POST("/store/paccofacile/locality/validation", s.postLocalityValidation)

	r.GET("/hooks/fulfillment/options", s.listAllOptions)

	hooks := r.Group("/hooks/fulfillment/:provider")
	{
		hooks.GET("/options", s.listOptions)
		hooks.POST("/calculate", s.calculatePrice)
		hooks.POST("/validate", s.validateOption)
		hooks.POST("/fulfillments", s.createFulfillment)
		hooks.POST("/fulfillments/:fulfillment_id/cancel", s.cancelFulfillment)
	}

	return r
}

// Run starts the HTTP server and blocks until context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.engine,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting server", zap.Int("port", s.port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	status := http.StatusOK
	body := gin.H{"status": "ok", "providers": s.registry.Names()}
	if err := s.store.Ping(c.Request.Context()); err != nil {
		status = http.StatusServiceUnavailable
		body["status"] = "degraded"
		body["store"] = err.Error()
	}
	c.JSON(status, body)
}
