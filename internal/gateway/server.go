// Package gateway is the HTTP front end. It extracts a W3C trace context
// from inbound headers, converts it to the binary form carried on the TCP
// side, and proxies each route to the backend that owns its message type.
package gateway

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/chatmesh/chatmesh/internal/observability"
	"github.com/chatmesh/chatmesh/internal/rpc"
)

// Config holds the gateway bind address and the static backend endpoints.
// Endpoints are fixed for the process lifetime.
type Config struct {
	ListenAddr              string
	UserServiceAddr         string
	MessageServiceAddr      string
	NotificationServiceAddr string
	Logger                  zerolog.Logger
}

type Server struct {
	cfg    Config
	engine *gin.Engine
	client *rpc.Client
	tracer trace.Tracer
	logger zerolog.Logger
}

func New(cfg Config) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(observability.RequestLogger(cfg.Logger))
	engine.Use(observability.RequestMetricsMiddleware("gatewayd"))
	engine.Use(corsMiddleware())

	s := &Server{
		cfg:    cfg,
		engine: engine,
		client: &rpc.Client{},
		tracer: otel.Tracer("api-gateway"),
		logger: cfg.Logger.With().Str("component", "gateway").Logger(),
	}
	s.registerRoutes()
	return s
}

// Handler exposes the router, primarily for httptest.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves HTTP until ctx is canceled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{Addr: s.cfg.ListenAddr, Handler: s.engine}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.logger.Info().Str("addr", s.cfg.ListenAddr).Msg("gateway_listening")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) registerRoutes() {
	s.engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"service":   "tcp-api-gateway",
			"timestamp": time.Now().UnixMilli(),
		})
	})
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	for _, rt := range s.routes() {
		s.engine.Handle(rt.method, rt.path, s.handle(rt))
	}
}

// corsMiddleware answers preflight requests unconditionally and stamps
// permissive CORS headers on everything else.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, traceparent, tracestate")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	}
}
