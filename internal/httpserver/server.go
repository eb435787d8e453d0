package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/PratikDhanave/returns-ledger-service/internal/auth"
	"github.com/PratikDhanave/returns-ledger-service/internal/config"
	"github.com/PratikDhanave/returns-ledger-service/internal/handlers"
	"github.com/PratikDhanave/returns-ledger-service/internal/observability"
)

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the long-lived collaborators the router needs.
type Deps struct {
	Processor handlers.Processor
	Metrics   *observability.Metrics
	Logger    *zap.Logger
	// Ready lists dependencies checked by /ready; may be empty.
	Ready []Pinger
}

// NewRouter wires public endpoints and the returns webhook.
// Public: /health, /ready, /metrics
// Webhook: cfg.WebhookPath (optionally token protected)
func NewRouter(cfg config.Config, deps Deps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(deps.Metrics.Middleware())

	// Liveness: confirms the process is running.
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Readiness: confirms optional backing stores are reachable.
	r.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
		defer cancel()

		for _, p := range deps.Ready {
			if err := p.Ping(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))

	hooks := r.Group("/")
	hooks.Use(auth.WebhookTokenMiddleware(cfg.WebhookToken))
	handlers.RegisterWebhookRoutes(hooks, cfg.WebhookPath, deps.Processor, deps.Metrics, deps.Logger)

	return r
}

// NewServer wraps the router in an http.Server with conservative timeouts.
func NewServer(addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      2 * time.Minute,
	}
}
