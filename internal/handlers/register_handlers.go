package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/paygrid/tx_engine_app/internal/core/services"
	"github.com/paygrid/tx_engine_app/internal/middleware"
	"github.com/paygrid/tx_engine_app/internal/platform/config"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// RegisterRoutes sets up all application routes, injecting dependencies.
// cache may be nil, in which case ingest idempotency is disabled.
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	container *services.Container,
	cache *redis.Client,
) {
	// Health check route
	r.GET("/health", func(c *gin.Context) {
		c.String(200, "OK")
	})

	// Public authentication routes
	registerAuthRoutes(r, cfg)

	// API v1 routes behind auth
	setupAPIV1Routes(r, cfg, container, cache)
}

// setupAPIV1Routes configures the /api/v1 group and delegates to specific
// entity route registrations
func setupAPIV1Routes(
	r *gin.Engine,
	cfg *config.Config,
	container *services.Container,
	cache *redis.Client,
) {
	v1 := r.Group("/api/v1", middleware.AuthMiddleware(cfg.JWTSecret))

	rate, err := limiter.NewRateFromFormatted(cfg.RateLimit)
	if err != nil {
		// Config validation happens at load time; fall back hard here.
		rate = limiter.Rate{Period: time.Minute, Limit: 600}
	}
	ingestLimiter := limiter.New(memory.NewStore(), rate)

	registerTransactionRoutes(v1, cfg, container.Processor, ingestLimiter, cache)
	registerAccountRoutes(v1, container.Processor)
}
