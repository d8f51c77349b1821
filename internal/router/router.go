package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/cleaning-api/internal/middleware"
	"github.com/jwalitptl/cleaning-api/pkg/logger"
	"github.com/jwalitptl/cleaning-api/pkg/metrics"
)

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

// Handlers are the route groups served under /api/v1.
type Handlers struct {
	Health  Handler
	Price   Handler
	Catalog Handler
	Quote   Handler
	Booking Handler
	Loyalty Handler
	// Metrics serves /api/v1/health/metrics when set.
	Metrics gin.HandlerFunc
}

type RouterConfig struct {
	Mode             string
	RateLimitEnabled bool
	RateLimit        rate.Limit
	RateBurst        int
	CORSConfig       middleware.CORSConfig
	RequestTimeout   time.Duration
	MaxBodyBytes     int64
}

type Router struct {
	engine   *gin.Engine
	handlers Handlers
}

func NewRouter(handlers Handlers, m *metrics.Metrics, log *logger.Logger, config RouterConfig) *Router {
	if config.Mode != "" {
		gin.SetMode(config.Mode)
	}

	engine := gin.New()

	engine.Use(
		middleware.RequestID(),
		middleware.Recovery(log),
		middleware.Logger(log),
		middleware.ErrorHandler(log),
		middleware.Metrics(m),
		middleware.Timeout(config.RequestTimeout),
		middleware.SizeLimit(config.MaxBodyBytes),
		middleware.CORS(config.CORSConfig),
	)

	if config.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Rate:  config.RateLimit,
			Burst: config.RateBurst,
		})
		engine.Use(rateLimiter.RateLimit())
	}

	return &Router{engine: engine, handlers: handlers}
}

func (r *Router) Setup() {
	api := r.engine.Group("/api/v1")

	api.Use(func(c *gin.Context) {
		c.Header("X-API-Version", "1.0")
		c.Next()
	})

	if r.handlers.Health != nil {
		r.handlers.Health.RegisterRoutes(api)
	}
	if r.handlers.Metrics != nil {
		api.GET("/health/metrics", r.handlers.Metrics)
	}

	for _, h := range []Handler{
		r.handlers.Price,
		r.handlers.Catalog,
		r.handlers.Quote,
		r.handlers.Booking,
		r.handlers.Loyalty,
	} {
		if h != nil {
			h.RegisterRoutes(api)
		}
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
