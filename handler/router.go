package handler

import (
	"notemate/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

type RouterConfig struct {
	Logger       zerolog.Logger
	CORSOrigins  []string
	MaxBodySize  int64
	Production   bool
	ReportPanics bool
	RateLimiter  *middleware.RateLimiter // nil disables rate limiting
}

// NewRouter assembles the engine: global middleware, the API, health and
// metrics endpoints.
func NewRouter(h *Handler, auth *middleware.Auth, health *Health, cfg RouterConfig) *gin.Engine {
	router := gin.New()

	router.Use(
		middleware.RequestTracing(cfg.Logger),
		middleware.Recovery(cfg.ReportPanics),
		middleware.RequestLogger(),
		middleware.Metrics(),
		middleware.SecurityHeaders(cfg.Production),
		middleware.CORS(cfg.CORSOrigins),
	)
	if cfg.RateLimiter != nil {
		router.Use(cfg.RateLimiter.Handler())
	}
	if cfg.MaxBodySize > 0 {
		router.Use(middleware.RequestSizeLimiter(cfg.MaxBodySize))
	}

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	api.GET("/health", health.Handle)
	h.Routes(api, auth)

	router.NoRoute(NoRoute)
	return router
}
