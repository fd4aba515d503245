// Package api is the HTTP backend: it serves the catalog and proxies AI
// search so that the generator credential never reaches the client.
//
// Routes:
//
//	GET  /api/products   JSON array of products
//	POST /api/ai-search  {query, seq?} -> {answer, html, fallback, seq}
//	GET  /health         liveness
//	GET  /metrics        Prometheus exposition
package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/HendryAvila/relnotes/internal/aisearch"
	"github.com/HendryAvila/relnotes/internal/catalog"
	"github.com/HendryAvila/relnotes/internal/observability"
)

// Deps are the collaborators the router needs. Catalog and AI are
// required; everything else has a usable zero value.
type Deps struct {
	Catalog catalog.Store
	AI      *aisearch.Service
	Metrics *observability.Metrics
	Log     *zap.Logger

	// Limiter throttles POST /api/ai-search. Nil disables throttling.
	Limiter *rate.Limiter
	// AITimeout bounds a single AI search. Zero means no extra bound.
	AITimeout time.Duration
	// MaxQueryBytes caps the request body of AI search. Zero means 4 KiB.
	MaxQueryBytes int
	// AllowOrigins lists CORS origins; empty or "*" allows all.
	AllowOrigins []string
	// TraceService enables otelgin spans under this service name.
	TraceService string
}

// NewRouter builds the gin engine with middleware and all routes.
func NewRouter(d Deps) *gin.Engine {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.MaxQueryBytes <= 0 {
		d.MaxQueryBytes = 4 << 10
	}

	router := gin.New()
	router.Use(gin.Recovery())
	if d.TraceService != "" {
		router.Use(otelgin.Middleware(d.TraceService))
	}
	router.Use(requestID(), accessLog(d.Log, d.Metrics), cors(d.AllowOrigins))

	h := &handlers{deps: d}
	router.GET("/health", h.health)
	if d.Metrics != nil {
		router.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	}

	api := router.Group("/api")
	{
		api.GET("/products", h.listProducts)
		api.POST("/ai-search", rateLimit(d.Limiter), h.aiSearch)
	}
	return router
}
