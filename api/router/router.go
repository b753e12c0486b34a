package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"tech-trends/api/handlers"
	"tech-trends/api/middleware"
	"tech-trends/store"
)

// Deps are the collaborators behind the HTTP surface. AILogs may be nil when
// no mongo database is configured.
type Deps struct {
	Store          store.DocumentStore
	Runner         handlers.Runner
	AILogs         handlers.AILogReader
	AllowedOrigins []string
}

func New(d Deps) http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLoggingMiddleware())

	r.GET("/healthz", handlers.HealthHandler(d.Runner))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// v1 routes
	api := r.Group("/api/v1")
	{
		api.GET("/periods/:period/trends/:area", handlers.GetTrendHandler(d.Store))
		api.GET("/periods/:period/posts/:area", handlers.GetPostsHandler(d.Store))
		api.GET("/periods/:period/summary", handlers.GetSummaryHandler(d.Store))
		api.GET("/months/:month/recommendations", handlers.GetRecommendationsHandler(d.Store))
		if l, ok := d.Store.(store.Lister); ok {
			api.GET("/periods/:period", handlers.ListPeriodHandler(l))
		}

		if d.Runner != nil {
			api.GET("/runs", handlers.ListRunsHandler(d.Runner))
			api.POST("/runs/:stage", handlers.TriggerRunHandler(d.Runner))
		}
		if d.AILogs != nil {
			api.GET("/llm-logs", handlers.ListAILogsHandler(d.AILogs))
		}
	}

	origins := d.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}).Handler(r)
}
