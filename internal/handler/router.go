package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"salesdesk/internal/catalog"
	"salesdesk/internal/logger"
	"salesdesk/internal/service"
)

// BuildInfo is reported by /health and /version
type BuildInfo struct {
	Version   string
	BuildTime string
	GitCommit string
}

// Services are the dependencies the routes are served from
type Services struct {
	Store     catalog.Store
	Queries   *service.QueryService
	Search    *service.SearchService
	Assistant *service.AssistantService
	Indexer   *service.FAQIndexer
}

// RouterConfig holds configuration for the router
type RouterConfig struct {
	AllowOrigins []string
	StoreDriver  string
	Build        BuildInfo
	Logger       *zap.Logger
}

// SetupRouter wires every route onto a new gin engine
func SetupRouter(svc Services, cfg RouterConfig) *gin.Engine {
	log := logger.OrNop(cfg.Logger)

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(log))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.AllowOrigins
	if len(corsConfig.AllowOrigins) == 0 || corsConfig.AllowOrigins[0] == "*" {
		corsConfig.AllowOrigins = nil
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Authorization", "apikey"}
	r.Use(cors.New(corsConfig))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":     "healthy",
			"service":    "salesdesk",
			"store":      cfg.StoreDriver,
			"assistant":  svc.Assistant.Enabled(),
			"embeddings": svc.Indexer.Enabled(),
			"version":    cfg.Build.Version,
		})
	})
	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    cfg.Build.Version,
			"build_time": cfg.Build.BuildTime,
			"git_commit": cfg.Build.GitCommit,
		})
	})

	queryHandler := NewQueryHandler(svc.Queries)
	catalogHandler := NewCatalogHandler(svc.Store, svc.Search)
	assistantHandler := NewAssistantHandler(svc.Assistant, svc.Store)
	feedbackHandler := NewFeedbackHandler(svc.Queries)
	embeddingHandler := NewEmbeddingHandler(svc.Indexer)

	apiV1 := r.Group("/api/v1")
	{
		apiV1.POST("/query", queryHandler.Query)
		apiV1.POST("/query/stream", queryHandler.QueryStream)
		apiV1.GET("/queries/recent", queryHandler.Recent)

		apiV1.POST("/assistant", assistantHandler.Ask)
		apiV1.POST("/assistant/stream", assistantHandler.AskStream)

		apiV1.GET("/projects", catalogHandler.ListProjects)
		apiV1.GET("/projects/:id", catalogHandler.GetProject)
		apiV1.GET("/projects/:id/units", catalogHandler.ProjectUnits)
		apiV1.GET("/projects/:id/faqs", catalogHandler.ProjectFAQs)
		apiV1.GET("/projects/:id/quick/:kind", assistantHandler.Quick)

		apiV1.GET("/categories", catalogHandler.Categories)
		apiV1.GET("/categories/:id/faqs", catalogHandler.CategoryFAQs)

		apiV1.GET("/quick-filters", catalogHandler.QuickFilters)
		apiV1.GET("/quick-filters/:id/units", catalogHandler.QuickFilterUnits)

		apiV1.POST("/feedback", feedbackHandler.Submit)
		apiV1.POST("/embeddings/faqs", embeddingHandler.RebuildFAQs)
	}

	r.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api") {
			c.JSON(http.StatusNotFound, gin.H{"error": "API endpoint not found"})
			return
		}
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})

	return r
}

// requestLogger logs one line per request
func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
