package router

import (
	"net/http"
	"time"

	"github.com/blues/escrow/internal/config"
	"github.com/blues/escrow/internal/escrow"
	"github.com/blues/escrow/internal/handler"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func Setup(engine *escrow.Engine, receipts handler.ReceiptCounter, cfg *config.Config) *gin.Engine {
	r := gin.New()

	// 中间件
	r.Use(gin.Recovery())
	r.Use(requestIdMiddleware())
	r.Use(corsMiddleware(cfg.Server.AllowOrigins))

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "escrow-service",
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	limit := rateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst)

	// API版本组
	v1 := r.Group("/api/v1")
	{
		projectHandler := handler.NewProjectHandler(engine)
		contributeHandler := handler.NewContributeHandler(engine)
		payoutHandler := handler.NewPayoutHandler(engine)
		projects := v1.Group("/projects")
		{
			projects.POST("", limit, projectHandler.CreateProject)
			projects.GET("", projectHandler.GetProjects)
			projects.GET("/:id", projectHandler.GetProject)
			projects.POST("/:id/contributions", limit, contributeHandler.Contribute)
			projects.GET("/:id/contributions/:address", contributeHandler.GetContribution)
			projects.POST("/:id/withdraw", limit, payoutHandler.Withdraw)
			projects.POST("/:id/refund", limit, payoutHandler.Refund)
		}

		receiptHandler := handler.NewReceiptHandler(engine, receipts)
		v1.GET("/receipts/:address", receiptHandler.GetReceipts)
	}

	return r
}

// CORS中间件
func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Content-Length", "Accept-Encoding", "Authorization", handler.CallerHeader},
		ExposeHeaders: []string{requestIdHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}
