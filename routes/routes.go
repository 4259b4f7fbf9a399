package routes

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/delivery-tracker-api/config"
	"github.com/kendall-kelly/delivery-tracker-api/metrics"
	"github.com/kendall-kelly/delivery-tracker-api/middleware"
)

// Setup installs the global middleware and every /api route on router
func Setup(router *gin.Engine, cfg *config.Config) {
	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	router.Use(metrics.Middleware())
	router.Use(middleware.RequestLogger())

	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	requireSession := middleware.RequireSession(cfg)
	api := router.Group("/api")
	AuthRoutes(api, requireSession)
	UserRoutes(api, requireSession)
	OrderRoutes(api, requireSession)
}
