package routes

import (
	"equiphouse/internal/core/container"
	"equiphouse/internal/middleware"

	"github.com/gin-gonic/gin"
)

func NewRouter(c *container.Container) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), middleware.RecoveryMiddleware(c.Logger))

	RegisterUtilityRoutes(router, c)
	RegisterPublicRoutes(router, c)
	RegisterAdminRoutes(router, c)

	return router
}

func RegisterPublicRoutes(router *gin.Engine, c *container.Container) {
	api := router.Group("")
	if c.Config.RequestTimeout > 0 {
		api.Use(middleware.TimeoutMiddleware(c.Config.RequestTimeout))
	}

	c.EquipmentHandler.RegisterRoutes(api)
	c.ReportHandler.RegisterRoutes(api)
}

// RegisterAdminRoutes exposes the restructure job. It runs for as long as it
// needs, so no request timeout applies.
func RegisterAdminRoutes(router *gin.Engine, c *container.Container) {
	admin := router.Group("/admin")
	admin.Use(c.RateLimiter.Middleware())

	c.RestructureHandler.RegisterRoutes(admin)
}

func RegisterUtilityRoutes(router *gin.Engine, c *container.Container) {
	router.GET("/health", c.Health.Handler())
	router.GET("/metrics", gin.WrapH(c.Metrics.Handler()))
}
