package http

import (
	"github.com/gin-gonic/gin"

	"github.com/personaforge/personaforge/internal/http/handlers"
	"github.com/personaforge/personaforge/internal/http/middleware"
	"github.com/personaforge/personaforge/internal/platform/logger"
)

type RouterConfig struct {
	Log               *logger.Logger
	HealthHandler     *handlers.HealthHandler
	CharacterHandler  *handlers.CharacterHandler
	DeploymentHandler *handlers.DeploymentHandler
	GuidelineHandler  *handlers.GuidelineHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.AttachRequestContext())
	router.Use(middleware.RequestLogger(cfg.Log))

	router.GET("/healthcheck", cfg.HealthHandler.HealthCheck)

	api := router.Group("/api")
	{
		api.GET("/characters", cfg.CharacterHandler.List)
		api.GET("/characters/:id", cfg.CharacterHandler.Get)
		api.POST("/characters/import", cfg.CharacterHandler.ImportDefinition)
		api.GET("/characters/:id/export", cfg.CharacterHandler.ExportDefinition)
		api.POST("/characters/clone", cfg.CharacterHandler.Clone)
		api.POST("/characters/:id/deactivate", cfg.CharacterHandler.Deactivate)

		api.GET("/characters/:id/guidelines", cfg.GuidelineHandler.List)
		api.PUT("/characters/:id/guidelines/:itemId", cfg.GuidelineHandler.Update)

		api.POST("/deployments", cfg.DeploymentHandler.Deploy)
		api.GET("/deployments", cfg.DeploymentHandler.List)
	}

	return router
}
