package app

import (
	"github.com/gin-gonic/gin"

	httpx "github.com/personaforge/personaforge/internal/http"
	httpH "github.com/personaforge/personaforge/internal/http/handlers"
	"github.com/personaforge/personaforge/internal/platform/logger"
)

type Handlers struct {
	Health     *httpH.HealthHandler
	Character  *httpH.CharacterHandler
	Deployment *httpH.DeploymentHandler
	Guideline  *httpH.GuidelineHandler
}

func wireHandlers(log *logger.Logger, cfg Config, reposet Repos, serviceset Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:     httpH.NewHealthHandler(),
		Character:  httpH.NewCharacterHandler(log, serviceset.Importer, reposet.Character),
		Deployment: httpH.NewDeploymentHandler(log, serviceset.Deployer, cfg.PublicBaseURL),
		Guideline:  httpH.NewGuidelineHandler(log, serviceset.Guideline),
	}
}

func wireRouter(log *logger.Logger, handlers Handlers) *gin.Engine {
	return httpx.NewRouter(httpx.RouterConfig{
		Log:               log,
		HealthHandler:     handlers.Health,
		CharacterHandler:  handlers.Character,
		DeploymentHandler: handlers.Deployment,
		GuidelineHandler:  handlers.Guideline,
	})
}
