package app

import (
	"gorm.io/gorm"

	"github.com/personaforge/personaforge/internal/platform/dockercli"
	"github.com/personaforge/personaforge/internal/platform/logger"
	"github.com/personaforge/personaforge/internal/services"
)

type Services struct {
	Importer  services.ImporterService
	Deployer  services.DeployerService
	Guideline services.GuidelineService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, reposet Repos) Services {
	log.Info("Wiring services...")
	runtime := dockercli.New(log, cfg.DockerBinary, cfg.DeployTimeout)
	return Services{
		Importer:  services.NewImporterService(db, log, reposet.Character),
		Deployer:  services.NewDeployerService(db, log, cfg.Deploy, reposet.Character, reposet.Deployment, runtime),
		Guideline: services.NewGuidelineService(db, log, reposet.Character),
	}
}
