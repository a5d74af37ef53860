package app

import (
	"gorm.io/gorm"

	"github.com/personaforge/personaforge/internal/platform/logger"
	"github.com/personaforge/personaforge/internal/repos"
)

type Repos struct {
	Character  repos.CharacterRepo
	Deployment repos.DeploymentRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Character:  repos.NewCharacterRepo(db, log),
		Deployment: repos.NewDeploymentRepo(db, log),
	}
}
