package services

import (
	"fmt"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/personaforge/personaforge/internal/db"
	"github.com/personaforge/personaforge/internal/platform/logger"
	"github.com/personaforge/personaforge/internal/repos"
	"github.com/personaforge/personaforge/internal/types"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", name)
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := gdb.AutoMigrate(
		&types.Character{},
		&types.PersonalityTrait{},
		&types.CharacterValue{},
		&types.BackgroundEntry{},
		&types.InterestEntry{},
		&types.CommunicationPattern{},
		&types.SpeechPattern{},
		&types.ResponseGuideline{},
		&types.Deployment{},
	); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	if err := db.EnsureDeploymentConstraints(gdb); err != nil {
		t.Fatalf("deployment constraints: %v", err)
	}
	return gdb
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return log
}

func newTestImporter(t *testing.T) (ImporterService, repos.CharacterRepo, *gorm.DB) {
	t.Helper()
	gdb := openTestDB(t)
	log := testLogger(t)
	chars := repos.NewCharacterRepo(gdb, log)
	return NewImporterService(gdb, log, chars), chars, gdb
}
