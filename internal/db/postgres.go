package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/personaforge/personaforge/internal/platform/envutil"
	"github.com/personaforge/personaforge/internal/platform/logger"
	"github.com/personaforge/personaforge/internal/types"
)

type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostgresService(log *logger.Logger) (*PostgresService, error) {
	serviceLog := log.With("service", "PostgresService")

	host := envutil.Str("POSTGRES_HOST", "localhost")
	port := envutil.Str("POSTGRES_PORT", "5432")
	user := envutil.Str("POSTGRES_USER", "postgres")
	password := envutil.Str("POSTGRES_PASSWORD", "")
	name := envutil.Str("POSTGRES_NAME", "personaforge")

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, password, host, port, name)

	serviceLog.Info("Connecting to Postgres...", "host", host, "port", port, "db", name)
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		serviceLog.Error("Failed to connect to Postgres", "error", err)
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	return &PostgresService{db: gdb, log: serviceLog}, nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	if err := s.db.AutoMigrate(
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
		s.log.Error("Auto migration failed", "error", err)
		return err
	}
	return EnsureDeploymentConstraints(s.db)
}

// EnsureDeploymentConstraints creates the partial unique index that makes a
// deployment insert the arbitration point for port allocation: two rows may
// never hold the same port while both are in a non-terminal status.
// AutoMigrate cannot express partial indexes, so this is raw SQL.
func EnsureDeploymentConstraints(gdb *gorm.DB) error {
	return gdb.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_deployments_active_port
		ON deployments (port)
		WHERE status IN ('deploying', 'running')
	`).Error
}

func (s *PostgresService) DB() *gorm.DB {
	return s.db
}
