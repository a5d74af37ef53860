package repos

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/personaforge/personaforge/internal/platform/logger"
	"github.com/personaforge/personaforge/internal/types"
)

// DeploymentRepo is storage only: the deploying/running/failed transition
// rules live in the deployer service so the state machine stays in one place.
type DeploymentRepo interface {
	Create(ctx context.Context, tx *gorm.DB, d *types.Deployment) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*types.Deployment, error)
	UpdateStatus(ctx context.Context, tx *gorm.DB, id uint, status, errorMessage string, deployedAt *time.Time) error
	CountActiveOnPort(ctx context.Context, tx *gorm.DB, port int) (int64, error)
	ListWithCharacter(ctx context.Context, tx *gorm.DB) ([]*types.DeploymentSummary, error)
}

type deploymentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDeploymentRepo(db *gorm.DB, baseLog *logger.Logger) DeploymentRepo {
	return &deploymentRepo{db: db, log: baseLog.With("repo", "DeploymentRepo")}
}

func (r *deploymentRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *deploymentRepo) Create(ctx context.Context, tx *gorm.DB, d *types.Deployment) error {
	return r.conn(tx).WithContext(ctx).Create(d).Error
}

func (r *deploymentRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*types.Deployment, error) {
	var d types.Deployment
	if err := r.conn(tx).WithContext(ctx).First(&d, id).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *deploymentRepo) UpdateStatus(ctx context.Context, tx *gorm.DB, id uint, status, errorMessage string, deployedAt *time.Time) error {
	updates := map[string]interface{}{
		"status":        status,
		"error_message": errorMessage,
	}
	if deployedAt != nil {
		updates["deployed_at"] = *deployedAt
	}
	return r.conn(tx).WithContext(ctx).
		Model(&types.Deployment{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *deploymentRepo) CountActiveOnPort(ctx context.Context, tx *gorm.DB, port int) (int64, error) {
	var count int64
	err := r.conn(tx).WithContext(ctx).
		Model(&types.Deployment{}).
		Where("port = ? AND status IN ?", port, []string{
			types.DeploymentStatusDeploying,
			types.DeploymentStatusRunning,
		}).
		Count(&count).Error
	return count, err
}

func (r *deploymentRepo) ListWithCharacter(ctx context.Context, tx *gorm.DB) ([]*types.DeploymentSummary, error) {
	var results []*types.DeploymentSummary
	err := r.conn(tx).WithContext(ctx).
		Model(&types.Deployment{}).
		Select(`deployments.*,
			characters.name AS character_name,
			characters.occupation AS character_occupation,
			characters.description AS character_description`).
		Joins("JOIN characters ON characters.id = deployments.character_id").
		Order("deployments.created_at desc, deployments.id desc").
		Scan(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// IsUniqueViolation reports whether err is the unique-index rejection that
// arbitrates port allocation. GORM translates driver errors when
// TranslateError is on; the string checks cover the raw postgres and sqlite
// forms seen without translation.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLSTATE 23505") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
