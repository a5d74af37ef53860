package types

import (
	"time"

	"gorm.io/datatypes"
)

const (
	DeploymentStatusDeploying = "deploying"
	DeploymentStatusRunning   = "running"
	DeploymentStatusFailed    = "failed"
)

// Deployment is one tracked attempt to run a character as a live container.
// Records are append-only: redeploying a character creates a new row, and a
// row's status only ever moves deploying -> running or deploying -> failed.
// Port exclusivity among non-terminal rows is enforced by a partial unique
// index created in db.AutoMigrateAll; the insert is the arbitration point
// between concurrent deploys.
type Deployment struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	CharacterID   uint           `gorm:"index;not null;column:character_id" json:"character_id"`
	ContainerName string         `gorm:"not null;column:container_name" json:"container_name"`
	Port          int            `gorm:"not null;column:port" json:"port"`
	Status        string         `gorm:"not null;default:deploying;column:status" json:"status"`
	Config        datatypes.JSON `gorm:"column:config" json:"config"`
	ErrorMessage  string         `gorm:"type:text;column:error_message" json:"error_message"`
	CreatedAt     time.Time      `gorm:"not null" json:"created_at"`
	DeployedAt    *time.Time     `gorm:"column:deployed_at" json:"deployed_at"`
}

func (Deployment) TableName() string { return "deployments" }

// DeploymentSummary is the list-view row: a deployment joined with the
// character fields the dashboard shows.
type DeploymentSummary struct {
	Deployment
	CharacterName        string `json:"character_name"`
	CharacterOccupation  string `json:"character_occupation"`
	CharacterDescription string `json:"character_description"`
}
