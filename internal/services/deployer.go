package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/personaforge/personaforge/internal/platform/apierr"
	"github.com/personaforge/personaforge/internal/platform/dockercli"
	"github.com/personaforge/personaforge/internal/platform/logger"
	"github.com/personaforge/personaforge/internal/repos"
	"github.com/personaforge/personaforge/internal/types"
)

// DeployConfig carries everything the orchestrator needs to turn a stored
// character into a launch specification. Every env value has a default so a
// missing operator setting never blocks a launch.
type DeployConfig struct {
	PortRangeStart int
	PortRangeEnd   int
	Image          string
	// HealthPort is the port the instance listens on inside the container;
	// the allocated host port maps onto it.
	HealthPort int

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresName     string

	QdrantHost           string
	QdrantPort           string
	QdrantCollectionBase string

	LLMClientType string
	LLMAPIURL     string
	LLMModel      string
	LLMAPIKey     string

	MemorySystemType             string
	CharacterIntelligenceEnabled bool
	EmotionalIntelligenceEnabled bool

	TelegramEnabled bool
	TelegramToken   string
}

// DeployerService is the control loop that provisions a running instance for
// a character: allocate a port, record the attempt, invoke the runtime, and
// record the outcome. A runtime failure is absorbed into the deployment row
// rather than raised; callers must read the returned status.
type DeployerService interface {
	Deploy(ctx context.Context, characterID uint) (*types.Deployment, error)
	ListDeployments(ctx context.Context) ([]*types.DeploymentSummary, error)
}

type deployerService struct {
	db          *gorm.DB
	log         *logger.Logger
	cfg         DeployConfig
	characters  repos.CharacterRepo
	deployments repos.DeploymentRepo
	runtime     dockercli.Runtime
}

func NewDeployerService(
	db *gorm.DB,
	log *logger.Logger,
	cfg DeployConfig,
	characters repos.CharacterRepo,
	deployments repos.DeploymentRepo,
	runtime dockercli.Runtime,
) DeployerService {
	return &deployerService{
		db:          db,
		log:         log.With("service", "DeployerService"),
		cfg:         cfg,
		characters:  characters,
		deployments: deployments,
		runtime:     runtime,
	}
}

var instanceNameScrub = regexp.MustCompile(`[^a-z0-9-]+`)

// InstanceName derives the container name from a display name: lowercased,
// restricted to [a-z0-9-], suffixed with the instance marker.
func InstanceName(characterName string) string {
	name := strings.ToLower(strings.TrimSpace(characterName))
	name = instanceNameScrub.ReplaceAllString(name, "-")
	name = strings.Trim(name, "-")
	if name == "" {
		name = "character"
	}
	return name + "-bot"
}

func (s *deployerService) Deploy(ctx context.Context, characterID uint) (*types.Deployment, error) {
	ch, err := s.characters.GetByID(ctx, nil, characterID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound("character_not_found", fmt.Errorf("character %d does not exist", characterID))
		}
		return nil, apierr.Persistence(err)
	}

	containerName := InstanceName(ch.Name)
	deployment, spec, err := s.reserve(ctx, ch, containerName)
	if err != nil {
		return nil, err
	}

	// The deploying row is committed before this call; the runtime must not
	// run inside a registry transaction. A crash here leaves the row in
	// deploying, which is the intended diagnosable failure mode.
	containerID, runErr := s.runtime.Run(ctx, *spec)
	now := time.Now().UTC()
	if runErr != nil {
		s.log.Error("Container launch failed",
			"deployment_id", deployment.ID, "container", containerName, "error", runErr)
		deployment.Status = types.DeploymentStatusFailed
		deployment.ErrorMessage = runErr.Error()
		if err := s.deployments.UpdateStatus(ctx, nil, deployment.ID,
			types.DeploymentStatusFailed, runErr.Error(), nil); err != nil {
			return nil, apierr.Persistence(err)
		}
		return deployment, nil
	}

	s.log.Info("Container launched",
		"deployment_id", deployment.ID, "container", containerName, "container_id", containerID, "port", deployment.Port)
	deployment.Status = types.DeploymentStatusRunning
	deployment.DeployedAt = &now
	if err := s.deployments.UpdateStatus(ctx, nil, deployment.ID,
		types.DeploymentStatusRunning, "", &now); err != nil {
		return nil, apierr.Persistence(err)
	}
	return deployment, nil
}

// reserve walks the port range and inserts the deploying row. The partial
// unique index on (port) over non-terminal rows makes the insert itself the
// arbitration point: losing a race surfaces as a unique violation and the
// loop advances to the next candidate.
func (s *deployerService) reserve(ctx context.Context, ch *types.Character, containerName string) (*types.Deployment, *dockercli.Spec, error) {
	for port := s.cfg.PortRangeStart; port <= s.cfg.PortRangeEnd; port++ {
		taken, err := s.deployments.CountActiveOnPort(ctx, nil, port)
		if err != nil {
			return nil, nil, apierr.Persistence(err)
		}
		if taken > 0 {
			continue
		}

		spec := s.buildSpec(ch, containerName, port)
		snapshot, err := json.Marshal(spec)
		if err != nil {
			return nil, nil, apierr.Persistence(err)
		}

		deployment := &types.Deployment{
			CharacterID:   ch.ID,
			ContainerName: containerName,
			Port:          port,
			Status:        types.DeploymentStatusDeploying,
			Config:        snapshot,
		}
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return s.deployments.Create(ctx, tx, deployment)
		})
		if err != nil {
			if repos.IsUniqueViolation(err) {
				s.log.Debug("Port raced away, trying next", "port", port)
				continue
			}
			return nil, nil, apierr.Persistence(err)
		}
		return deployment, &spec, nil
	}
	return nil, nil, apierr.ResourceExhausted("no_free_port", fmt.Errorf(
		"no free port in range %d-%d", s.cfg.PortRangeStart, s.cfg.PortRangeEnd))
}

func (s *deployerService) buildSpec(ch *types.Character, containerName string, port int) dockercli.Spec {
	cfg := s.cfg
	env := map[string]string{
		"POSTGRES_HOST":     cfg.PostgresHost,
		"POSTGRES_PORT":     cfg.PostgresPort,
		"POSTGRES_USER":     cfg.PostgresUser,
		"POSTGRES_PASSWORD": cfg.PostgresPassword,
		"POSTGRES_NAME":     cfg.PostgresName,

		"QDRANT_HOST":       cfg.QdrantHost,
		"QDRANT_PORT":       cfg.QdrantPort,
		"QDRANT_COLLECTION": cfg.QdrantCollectionBase + "_" + ch.NormalizedName,

		"BOT_NAME":          ch.Name,
		"CHARACTER_ID":      strconv.FormatUint(uint64(ch.ID), 10),
		"HEALTH_CHECK_PORT": strconv.Itoa(cfg.HealthPort),

		"LLM_CLIENT_TYPE": cfg.LLMClientType,
		"LLM_API_URL":     cfg.LLMAPIURL,
		"LLM_MODEL":       cfg.LLMModel,
		"LLM_API_KEY":     cfg.LLMAPIKey,

		"MEMORY_SYSTEM_TYPE":             cfg.MemorySystemType,
		"CHARACTER_INTELLIGENCE_ENABLED": strconv.FormatBool(cfg.CharacterIntelligenceEnabled),
		"EMOTIONAL_INTELLIGENCE_ENABLED": strconv.FormatBool(cfg.EmotionalIntelligenceEnabled),
		"ALLOW_FULL_ROLEPLAY_IMMERSION":  strconv.FormatBool(ch.AllowFullRoleplayImmersion),

		"TELEGRAM_ENABLED": strconv.FormatBool(cfg.TelegramEnabled),
	}
	if cfg.TelegramToken != "" {
		env["TELEGRAM_TOKEN"] = cfg.TelegramToken
	}
	return dockercli.Spec{
		Name:       containerName,
		Image:      cfg.Image,
		Port:       port,
		HealthPort: cfg.HealthPort,
		Env:        env,
	}
}

func (s *deployerService) ListDeployments(ctx context.Context) ([]*types.DeploymentSummary, error) {
	results, err := s.deployments.ListWithCharacter(ctx, nil)
	if err != nil {
		return nil, apierr.Persistence(err)
	}
	return results, nil
}
