package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/personaforge/personaforge/internal/http/response"
	"github.com/personaforge/personaforge/internal/platform/logger"
	"github.com/personaforge/personaforge/internal/services"
	"github.com/personaforge/personaforge/internal/types"
)

type DeploymentHandler struct {
	log      *logger.Logger
	deployer services.DeployerService
	baseURL  string
}

func NewDeploymentHandler(log *logger.Logger, deployer services.DeployerService, baseURL string) *DeploymentHandler {
	if baseURL == "" {
		baseURL = "http://localhost"
	}
	return &DeploymentHandler{
		log:      log.With("handler", "DeploymentHandler"),
		deployer: deployer,
		baseURL:  baseURL,
	}
}

type deployRequest struct {
	CharacterID   uint   `json:"characterId"`
	CharacterName string `json:"characterName"`
}

// Deploy provisions a new instance. A failed container launch still returns
// 200 with status "failed" and the diagnostic: the attempt is recorded
// either way, and the caller inspects deployment.status rather than the
// transport code.
func (h *DeploymentHandler) Deploy(c *gin.Context) {
	var req deployRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	if req.CharacterID == 0 || req.CharacterName == "" {
		response.RespondError(c, http.StatusBadRequest, "missing_fields",
			fmt.Errorf("characterId and characterName are required"))
		return
	}

	deployment, err := h.deployer.Deploy(c.Request.Context(), req.CharacterID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}

	payload := gin.H{
		"id":             deployment.ID,
		"containerName":  deployment.ContainerName,
		"port":           deployment.Port,
		"endpoint":       fmt.Sprintf("%s:%d", h.baseURL, deployment.Port),
		"healthCheckUrl": fmt.Sprintf("%s:%d/health", h.baseURL, deployment.Port),
		"status":         deployment.Status,
	}
	if deployment.Status == types.DeploymentStatusFailed {
		payload["errorMessage"] = deployment.ErrorMessage
	}
	response.RespondOK(c, gin.H{
		"success":    deployment.Status != types.DeploymentStatusFailed,
		"deployment": payload,
	})
}

func (h *DeploymentHandler) List(c *gin.Context) {
	deployments, err := h.deployer.ListDeployments(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{
		"success":     true,
		"deployments": deployments,
	})
}
