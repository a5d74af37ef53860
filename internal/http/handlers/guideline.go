package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/personaforge/personaforge/internal/http/response"
	"github.com/personaforge/personaforge/internal/platform/logger"
	"github.com/personaforge/personaforge/internal/services"
)

type GuidelineHandler struct {
	log        *logger.Logger
	guidelines services.GuidelineService
}

func NewGuidelineHandler(log *logger.Logger, guidelines services.GuidelineService) *GuidelineHandler {
	return &GuidelineHandler{
		log:        log.With("handler", "GuidelineHandler"),
		guidelines: guidelines,
	}
}

func (h *GuidelineHandler) List(c *gin.Context) {
	characterID, ok := pathID(c, "id")
	if !ok {
		return
	}
	rows, err := h.guidelines.List(c.Request.Context(), characterID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{
		"success":    true,
		"guidelines": rows,
	})
}

type updateGuidelineRequest struct {
	ItemType  string `json:"itemType"`
	ItemText  string `json:"itemText"`
	SortOrder int    `json:"sortOrder"`
}

func (h *GuidelineHandler) Update(c *gin.Context) {
	characterID, ok := pathID(c, "id")
	if !ok {
		return
	}
	itemID, ok := pathID(c, "itemId")
	if !ok {
		return
	}
	var req updateGuidelineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}

	row, err := h.guidelines.UpdateItem(c.Request.Context(), characterID, itemID, req.ItemType, req.ItemText, req.SortOrder)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{
		"success":   true,
		"guideline": row,
	})
}
