package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/personaforge/personaforge/internal/card"
	"github.com/personaforge/personaforge/internal/http/response"
	"github.com/personaforge/personaforge/internal/platform/logger"
	"github.com/personaforge/personaforge/internal/repos"
	"github.com/personaforge/personaforge/internal/services"
)

const maxCardSize = 1 << 20 // 1 MiB is generous for a YAML card

type CharacterHandler struct {
	log        *logger.Logger
	importer   services.ImporterService
	characters repos.CharacterRepo
}

func NewCharacterHandler(log *logger.Logger, importer services.ImporterService, characters repos.CharacterRepo) *CharacterHandler {
	return &CharacterHandler{
		log:        log.With("handler", "CharacterHandler"),
		importer:   importer,
		characters: characters,
	}
}

// ImportDefinition accepts a multipart upload: the card document under
// "file" plus an "overwrite" flag. A name collision without overwrite is a
// 409 telling the caller exactly how to retry.
func (h *CharacterHandler) ImportDefinition(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "missing_file", fmt.Errorf("a character card file is required"))
		return
	}
	overwrite := parseBoolField(c.PostForm("overwrite"))

	f, err := fileHeader.Open()
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "unreadable_file", err)
		return
	}
	defer f.Close()
	raw, err := io.ReadAll(io.LimitReader(f, maxCardSize+1))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "unreadable_file", err)
		return
	}
	if len(raw) > maxCardSize {
		response.RespondError(c, http.StatusBadRequest, "file_too_large", fmt.Errorf("character card exceeds %d bytes", maxCardSize))
		return
	}

	def, err := card.Parse(raw)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_card", err)
		return
	}

	characterID, action, err := h.importer.Import(c.Request.Context(), def, overwrite)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}

	response.RespondOK(c, gin.H{
		"success":     true,
		"message":     fmt.Sprintf("Character %q %s", def.Identity.Name, action),
		"characterId": characterID,
		"action":      action,
	})
}

// ExportDefinition streams the character's card document as an attachment.
func (h *CharacterHandler) ExportDefinition(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	def, err := h.importer.Export(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	doc, err := card.Render(def)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "render_failure", err)
		return
	}

	filename := card.NormalizeName(def.Identity.Name) + ".yaml"
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/x-yaml", doc)
}

type cloneRequest struct {
	SourceCharacterID uint   `json:"sourceCharacterId"`
	NewName           string `json:"newName"`
}

func (h *CharacterHandler) Clone(c *gin.Context) {
	var req cloneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	if req.SourceCharacterID == 0 || strings.TrimSpace(req.NewName) == "" {
		response.RespondError(c, http.StatusBadRequest, "missing_fields",
			fmt.Errorf("sourceCharacterId and newName are required"))
		return
	}

	clone, err := h.importer.Clone(c.Request.Context(), req.SourceCharacterID, strings.TrimSpace(req.NewName))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{
		"success":   true,
		"character": clone,
	})
}

func (h *CharacterHandler) List(c *gin.Context) {
	activeOnly := parseBoolField(c.Query("active"))
	chars, err := h.characters.List(c.Request.Context(), nil, activeOnly)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "persistence_failure", err)
		return
	}
	response.RespondOK(c, gin.H{
		"success":    true,
		"characters": chars,
	})
}

func (h *CharacterHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	ch, err := h.characters.GetByID(c.Request.Context(), nil, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.RespondError(c, http.StatusNotFound, "character_not_found",
				fmt.Errorf("character %d does not exist", id))
			return
		}
		response.RespondError(c, http.StatusInternalServerError, "persistence_failure", err)
		return
	}
	response.RespondOK(c, gin.H{
		"success":   true,
		"character": ch,
	})
}

// Deactivate is the only destructive character operation; rows are never
// hard-deleted.
func (h *CharacterHandler) Deactivate(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if _, err := h.characters.GetByID(c.Request.Context(), nil, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.RespondError(c, http.StatusNotFound, "character_not_found",
				fmt.Errorf("character %d does not exist", id))
			return
		}
		response.RespondError(c, http.StatusInternalServerError, "persistence_failure", err)
		return
	}
	if err := h.characters.Deactivate(c.Request.Context(), nil, id); err != nil {
		response.RespondError(c, http.StatusInternalServerError, "persistence_failure", err)
		return
	}
	response.RespondOK(c, gin.H{"success": true})
}

func pathID(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", fmt.Errorf("invalid id %q", raw))
		return 0, false
	}
	return uint(id), true
}

func parseBoolField(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
