package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/personaforge/personaforge/internal/platform/apierr"
	"github.com/personaforge/personaforge/internal/platform/logger"
	"github.com/personaforge/personaforge/internal/repos"
	"github.com/personaforge/personaforge/internal/types"
)

// GuidelineService backs the response-style editing UI: list a character's
// guidelines and update one row in place. Bulk replacement stays with the
// importer, which owns replace-not-merge semantics.
type GuidelineService interface {
	List(ctx context.Context, characterID uint) ([]*types.ResponseGuideline, error)
	UpdateItem(ctx context.Context, characterID, itemID uint, itemType, itemText string, sortOrder int) (*types.ResponseGuideline, error)
}

type guidelineService struct {
	db         *gorm.DB
	log        *logger.Logger
	characters repos.CharacterRepo
}

func NewGuidelineService(db *gorm.DB, log *logger.Logger, characters repos.CharacterRepo) GuidelineService {
	return &guidelineService{
		db:         db,
		log:        log.With("service", "GuidelineService"),
		characters: characters,
	}
}

func (s *guidelineService) List(ctx context.Context, characterID uint) ([]*types.ResponseGuideline, error) {
	if _, err := s.characters.GetByID(ctx, nil, characterID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound("character_not_found", fmt.Errorf("character %d does not exist", characterID))
		}
		return nil, apierr.Persistence(err)
	}
	rows, err := s.characters.GetGuidelines(ctx, nil, characterID)
	if err != nil {
		return nil, apierr.Persistence(err)
	}
	return rows, nil
}

func (s *guidelineService) UpdateItem(ctx context.Context, characterID, itemID uint, itemType, itemText string, sortOrder int) (*types.ResponseGuideline, error) {
	if itemText == "" {
		return nil, apierr.Validation("missing_item_text", fmt.Errorf("item_text is required"))
	}

	rows, err := s.characters.GetGuidelines(ctx, nil, characterID)
	if err != nil {
		return nil, apierr.Persistence(err)
	}
	var target *types.ResponseGuideline
	for _, row := range rows {
		if row.ID == itemID {
			target = row
			break
		}
	}
	if target == nil {
		return nil, apierr.NotFound("guideline_not_found", fmt.Errorf(
			"guideline %d does not exist for character %d", itemID, characterID))
	}

	if itemType != "" {
		target.ItemType = itemType
	}
	target.ItemText = itemText
	target.SortOrder = sortOrder
	if err := s.characters.UpdateGuideline(ctx, nil, target); err != nil {
		return nil, apierr.Persistence(err)
	}
	return target, nil
}
