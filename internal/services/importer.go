package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/personaforge/personaforge/internal/card"
	"github.com/personaforge/personaforge/internal/platform/apierr"
	"github.com/personaforge/personaforge/internal/platform/logger"
	"github.com/personaforge/personaforge/internal/repos"
	"github.com/personaforge/personaforge/internal/types"
)

const (
	ImportActionCreated = "created"
	ImportActionUpdated = "updated"

	// commStyleSummaryType marks the single communication-pattern row that
	// summarizes a character's overall style. Clone carries it over while
	// leaving the rest of the pattern set behind.
	commStyleSummaryType = "style_summary"
)

var bigFiveTraits = []string{
	"openness",
	"conscientiousness",
	"extraversion",
	"agreeableness",
	"neuroticism",
}

// ImporterService is the bidirectional transform between the card document
// and the relational aggregate. Import applies the whole document in one
// transaction with replace-not-merge child semantics; Export reassembles a
// document from rows; Clone copies a deliberately narrow subset.
type ImporterService interface {
	Import(ctx context.Context, def *card.Definition, overwrite bool) (characterID uint, action string, err error)
	Export(ctx context.Context, characterID uint) (*card.Definition, error)
	Clone(ctx context.Context, sourceID uint, newName string) (*types.Character, error)
}

type importerService struct {
	db         *gorm.DB
	log        *logger.Logger
	characters repos.CharacterRepo
}

func NewImporterService(db *gorm.DB, log *logger.Logger, characters repos.CharacterRepo) ImporterService {
	return &importerService{
		db:         db,
		log:        log.With("service", "ImporterService"),
		characters: characters,
	}
}

func (s *importerService) Import(ctx context.Context, def *card.Definition, overwrite bool) (uint, string, error) {
	if def == nil || def.Identity.Name == "" {
		return 0, "", apierr.Validation("missing_name", card.ErrMissingName)
	}

	normalized := card.NormalizeName(def.Identity.Name)
	if def.Metadata != nil && def.Metadata.NormalizedName != "" {
		normalized = def.Metadata.NormalizedName
	}

	var (
		characterID uint
		action      string
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.characters.GetByNormalizedName(ctx, tx, normalized)
		if err != nil {
			return apierr.Persistence(err)
		}

		var ch *types.Character
		switch {
		case existing != nil && !overwrite:
			return apierr.Conflict("character_exists", fmt.Errorf(
				"character %q already exists; resubmit with overwrite to replace it", def.Identity.Name))
		case existing != nil:
			existing.Name = def.Identity.Name
			existing.Occupation = def.Identity.Occupation
			existing.Description = def.Identity.Description
			existing.Archetype = def.Identity.Archetype
			existing.AllowFullRoleplayImmersion = def.Identity.AllowFullRoleplayImmersion
			existing.IsActive = true
			if err := s.characters.Update(ctx, tx, existing); err != nil {
				return apierr.Persistence(err)
			}
			ch = existing
			action = ImportActionUpdated
		default:
			ch = &types.Character{
				Name:                       def.Identity.Name,
				NormalizedName:             normalized,
				Occupation:                 def.Identity.Occupation,
				Description:                def.Identity.Description,
				Archetype:                  def.Identity.Archetype,
				AllowFullRoleplayImmersion: def.Identity.AllowFullRoleplayImmersion,
				IsActive:                   true,
			}
			if err := s.characters.Create(ctx, tx, ch); err != nil {
				return apierr.Persistence(err)
			}
			action = ImportActionCreated
		}
		characterID = ch.ID

		if err := s.applySections(ctx, tx, ch.ID, def); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return 0, "", err
	}

	s.log.Info("Imported character definition",
		"character_id", characterID, "normalized_name", normalized, "action", action)
	return characterID, action, nil
}

// applySections rewrites each child collection whose section is present in
// the document. A section key that is absent leaves its rows untouched; a
// present section replaces them wholesale, even with an empty list. Partial
// merges are not supported anywhere.
func (s *importerService) applySections(ctx context.Context, tx *gorm.DB, characterID uint, def *card.Definition) error {
	if def.Personality != nil {
		if def.Personality.BigFive != nil {
			rows := traitRows(characterID, def.Personality.BigFive)
			if err := s.characters.ReplaceTraits(ctx, tx, characterID, rows); err != nil {
				return apierr.Persistence(err)
			}
		}
		if def.Personality.Values != nil {
			rows := make([]*types.CharacterValue, 0, len(def.Personality.Values))
			for _, v := range def.Personality.Values {
				rows = append(rows, &types.CharacterValue{CharacterID: characterID, ValueText: v})
			}
			if err := s.characters.ReplaceValues(ctx, tx, characterID, rows); err != nil {
				return apierr.Persistence(err)
			}
		}
	}

	if def.Background != nil {
		rows := make([]*types.BackgroundEntry, 0, len(def.Background.Entries))
		for _, e := range def.Background.Entries {
			rows = append(rows, &types.BackgroundEntry{
				CharacterID:     characterID,
				Category:        e.Category,
				Title:           e.Title,
				Description:     e.Description,
				Period:          e.Period,
				ImportanceLevel: e.ImportanceLevel,
			})
		}
		if err := s.characters.ReplaceBackground(ctx, tx, characterID, rows); err != nil {
			return apierr.Persistence(err)
		}
	}

	if def.Interests != nil {
		rows := make([]*types.InterestEntry, 0, len(def.Interests.Entries))
		for _, e := range def.Interests.Entries {
			rows = append(rows, &types.InterestEntry{
				CharacterID:      characterID,
				Category:         e.Category,
				InterestText:     e.InterestText,
				ProficiencyLevel: e.ProficiencyLevel,
				Importance:       e.Importance,
			})
		}
		if err := s.characters.ReplaceInterests(ctx, tx, characterID, rows); err != nil {
			return apierr.Persistence(err)
		}
	}

	if def.CommunicationPatterns != nil {
		rows := make([]*types.CommunicationPattern, 0, len(def.CommunicationPatterns.Patterns))
		for _, p := range def.CommunicationPatterns.Patterns {
			rows = append(rows, &types.CommunicationPattern{
				CharacterID:  characterID,
				PatternType:  p.PatternType,
				PatternName:  p.PatternName,
				PatternValue: p.PatternValue,
				Context:      p.Context,
				Frequency:    p.Frequency,
			})
		}
		if err := s.characters.ReplaceCommunicationPatterns(ctx, tx, characterID, rows); err != nil {
			return apierr.Persistence(err)
		}
	}

	if def.SpeechPatterns != nil {
		rows := make([]*types.SpeechPattern, 0, len(def.SpeechPatterns.Patterns))
		for _, p := range def.SpeechPatterns.Patterns {
			rows = append(rows, &types.SpeechPattern{
				CharacterID:    characterID,
				PatternType:    p.PatternType,
				PatternValue:   p.PatternValue,
				UsageFrequency: p.UsageFrequency,
				Context:        p.Context,
				Priority:       p.Priority,
			})
		}
		if err := s.characters.ReplaceSpeechPatterns(ctx, tx, characterID, rows); err != nil {
			return apierr.Persistence(err)
		}
	}

	if def.ResponseStyle != nil {
		rows := make([]*types.ResponseGuideline, 0, len(def.ResponseStyle.Items))
		for _, it := range def.ResponseStyle.Items {
			rows = append(rows, &types.ResponseGuideline{
				CharacterID: characterID,
				ItemType:    it.ItemType,
				ItemText:    it.ItemText,
				SortOrder:   it.SortOrder,
			})
		}
		if err := s.characters.ReplaceGuidelines(ctx, tx, characterID, rows); err != nil {
			return apierr.Persistence(err)
		}
	}
	return nil
}

func (s *importerService) Export(ctx context.Context, characterID uint) (*card.Definition, error) {
	ch, err := s.characters.GetByID(ctx, nil, characterID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound("character_not_found", fmt.Errorf("character %d does not exist", characterID))
		}
		return nil, apierr.Persistence(err)
	}

	def := &card.Definition{
		Identity: card.Identity{
			Name:                       ch.Name,
			Occupation:                 ch.Occupation,
			Description:                ch.Description,
			Archetype:                  ch.Archetype,
			AllowFullRoleplayImmersion: ch.AllowFullRoleplayImmersion,
		},
		Metadata: &card.Metadata{NormalizedName: ch.NormalizedName},
	}

	traits, err := s.characters.GetTraits(ctx, nil, ch.ID)
	if err != nil {
		return nil, apierr.Persistence(err)
	}
	values, err := s.characters.GetValues(ctx, nil, ch.ID)
	if err != nil {
		return nil, apierr.Persistence(err)
	}
	if len(traits) > 0 || len(values) > 0 {
		p := &card.Personality{}
		if len(traits) > 0 {
			p.BigFive = bigFiveFromRows(traits)
		}
		for _, v := range values {
			p.Values = append(p.Values, v.ValueText)
		}
		def.Personality = p
	}

	background, err := s.characters.GetBackground(ctx, nil, ch.ID)
	if err != nil {
		return nil, apierr.Persistence(err)
	}
	if len(background) > 0 {
		sec := &card.Background{}
		for _, e := range background {
			sec.Entries = append(sec.Entries, card.BackgroundEntry{
				Category:        e.Category,
				Title:           e.Title,
				Description:     e.Description,
				Period:          e.Period,
				ImportanceLevel: e.ImportanceLevel,
			})
		}
		def.Background = sec
	}

	interests, err := s.characters.GetInterests(ctx, nil, ch.ID)
	if err != nil {
		return nil, apierr.Persistence(err)
	}
	if len(interests) > 0 {
		sec := &card.Interests{}
		for _, e := range interests {
			sec.Entries = append(sec.Entries, card.InterestEntry{
				Category:         e.Category,
				InterestText:     e.InterestText,
				ProficiencyLevel: e.ProficiencyLevel,
				Importance:       e.Importance,
			})
		}
		def.Interests = sec
	}

	comms, err := s.characters.GetCommunicationPatterns(ctx, nil, ch.ID)
	if err != nil {
		return nil, apierr.Persistence(err)
	}
	if len(comms) > 0 {
		sec := &card.CommunicationPatterns{}
		for _, p := range comms {
			sec.Patterns = append(sec.Patterns, card.CommunicationPattern{
				PatternType:  p.PatternType,
				PatternName:  p.PatternName,
				PatternValue: p.PatternValue,
				Context:      p.Context,
				Frequency:    p.Frequency,
			})
		}
		def.CommunicationPatterns = sec
	}

	speech, err := s.characters.GetSpeechPatterns(ctx, nil, ch.ID)
	if err != nil {
		return nil, apierr.Persistence(err)
	}
	if len(speech) > 0 {
		sec := &card.SpeechPatterns{}
		for _, p := range speech {
			sec.Patterns = append(sec.Patterns, card.SpeechPattern{
				PatternType:    p.PatternType,
				PatternValue:   p.PatternValue,
				UsageFrequency: p.UsageFrequency,
				Context:        p.Context,
				Priority:       p.Priority,
			})
		}
		def.SpeechPatterns = sec
	}

	guidelines, err := s.characters.GetGuidelines(ctx, nil, ch.ID)
	if err != nil {
		return nil, apierr.Persistence(err)
	}
	if len(guidelines) > 0 {
		sec := &card.ResponseStyle{}
		for _, g := range guidelines {
			sec.Items = append(sec.Items, card.ResponseItem{
				ItemType:  g.ItemType,
				ItemText:  g.ItemText,
				SortOrder: g.SortOrder,
			})
		}
		def.ResponseStyle = sec
	}

	return def, nil
}

// Clone copies the root row, personality traits, the communication-style
// summary record, and value statements to a new character. Background,
// interests, speech patterns, and response guidelines stay behind: a clone
// starts from the same temperament, not the same biography.
func (s *importerService) Clone(ctx context.Context, sourceID uint, newName string) (*types.Character, error) {
	if newName == "" {
		return nil, apierr.Validation("missing_new_name", fmt.Errorf("newName is required"))
	}

	source, err := s.characters.GetByID(ctx, nil, sourceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound("character_not_found", fmt.Errorf("source character %d does not exist", sourceID))
		}
		return nil, apierr.Persistence(err)
	}

	normalized := card.NormalizeName(newName)
	var clone *types.Character
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.characters.GetByNormalizedName(ctx, tx, normalized)
		if err != nil {
			return apierr.Persistence(err)
		}
		if existing != nil {
			return apierr.Conflict("character_exists", fmt.Errorf("character %q already exists", newName))
		}

		clone = &types.Character{
			Name:                       newName,
			NormalizedName:             normalized,
			Occupation:                 source.Occupation,
			Description:                source.Description,
			Archetype:                  source.Archetype,
			AllowFullRoleplayImmersion: source.AllowFullRoleplayImmersion,
			IsActive:                   true,
		}
		if err := s.characters.Create(ctx, tx, clone); err != nil {
			return apierr.Persistence(err)
		}

		traits, err := s.characters.GetTraits(ctx, tx, source.ID)
		if err != nil {
			return apierr.Persistence(err)
		}
		traitCopies := make([]*types.PersonalityTrait, 0, len(traits))
		for _, t := range traits {
			traitCopies = append(traitCopies, &types.PersonalityTrait{
				CharacterID: clone.ID,
				TraitName:   t.TraitName,
				TraitValue:  t.TraitValue,
			})
		}
		if err := s.characters.ReplaceTraits(ctx, tx, clone.ID, traitCopies); err != nil {
			return apierr.Persistence(err)
		}

		values, err := s.characters.GetValues(ctx, tx, source.ID)
		if err != nil {
			return apierr.Persistence(err)
		}
		valueCopies := make([]*types.CharacterValue, 0, len(values))
		for _, v := range values {
			valueCopies = append(valueCopies, &types.CharacterValue{
				CharacterID: clone.ID,
				ValueText:   v.ValueText,
			})
		}
		if err := s.characters.ReplaceValues(ctx, tx, clone.ID, valueCopies); err != nil {
			return apierr.Persistence(err)
		}

		comms, err := s.characters.GetCommunicationPatterns(ctx, tx, source.ID)
		if err != nil {
			return apierr.Persistence(err)
		}
		var summaryCopies []*types.CommunicationPattern
		for _, p := range comms {
			if p.PatternType != commStyleSummaryType {
				continue
			}
			summaryCopies = append(summaryCopies, &types.CommunicationPattern{
				CharacterID:  clone.ID,
				PatternType:  p.PatternType,
				PatternName:  p.PatternName,
				PatternValue: p.PatternValue,
				Context:      p.Context,
				Frequency:    p.Frequency,
			})
		}
		if len(summaryCopies) > 0 {
			if err := s.characters.ReplaceCommunicationPatterns(ctx, tx, clone.ID, summaryCopies); err != nil {
				return apierr.Persistence(err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Cloned character", "source_id", sourceID, "clone_id", clone.ID, "normalized_name", normalized)
	return clone, nil
}

func traitRows(characterID uint, bf *card.BigFive) []*types.PersonalityTrait {
	vals := map[string]int{
		"openness":          bf.Openness,
		"conscientiousness": bf.Conscientiousness,
		"extraversion":      bf.Extraversion,
		"agreeableness":     bf.Agreeableness,
		"neuroticism":       bf.Neuroticism,
	}
	rows := make([]*types.PersonalityTrait, 0, len(bigFiveTraits))
	for _, name := range bigFiveTraits {
		rows = append(rows, &types.PersonalityTrait{
			CharacterID: characterID,
			TraitName:   name,
			TraitValue:  vals[name],
		})
	}
	return rows
}

func bigFiveFromRows(rows []*types.PersonalityTrait) *card.BigFive {
	bf := &card.BigFive{}
	for _, t := range rows {
		switch t.TraitName {
		case "openness":
			bf.Openness = t.TraitValue
		case "conscientiousness":
			bf.Conscientiousness = t.TraitValue
		case "extraversion":
			bf.Extraversion = t.TraitValue
		case "agreeableness":
			bf.Agreeableness = t.TraitValue
		case "neuroticism":
			bf.Neuroticism = t.TraitValue
		}
	}
	return bf
}
