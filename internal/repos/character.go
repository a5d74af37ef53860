package repos

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/personaforge/personaforge/internal/platform/logger"
	"github.com/personaforge/personaforge/internal/types"
)

// CharacterRepo owns the character root row and every replaceable child
// collection. Child collections are replace-not-merge: ReplaceX deletes all
// rows for the character and inserts the new set, always inside the caller's
// transaction.
type CharacterRepo interface {
	Create(ctx context.Context, tx *gorm.DB, ch *types.Character) error
	Update(ctx context.Context, tx *gorm.DB, ch *types.Character) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*types.Character, error)
	GetByNormalizedName(ctx context.Context, tx *gorm.DB, normalized string) (*types.Character, error)
	List(ctx context.Context, tx *gorm.DB, activeOnly bool) ([]*types.Character, error)
	Deactivate(ctx context.Context, tx *gorm.DB, id uint) error

	ReplaceTraits(ctx context.Context, tx *gorm.DB, characterID uint, rows []*types.PersonalityTrait) error
	ReplaceValues(ctx context.Context, tx *gorm.DB, characterID uint, rows []*types.CharacterValue) error
	ReplaceBackground(ctx context.Context, tx *gorm.DB, characterID uint, rows []*types.BackgroundEntry) error
	ReplaceInterests(ctx context.Context, tx *gorm.DB, characterID uint, rows []*types.InterestEntry) error
	ReplaceCommunicationPatterns(ctx context.Context, tx *gorm.DB, characterID uint, rows []*types.CommunicationPattern) error
	ReplaceSpeechPatterns(ctx context.Context, tx *gorm.DB, characterID uint, rows []*types.SpeechPattern) error
	ReplaceGuidelines(ctx context.Context, tx *gorm.DB, characterID uint, rows []*types.ResponseGuideline) error

	GetTraits(ctx context.Context, tx *gorm.DB, characterID uint) ([]*types.PersonalityTrait, error)
	GetValues(ctx context.Context, tx *gorm.DB, characterID uint) ([]*types.CharacterValue, error)
	GetBackground(ctx context.Context, tx *gorm.DB, characterID uint) ([]*types.BackgroundEntry, error)
	GetInterests(ctx context.Context, tx *gorm.DB, characterID uint) ([]*types.InterestEntry, error)
	GetCommunicationPatterns(ctx context.Context, tx *gorm.DB, characterID uint) ([]*types.CommunicationPattern, error)
	GetSpeechPatterns(ctx context.Context, tx *gorm.DB, characterID uint) ([]*types.SpeechPattern, error)
	GetGuidelines(ctx context.Context, tx *gorm.DB, characterID uint) ([]*types.ResponseGuideline, error)
	UpdateGuideline(ctx context.Context, tx *gorm.DB, row *types.ResponseGuideline) error
}

type characterRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCharacterRepo(db *gorm.DB, baseLog *logger.Logger) CharacterRepo {
	return &characterRepo{db: db, log: baseLog.With("repo", "CharacterRepo")}
}

func (r *characterRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *characterRepo) Create(ctx context.Context, tx *gorm.DB, ch *types.Character) error {
	return r.conn(tx).WithContext(ctx).Create(ch).Error
}

func (r *characterRepo) Update(ctx context.Context, tx *gorm.DB, ch *types.Character) error {
	return r.conn(tx).WithContext(ctx).Save(ch).Error
}

func (r *characterRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*types.Character, error) {
	var ch types.Character
	if err := r.conn(tx).WithContext(ctx).First(&ch, id).Error; err != nil {
		return nil, err
	}
	return &ch, nil
}

// GetByNormalizedName is an existence probe: a missing row is (nil, nil),
// not an error, so the importer can branch on conflict without unwrapping.
func (r *characterRepo) GetByNormalizedName(ctx context.Context, tx *gorm.DB, normalized string) (*types.Character, error) {
	var ch types.Character
	err := r.conn(tx).WithContext(ctx).
		Where("normalized_name = ?", normalized).
		First(&ch).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ch, nil
}

func (r *characterRepo) List(ctx context.Context, tx *gorm.DB, activeOnly bool) ([]*types.Character, error) {
	var results []*types.Character
	q := r.conn(tx).WithContext(ctx).Order("name asc")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *characterRepo) Deactivate(ctx context.Context, tx *gorm.DB, id uint) error {
	return r.conn(tx).WithContext(ctx).
		Model(&types.Character{}).
		Where("id = ?", id).
		Update("is_active", false).Error
}

func replaceRows[T any](db *gorm.DB, ctx context.Context, characterID uint, model any, rows []*T) error {
	if err := db.WithContext(ctx).
		Where("character_id = ?", characterID).
		Delete(model).Error; err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	return db.WithContext(ctx).Create(&rows).Error
}

func (r *characterRepo) ReplaceTraits(ctx context.Context, tx *gorm.DB, characterID uint, rows []*types.PersonalityTrait) error {
	return replaceRows(r.conn(tx), ctx, characterID, &types.PersonalityTrait{}, rows)
}

func (r *characterRepo) ReplaceValues(ctx context.Context, tx *gorm.DB, characterID uint, rows []*types.CharacterValue) error {
	return replaceRows(r.conn(tx), ctx, characterID, &types.CharacterValue{}, rows)
}

func (r *characterRepo) ReplaceBackground(ctx context.Context, tx *gorm.DB, characterID uint, rows []*types.BackgroundEntry) error {
	return replaceRows(r.conn(tx), ctx, characterID, &types.BackgroundEntry{}, rows)
}

func (r *characterRepo) ReplaceInterests(ctx context.Context, tx *gorm.DB, characterID uint, rows []*types.InterestEntry) error {
	return replaceRows(r.conn(tx), ctx, characterID, &types.InterestEntry{}, rows)
}

func (r *characterRepo) ReplaceCommunicationPatterns(ctx context.Context, tx *gorm.DB, characterID uint, rows []*types.CommunicationPattern) error {
	return replaceRows(r.conn(tx), ctx, characterID, &types.CommunicationPattern{}, rows)
}

func (r *characterRepo) ReplaceSpeechPatterns(ctx context.Context, tx *gorm.DB, characterID uint, rows []*types.SpeechPattern) error {
	return replaceRows(r.conn(tx), ctx, characterID, &types.SpeechPattern{}, rows)
}

func (r *characterRepo) ReplaceGuidelines(ctx context.Context, tx *gorm.DB, characterID uint, rows []*types.ResponseGuideline) error {
	return replaceRows(r.conn(tx), ctx, characterID, &types.ResponseGuideline{}, rows)
}

func getRows[T any](db *gorm.DB, ctx context.Context, characterID uint, order string) ([]*T, error) {
	var results []*T
	if err := db.WithContext(ctx).
		Where("character_id = ?", characterID).
		Order(order).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *characterRepo) GetTraits(ctx context.Context, tx *gorm.DB, characterID uint) ([]*types.PersonalityTrait, error) {
	return getRows[types.PersonalityTrait](r.conn(tx), ctx, characterID, "trait_name asc")
}

func (r *characterRepo) GetValues(ctx context.Context, tx *gorm.DB, characterID uint) ([]*types.CharacterValue, error) {
	return getRows[types.CharacterValue](r.conn(tx), ctx, characterID, "id asc")
}

func (r *characterRepo) GetBackground(ctx context.Context, tx *gorm.DB, characterID uint) ([]*types.BackgroundEntry, error) {
	return getRows[types.BackgroundEntry](r.conn(tx), ctx, characterID, "category asc, title asc, id asc")
}

func (r *characterRepo) GetInterests(ctx context.Context, tx *gorm.DB, characterID uint) ([]*types.InterestEntry, error) {
	return getRows[types.InterestEntry](r.conn(tx), ctx, characterID, "category asc, interest_text asc, id asc")
}

func (r *characterRepo) GetCommunicationPatterns(ctx context.Context, tx *gorm.DB, characterID uint) ([]*types.CommunicationPattern, error) {
	return getRows[types.CommunicationPattern](r.conn(tx), ctx, characterID, "pattern_type asc, pattern_name asc, id asc")
}

func (r *characterRepo) GetSpeechPatterns(ctx context.Context, tx *gorm.DB, characterID uint) ([]*types.SpeechPattern, error) {
	return getRows[types.SpeechPattern](r.conn(tx), ctx, characterID, "priority asc, id asc")
}

func (r *characterRepo) GetGuidelines(ctx context.Context, tx *gorm.DB, characterID uint) ([]*types.ResponseGuideline, error) {
	return getRows[types.ResponseGuideline](r.conn(tx), ctx, characterID, "sort_order asc, id asc")
}

func (r *characterRepo) UpdateGuideline(ctx context.Context, tx *gorm.DB, row *types.ResponseGuideline) error {
	return r.conn(tx).WithContext(ctx).Save(row).Error
}
