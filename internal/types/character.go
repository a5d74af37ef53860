package types

import "time"

// Character is the relational root of one authored character definition.
// NormalizedName is the business key: lookups, conflict detection, and
// overwrite targeting all go through it rather than the display name.
type Character struct {
	ID                         uint      `gorm:"primaryKey" json:"id"`
	Name                       string    `gorm:"not null;column:name" json:"name"`
	NormalizedName             string    `gorm:"uniqueIndex;not null;column:normalized_name" json:"normalized_name"`
	Occupation                 string    `gorm:"column:occupation" json:"occupation"`
	Description                string    `gorm:"type:text;column:description" json:"description"`
	Archetype                  string    `gorm:"column:archetype" json:"archetype"`
	AllowFullRoleplayImmersion bool      `gorm:"default:false;column:allow_full_roleplay_immersion" json:"allow_full_roleplay_immersion"`
	IsActive                   bool      `gorm:"default:true;column:is_active" json:"is_active"`
	CreatedAt                  time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt                  time.Time `gorm:"not null" json:"updated_at"`
}

func (Character) TableName() string { return "characters" }

// PersonalityTrait holds one big-five scalar for a character
// (trait name -> 0..100 value).
type PersonalityTrait struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	CharacterID uint   `gorm:"index;not null;column:character_id" json:"character_id"`
	TraitName   string `gorm:"not null;column:trait_name" json:"trait_name"`
	TraitValue  int    `gorm:"not null;column:trait_value" json:"trait_value"`
}

func (PersonalityTrait) TableName() string { return "personality_traits" }

type CharacterValue struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	CharacterID uint   `gorm:"index;not null;column:character_id" json:"character_id"`
	ValueText   string `gorm:"type:text;not null;column:value_text" json:"value_text"`
}

func (CharacterValue) TableName() string { return "character_values" }

type BackgroundEntry struct {
	ID              uint   `gorm:"primaryKey" json:"id"`
	CharacterID     uint   `gorm:"index;not null;column:character_id" json:"character_id"`
	Category        string `gorm:"column:category" json:"category"`
	Title           string `gorm:"column:title" json:"title"`
	Description     string `gorm:"type:text;column:description" json:"description"`
	Period          string `gorm:"column:period" json:"period"`
	ImportanceLevel int    `gorm:"default:5;column:importance_level" json:"importance_level"`
}

func (BackgroundEntry) TableName() string { return "background_entries" }

type InterestEntry struct {
	ID               uint   `gorm:"primaryKey" json:"id"`
	CharacterID      uint   `gorm:"index;not null;column:character_id" json:"character_id"`
	Category         string `gorm:"column:category" json:"category"`
	InterestText     string `gorm:"type:text;not null;column:interest_text" json:"interest_text"`
	ProficiencyLevel int    `gorm:"default:5;column:proficiency_level" json:"proficiency_level"`
	Importance       int    `gorm:"default:5;column:importance" json:"importance"`
}

func (InterestEntry) TableName() string { return "interest_entries" }

type CommunicationPattern struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	CharacterID  uint   `gorm:"index;not null;column:character_id" json:"character_id"`
	PatternType  string `gorm:"not null;column:pattern_type" json:"pattern_type"`
	PatternName  string `gorm:"column:pattern_name" json:"pattern_name"`
	PatternValue string `gorm:"type:text;column:pattern_value" json:"pattern_value"`
	Context      string `gorm:"column:context" json:"context"`
	Frequency    string `gorm:"column:frequency" json:"frequency"`
}

func (CommunicationPattern) TableName() string { return "communication_patterns" }

type SpeechPattern struct {
	ID             uint   `gorm:"primaryKey" json:"id"`
	CharacterID    uint   `gorm:"index;not null;column:character_id" json:"character_id"`
	PatternType    string `gorm:"not null;column:pattern_type" json:"pattern_type"`
	PatternValue   string `gorm:"type:text;column:pattern_value" json:"pattern_value"`
	UsageFrequency string `gorm:"column:usage_frequency" json:"usage_frequency"`
	Context        string `gorm:"column:context" json:"context"`
	Priority       int    `gorm:"default:5;column:priority" json:"priority"`
}

func (SpeechPattern) TableName() string { return "speech_patterns" }

type ResponseGuideline struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	CharacterID uint   `gorm:"index;not null;column:character_id" json:"character_id"`
	ItemType    string `gorm:"not null;column:item_type" json:"item_type"`
	ItemText    string `gorm:"type:text;not null;column:item_text" json:"item_text"`
	SortOrder   int    `gorm:"default:0;column:sort_order" json:"sort_order"`
}

func (ResponseGuideline) TableName() string { return "response_guidelines" }
