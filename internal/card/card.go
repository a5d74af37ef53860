// Package card implements the character card interchange format: a single
// hierarchical YAML document carrying a character's identity, personality,
// background, interests, communication/speech patterns, and response style.
// Parse and Render are pure transforms between document bytes and the
// in-memory Definition; persistence lives elsewhere.
package card

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"
)

// ErrMissingName is returned when the document lacks the one required field.
var ErrMissingName = errors.New("identity.name is required")

type Definition struct {
	Identity              Identity               `yaml:"identity"`
	Personality           *Personality           `yaml:"personality,omitempty"`
	Background            *Background            `yaml:"background,omitempty"`
	Interests             *Interests             `yaml:"interests,omitempty"`
	CommunicationPatterns *CommunicationPatterns `yaml:"communication_patterns,omitempty"`
	SpeechPatterns        *SpeechPatterns        `yaml:"speech_patterns,omitempty"`
	ResponseStyle         *ResponseStyle         `yaml:"response_style,omitempty"`
	Metadata              *Metadata              `yaml:"metadata,omitempty"`
}

type Identity struct {
	Name                       string `yaml:"name"`
	Occupation                 string `yaml:"occupation,omitempty"`
	Description                string `yaml:"description,omitempty"`
	Archetype                  string `yaml:"archetype,omitempty"`
	AllowFullRoleplayImmersion bool   `yaml:"allow_full_roleplay_immersion,omitempty"`
}

type Personality struct {
	BigFive *BigFive `yaml:"big_five,omitempty"`
	Values  []string `yaml:"values,omitempty"`
}

type BigFive struct {
	Openness          int `yaml:"openness"`
	Conscientiousness int `yaml:"conscientiousness"`
	Extraversion      int `yaml:"extraversion"`
	Agreeableness     int `yaml:"agreeableness"`
	Neuroticism       int `yaml:"neuroticism"`
}

type Background struct {
	Entries []BackgroundEntry `yaml:"entries"`
}

type BackgroundEntry struct {
	Category        string `yaml:"category,omitempty"`
	Title           string `yaml:"title,omitempty"`
	Description     string `yaml:"description,omitempty"`
	Period          string `yaml:"period,omitempty"`
	ImportanceLevel int    `yaml:"importance_level,omitempty"`
}

type Interests struct {
	Entries []InterestEntry `yaml:"entries"`
}

type InterestEntry struct {
	Category         string `yaml:"category,omitempty"`
	InterestText     string `yaml:"interest_text"`
	ProficiencyLevel int    `yaml:"proficiency_level,omitempty"`
	Importance       int    `yaml:"importance,omitempty"`
}

type CommunicationPatterns struct {
	Patterns []CommunicationPattern `yaml:"patterns"`
}

type CommunicationPattern struct {
	PatternType  string `yaml:"pattern_type"`
	PatternName  string `yaml:"pattern_name,omitempty"`
	PatternValue string `yaml:"pattern_value,omitempty"`
	Context      string `yaml:"context,omitempty"`
	Frequency    string `yaml:"frequency,omitempty"`
}

type SpeechPatterns struct {
	Patterns []SpeechPattern `yaml:"patterns"`
}

type SpeechPattern struct {
	PatternType    string `yaml:"pattern_type"`
	PatternValue   string `yaml:"pattern_value,omitempty"`
	UsageFrequency string `yaml:"usage_frequency,omitempty"`
	Context        string `yaml:"context,omitempty"`
	Priority       int    `yaml:"priority,omitempty"`
}

type ResponseStyle struct {
	Items []ResponseItem `yaml:"items"`
}

type ResponseItem struct {
	ItemType  string `yaml:"item_type"`
	ItemText  string `yaml:"item_text"`
	SortOrder int    `yaml:"sort_order,omitempty"`
}

type Metadata struct {
	NormalizedName string `yaml:"normalized_name,omitempty"`
}

// Parse decodes a character card. Unknown fields are ignored so newer cards
// still load; every section other than identity.name is optional, and a nil
// section pointer means the section was absent from the document.
func Parse(doc []byte) (*Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(doc, &def); err != nil {
		return nil, fmt.Errorf("decode character card: %w", err)
	}
	if strings.TrimSpace(def.Identity.Name) == "" {
		return nil, ErrMissingName
	}
	def.Identity.Name = strings.TrimSpace(def.Identity.Name)
	return &def, nil
}

// Render serializes a definition back to document form. Sections whose rows
// exist are always emitted, whether or not the original upload carried them.
func Render(def *Definition) ([]byte, error) {
	out, err := yaml.Marshal(def)
	if err != nil {
		return nil, fmt.Errorf("encode character card: %w", err)
	}
	return out, nil
}

// NormalizeName derives the business key from a display name: lowercased,
// with every run of non-alphanumeric characters collapsed to one underscore.
// "Dr. Ana Vega" and "dr ana-vega" collide on purpose.
func NormalizeName(name string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastUnderscore = false
			continue
		}
		if !lastUnderscore && b.Len() > 0 {
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}
