package app

import (
	"time"

	"github.com/personaforge/personaforge/internal/platform/envutil"
	"github.com/personaforge/personaforge/internal/services"
)

type Config struct {
	HTTPAddr      string
	PublicBaseURL string
	DockerBinary  string
	DeployTimeout time.Duration
	Deploy        services.DeployConfig
}

func LoadConfig() Config {
	return Config{
		HTTPAddr:      ":" + envutil.Str("HTTP_PORT", "8080"),
		PublicBaseURL: envutil.Str("PUBLIC_BASE_URL", "http://localhost"),
		DockerBinary:  envutil.Str("DOCKER_BINARY", "docker"),
		DeployTimeout: time.Duration(envutil.Int("DEPLOY_TIMEOUT_SECONDS", 120)) * time.Second,
		Deploy: services.DeployConfig{
			PortRangeStart: envutil.Int("DEPLOY_PORT_RANGE_START", 9090),
			PortRangeEnd:   envutil.Int("DEPLOY_PORT_RANGE_END", 9199),
			Image:          envutil.Str("CHARACTER_IMAGE", "personaforge/character-instance:latest"),
			HealthPort:     envutil.Int("CHARACTER_HEALTH_PORT", 8080),

			PostgresHost:     envutil.Str("POSTGRES_HOST", "localhost"),
			PostgresPort:     envutil.Str("POSTGRES_PORT", "5432"),
			PostgresUser:     envutil.Str("POSTGRES_USER", "postgres"),
			PostgresPassword: envutil.Str("POSTGRES_PASSWORD", ""),
			PostgresName:     envutil.Str("POSTGRES_NAME", "personaforge"),

			QdrantHost:           envutil.Str("QDRANT_HOST", "localhost"),
			QdrantPort:           envutil.Str("QDRANT_PORT", "6333"),
			QdrantCollectionBase: envutil.Str("QDRANT_COLLECTION_BASE", "character_memory"),

			LLMClientType: envutil.Str("LLM_CLIENT_TYPE", "openai"),
			LLMAPIURL:     envutil.Str("LLM_API_URL", "http://localhost:11434/v1"),
			LLMModel:      envutil.Str("LLM_MODEL", "llama3.1"),
			LLMAPIKey:     envutil.Str("LLM_API_KEY", ""),

			MemorySystemType:             envutil.Str("MEMORY_SYSTEM_TYPE", "vector"),
			CharacterIntelligenceEnabled: envutil.Bool("CHARACTER_INTELLIGENCE_ENABLED", true),
			EmotionalIntelligenceEnabled: envutil.Bool("EMOTIONAL_INTELLIGENCE_ENABLED", true),

			TelegramEnabled: envutil.Bool("TELEGRAM_ENABLED", false),
			TelegramToken:   envutil.Str("TELEGRAM_TOKEN", ""),
		},
	}
}
