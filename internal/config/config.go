package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"research-assistant-be/internal/constant"
	"research-assistant-be/pkg/apperr"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	SMTP     SMTPConfig
	Ai       AIConfig
	Pipeline PipelineConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	ReviewLogFilePath  string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	FindingsTopic      string
	DistributedLocks   bool
	OtelEnabled        bool
	OtelEndpoint       string
}

type DatabaseConfig struct {
	Driver     string // "postgres" or "sqlite"
	Connection string
}

type SMTPConfig struct {
	Host          string
	Port          int
	Email         string
	Password      string
	SenderName    string
	ReviewerEmail string
}

type AIConfig struct {
	LLMProvider       string
	LLMModel          string
	OllamaBaseURL     string
	HuggingFaceAPIKey string
	GenerationTimeout time.Duration
	RequestsPerSecond float64
}

// PipelineConfig carries thresholds and vocabularies into each component at construction.
type PipelineConfig struct {
	ConfidenceThreshold       float64
	MedicalRelevanceThreshold float64
	MaxShortTermItems         int
	MaxConversationTurns      int
	MemoryCleanupDays         int
	AutoApprovalEnabled       bool
	HighImpactJournals        []string
	SensitiveTerms            []string
	MedicalKeywords           []string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			ReviewLogFilePath:  getEnv("REVIEW_LOG_FILE_PATH", "logs/review.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			FindingsTopic:      getEnv("FINDINGS_TOPIC_NAME", "research.findings"),
			DistributedLocks:   getEnvAsBool("DISTRIBUTED_LOCKS", false),
			OtelEnabled:        getEnvAsBool("OTEL_ENABLED", false),
			OtelEndpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		},
		Database: DatabaseConfig{
			Driver:     getEnv("DB_DRIVER", "postgres"),
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		SMTP: SMTPConfig{
			Host:          getEnv("SMTP_HOST", ""),
			Port:          getEnvAsInt("SMTP_PORT", 587),
			Email:         getEnv("SMTP_EMAIL", ""),
			Password:      getEnv("SMTP_PASSWORD", ""),
			SenderName:    getEnv("SMTP_SENDER_NAME", "Research Assistant"),
			ReviewerEmail: getEnv("REVIEWER_EMAIL", ""),
		},
		Ai: AIConfig{
			LLMProvider:       getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:          getEnv("LLM_MODEL", "llama3"),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			HuggingFaceAPIKey: getEnv("HUGGINGFACE_API_KEY", ""),
			GenerationTimeout: time.Duration(getEnvAsInt("GENERATION_TIMEOUT_SECONDS", 60)) * time.Second,
			RequestsPerSecond: getEnvAsFloat("GENERATION_RPS", 2),
		},
		Pipeline: PipelineConfig{
			ConfidenceThreshold:       getEnvAsFloat("CONFIDENCE_THRESHOLD", constant.DefaultConfidenceThreshold),
			MedicalRelevanceThreshold: getEnvAsFloat("MEDICAL_RELEVANCE_THRESHOLD", constant.DefaultMedicalRelevanceThreshold),
			MaxShortTermItems:         getEnvAsInt("MAX_SHORT_TERM_QUERIES", constant.DefaultMaxShortTermItems),
			MaxConversationTurns:      getEnvAsInt("MAX_CONVERSATION_TURNS", constant.DefaultMaxConversationTurns),
			MemoryCleanupDays:         getEnvAsInt("MEMORY_CLEANUP_DAYS", constant.DefaultMemoryCleanupDays),
			AutoApprovalEnabled:       getEnvAsBool("AUTO_APPROVAL_ENABLED", false),
			HighImpactJournals:        getEnvAsList("HIGH_IMPACT_JOURNALS", constant.DefaultHighImpactJournals),
			SensitiveTerms:            getEnvAsList("SENSITIVE_TERMS", constant.DefaultSensitiveTerms),
			MedicalKeywords:           getEnvAsList("MEDICAL_KEYWORDS", constant.DefaultMedicalKeywords),
		},
	}
}

// DefaultPipeline returns the pipeline configuration with built-in defaults.
func DefaultPipeline() PipelineConfig {
	return PipelineConfig{
		ConfidenceThreshold:       constant.DefaultConfidenceThreshold,
		MedicalRelevanceThreshold: constant.DefaultMedicalRelevanceThreshold,
		MaxShortTermItems:         constant.DefaultMaxShortTermItems,
		MaxConversationTurns:      constant.DefaultMaxConversationTurns,
		MemoryCleanupDays:         constant.DefaultMemoryCleanupDays,
		HighImpactJournals:        constant.DefaultHighImpactJournals,
		SensitiveTerms:            constant.DefaultSensitiveTerms,
		MedicalKeywords:           constant.DefaultMedicalKeywords,
	}
}

// Validate rejects numeric settings outside their meaningful range.
func (p PipelineConfig) Validate() error {
	switch {
	case p.ConfidenceThreshold < 0 || p.ConfidenceThreshold > 1:
		return apperr.Validation("PipelineConfig", "confidence threshold %.2f outside [0,1]", p.ConfidenceThreshold)
	case p.MedicalRelevanceThreshold < 0 || p.MedicalRelevanceThreshold > 1:
		return apperr.Validation("PipelineConfig", "medical relevance threshold %.2f outside [0,1]", p.MedicalRelevanceThreshold)
	case p.MaxShortTermItems < 1:
		return apperr.Validation("PipelineConfig", "max short-term items must be positive, got %d", p.MaxShortTermItems)
	case p.MaxConversationTurns < 1:
		return apperr.Validation("PipelineConfig", "max conversation turns must be positive, got %d", p.MaxConversationTurns)
	case p.MemoryCleanupDays < 0:
		return apperr.Validation("PipelineConfig", "memory cleanup days must not be negative, got %d", p.MemoryCleanupDays)
	}
	return nil
}

func (c *Config) Validate() error {
	if err := c.Pipeline.Validate(); err != nil {
		return err
	}
	if c.Ai.GenerationTimeout <= 0 {
		return apperr.Validation("Config", "generation timeout must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsList(key string, fallback []string) []string {
	strValue := strings.TrimSpace(getEnv(key, ""))
	if strValue == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(strValue, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
