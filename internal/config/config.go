package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const defaultSystemPrompt = "Je bent een behulpzame business assistent die klanten helpt via WhatsApp. " +
	"Wees vriendelijk, professioneel en to-the-point. " +
	"Geef duidelijke antwoorden en vraag door waar nodig."

const defaultHandoffReply = "Ik zal ervoor zorgen dat een medewerker contact met u opneemt. Bedankt voor uw geduld."

type Config struct {
	Port            string
	LogLevel        string
	PipelineTimeout time.Duration
	HandoffReply    string

	Webhook  WebhookConfig
	WhatsApp WhatsAppConfig
	AI       AIConfig
	Database DatabaseConfig
	History  HistoryConfig
}

type WebhookConfig struct {
	VerifyToken string
	// AppSecret enables X-Hub-Signature-256 verification when set.
	AppSecret string
}

type WhatsAppConfig struct {
	AccessToken        string
	PhoneNumberID      string
	BusinessAccountID  string
	APIVersion         string
	BaseURL            string
	DefaultLanguage    string
	SupportedLanguages []string
	RequestTimeout     time.Duration
}

// Supports reports whether a template language code is enabled.
func (c WhatsAppConfig) Supports(code string) bool {
	for _, lang := range c.SupportedLanguages {
		if strings.EqualFold(lang, code) {
			return true
		}
	}
	return false
}

type AIConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	MaxHistory     int
	MaxTokens      int
	SystemPrompt   string
	RequestTimeout time.Duration
}

type DatabaseConfig struct {
	Driver   string // sqlite or postgres
	Path     string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type HistoryConfig struct {
	Backend       string // database or redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	TTL           time.Duration
}

func LoadConfig() *Config {
	err := godotenv.Load()
	if err != nil {
		log.Println("Warning: Error loading .env file")
	}

	return &Config{
		Port:            getEnv("PORT", "8080"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		PipelineTimeout: getEnvAsDuration("PIPELINE_TIMEOUT", 60*time.Second),
		HandoffReply:    getEnv("HANDOFF_REPLY", defaultHandoffReply),
		Webhook: WebhookConfig{
			VerifyToken: getEnv("WHATSAPP_WEBHOOK_VERIFY_TOKEN", ""),
			AppSecret:   getEnv("WHATSAPP_APP_SECRET", ""),
		},
		WhatsApp: WhatsAppConfig{
			AccessToken:        getEnv("WHATSAPP_ACCESS_TOKEN", ""),
			PhoneNumberID:      getEnv("WHATSAPP_PHONE_NUMBER_ID", ""),
			BusinessAccountID:  getEnv("WABA_ID", ""),
			APIVersion:         getEnv("WHATSAPP_API_VERSION", "v18.0"),
			BaseURL:            getEnv("WHATSAPP_API_BASE", "https://graph.facebook.com"),
			DefaultLanguage:    getEnv("DEFAULT_LANGUAGE", "nl"),
			SupportedLanguages: getEnvAsList("SUPPORTED_LANGUAGES", []string{"nl", "en"}),
			RequestTimeout:     getEnvAsDuration("WHATSAPP_REQUEST_TIMEOUT", 15*time.Second),
		},
		AI: AIConfig{
			APIKey:         getEnv("DEEPSEEK_API_KEY", ""),
			BaseURL:        getEnv("DEEPSEEK_API_URL", "https://api.deepseek.com"),
			Model:          getEnv("DEEPSEEK_MODEL", "deepseek-chat"),
			MaxHistory:     getEnvAsInt("AI_MAX_HISTORY", 10),
			MaxTokens:      getEnvAsInt("AI_MAX_TOKENS", 2000),
			SystemPrompt:   getEnv("AI_SYSTEM_PROMPT", defaultSystemPrompt),
			RequestTimeout: getEnvAsDuration("AI_REQUEST_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			Driver:   strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
			Path:     getEnv("DB_PATH", "./waviate.db"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "waviate"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		History: HistoryConfig{
			Backend:       strings.ToLower(getEnv("HISTORY_BACKEND", "database")),
			RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       getEnvAsInt("REDIS_DB", 0),
			TTL:           getEnvAsDuration("HISTORY_TTL", 24*time.Hour),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	value, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return value
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	value, err := time.ParseDuration(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return value
}

func getEnvAsList(key string, fallback []string) []string {
	raw := strings.TrimSpace(getEnv(key, ""))
	if raw == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
