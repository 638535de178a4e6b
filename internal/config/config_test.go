package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("AI_MAX_HISTORY", "")
	t.Setenv("SUPPORTED_LANGUAGES", "")
	t.Setenv("DEEPSEEK_MODEL", "deepseek-chat")

	cfg := LoadConfig()

	assert.Equal(t, 10, cfg.AI.MaxHistory)
	assert.Equal(t, 2000, cfg.AI.MaxTokens)
	assert.Equal(t, "deepseek-chat", cfg.AI.Model)
	assert.Equal(t, "v18.0", cfg.WhatsApp.APIVersion)
	assert.Equal(t, []string{"nl", "en"}, cfg.WhatsApp.SupportedLanguages)
	assert.NotEmpty(t, cfg.AI.SystemPrompt)
	assert.NotEmpty(t, cfg.HandoffReply)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("AI_MAX_HISTORY", "4")
	t.Setenv("AI_MAX_TOKENS", "not-a-number")
	t.Setenv("PIPELINE_TIMEOUT", "5s")
	t.Setenv("SUPPORTED_LANGUAGES", " en , de ,,")
	t.Setenv("DB_DRIVER", "Postgres")
	t.Setenv("HISTORY_BACKEND", "REDIS")

	cfg := LoadConfig()

	assert.Equal(t, 4, cfg.AI.MaxHistory)
	assert.Equal(t, 2000, cfg.AI.MaxTokens, "invalid ints fall back to the default")
	assert.Equal(t, 5*time.Second, cfg.PipelineTimeout)
	assert.Equal(t, []string{"en", "de"}, cfg.WhatsApp.SupportedLanguages)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "redis", cfg.History.Backend)
}

func TestWhatsAppConfigSupports(t *testing.T) {
	cfg := WhatsAppConfig{SupportedLanguages: []string{"nl", "en"}}

	assert.True(t, cfg.Supports("nl"))
	assert.True(t, cfg.Supports("EN"))
	assert.False(t, cfg.Supports("fr"))
	assert.False(t, cfg.Supports(""))
}
