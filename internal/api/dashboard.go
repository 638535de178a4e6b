package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jomarcello/Waviate/internal/config"
	"github.com/jomarcello/Waviate/internal/database"
	"github.com/jomarcello/Waviate/internal/logger"
	"github.com/jomarcello/Waviate/internal/models"
)

const (
	defaultMessageLimit = 50
	maxMessageLimit     = 500
)

// Sender delivers operator-initiated messages. *relay.Pipeline implements it.
type Sender interface {
	SendText(ctx context.Context, to, body string) (string, error)
	SendTemplate(ctx context.Context, to, name, languageCode string, params []string) (string, error)
}

// Store is the read side of the conversation store. *database.Store implements it.
type Store interface {
	ListMessages(ctx context.Context, limit int) ([]models.Message, error)
	ListLeads(ctx context.Context) ([]database.LeadSummary, error)
	LeadConversation(ctx context.Context, phone string) (*models.Lead, *models.Conversation, error)
}

type DashboardHandler struct {
	sender   Sender
	store    Store
	whatsapp config.WhatsAppConfig
	log      logger.Logger
}

func NewDashboardHandler(sender Sender, store Store, cfg config.WhatsAppConfig, log logger.Logger) *DashboardHandler {
	if log == nil {
		log = logger.NopLogger()
	}
	return &DashboardHandler{sender: sender, store: store, whatsapp: cfg, log: log}
}

func (h *DashboardHandler) GetMessages(c *gin.Context) {
	limit := defaultMessageLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = min(n, maxMessageLimit)
	}

	messages, err := h.store.ListMessages(c.Request.Context(), limit)
	if err != nil {
		h.log.Errorw("failed to list messages", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load messages"})
		return
	}

	c.JSON(http.StatusOK, messages)
}

type SendRequest struct {
	To      string `json:"to" binding:"required"`
	Content string `json:"content" binding:"required"`
}

func (h *DashboardHandler) SendMessage(c *gin.Context) {
	var req SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, err := h.sender.SendText(c.Request.Context(), req.To, req.Content)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send message: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "Message sent", "message_id": id})
}

type SendTemplateRequest struct {
	PhoneNumber  string   `json:"phone_number" binding:"required"`
	TemplateName string   `json:"template_name" binding:"required"`
	Language     string   `json:"language"`
	Parameters   []string `json:"parameters"`
}

func (h *DashboardHandler) SendTemplate(c *gin.Context) {
	var req SendTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	lang, ok := resolveLanguage(h.whatsapp, req.Language)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported language: " + req.Language})
		return
	}

	id, err := h.sender.SendTemplate(c.Request.Context(), req.PhoneNumber, req.TemplateName, lang, req.Parameters)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send template: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "Template sent", "message_id": id, "language": lang})
}

// resolveLanguage falls back to the default language and rejects codes that are not enabled.
func resolveLanguage(cfg config.WhatsAppConfig, code string) (string, bool) {
	code = strings.TrimSpace(code)
	if code == "" {
		code = cfg.DefaultLanguage
	}
	return code, cfg.Supports(code)
}
