package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jomarcello/Waviate/internal/config"
	"github.com/jomarcello/Waviate/internal/logger"
	"github.com/jomarcello/Waviate/internal/whatsapp"
)

// TemplateLister lists the templates approved for the business account.
type TemplateLister interface {
	ListTemplates(ctx context.Context) ([]whatsapp.Template, error)
}

type BroadcastHandler struct {
	sender    Sender
	templates TemplateLister
	whatsapp  config.WhatsAppConfig
	log       logger.Logger
}

func NewBroadcastHandler(sender Sender, templates TemplateLister, cfg config.WhatsAppConfig, log logger.Logger) *BroadcastHandler {
	if log == nil {
		log = logger.NopLogger()
	}
	return &BroadcastHandler{sender: sender, templates: templates, whatsapp: cfg, log: log}
}

// GetTemplates returns templates straight from Meta.
func (h *BroadcastHandler) GetTemplates(c *gin.Context) {
	if h.whatsapp.BusinessAccountID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "WABA_ID not configured"})
		return
	}

	templates, err := h.templates.ListTemplates(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch templates from Meta: " + err.Error()})
		return
	}
	if templates == nil {
		templates = []whatsapp.Template{}
	}
	c.JSON(http.StatusOK, templates)
}

type BroadcastRequest struct {
	TemplateName string   `json:"template_name" binding:"required"`
	Language     string   `json:"language"`
	Contacts     []string `json:"contacts" binding:"required"`
	Parameters   []string `json:"parameters"`
}

// SendBroadcast sends one template to every contact in order, continuing past failures.
func (h *BroadcastHandler) SendBroadcast(c *gin.Context) {
	var req BroadcastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	lang, ok := resolveLanguage(h.whatsapp, req.Language)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported language: " + req.Language})
		return
	}

	successCount := 0
	failed := []string{}
	for _, to := range req.Contacts {
		if _, err := h.sender.SendTemplate(c.Request.Context(), to, req.TemplateName, lang, req.Parameters); err != nil {
			h.log.Warnw("broadcast send failed", "to", to, "template", req.TemplateName, "error", err)
			failed = append(failed, to)
			continue
		}
		successCount++
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "Broadcast processed",
		"sent_to": successCount,
		"total":   len(req.Contacts),
		"failed":  failed,
	})
}
